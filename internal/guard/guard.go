// Package guard keeps unauthorized members out of the monitored voice channel.
package guard

import (
	"context"
	"fmt"

	"github.com/rndmzd/hallmonitor/internal/dispatcher"
	"github.com/rndmzd/hallmonitor/internal/logging"
	"github.com/rndmzd/hallmonitor/internal/metrics"
	"github.com/rndmzd/hallmonitor/internal/state"
)

// VoiceStateChange is a member moving between voice channels. Empty channel
// ids mean "not connected".
type VoiceStateChange struct {
	UserID  string
	GuildID string
	Before  string
	After   string
}

type Config struct {
	OwnerID            string
	GuildID            string
	MonitoredChannel   string
	DestinationChannel string
	NotifyUser         bool
}

type Outcome uint8

const (
	Ignored Outcome = iota
	Permitted
	Moved
	Failed
)

type ChannelGuard struct {
	cfg     Config
	allow   *state.AllowList
	actions dispatcher.Actions
	audit   logging.Auditor
}

func New(cfg Config, allow *state.AllowList, actions dispatcher.Actions, audit logging.Auditor) *ChannelGuard {
	return &ChannelGuard{
		cfg:     cfg,
		allow:   allow,
		actions: actions,
		audit:   audit,
	}
}

// HandleVoiceStateChange moves an unauthorized joiner of the monitored
// channel to the destination channel.
func (g *ChannelGuard) HandleVoiceStateChange(ctx context.Context, ev VoiceStateChange) Outcome {
	if g.cfg.MonitoredChannel == "" || ev.Before == ev.After || ev.After != g.cfg.MonitoredChannel {
		return Ignored
	}
	if (g.cfg.OwnerID != "" && ev.UserID == g.cfg.OwnerID) || g.allow.Contains(ev.UserID) {
		return Permitted
	}

	guildID := ev.GuildID
	if guildID == "" {
		guildID = g.cfg.GuildID
	}

	if err := g.actions.ResolveChannel(ctx, g.cfg.DestinationChannel); err != nil {
		if dispatcher.IsNotFound(err) {
			g.audit.Log(ctx, logging.EventError, ev.UserID, "Removal destination channel not found")
		} else {
			g.audit.Log(ctx, logging.EventError, ev.UserID, fmt.Sprintf("Failed to resolve removal destination: %v", err))
		}
		return Failed
	}

	if err := g.actions.MoveUser(ctx, guildID, ev.UserID, g.cfg.DestinationChannel); err != nil {
		metrics.IncActionFailure("move")
		if dispatcher.IsPermissionDenied(err) {
			g.audit.Log(ctx, logging.EventError, ev.UserID, "Failed to move user - Missing permissions")
		} else {
			g.audit.Log(ctx, logging.EventError, ev.UserID, fmt.Sprintf("Failed to move user: %v", err))
		}
		return Failed
	}

	metrics.IncChannelEnforcement()
	g.audit.Log(ctx, logging.EventChannelEnforcement, ev.UserID, "Unauthorized user moved from monitored channel")

	if g.cfg.NotifyUser {
		if err := g.actions.SendDirectMessage(ctx, ev.UserID,
			"You are not authorized to join that voice channel and have been moved."); err != nil {
			logging.Debug("DM to %s not delivered: %v", ev.UserID, err)
		}
	}
	return Moved
}
