package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rndmzd/hallmonitor/internal/logging"
	"github.com/rndmzd/hallmonitor/internal/notifier"
	"github.com/rndmzd/hallmonitor/internal/security"
	"github.com/rndmzd/hallmonitor/internal/state"
)

// Responder posts command replies.
type Responder interface {
	Reply(ctx context.Context, channelID, text string) error
}

// LatencySource reports gateway heartbeat latency. *discordgo.Session
// satisfies it.
type LatencySource interface {
	HeartbeatLatency() time.Duration
}

type Deps struct {
	Prefix     string
	Authorizer *security.Authorizer
	Engine     *security.Engine
	AllowList  *state.AllowList
	Audit      logging.Auditor
	Responder  Responder
	Latency    LatencySource
	// Stats defaults to gopsutil collection.
	Stats func(ctx context.Context) *SystemStats
}

// Handler routes text commands through the authorization gate.
type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.Prefix == "" {
		deps.Prefix = DefaultPrefix
	}
	if deps.Stats == nil {
		deps.Stats = func(ctx context.Context) *SystemStats {
			var latency time.Duration
			if deps.Latency != nil {
				latency = deps.Latency.HeartbeatLatency()
			}
			return gatherSystemStats(ctx, latency)
		}
	}
	return &Handler{deps: deps}
}

func (h *Handler) Prefix() string {
	return h.deps.Prefix
}

// HandleMessage parses content and runs the command, if any. It reports
// whether the message was a known command.
func (h *Handler) HandleMessage(ctx context.Context, authorID, guildID, channelID, content string) bool {
	name, args, ok := Parse(h.deps.Prefix, content)
	if !ok {
		return false
	}
	if _, known := Lookup(name); !known {
		logging.Debug("Ignoring unknown command %q from %s", name, authorID)
		return false
	}

	inv := Invocation{
		AuthorID:  authorID,
		GuildID:   guildID,
		ChannelID: channelID,
		Name:      name,
		Args:      args,
	}
	if err := h.Handle(ctx, inv); err != nil {
		logging.Error("Command error [%s]: %v", name, err)
	}
	return true
}

// Handle authorizes and executes a parsed invocation.
func (h *Handler) Handle(ctx context.Context, inv Invocation) error {
	cmd, ok := Lookup(inv.Name)
	if !ok {
		return fmt.Errorf("unknown command: %s", inv.Name)
	}

	if !cmd.Public {
		allowed := h.deps.Authorizer.Check(ctx, security.Attempt{
			UserID:  inv.AuthorID,
			GuildID: inv.GuildID,
			Command: cmd.Name,
		})
		if !allowed {
			return nil
		}
	}

	switch cmd.Name {
	case "allow":
		return h.handleAllow(ctx, inv)
	case "remove":
		return h.handleRemove(ctx, inv)
	case "listallowed":
		return h.handleListAllowed(ctx, inv)
	case "securitystatus":
		return h.handleSecurityStatus(ctx, inv)
	case "stats":
		return h.handleStats(ctx, inv)
	case "ping":
		return h.handlePing(ctx, inv)
	}
	return fmt.Errorf("command %s has no handler", cmd.Name)
}

func (h *Handler) reply(ctx context.Context, inv Invocation, text string) error {
	if err := h.deps.Responder.Reply(ctx, inv.ChannelID, text); err != nil {
		return fmt.Errorf("failed to reply in channel %s: %w", inv.ChannelID, err)
	}
	return nil
}

func (h *Handler) usage(ctx context.Context, inv Invocation) error {
	cmd, _ := Lookup(inv.Name)
	return h.reply(ctx, inv, fmt.Sprintf("Usage: %s%s", h.deps.Prefix, cmd.Usage))
}

// ChannelResponder replies in the invoking channel through discordgo.
type ChannelResponder struct {
	sender notifier.ChannelSender
}

func NewChannelResponder(sender notifier.ChannelSender) *ChannelResponder {
	return &ChannelResponder{sender: sender}
}

func (r *ChannelResponder) Reply(ctx context.Context, channelID, text string) error {
	_, err := r.sender.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}
