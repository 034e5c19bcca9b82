package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rndmzd/hallmonitor/internal/commands"
	"github.com/rndmzd/hallmonitor/internal/guard"
	"github.com/rndmzd/hallmonitor/internal/logging"
	"github.com/rndmzd/hallmonitor/internal/security"
)

const eventTimeout = 15 * time.Second

// Router turns gateway events into guard, command and engine calls.
type Router struct {
	ctx      context.Context
	guildID  string
	guard    *guard.ChannelGuard
	commands *commands.Handler
	engine   *security.Engine
	audit    logging.Auditor
}

// NewRouter builds a router. Events from guilds other than guildID are
// ignored when guildID is set. ctx bounds every handler.
func NewRouter(ctx context.Context, guildID string, g *guard.ChannelGuard, h *commands.Handler, e *security.Engine, audit logging.Auditor) *Router {
	return &Router{
		ctx:      ctx,
		guildID:  guildID,
		guard:    g,
		commands: h,
		engine:   e,
		audit:    audit,
	}
}

// SetupEventHandlers registers the router on the session
func (s *Session) SetupEventHandlers(r *Router) {
	logging.Info("Setting up Discord event handlers...")

	s.discord.AddHandler(func(_ *discordgo.Session, ev *discordgo.Ready) {
		r.OnReady(ev)
	})
	s.discord.AddHandler(func(_ *discordgo.Session, ev *discordgo.VoiceStateUpdate) {
		r.OnVoiceStateUpdate(ev)
	})
	s.discord.AddHandler(func(sess *discordgo.Session, ev *discordgo.MessageCreate) {
		botID := ""
		if sess.State != nil && sess.State.User != nil {
			botID = sess.State.User.ID
		}
		r.OnMessageCreate(botID, ev)
	})
	s.discord.AddHandler(func(_ *discordgo.Session, ev *discordgo.GuildMemberRemove) {
		r.OnGuildMemberRemove(ev)
	})
}

func (r *Router) eventContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.ctx, eventTimeout)
}

func (r *Router) foreignGuild(guildID string) bool {
	return r.guildID != "" && guildID != "" && guildID != r.guildID
}

func (r *Router) OnReady(ev *discordgo.Ready) {
	if ev == nil || ev.User == nil {
		return
	}
	logging.Info("Bot ready! Connected as %s", ev.User.Username)

	ctx, cancel := r.eventContext()
	defer cancel()
	r.audit.Log(ctx, logging.EventStartup, ev.User.ID, "Bot initialized")
}

func (r *Router) OnVoiceStateUpdate(ev *discordgo.VoiceStateUpdate) {
	change, ok := VoiceChange(ev)
	if !ok || r.foreignGuild(change.GuildID) {
		return
	}

	ctx, cancel := r.eventContext()
	defer cancel()
	r.guard.HandleVoiceStateChange(ctx, change)
}

func (r *Router) OnMessageCreate(botID string, ev *discordgo.MessageCreate) {
	if ev == nil || ev.Message == nil || ev.Author == nil {
		return
	}
	if ev.Author.Bot || ev.Author.ID == botID || r.foreignGuild(ev.GuildID) {
		return
	}

	ctx, cancel := r.eventContext()
	defer cancel()
	r.commands.HandleMessage(ctx, ev.Author.ID, ev.GuildID, ev.ChannelID, ev.Content)
}

// OnGuildMemberRemove drops any restriction held by a departing member.
func (r *Router) OnGuildMemberRemove(ev *discordgo.GuildMemberRemove) {
	if ev == nil || ev.Member == nil || ev.User == nil || r.foreignGuild(ev.GuildID) {
		return
	}
	r.engine.ClearRestriction(ev.User.ID)
	logging.Debug("Cleared restriction for departed member %s", ev.User.ID)
}

// VoiceChange converts a gateway voice update. Before is empty when the
// previous state is unknown.
func VoiceChange(ev *discordgo.VoiceStateUpdate) (guard.VoiceStateChange, bool) {
	if ev == nil || ev.VoiceState == nil || ev.UserID == "" {
		return guard.VoiceStateChange{}, false
	}

	change := guard.VoiceStateChange{
		UserID:  ev.UserID,
		GuildID: ev.GuildID,
		After:   ev.ChannelID,
	}
	if ev.BeforeUpdate != nil {
		change.Before = ev.BeforeUpdate.ChannelID
	}
	return change, true
}
