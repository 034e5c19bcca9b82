package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Actions are the enforcement primitives the bot requests of the platform.
type Actions interface {
	MoveUser(ctx context.Context, guildID, userID, channelID string) error
	SendDirectMessage(ctx context.Context, userID, text string) error
	ApplyTimeout(ctx context.Context, guildID, userID string, d time.Duration, reason string) error
	BanUser(ctx context.Context, guildID, userID, reason string, purgeDays int) error
	ResolveChannel(ctx context.Context, channelID string) error
}

// restClient is the subset of *discordgo.Session the dispatcher calls.
type restClient interface {
	GuildMemberMove(guildID string, userID string, channelID *string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMemberTimeout(guildID string, userID string, until *time.Time, options ...discordgo.RequestOption) error
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Discord executes actions through the discordgo REST client.
type Discord struct {
	rest  restClient
	state *discordgo.State
	now   func() time.Time
}

func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{
		rest:  s,
		state: s.State,
		now:   time.Now,
	}
}

func (d *Discord) MoveUser(ctx context.Context, guildID, userID, channelID string) error {
	dest := channelID
	if err := d.rest.GuildMemberMove(guildID, userID, &dest, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to move user %s: %w", userID, classify(err))
	}
	return nil
}

func (d *Discord) SendDirectMessage(ctx context.Context, userID, text string) error {
	ch, err := d.rest.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel for %s: %w", userID, classify(err))
	}

	if _, err := d.rest.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM to %s: %w", userID, classify(err))
	}
	return nil
}

func (d *Discord) ApplyTimeout(ctx context.Context, guildID, userID string, dur time.Duration, reason string) error {
	until := d.now().Add(dur)
	err := d.rest.GuildMemberTimeout(guildID, userID, &until,
		discordgo.WithContext(ctx),
		discordgo.WithAuditLogReason(reason),
	)
	if err != nil {
		return fmt.Errorf("failed to timeout user %s: %w", userID, classify(err))
	}
	return nil
}

func (d *Discord) BanUser(ctx context.Context, guildID, userID, reason string, purgeDays int) error {
	err := d.rest.GuildBanCreateWithReason(guildID, userID, reason, purgeDays, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ban user %s: %w", userID, classify(err))
	}
	return nil
}

// ResolveChannel checks the state cache first and falls back to REST.
func (d *Discord) ResolveChannel(ctx context.Context, channelID string) error {
	if d.state != nil {
		if _, err := d.state.Channel(channelID); err == nil {
			return nil
		}
	}

	if _, err := d.rest.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to resolve channel %s: %w", channelID, classify(err))
	}
	return nil
}
