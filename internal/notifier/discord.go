package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ChannelSender is the subset of *discordgo.Session used to post messages.
type ChannelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelNotifier mirrors log lines into an operator-visible Discord channel.
type ChannelNotifier struct {
	sender    ChannelSender
	channelID string
}

func NewChannelNotifier(sender ChannelSender, channelID string) *ChannelNotifier {
	return &ChannelNotifier{
		sender:    sender,
		channelID: channelID,
	}
}

// Enabled reports whether a log channel is configured
func (n *ChannelNotifier) Enabled() bool {
	return n != nil && n.sender != nil && n.channelID != ""
}

// Send posts a log line as a code block
func (n *ChannelNotifier) Send(ctx context.Context, line string) error {
	if !n.Enabled() {
		return errors.New("log channel not configured")
	}

	_, err := n.sender.ChannelMessageSend(n.channelID, FormatLogBlock(line), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to mirror log line to channel %s: %w", n.channelID, err)
	}
	return nil
}

// FormatLogBlock wraps a line in a Discord code block
func FormatLogBlock(line string) string {
	return fmt.Sprintf("```\n%s\n```", line)
}
