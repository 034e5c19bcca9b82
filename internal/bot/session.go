package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rndmzd/hallmonitor/internal/logging"
)

// Intents covers voice tracking, membership changes and text commands.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

type Session struct {
	discord *discordgo.Session
	BotID   string
}

// New creates a Discord session; no connection is opened.
func New(token string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.Identify.Intents = Intents
	dg.StateEnabled = true

	return &Session{discord: dg}, nil
}

// Discord returns the underlying discordgo session
func (s *Session) Discord() *discordgo.Session {
	return s.discord
}

// Connect opens the Discord websocket connection
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if s.discord.State != nil && s.discord.State.User != nil {
		s.BotID = s.discord.State.User.ID
		logging.Info("Bot ID: %s", s.BotID)
	}

	logging.Info("Discord bot connected successfully")
	return nil
}

func (s *Session) Close() error {
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}

func (s *Session) HeartbeatLatency() time.Duration {
	return s.discord.HeartbeatLatency()
}

// AddHandler adds an event handler to the Discord session
func (s *Session) AddHandler(handler interface{}) func() {
	return s.discord.AddHandler(handler)
}
