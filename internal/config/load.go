package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const DefaultPath = "config.json"

type Config struct {
	Bot      BotConfig      `json:"bot"`
	Channels ChannelsConfig `json:"channels"`
	Users    UsersConfig    `json:"users"`
	Security SecurityConfig `json:"security"`
	General  GeneralConfig  `json:"general"`
}

type BotConfig struct {
	Token         string `json:"token" validate:"required"`
	CommandPrefix string `json:"command_prefix" validate:"required,max=8"`
}

type ChannelsConfig struct {
	GuildID            string `json:"guild_id" validate:"omitempty,numeric"`
	Monitored          string `json:"monitored" validate:"required,numeric"`
	RemovalDestination string `json:"removal_destination" validate:"required,numeric,nefield=Monitored"`
	LogChannelID       string `json:"log_channel_id" validate:"omitempty,numeric"`
}

type UsersConfig struct {
	Owner   string   `json:"owner" validate:"required,numeric"`
	Allowed []string `json:"allowed" validate:"dive,numeric"`
}

type SecurityConfig struct {
	MaxFailedAttempts int `json:"max_failed_attempts" validate:"gte=4"`
	// LockoutDuration is in seconds.
	LockoutDuration      int              `json:"lockout_duration" validate:"gt=0"`
	NotifyOnUnauthorized bool             `json:"notify_on_unauthorized"`
	AttemptWindowHours   int              `json:"attempt_window_hours" validate:"gt=0"`
	Escalation           []EscalationStep `json:"escalation" validate:"dive"`
}

type EscalationStep struct {
	Level          int    `json:"level" validate:"gt=0"`
	Threshold      int    `json:"threshold" validate:"gt=0"`
	TimeoutMinutes int    `json:"timeout_minutes" validate:"gte=0"`
	Action         string `json:"action" validate:"oneof=warn timeout long_timeout ban"`
}

type GeneralConfig struct {
	LogFile      string `json:"log_file"`
	Debug        bool   `json:"debug"`
	DatabasePath string `json:"database_path"`
	MetricsAddr  string `json:"metrics_addr" validate:"omitempty,hostname_port"`
}

var validate = validator.New()

// Load reads a JSON config file on top of DefaultConfig, applies a .env file
// and environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if dbPath := os.Getenv("HALLMONITOR_DATABASE_PATH"); dbPath != "" {
		cfg.General.DatabasePath = dbPath
	}
}

// Validate checks field constraints and the escalation table.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, formatValidationError(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := c.EscalationRules(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func formatValidationError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "numeric":
		return fmt.Sprintf("%s must be a numeric id", field)
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			CommandPrefix: "!",
		},
		Security: SecurityConfig{
			MaxFailedAttempts:    5,
			LockoutDuration:      900,
			NotifyOnUnauthorized: true,
			AttemptWindowHours:   24,
		},
		General: GeneralConfig{
			LogFile: "security.log",
		},
	}
}
