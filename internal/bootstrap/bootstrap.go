package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rndmzd/hallmonitor/internal/bot"
	"github.com/rndmzd/hallmonitor/internal/commands"
	"github.com/rndmzd/hallmonitor/internal/config"
	"github.com/rndmzd/hallmonitor/internal/database"
	"github.com/rndmzd/hallmonitor/internal/logging"
	"github.com/rndmzd/hallmonitor/internal/metrics"
	"github.com/rndmzd/hallmonitor/internal/security"
	"github.com/rndmzd/hallmonitor/internal/state"
	"github.com/rndmzd/hallmonitor/internal/watchdog"
)

type Bootstrap struct {
	Config      *config.Config
	Components  *Components
	initialized bool
}

type Components struct {
	Session *bot.Session
	// DB is nil when no database path is configured.
	DB        *database.Database
	Events    *logging.EventLogger
	AllowList *state.AllowList
	Engine    *security.Engine
	Commands  *commands.Handler
	Router    *bot.Router

	Watchdog *watchdog.Watchdog
	Registry *prometheus.Registry
	Metrics  *metrics.Server
}

func New(cfg *config.Config) *Bootstrap {
	return &Bootstrap{Config: cfg}
}

// Initialize sets up logging and wires every component without touching the network.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	if b.Config == nil {
		return fmt.Errorf("bootstrap requires a config")
	}

	if err := b.initializeLogging(); err != nil {
		return fmt.Errorf("logging init failed: %w", err)
	}

	if err := Wire(ctx, b); err != nil {
		if b.Components != nil {
			_ = Shutdown(context.Background(), b.Components)
		}
		return fmt.Errorf("component wiring failed: %w", err)
	}

	b.initialized = true
	logging.Info("Bootstrap complete")
	return nil
}

func (b *Bootstrap) initializeLogging() error {
	level := logging.LevelInfo
	if b.Config.General.Debug {
		level = logging.LevelDebug
	}
	return logging.InitGlobalLogger(level, b.Config.General.LogFile)
}

func (b *Bootstrap) Start() error {
	if !b.initialized {
		return fmt.Errorf("bootstrap not initialized")
	}

	return StartAll(b.Components)
}

func (b *Bootstrap) Shutdown(ctx context.Context) error {
	if b.Components == nil {
		return nil
	}
	return Shutdown(ctx, b.Components)
}
