package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rndmzd/hallmonitor/internal/bot"
	"github.com/rndmzd/hallmonitor/internal/commands"
	"github.com/rndmzd/hallmonitor/internal/database"
	"github.com/rndmzd/hallmonitor/internal/dispatcher"
	"github.com/rndmzd/hallmonitor/internal/guard"
	"github.com/rndmzd/hallmonitor/internal/logging"
	"github.com/rndmzd/hallmonitor/internal/metrics"
	"github.com/rndmzd/hallmonitor/internal/notifier"
	"github.com/rndmzd/hallmonitor/internal/security"
	"github.com/rndmzd/hallmonitor/internal/state"
	"github.com/rndmzd/hallmonitor/internal/watchdog"
)

func Wire(ctx context.Context, b *Bootstrap) error {
	logging.Info("Wiring components...")
	cfg := b.Config
	c := &Components{}
	b.Components = c

	session, err := bot.New(cfg.Bot.Token)
	if err != nil {
		return err
	}
	c.Session = session

	var events logging.EventStore
	var allowStore state.AllowListStore
	if path := cfg.General.DatabasePath; path != "" {
		db, err := database.Open(path)
		if err != nil {
			return err
		}
		c.DB = db
		events = db
		allowStore = db
		logging.Info("Database opened at %s", path)
	}

	var mirror logging.Mirror
	if cfg.Channels.LogChannelID != "" {
		mirror = notifier.NewChannelNotifier(session.Discord(), cfg.Channels.LogChannelID)
	}
	c.Events = logging.NewEventLogger(logging.GlobalLogger, events, mirror)

	c.AllowList = state.NewAllowList(cfg.Users.Allowed, allowStore)
	loaded, err := c.AllowList.Load(ctx)
	if err != nil {
		return err
	}
	logging.Info("Allow list ready with %d users (%d from database)", c.AllowList.Len(), loaded)

	rules, err := cfg.EscalationRules()
	if err != nil {
		return fmt.Errorf("failed to build escalation rules: %w", err)
	}

	actions := dispatcher.NewDiscord(session.Discord())
	c.Engine = security.NewEngine(security.EngineConfig{
		Rules:      rules,
		Window:     cfg.AttemptWindow(),
		NotifyUser: cfg.Security.NotifyOnUnauthorized,
		GuildID:    cfg.Channels.GuildID,
	}, actions, c.Events)

	authorizer := security.NewAuthorizer(cfg.Users.Owner, c.AllowList, c.Engine, c.Events)

	channelGuard := guard.New(guard.Config{
		OwnerID:            cfg.Users.Owner,
		GuildID:            cfg.Channels.GuildID,
		MonitoredChannel:   cfg.Channels.Monitored,
		DestinationChannel: cfg.Channels.RemovalDestination,
		NotifyUser:         cfg.Security.NotifyOnUnauthorized,
	}, c.AllowList, actions, c.Events)

	c.Commands = commands.NewHandler(commands.Deps{
		Prefix:     cfg.Bot.CommandPrefix,
		Authorizer: authorizer,
		Engine:     c.Engine,
		AllowList:  c.AllowList,
		Audit:      c.Events,
		Responder:  commands.NewChannelResponder(session.Discord()),
		Latency:    session,
	})

	c.Router = bot.NewRouter(ctx, cfg.Channels.GuildID, channelGuard, c.Commands, c.Engine, c.Events)
	session.SetupEventHandlers(c.Router)

	c.Watchdog = watchdog.NewWatchdog()
	if err := c.Watchdog.AddJob("sweep", watchdog.SweepSpec, watchdog.SweepJob(c.Engine)); err != nil {
		return err
	}
	if err := c.Watchdog.AddJob("gateway_latency", watchdog.LatencySpec,
		watchdog.LatencyJob(session, watchdog.DefaultLatencyThreshold)); err != nil {
		return err
	}

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(c.Registry)
	if cfg.General.MetricsAddr != "" {
		c.Metrics = metrics.NewServer(cfg.General.MetricsAddr, c.Registry)
	}

	logging.Info("Component wiring complete")
	return nil
}

func StartAll(c *Components) error {
	logging.Info("Starting components...")

	if err := c.Session.Connect(); err != nil {
		return fmt.Errorf("gateway connection failed: %w", err)
	}

	c.Watchdog.Start()
	logging.Info("Watchdog started")

	if c.Metrics != nil {
		c.Metrics.Start()
	}

	logging.Info("All components started")
	return nil
}
