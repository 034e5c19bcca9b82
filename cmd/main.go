package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rndmzd/hallmonitor/internal/bootstrap"
	"github.com/rndmzd/hallmonitor/internal/config"
	"github.com/rndmzd/hallmonitor/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "hallmonitor",
		Short:         "Voice channel guard and escalation bot for Discord",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the JSON config file")
	root.SetOut(out)

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and guard the monitored channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the config file and print the escalation table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), cfg)
		},
	})

	return root
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bootstrap.New(cfg)
	if err := b.Initialize(ctx); err != nil {
		return err
	}

	shutdown := func() error {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return b.Shutdown(sctx)
	}

	if err := b.Start(); err != nil {
		_ = shutdown()
		return err
	}

	logging.Info("Monitoring voice channel %s, prefix %q", cfg.Channels.Monitored, cfg.Bot.CommandPrefix)
	<-ctx.Done()
	logging.Info("Shutdown signal received")

	err := shutdown()
	_ = logging.GlobalLogger.Close()
	return err
}

func printSummary(w io.Writer, cfg *config.Config) error {
	rules, err := cfg.EscalationRules()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "monitored channel: %s -> %s\n", cfg.Channels.Monitored, cfg.Channels.RemovalDestination)
	fmt.Fprintf(w, "owner: %s, allowed users: %d\n", cfg.Users.Owner, len(cfg.Users.Allowed))
	fmt.Fprintf(w, "attempt window: %s\n", cfg.AttemptWindow())
	for _, r := range rules.Rules() {
		if r.Timeout > 0 {
			fmt.Fprintf(w, "level %d: >= %d attempts -> %s (%s)\n", r.Level, r.Threshold, r.Action, r.Timeout)
		} else {
			fmt.Fprintf(w, "level %d: >= %d attempts -> %s\n", r.Level, r.Threshold, r.Action)
		}
	}
	return nil
}
