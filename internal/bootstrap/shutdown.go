package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rndmzd/hallmonitor/internal/logging"
)

// Shutdown stops components in reverse start order and reports every failure.
func Shutdown(ctx context.Context, c *Components) error {
	logging.Info("Starting graceful shutdown...")
	var errs []error

	if c.Watchdog != nil {
		logging.Info("Stopping watchdog...")
		c.Watchdog.Stop(ctx)
	}

	if c.Metrics != nil {
		logging.Info("Stopping metrics server...")
		if err := c.Metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
	}

	if c.Session != nil {
		logging.Info("Closing Discord session...")
		if err := c.Session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("discord session: %w", err))
		}
	}

	if c.DB != nil {
		logging.Info("Closing database...")
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	logging.Info("Graceful shutdown complete")
	return errors.Join(errs...)
}
