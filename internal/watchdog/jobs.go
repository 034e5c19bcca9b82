package watchdog

import (
	"errors"
	"time"

	"github.com/rndmzd/hallmonitor/internal/logging"
)

const (
	SweepSpec   = "@every 1m"
	LatencySpec = "@every 30s"

	DefaultLatencyThreshold = 500 * time.Millisecond
)

type Sweeper interface {
	Sweep() int
}

type LatencySource interface {
	HeartbeatLatency() time.Duration
}

// SweepJob clears expired restrictions and prunes attempt logs.
func SweepJob(s Sweeper) func() error {
	return func() error {
		if cleared := s.Sweep(); cleared > 0 {
			logging.Info("Watchdog: cleared %d expired restrictions", cleared)
		}
		return nil
	}
}

var errNoHeartbeat = errors.New("no gateway heartbeat acknowledged yet")

// LatencyJob warns when gateway heartbeat latency exceeds threshold.
func LatencyJob(src LatencySource, threshold time.Duration) func() error {
	if threshold <= 0 {
		threshold = DefaultLatencyThreshold
	}
	return func() error {
		latency := src.HeartbeatLatency()
		if latency <= 0 {
			return errNoHeartbeat
		}
		if latency > threshold {
			logging.Warn("Watchdog: gateway heartbeat latency %s exceeds %s", latency, threshold)
		}
		return nil
	}
}
