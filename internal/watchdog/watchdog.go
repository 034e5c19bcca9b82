package watchdog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rndmzd/hallmonitor/internal/logging"
)

// Watchdog runs named maintenance jobs on cron schedules and tracks their health.
type Watchdog struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]*JobHealth
}

type JobHealth struct {
	Name     string
	Spec     string
	LastRun  time.Time
	LastErr  error
	Runs     int
	Failures int
	fn       func() error
}

func NewWatchdog() *Watchdog {
	return &Watchdog{
		cron: cron.New(),
		jobs: make(map[string]*JobHealth),
	}
}

// AddJob schedules fn under spec (standard five-field or @every syntax).
func (w *Watchdog) AddJob(name, spec string, fn func() error) error {
	w.mu.Lock()
	if _, exists := w.jobs[name]; exists {
		w.mu.Unlock()
		return fmt.Errorf("watchdog job %s already registered", name)
	}
	w.jobs[name] = &JobHealth{Name: name, Spec: spec, fn: fn}
	w.mu.Unlock()

	if _, err := w.cron.AddFunc(spec, func() { w.run(name) }); err != nil {
		w.mu.Lock()
		delete(w.jobs, name)
		w.mu.Unlock()
		return fmt.Errorf("failed to schedule watchdog job %s: %w", name, err)
	}
	return nil
}

// RunNow executes a registered job synchronously.
func (w *Watchdog) RunNow(name string) error {
	w.mu.Lock()
	_, ok := w.jobs[name]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown watchdog job %s", name)
	}
	return w.run(name)
}

func (w *Watchdog) run(name string) (err error) {
	w.mu.Lock()
	job := w.jobs[name]
	fn := job.fn
	w.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}

		w.mu.Lock()
		job.LastRun = time.Now()
		job.LastErr = err
		job.Runs++
		if err != nil {
			job.Failures++
		}
		w.mu.Unlock()

		if err != nil {
			logging.Error("Watchdog: job %s failed: %v", name, err)
		}
	}()

	return fn()
}

func (w *Watchdog) Start() {
	w.cron.Start()
}

// Stop halts scheduling and waits for running jobs or ctx, whichever comes first.
func (w *Watchdog) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logging.Warn("Watchdog: stop timed out waiting for running jobs")
	}
}

// IsHealthy reports whether the job's most recent run succeeded. Jobs that
// have not run yet count as healthy.
func (w *Watchdog) IsHealthy(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if job, exists := w.jobs[name]; exists {
		return job.LastErr == nil
	}
	return false
}

func (w *Watchdog) GetStatus() map[string]bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	status := make(map[string]bool, len(w.jobs))
	for name, job := range w.jobs {
		status[name] = job.LastErr == nil
	}
	return status
}

// Jobs returns a snapshot of every job sorted by name.
func (w *Watchdog) Jobs() []JobHealth {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]JobHealth, 0, len(w.jobs))
	for _, job := range w.jobs {
		cp := *job
		cp.fn = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
