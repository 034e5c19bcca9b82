package security

import (
	"sort"
	"sync"
	"time"
)

const DefaultAttemptWindow = 24 * time.Hour

// AttemptTracker keeps a rolling log of unauthorized attempts per user.
type AttemptTracker struct {
	mu       sync.Mutex
	window   time.Duration
	attempts map[string][]time.Time
}

func NewAttemptTracker(window time.Duration) *AttemptTracker {
	if window <= 0 {
		window = DefaultAttemptWindow
	}
	return &AttemptTracker{
		window:   window,
		attempts: make(map[string][]time.Time),
	}
}

func (t *AttemptTracker) Window() time.Duration {
	return t.window
}

// Record appends now to the user's log, prunes it and returns the retained count.
func (t *AttemptTracker) Record(userID string, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.attempts[userID] = append(t.attempts[userID], now)
	return t.pruneLocked(userID, now)
}

// Count returns the attempts within [now-window, now]. Stale entries are
// pruned on read.
func (t *AttemptTracker) Count(userID string, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.attempts[userID]; !ok {
		return 0
	}
	return t.pruneLocked(userID, now)
}

// Prune trims every log and drops users with no retained attempts.
func (t *AttemptTracker) Prune(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	dropped := 0
	for id := range t.attempts {
		if t.pruneLocked(id, now) == 0 {
			dropped++
		}
	}
	return dropped
}

type AttemptCount struct {
	UserID string
	Count  int
}

// Snapshot returns pruned counts for every tracked user, sorted by user id.
func (t *AttemptTracker) Snapshot(now time.Time) []AttemptCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]AttemptCount, 0, len(t.attempts))
	for id := range t.attempts {
		if n := t.pruneLocked(id, now); n > 0 {
			out = append(out, AttemptCount{UserID: id, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// pruneLocked keeps timestamps in [now-window, now] and deletes empty logs.
// Entries are chronological, so the first retained index splits the slice.
func (t *AttemptTracker) pruneLocked(userID string, now time.Time) int {
	log := t.attempts[userID]
	cutoff := now.Add(-t.window)

	i := 0
	for i < len(log) && log[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		log = append([]time.Time(nil), log[i:]...)
	}

	if len(log) == 0 {
		delete(t.attempts, userID)
		return 0
	}
	t.attempts[userID] = log
	return len(log)
}
