// Package loggingtest provides an in-memory Auditor for tests.
package loggingtest

import (
	"context"
	"sync"

	"github.com/rndmzd/hallmonitor/internal/logging"
)

type Entry struct {
	Type    logging.EventType
	UserID  string
	Details string
}

// Recorder captures every event passed to Log.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Log(_ context.Context, eventType logging.EventType, userID, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Type: eventType, UserID: userID, Details: details})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []logging.EventType {
	entries := r.Entries()
	types := make([]logging.EventType, 0, len(entries))
	for _, e := range entries {
		types = append(types, e.Type)
	}
	return types
}

// Count returns how many events of the given type were recorded.
func (r *Recorder) Count(eventType logging.EventType) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
