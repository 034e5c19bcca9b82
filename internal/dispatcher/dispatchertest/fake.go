// Package dispatchertest provides a recording implementation of dispatcher.Actions.
package dispatchertest

import (
	"context"
	"sync"
	"time"
)

type Call struct {
	Method    string
	GuildID   string
	UserID    string
	ChannelID string
	Text      string
	Duration  time.Duration
	Reason    string
	PurgeDays int
}

// Fake records every call. Per-method errors are returned when set.
type Fake struct {
	mu    sync.Mutex
	calls []Call

	MoveErr    error
	DMErr      error
	TimeoutErr error
	BanErr     error

	// Channels lists ids ResolveChannel accepts. A nil map accepts everything.
	Channels   map[string]bool
	ResolveErr error
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *Fake) MoveUser(_ context.Context, guildID, userID, channelID string) error {
	f.record(Call{Method: "MoveUser", GuildID: guildID, UserID: userID, ChannelID: channelID})
	return f.MoveErr
}

func (f *Fake) SendDirectMessage(_ context.Context, userID, text string) error {
	f.record(Call{Method: "SendDirectMessage", UserID: userID, Text: text})
	return f.DMErr
}

func (f *Fake) ApplyTimeout(_ context.Context, guildID, userID string, d time.Duration, reason string) error {
	f.record(Call{Method: "ApplyTimeout", GuildID: guildID, UserID: userID, Duration: d, Reason: reason})
	return f.TimeoutErr
}

func (f *Fake) BanUser(_ context.Context, guildID, userID, reason string, purgeDays int) error {
	f.record(Call{Method: "BanUser", GuildID: guildID, UserID: userID, Reason: reason, PurgeDays: purgeDays})
	return f.BanErr
}

func (f *Fake) ResolveChannel(_ context.Context, channelID string) error {
	if f.ResolveErr != nil {
		return f.ResolveErr
	}
	if f.Channels != nil && !f.Channels[channelID] {
		return errNotFound
	}
	return nil
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns calls of a single method in order.
func (f *Fake) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Enforcement returns calls excluding direct messages.
func (f *Fake) Enforcement() []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method != "SendDirectMessage" {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
