package security

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rndmzd/hallmonitor/internal/dispatcher"
	"github.com/rndmzd/hallmonitor/internal/logging"
	"github.com/rndmzd/hallmonitor/internal/metrics"
)

const (
	timeoutReason = "Unauthorized command attempts"
	banReason     = "Excessive unauthorized bot command attempts"
	banPurgeDays  = 1
)

// Attempt is one unauthorized command invocation.
type Attempt struct {
	UserID  string
	GuildID string
	Command string
}

// Result describes what the engine did with an attempt.
type Result struct {
	Count      int
	Level      int
	Action     Action
	Suppressed bool
	Remaining  time.Duration
}

type EngineConfig struct {
	Rules  RuleTable
	Window time.Duration
	// NotifyUser enables direct messages to the offending user.
	NotifyUser bool
	// GuildID is used for timeouts and bans when an attempt carries none,
	// e.g. commands sent by direct message.
	GuildID string
	Clock   func() time.Time
}

type userState struct {
	level           int
	restrictedUntil time.Time
}

// Engine turns a user's attempt history into graduated enforcement.
type Engine struct {
	cfg     EngineConfig
	tracker *AttemptTracker
	actions dispatcher.Actions
	audit   logging.Auditor
	now     func() time.Time

	mu    sync.Mutex
	users map[string]*userState
	locks map[string]*sync.Mutex
}

func NewEngine(cfg EngineConfig, actions dispatcher.Actions, audit logging.Auditor) *Engine {
	if cfg.Rules.Len() == 0 {
		cfg.Rules = MustDefaultRuleTable()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Engine{
		cfg:     cfg,
		tracker: NewAttemptTracker(cfg.Window),
		actions: actions,
		audit:   audit,
		now:     now,
		users:   make(map[string]*userState),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (e *Engine) Tracker() *AttemptTracker {
	return e.tracker
}

// lockUser serializes record, evaluate and apply for a single user.
func (e *Engine) lockUser(userID string) func() {
	e.mu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// HandleUnauthorizedAttempt records the attempt and applies the next
// escalation step, if any.
func (e *Engine) HandleUnauthorizedAttempt(ctx context.Context, a Attempt) Result {
	unlock := e.lockUser(a.UserID)
	defer unlock()

	now := e.now()
	count := e.tracker.Record(a.UserID, now)
	metrics.IncUnauthorizedAttempt()

	if remaining, restricted := e.restriction(a.UserID, now); restricted {
		if e.cfg.NotifyUser {
			e.dm(ctx, a.UserID, fmt.Sprintf(
				"You are in timeout for %d more minutes. Further attempts will result in increased restrictions.",
				int(remaining.Minutes())))
		}
		return Result{Count: count, Level: e.Level(a.UserID), Suppressed: true, Remaining: remaining}
	}

	res := Result{Count: count}

	e.mu.Lock()
	st := e.stateLocked(a.UserID)
	rule, ok := e.cfg.Rules.Match(count, st.level)
	if ok {
		st.level = rule.Level
		if rule.Action.restricts() {
			st.restrictedUntil = now.Add(rule.Timeout)
		}
	}
	res.Level = st.level
	e.mu.Unlock()

	if ok {
		res.Action = rule.Action
		e.apply(ctx, a, rule)
	}

	e.audit.Log(ctx, logging.EventUnauthorizedAttempt, a.UserID,
		fmt.Sprintf("Attempted command: %s (Level %d)", a.Command, res.Level))

	return res
}

func (e *Engine) apply(ctx context.Context, a Attempt, rule Rule) {
	metrics.IncEscalation(string(rule.Action))
	guildID := a.GuildID
	if guildID == "" {
		guildID = e.cfg.GuildID
	}

	switch rule.Action {
	case ActionWarn:
		if e.cfg.NotifyUser {
			e.dm(ctx, a.UserID, fmt.Sprintf(
				"⚠️ Warning (Level %d): Unauthorized command attempts detected. Further attempts will result in increased restrictions.",
				rule.Level))
		}
		e.audit.Log(ctx, logging.EventWarning, a.UserID, fmt.Sprintf("Warning issued (Level %d)", rule.Level))

	case ActionTimeout, ActionLongTimeout:
		if e.cfg.NotifyUser {
			e.dm(ctx, a.UserID, timeoutNotice(rule))
		}
		if guildID == "" {
			e.audit.Log(ctx, logging.EventError, a.UserID, "Failed to timeout user - no guild context")
			return
		}
		if err := e.actions.ApplyTimeout(ctx, guildID, a.UserID, rule.Timeout, timeoutReason); err != nil {
			metrics.IncActionFailure(string(rule.Action))
			e.audit.Log(ctx, logging.EventError, a.UserID, "Failed to timeout user"+describe(err))
			return
		}
		e.audit.Log(ctx, logging.EventTimeout, a.UserID,
			fmt.Sprintf("User timed out for %s (Level %d)", rule.Timeout, rule.Level))

	case ActionBan:
		if e.cfg.NotifyUser {
			e.dm(ctx, a.UserID,
				"🔨 You have been banned from the server due to excessive unauthorized bot command attempts. "+
					"Contact server administrators if you believe this was in error.")
		}
		if guildID == "" {
			e.audit.Log(ctx, logging.EventError, a.UserID, "Failed to ban user - no guild context")
			return
		}
		if err := e.actions.BanUser(ctx, guildID, a.UserID, banReason, banPurgeDays); err != nil {
			metrics.IncActionFailure(string(rule.Action))
			e.audit.Log(ctx, logging.EventError, a.UserID, "Failed to ban user"+describe(err))
			return
		}
		e.ClearRestriction(a.UserID)
		e.audit.Log(ctx, logging.EventBan, a.UserID, "User has been banned due to unauthorized attempts")
	}
}

func timeoutNotice(rule Rule) string {
	if rule.Action == ActionLongTimeout {
		return fmt.Sprintf("⛔ Extended timeout (%s) applied. Continued attempts will result in a ban.", humanDuration(rule.Timeout))
	}
	return fmt.Sprintf("🚫 You have been timed out for %s. Please refrain from unauthorized actions.", humanDuration(rule.Timeout))
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}

func describe(err error) string {
	if errors.Is(err, dispatcher.ErrPermissionDenied) {
		return " - Missing permissions"
	}
	return ": " + err.Error()
}

// dm sends a direct message. Closed DMs are expected and not reported.
func (e *Engine) dm(ctx context.Context, userID, text string) {
	if err := e.actions.SendDirectMessage(ctx, userID, text); err != nil {
		logging.Debug("DM to %s not delivered: %v", userID, err)
	}
}

func (e *Engine) stateLocked(userID string) *userState {
	st, ok := e.users[userID]
	if !ok {
		st = &userState{}
		e.users[userID] = st
	}
	return st
}

// restriction reports the remaining restriction time. An expired
// restriction is cleared.
func (e *Engine) restriction(userID string, now time.Time) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.users[userID]
	if !ok || st.restrictedUntil.IsZero() {
		return 0, false
	}
	if now.Before(st.restrictedUntil) {
		return st.restrictedUntil.Sub(now), true
	}
	st.restrictedUntil = time.Time{}
	return 0, false
}

// Restriction reports whether the user is currently restricted and for how long.
func (e *Engine) Restriction(userID string) (time.Duration, bool) {
	return e.restriction(userID, e.now())
}

func (e *Engine) IsRestricted(userID string) bool {
	_, ok := e.Restriction(userID)
	return ok
}

// Level returns the highest escalation level the user has reached.
func (e *Engine) Level(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.users[userID]; ok {
		return st.level
	}
	return 0
}

// ClearRestriction drops any active restriction. The level is kept.
func (e *Engine) ClearRestriction(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.users[userID]; ok {
		st.restrictedUntil = time.Time{}
	}
}

// AttemptCount returns the user's attempts inside the window.
func (e *Engine) AttemptCount(userID string) int {
	return e.tracker.Count(userID, e.now())
}

type RestrictionStatus struct {
	UserID string
	Until  time.Time
	Level  int
}

type Status struct {
	Restricted []RestrictionStatus
	Attempts   []AttemptCount
}

// Status lists active restrictions and windowed attempt counts.
func (e *Engine) Status() Status {
	now := e.now()

	e.mu.Lock()
	var restricted []RestrictionStatus
	for id, st := range e.users {
		if !st.restrictedUntil.IsZero() && now.Before(st.restrictedUntil) {
			restricted = append(restricted, RestrictionStatus{UserID: id, Until: st.restrictedUntil, Level: st.level})
		}
	}
	e.mu.Unlock()

	sort.Slice(restricted, func(i, j int) bool { return restricted[i].UserID < restricted[j].UserID })

	return Status{
		Restricted: restricted,
		Attempts:   e.tracker.Snapshot(now),
	}
}

// Sweep clears expired restrictions and prunes attempt logs. It returns the
// number of restrictions cleared.
func (e *Engine) Sweep() int {
	now := e.now()

	e.mu.Lock()
	cleared, active := 0, 0
	for _, st := range e.users {
		if st.restrictedUntil.IsZero() {
			continue
		}
		if now.Before(st.restrictedUntil) {
			active++
			continue
		}
		st.restrictedUntil = time.Time{}
		cleared++
	}
	e.mu.Unlock()

	e.tracker.Prune(now)
	metrics.SetActiveRestrictions(active)
	return cleared
}
