package security

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rndmzd/hallmonitor/internal/dispatcher/dispatchertest"
	"github.com/rndmzd/hallmonitor/internal/logging"
	"github.com/rndmzd/hallmonitor/internal/logging/loggingtest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type engineFixture struct {
	engine  *Engine
	actions *dispatchertest.Fake
	audit   *loggingtest.Recorder
	clock   *fakeClock
}

func newEngineFixture(t *testing.T, notify bool) *engineFixture {
	t.Helper()
	f := &engineFixture{
		actions: &dispatchertest.Fake{},
		audit:   &loggingtest.Recorder{},
		clock:   &fakeClock{now: t0},
	}
	f.engine = NewEngine(EngineConfig{
		Rules:      MustDefaultRuleTable(),
		NotifyUser: notify,
		GuildID:    "guild",
		Clock:      f.clock.Now,
	}, f.actions, f.audit)
	return f
}

func (f *engineFixture) attempt(user string) Result {
	return f.engine.HandleUnauthorizedAttempt(context.Background(), Attempt{UserID: user, Command: "allow"})
}

func TestEscalationLadder(t *testing.T) {
	f := newEngineFixture(t, false)

	got := []Action{}
	got = append(got, f.attempt("u").Action) // 1
	got = append(got, f.attempt("u").Action) // 2
	got = append(got, f.attempt("u").Action) // 3
	f.clock.Advance(16 * time.Minute)
	got = append(got, f.attempt("u").Action) // 4
	f.clock.Advance(61 * time.Minute)
	got = append(got, f.attempt("u").Action) // 5

	assert.Equal(t, []Action{ActionNone, ActionWarn, ActionTimeout, ActionLongTimeout, ActionBan}, got)

	enforcement := f.actions.Enforcement()
	require.Len(t, enforcement, 3)
	assert.Equal(t, "ApplyTimeout", enforcement[0].Method)
	assert.Equal(t, 15*time.Minute, enforcement[0].Duration)
	assert.Equal(t, "guild", enforcement[0].GuildID)
	assert.Equal(t, "ApplyTimeout", enforcement[1].Method)
	assert.Equal(t, 60*time.Minute, enforcement[1].Duration)
	assert.Equal(t, "BanUser", enforcement[2].Method)
	assert.Equal(t, 1, enforcement[2].PurgeDays)

	assert.Equal(t, 4, f.engine.Level("u"))
	assert.False(t, f.engine.IsRestricted("u"))
	assert.Equal(t, 1, f.audit.Count(logging.EventBan))
	assert.Equal(t, 5, f.audit.Count(logging.EventUnauthorizedAttempt))

	// no DMs when notifications are off
	assert.Empty(t, f.actions.CallsTo("SendDirectMessage"))
}

func TestRestrictedUserIsNotEscalated(t *testing.T) {
	f := newEngineFixture(t, true)

	f.attempt("u")
	f.attempt("u")
	res := f.attempt("u")
	require.Equal(t, ActionTimeout, res.Action)
	require.Equal(t, 2, res.Level)
	f.actions.Reset()

	f.clock.Advance(5 * time.Minute)
	res = f.attempt("u")

	assert.True(t, res.Suppressed)
	assert.Equal(t, ActionNone, res.Action)
	assert.Equal(t, 4, res.Count, "attempt is still recorded")
	assert.Equal(t, 2, res.Level)
	assert.Equal(t, 10*time.Minute, res.Remaining)

	assert.Empty(t, f.actions.Enforcement())
	dms := f.actions.CallsTo("SendDirectMessage")
	require.Len(t, dms, 1)
	assert.Contains(t, dms[0].Text, "10 more minutes")
}

func TestRepeatedAttemptsAtReachedLevelDoNothing(t *testing.T) {
	f := newEngineFixture(t, false)
	table, err := NewRuleTable([]Rule{
		{Level: 1, Threshold: 2, Action: ActionWarn},
		{Level: 2, Threshold: 5, Action: ActionBan},
	})
	require.NoError(t, err)
	f.engine = NewEngine(EngineConfig{Rules: table, GuildID: "guild", Clock: f.clock.Now}, f.actions, f.audit)

	assert.Equal(t, ActionNone, f.attempt("u").Action)
	assert.Equal(t, ActionWarn, f.attempt("u").Action)
	assert.Equal(t, ActionNone, f.attempt("u").Action)
	assert.Equal(t, ActionNone, f.attempt("u").Action)
	assert.Equal(t, 1, f.audit.Count(logging.EventWarning))
	assert.Equal(t, 1, f.engine.Level("u"))
}

func TestLevelIsMonotonic(t *testing.T) {
	f := newEngineFixture(t, false)

	prev := 0
	for i := 0; i < 12; i++ {
		f.attempt("u")
		lvl := f.engine.Level("u")
		assert.GreaterOrEqual(t, lvl, prev)
		prev = lvl
		f.clock.Advance(2 * time.Hour)
	}
}

func TestExpiredRestrictionJumpsToHighestSatisfiedRule(t *testing.T) {
	f := newEngineFixture(t, false)

	f.attempt("u")
	f.attempt("u")
	require.Equal(t, ActionTimeout, f.attempt("u").Action)

	// suppressed attempts still count toward the window
	f.attempt("u")
	f.attempt("u")

	f.clock.Advance(20 * time.Minute)
	res := f.attempt("u")
	assert.Equal(t, 6, res.Count)
	assert.Equal(t, ActionBan, res.Action)
	assert.Equal(t, 4, res.Level)
}

func TestAttemptsOutsideWindowDecay(t *testing.T) {
	f := newEngineFixture(t, false)

	f.attempt("u")
	f.clock.Advance(25 * time.Hour)
	res := f.attempt("u")
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, ActionNone, res.Action)
}

func TestPermissionFailuresAreLogged(t *testing.T) {
	f := newEngineFixture(t, false)
	f.actions.TimeoutErr = dispatchertest.PermissionDenied("timeout")

	f.attempt("u")
	f.attempt("u")
	res := f.attempt("u")

	assert.Equal(t, ActionTimeout, res.Action)
	// the bot-side restriction still applies
	assert.True(t, f.engine.IsRestricted("u"))

	var found bool
	for _, e := range f.audit.Entries() {
		if e.Type == logging.EventError {
			found = true
			assert.Equal(t, "Failed to timeout user - Missing permissions", e.Details)
		}
	}
	assert.True(t, found)
}

func TestBanFailureKeepsLevel(t *testing.T) {
	f := newEngineFixture(t, false)
	table, err := NewRuleTable([]Rule{{Level: 1, Threshold: 1, Action: ActionBan}})
	require.NoError(t, err)
	f.engine = NewEngine(EngineConfig{Rules: table, GuildID: "guild", Clock: f.clock.Now}, f.actions, f.audit)
	f.actions.BanErr = dispatchertest.PermissionDenied("ban")

	res := f.attempt("u")
	assert.Equal(t, ActionBan, res.Action)
	assert.Equal(t, 1, f.engine.Level("u"))
	assert.Zero(t, f.audit.Count(logging.EventBan))
	assert.Equal(t, 1, f.audit.Count(logging.EventError))
}

func TestNoGuildContext(t *testing.T) {
	f := newEngineFixture(t, false)
	f.engine = NewEngine(EngineConfig{Clock: f.clock.Now}, f.actions, f.audit)

	f.attempt("u")
	f.attempt("u")
	f.attempt("u")

	assert.Empty(t, f.actions.Enforcement())
	assert.Equal(t, 1, f.audit.Count(logging.EventError))
}

func TestNotificationsSent(t *testing.T) {
	f := newEngineFixture(t, true)

	f.attempt("u")
	f.attempt("u")
	dms := f.actions.CallsTo("SendDirectMessage")
	require.Len(t, dms, 1)
	assert.Contains(t, dms[0].Text, "Warning (Level 1)")

	f.attempt("u")
	dms = f.actions.CallsTo("SendDirectMessage")
	require.Len(t, dms, 2)
	assert.Contains(t, dms[1].Text, "15 minutes")
}

func TestDMFailureIsSwallowed(t *testing.T) {
	f := newEngineFixture(t, true)
	f.actions.DMErr = dispatchertest.PermissionDenied("dm")

	f.attempt("u")
	res := f.attempt("u")
	assert.Equal(t, ActionWarn, res.Action)
	assert.Zero(t, f.audit.Count(logging.EventError))
}

func TestStatusAndSweep(t *testing.T) {
	f := newEngineFixture(t, false)

	for i := 0; i < 3; i++ {
		f.attempt("a")
	}
	f.attempt("b")

	st := f.engine.Status()
	require.Len(t, st.Restricted, 1)
	assert.Equal(t, "a", st.Restricted[0].UserID)
	assert.Equal(t, t0.Add(15*time.Minute), st.Restricted[0].Until)
	assert.Equal(t, []AttemptCount{{UserID: "a", Count: 3}, {UserID: "b", Count: 1}}, st.Attempts)

	assert.Zero(t, f.engine.Sweep())
	f.clock.Advance(16 * time.Minute)
	assert.Equal(t, 1, f.engine.Sweep())
	assert.Empty(t, f.engine.Status().Restricted)
	assert.Equal(t, 2, f.engine.Level("a"), "level survives expiry")

	f.clock.Advance(25 * time.Hour)
	f.engine.Sweep()
	assert.Empty(t, f.engine.Status().Attempts)
	assert.Zero(t, f.engine.AttemptCount("a"))
}

func TestClearRestriction(t *testing.T) {
	f := newEngineFixture(t, false)
	for i := 0; i < 3; i++ {
		f.attempt("u")
	}
	require.True(t, f.engine.IsRestricted("u"))

	f.engine.ClearRestriction("u")
	assert.False(t, f.engine.IsRestricted("u"))
	f.engine.ClearRestriction("unknown")
}

func TestConcurrentAttemptsApplyEachLevelOnce(t *testing.T) {
	f := newEngineFixture(t, false)
	table, err := NewRuleTable([]Rule{{Level: 1, Threshold: 2, Action: ActionWarn}})
	require.NoError(t, err)
	f.engine = NewEngine(EngineConfig{Rules: table, GuildID: "guild", Clock: f.clock.Now}, f.actions, f.audit)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.attempt("u")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.audit.Count(logging.EventWarning))
	assert.Equal(t, 50, f.engine.AttemptCount("u"))
}
