package config

import (
	"fmt"
	"time"

	"github.com/rndmzd/hallmonitor/internal/security"
)

// longTimeoutFactor scales the lockout duration for the long timeout step.
const longTimeoutFactor = 4

// EscalationRules returns the configured table. Without an explicit
// escalation list it is derived from max_failed_attempts (M) and
// lockout_duration (D): warn at M-3, timeout D at M-2, timeout 4D at M-1,
// ban at M.
func (c *Config) EscalationRules() (security.RuleTable, error) {
	if len(c.Security.Escalation) > 0 {
		rules := make([]security.Rule, 0, len(c.Security.Escalation))
		for _, step := range c.Security.Escalation {
			rules = append(rules, security.Rule{
				Level:     step.Level,
				Threshold: step.Threshold,
				Timeout:   time.Duration(step.TimeoutMinutes) * time.Minute,
				Action:    security.Action(step.Action),
			})
		}
		return security.NewRuleTable(rules)
	}

	m := c.Security.MaxFailedAttempts
	if m < 4 {
		return security.RuleTable{}, fmt.Errorf("%w: max_failed_attempts must be at least 4, got %d", security.ErrInvalidRules, m)
	}
	d := c.LockoutDuration()

	return security.NewRuleTable([]security.Rule{
		{Level: 1, Threshold: m - 3, Action: security.ActionWarn},
		{Level: 2, Threshold: m - 2, Timeout: d, Action: security.ActionTimeout},
		{Level: 3, Threshold: m - 1, Timeout: longTimeoutFactor * d, Action: security.ActionLongTimeout},
		{Level: 4, Threshold: m, Action: security.ActionBan},
	})
}

func (c *Config) LockoutDuration() time.Duration {
	return time.Duration(c.Security.LockoutDuration) * time.Second
}

func (c *Config) AttemptWindow() time.Duration {
	return time.Duration(c.Security.AttemptWindowHours) * time.Hour
}
