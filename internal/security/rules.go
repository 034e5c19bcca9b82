package security

import (
	"errors"
	"fmt"
	"time"
)

type Action string

const (
	ActionNone        Action = ""
	ActionWarn        Action = "warn"
	ActionTimeout     Action = "timeout"
	ActionLongTimeout Action = "long_timeout"
	ActionBan         Action = "ban"
)

func (a Action) Valid() bool {
	switch a {
	case ActionWarn, ActionTimeout, ActionLongTimeout, ActionBan:
		return true
	}
	return false
}

// restricts reports whether the action sets a restriction expiry.
func (a Action) restricts() bool {
	return a == ActionTimeout || a == ActionLongTimeout
}

// Rule fires Action once the attempt count in the window reaches Threshold.
type Rule struct {
	Level     int
	Threshold int
	Timeout   time.Duration
	Action    Action
}

// RuleTable is an immutable, validated list of rules ordered by level.
type RuleTable struct {
	rules []Rule
}

var ErrInvalidRules = errors.New("invalid escalation rules")

// NewRuleTable validates rules: levels and thresholds strictly increasing,
// timeouts positive for timeout actions.
func NewRuleTable(rules []Rule) (RuleTable, error) {
	if len(rules) == 0 {
		return RuleTable{}, fmt.Errorf("%w: at least one rule is required", ErrInvalidRules)
	}

	for i, r := range rules {
		if !r.Action.Valid() {
			return RuleTable{}, fmt.Errorf("%w: rule %d has unknown action %q", ErrInvalidRules, i, r.Action)
		}
		if r.Level < 1 {
			return RuleTable{}, fmt.Errorf("%w: rule %d level must be positive", ErrInvalidRules, i)
		}
		if r.Threshold < 1 {
			return RuleTable{}, fmt.Errorf("%w: rule %d threshold must be positive", ErrInvalidRules, i)
		}
		if r.Action.restricts() && r.Timeout <= 0 {
			return RuleTable{}, fmt.Errorf("%w: rule %d (%s) needs a timeout", ErrInvalidRules, i, r.Action)
		}
		if i > 0 {
			prev := rules[i-1]
			if r.Level <= prev.Level {
				return RuleTable{}, fmt.Errorf("%w: levels must be strictly increasing (rule %d)", ErrInvalidRules, i)
			}
			if r.Threshold <= prev.Threshold {
				return RuleTable{}, fmt.Errorf("%w: thresholds must be strictly increasing (rule %d)", ErrInvalidRules, i)
			}
		}
	}

	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return RuleTable{rules: cp}, nil
}

// DefaultRules is the stock table: warn at 2, 15m timeout at 3, 60m timeout at 4, ban at 5.
func DefaultRules() []Rule {
	return []Rule{
		{Level: 1, Threshold: 2, Action: ActionWarn},
		{Level: 2, Threshold: 3, Timeout: 15 * time.Minute, Action: ActionTimeout},
		{Level: 3, Threshold: 4, Timeout: 60 * time.Minute, Action: ActionLongTimeout},
		{Level: 4, Threshold: 5, Action: ActionBan},
	}
}

// MustDefaultRuleTable panics only if DefaultRules is broken.
func MustDefaultRuleTable() RuleTable {
	t, err := NewRuleTable(DefaultRules())
	if err != nil {
		panic(err)
	}
	return t
}

// Rules returns a copy of the table.
func (t RuleTable) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

func (t RuleTable) Len() int {
	return len(t.rules)
}

// MaxLevel is the level of the last rule.
func (t RuleTable) MaxLevel() int {
	if len(t.rules) == 0 {
		return 0
	}
	return t.rules[len(t.rules)-1].Level
}

// Match picks the rule with the highest threshold satisfied by count whose
// level exceeds currentLevel.
func (t RuleTable) Match(count, currentLevel int) (Rule, bool) {
	for i := len(t.rules) - 1; i >= 0; i-- {
		r := t.rules[i]
		if r.Threshold <= count && r.Level > currentLevel {
			return r, true
		}
	}
	return Rule{}, false
}
