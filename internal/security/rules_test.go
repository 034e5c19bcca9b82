package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesAreValid(t *testing.T) {
	table := MustDefaultRuleTable()
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, 4, table.MaxLevel())
}

func TestNewRuleTableRejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"empty", nil},
		{"unknown action", []Rule{{Level: 1, Threshold: 1, Action: "kick"}}},
		{"zero level", []Rule{{Level: 0, Threshold: 1, Action: ActionWarn}}},
		{"zero threshold", []Rule{{Level: 1, Threshold: 0, Action: ActionWarn}}},
		{"timeout without duration", []Rule{{Level: 1, Threshold: 1, Action: ActionTimeout}}},
		{"levels not increasing", []Rule{
			{Level: 2, Threshold: 1, Action: ActionWarn},
			{Level: 2, Threshold: 2, Action: ActionBan},
		}},
		{"thresholds not increasing", []Rule{
			{Level: 1, Threshold: 3, Action: ActionWarn},
			{Level: 2, Threshold: 3, Action: ActionBan},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRuleTable(tt.rules)
			assert.ErrorIs(t, err, ErrInvalidRules)
		})
	}
}

func TestRuleTableCopiesInput(t *testing.T) {
	rules := DefaultRules()
	table, err := NewRuleTable(rules)
	require.NoError(t, err)

	rules[0].Threshold = 100
	assert.Equal(t, 2, table.Rules()[0].Threshold)
}

func TestMatchPicksHighestSatisfiedRuleAboveLevel(t *testing.T) {
	table := MustDefaultRuleTable()

	tests := []struct {
		count, level int
		want         Action
		ok           bool
	}{
		{1, 0, ActionNone, false},
		{2, 0, ActionWarn, true},
		{3, 1, ActionTimeout, true},
		{3, 2, ActionNone, false},
		{4, 2, ActionLongTimeout, true},
		{5, 3, ActionBan, true},
		{7, 2, ActionBan, true},
		{9, 4, ActionNone, false},
	}

	for _, tt := range tests {
		r, ok := table.Match(tt.count, tt.level)
		assert.Equal(t, tt.ok, ok, "count=%d level=%d", tt.count, tt.level)
		assert.Equal(t, tt.want, r.Action, "count=%d level=%d", tt.count, tt.level)
	}
}

func TestDefaultTimeouts(t *testing.T) {
	rules := DefaultRules()
	assert.Equal(t, 15*time.Minute, rules[1].Timeout)
	assert.Equal(t, 60*time.Minute, rules[2].Timeout)
}
