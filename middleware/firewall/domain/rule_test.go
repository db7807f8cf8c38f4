package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleSet_NormalizesMethods(t *testing.T) {
	rs, err := NewRuleSet(StrategyRoute, RuleSetConfig{
		Rules: []Rule{{Interval: 60, MaxCount: 3, Ban: 300, Method: "get", Paths: []string{"/", "/404"}}},
	})
	require.NoError(t, err)

	r, ok := rs.Select("GET", "/404")
	require.True(t, ok)
	assert.Equal(t, "GET", r.Method)

	_, ok = rs.Select("POST", "/404")
	assert.False(t, ok)
	_, ok = rs.Select("GET", "/other")
	assert.False(t, ok)
}

func TestNewRuleSet_RouteRuleWithoutMethodIsFatal(t *testing.T) {
	_, err := NewRuleSet(StrategyRoute, RuleSetConfig{
		Rules: []Rule{{Interval: 60, MaxCount: 3, Ban: 300, Paths: []string{"/"}}},
	})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNewRuleSet_IgnoreRouteWithoutMethodIsFatal(t *testing.T) {
	_, err := NewRuleSet(StrategyIP, RuleSetConfig{
		IgnoreRoutes: []IgnoreRoute{{Pattern: "/build/*"}},
	})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNewRuleSet_RejectsBadNumbers(t *testing.T) {
	_, err := NewRuleSet(StrategyIP, RuleSetConfig{Rules: []Rule{{Interval: 0, MaxCount: 1}}})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRuleSet(StrategyIP, RuleSetConfig{Rules: []Rule{{Interval: 1, MaxCount: -1}}})
	require.ErrorIs(t, err, ErrConfiguration)

	// now+Ban e o TTL estourariam int64
	_, err = NewRuleSet(StrategyIP, RuleSetConfig{Rules: []Rule{{Interval: 60, MaxCount: 1, Ban: 9223372036854775000}}})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRuleSet(StrategyIP, RuleSetConfig{Rules: []Rule{{Interval: MaxSpan + 1, MaxCount: 1}}})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRuleSet(StrategyIP, RuleSetConfig{Rules: []Rule{{Interval: MaxSpan, MaxCount: 1, Ban: 1}}})
	require.ErrorIs(t, err, ErrConfiguration)

	rs, err := NewRuleSet(StrategyIP, RuleSetConfig{Rules: []Rule{{Interval: 60, MaxCount: 1, Ban: MaxSpan - 60}}})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(MaxSpan)*time.Second, rs.TTL())
}

func TestNewRuleSet_IPRuleMustNotBeScoped(t *testing.T) {
	_, err := NewRuleSet(StrategyIP, RuleSetConfig{Rules: []Rule{{Interval: 1, Method: "GET"}}})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestRuleSet_TTLIsLargestIntervalPlusBan(t *testing.T) {
	rs, err := NewRuleSet(StrategyIP, RuleSetConfig{
		Rules: []Rule{
			{Interval: 60, MaxCount: 3, Ban: 300},
			{Interval: 3600, MaxCount: 100, Ban: 60},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3660*time.Second, rs.TTL())
	assert.Equal(t, 2, rs.Len())
}

func TestRuleSet_Lists(t *testing.T) {
	rs, err := NewRuleSet(StrategyIP, RuleSetConfig{
		DenyList:     []string{"6.6.6.6"},
		IgnoreList:   []string{" 127.0.0.1 "},
		IgnoreRoutes: []IgnoreRoute{{Method: "get", Pattern: "/build/*"}},
	})
	require.NoError(t, err)

	assert.True(t, rs.Empty())
	assert.True(t, rs.Denied("6.6.6.6"))
	assert.False(t, rs.Denied("127.0.0.1"))
	assert.True(t, rs.Ignored("127.0.0.1"))
	assert.True(t, rs.IgnoredRoute("GET", "/build/app.js"))
	assert.False(t, rs.IgnoredRoute("GET", "/buildX"))
}
