package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"middleware-firewall/middleware/firewall/domain"
)

var rule60x3 = domain.Rule{Interval: 60, MaxCount: 3, Ban: 300}

// run aplica o avaliador sequencialmente, persistindo só o que mudou
// (como o pipeline faz).
func run(t *testing.T, rules []domain.Rule, times ...int64) ([]bool, domain.CounterState) {
	t.Helper()
	var (
		state   domain.CounterState
		verdict []bool
	)
	for i, now := range times {
		if i == 0 {
			state = domain.NewCounterState(len(rules), now)
		}
		ev := EvaluateVector(state, rules, now)
		if ev.Changed {
			state = ev.State
		}
		verdict = append(verdict, ev.Allowed)
	}
	return verdict, state
}

func TestEvaluate_BanScenario(t *testing.T) {
	got, state := run(t, []domain.Rule{rule60x3}, 0, 10, 20, 30, 31, 329)
	assert.Equal(t, []bool{true, true, true, false, false, false}, got)
	assert.Equal(t, domain.Slot{WindowStart: 0, Count: 0, BanUntil: 330}, state.Slots[0])

	ev := EvaluateVector(state, []domain.Rule{rule60x3}, 330)
	assert.True(t, ev.Allowed)
	assert.True(t, ev.Lifted)
	assert.Equal(t, domain.Slot{WindowStart: 330, Count: 0, BanUntil: 0}, ev.State.Slots[0])
}

func TestEvaluate_FirstRequestIsCounted(t *testing.T) {
	ev := EvaluateVector(domain.NewCounterState(1, 100), []domain.Rule{rule60x3}, 100)
	require.True(t, ev.Allowed)
	assert.Equal(t, domain.Slot{WindowStart: 100, Count: 1}, ev.State.Slots[0])
}

func TestEvaluate_ViolationSetsBanAndResetsCount(t *testing.T) {
	state := domain.CounterState{Slots: []domain.Slot{{WindowStart: 100, Count: 3}}}

	ev := EvaluateVector(state, []domain.Rule{rule60x3}, 110)
	assert.False(t, ev.Allowed)
	assert.False(t, ev.Banned)
	assert.True(t, ev.Changed)
	assert.Equal(t, []int{0}, ev.Violated)
	assert.Equal(t, int64(410), ev.BanUntil)
	assert.Equal(t, domain.Slot{WindowStart: 100, Count: 0, BanUntil: 410}, ev.State.Slots[0])
	// o estado de entrada não é alterado
	assert.Equal(t, int64(3), state.Slots[0].Count)
}

func TestEvaluate_BannedLeavesStateUntouched(t *testing.T) {
	state := domain.CounterState{Slots: []domain.Slot{{WindowStart: 100, Count: 0, BanUntil: 410}}}

	ev := EvaluateVector(state, []domain.Rule{rule60x3}, 200)
	assert.False(t, ev.Allowed)
	assert.True(t, ev.Banned)
	assert.False(t, ev.Changed)
	assert.Equal(t, state, ev.State)
}

func TestEvaluate_WindowRestartDiscardsTriggeringRequest(t *testing.T) {
	state := domain.CounterState{Slots: []domain.Slot{{WindowStart: 100, Count: 3}}}

	ev := EvaluateVector(state, []domain.Rule{rule60x3}, 160)
	assert.True(t, ev.Allowed)
	assert.Equal(t, domain.Slot{WindowStart: 160, Count: 0}, ev.State.Slots[0])
}

func TestEvaluate_AllRulesAreUpdated(t *testing.T) {
	rules := []domain.Rule{
		{Interval: 10, MaxCount: 1, Ban: 30},
		{Interval: 60, MaxCount: 100, Ban: 600},
	}
	state := domain.CounterState{Slots: []domain.Slot{
		{WindowStart: 0, Count: 1},
		{WindowStart: 0, Count: 5},
	}}

	ev := EvaluateVector(state, rules, 5)
	assert.False(t, ev.Allowed)
	assert.Equal(t, []int{0}, ev.Violated)
	assert.Equal(t, domain.Slot{WindowStart: 0, Count: 0, BanUntil: 35}, ev.State.Slots[0])
	assert.Equal(t, domain.Slot{WindowStart: 0, Count: 6}, ev.State.Slots[1])
}

func TestEvaluate_MismatchedStateIsReinitialized(t *testing.T) {
	stale := domain.CounterState{Slots: []domain.Slot{{WindowStart: 0, Count: 0, BanUntil: 9999}}}
	rules := []domain.Rule{rule60x3, {Interval: 10, MaxCount: 1, Ban: 10}}

	ev := EvaluateVector(stale, rules, 50)
	assert.True(t, ev.Allowed)
	require.Len(t, ev.State.Slots, 2)
	assert.Equal(t, int64(1), ev.State.Slots[0].Count)
}

func TestEvaluateSlot(t *testing.T) {
	rule := domain.Rule{Interval: 60, MaxCount: 1, Ban: 60, Method: "GET", Paths: []string{"/"}}
	state := domain.NewCounterState(1, 0)

	ev := EvaluateSlot(state, rule, 0)
	require.True(t, ev.Allowed)
	ev = EvaluateSlot(ev.State, rule, 1)
	assert.False(t, ev.Allowed)
	assert.Equal(t, int64(61), ev.BanUntil)
}
