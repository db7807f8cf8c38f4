package infra

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"middleware-firewall/middleware/firewall/domain"
)

var statsEvents = []domain.StatsEvent{
	{Key: "ip:count:1.1.1.1", Strategy: domain.StrategyIP, Allowed: true, Reason: domain.ReasonWithinLimit},
	{Key: "ip:count:1.1.1.1", Strategy: domain.StrategyIP, Allowed: false, Reason: domain.ReasonViolation},
	{Key: "ip:count:1.1.1.1", Strategy: domain.StrategyIP, Allowed: false, Reason: domain.ReasonBanned},
	{Strategy: domain.StrategyRoute, Allowed: true, Reason: domain.ReasonUnscoped},
}

func TestMemoryStatsStore(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackKeys(true))
	for _, ev := range statsEvents {
		require.NoError(t, s.Record(context.Background(), ev))
	}

	assert.Equal(t, Counters{Allowed: 2, Denied: 2}, s.Total())
	assert.Equal(t, Counters{Allowed: 1, Denied: 2}, s.ByStrategy()[domain.StrategyIP])
	assert.Equal(t, int64(1), s.ByReason()[domain.ReasonBanned])
	assert.Equal(t, Counters{Allowed: 1, Denied: 2}, s.ByKey()["ip:count:1.1.1.1"])
	assert.Len(t, s.ByKey(), 1)
}

func TestRedisStatsStore(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	s := NewRedisStatsStore(rdb, WithStatsPrefix("fw:stats:"), WithStatsTrackKeys(true), WithStatsTTL(time.Hour))
	at := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)

	for _, ev := range statsEvents {
		ev.At = at
		require.NoError(t, s.Record(context.Background(), ev))
	}

	assert.Equal(t, "2", mr.HGet("fw:stats:total", "allowed"))
	assert.Equal(t, "2", mr.HGet("fw:stats:total", "denied"))
	assert.Equal(t, "2", mr.HGet("fw:stats:minute:202610191230", "denied"))
	assert.Equal(t, "1", mr.HGet("fw:stats:reason", "ip:violation"))
	assert.Equal(t, "1", mr.HGet("fw:stats:reason", "route:unscoped"))
	assert.Equal(t, "2", mr.HGet("fw:stats:key:ip:count:1.1.1.1", "denied"))
	assert.Equal(t, time.Hour, mr.TTL("fw:stats:key:ip:count:1.1.1.1"))
}

func TestPromStatsStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromStatsStore(reg)
	require.NoError(t, err)

	for _, ev := range statsEvents {
		require.NoError(t, s.Record(context.Background(), ev))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(s.Decisions().WithLabelValues("ip", "deny", "violation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Decisions().WithLabelValues("route", "allow", "unscoped")))
	assert.Equal(t, 4, testutil.CollectAndCount(s.Decisions()))

	_, err = NewPromStatsStore(reg)
	assert.Error(t, err)
}
