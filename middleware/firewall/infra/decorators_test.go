package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"middleware-firewall/middleware/firewall/domain"
)

type failingStore struct {
	calls int
	err   error
}

func (f *failingStore) Get(context.Context, domain.Key) ([]byte, bool, error) {
	f.calls++
	return nil, false, f.err
}

func (f *failingStore) SetWithExpiry(context.Context, domain.Key, []byte, time.Duration) error {
	f.calls++
	return f.err
}

type blockingPool struct{}

func (blockingPool) Acquire(ctx context.Context) (func(), bool) {
	<-ctx.Done()
	return nil, false
}

func TestBreakerStore_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingStore{err: errors.New("dial tcp: connection refused")}
	logger, hook := logtest.NewNullLogger()
	s := NewBreakerStore(inner, BreakerConfig{ConsecutiveFailures: 3, OpenTimeout: time.Minute, Logger: logger})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := s.Get(ctx, "k")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, s.State())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	_, _, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	err = s.SetWithExpiry(ctx, "k", nil, time.Second)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 3, inner.calls)
}

func TestBreakerStore_CancelledCallsDoNotTrip(t *testing.T) {
	inner := &failingStore{err: errors.New("read tcp: use of closed connection")}
	s := NewBreakerStore(inner, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, _, err := s.Get(ctx, "k")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, s.State())
	assert.Equal(t, 5, inner.calls)

	inner.err = context.Canceled
	require.ErrorIs(t, s.SetWithExpiry(context.Background(), "k", nil, time.Second), context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, s.State())

	// timeout continua contando como falha
	inner.err = context.DeadlineExceeded
	for i := 0; i < 2; i++ {
		_, _, err := s.Get(context.Background(), "k")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, s.State())
}

func TestBreakerStore_PassesThroughResults(t *testing.T) {
	mem := NewMemoryStore()
	s := NewBreakerStore(mem, BreakerConfig{})
	ctx := context.Background()

	require.NoError(t, s.SetWithExpiry(ctx, "k", []byte("[]"), time.Minute))
	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", string(v))

	_, found, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPooledStore_TimesOutWithoutSlot(t *testing.T) {
	inner := &failingStore{}
	s := PooledStore{Next: inner, Pool: blockingPool{}, AcquireTimeout: 10 * time.Millisecond}

	_, _, err := s.Get(context.Background(), "k")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Zero(t, inner.calls)
}

func TestPooledStore_ReleasesSlot(t *testing.T) {
	s := NewPooledStore(NewMemoryStore(), 1, 10*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SetWithExpiry(ctx, "k", []byte("[]"), time.Minute))
		_, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
	}
}

func TestNewPooledStore_DisabledReturnsNext(t *testing.T) {
	mem := NewMemoryStore()
	assert.Same(t, mem, NewPooledStore(mem, 0, 0))
}
