package infra

import (
	"context"
	"fmt"
	"time"

	"middleware-firewall/middleware/firewall/domain"
)

// PooledStore limita o número de chamadas simultâneas ao store.
// Sob rajada, quem não conseguir vaga em AcquireTimeout recebe
// ErrStoreUnavailable e o pipeline aplica a política de falha.
type PooledStore struct {
	Next           domain.CounterStore
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

var _ domain.CounterStore = PooledStore{}

// NewPooledStore devolve next sem decorar quando max <= 0.
func NewPooledStore(next domain.CounterStore, max int, acquireTimeout time.Duration) domain.CounterStore {
	if max <= 0 {
		return next
	}
	return PooledStore{Next: next, Pool: NewChanPool(max), AcquireTimeout: acquireTimeout}
}

// acquire tenta adquirir uma vaga.
// - Se `AcquireTimeout <= 0`, espera até ctx cancelar.
// - Se `AcquireTimeout > 0`, espera até o timeout.
func (s PooledStore) acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	acqCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}
	release, ok := s.Pool.Acquire(acqCtx)
	if !ok {
		return nil, fmt.Errorf("%w: no free store slot", domain.ErrStoreUnavailable)
	}
	return release, nil
}

func (s PooledStore) Get(ctx context.Context, key domain.Key) ([]byte, bool, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	defer release()
	return s.Next.Get(ctx, key)
}

func (s PooledStore) SetWithExpiry(ctx context.Context, key domain.Key, value []byte, ttl time.Duration) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return s.Next.SetWithExpiry(ctx, key, value, ttl)
}
