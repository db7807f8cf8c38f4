package infra

import (
	"context"
	"sync"
	"time"

	"middleware-firewall/middleware/firewall/domain"
)

// MemoryStore é um CounterStore em memória com TTL por chave e limpeza
// periódica. Serve para uma única instância (dev, testes, exemplo);
// com várias instâncias use RedisStore.
type MemoryStore struct {
	mu           sync.Mutex
	entries      map[domain.Key]memoryEntry
	cleanupEvery time.Duration
	now          func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type MemoryStoreOption func(*MemoryStore)

func WithCleanupEvery(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.cleanupEvery = d }
}

// WithClock troca o relógio (útil em testes).
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries:      make(map[domain.Key]memoryEntry),
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Get implementa domain.CounterStore.
func (s *MemoryStore) Get(_ context.Context, key domain.Key) ([]byte, bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || ent.expired(now) {
		return nil, false, nil
	}
	return append([]byte(nil), ent.value...), true, nil
}

// SetWithExpiry implementa domain.CounterStore. ttl <= 0 não expira.
func (s *MemoryStore) SetWithExpiry(_ context.Context, key domain.Key, value []byte, ttl time.Duration) error {
	ent := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		ent.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = ent
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove as chaves expiradas.
func (s *MemoryStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.expired(now) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves expiradas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
