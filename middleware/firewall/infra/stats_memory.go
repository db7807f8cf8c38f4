package infra

import (
	"context"
	"sync"

	"middleware-firewall/middleware/firewall/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byStrategy map[domain.Strategy]Counters
	byReason   map[domain.Reason]int64
	byKey      map[domain.Key]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byStrategy: make(map[domain.Strategy]Counters),
		byReason:   make(map[domain.Reason]int64),
		byKey:      make(map[domain.Key]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Allowed)

	c := s.byStrategy[ev.Strategy]
	c.add(ev.Allowed)
	s.byStrategy[ev.Strategy] = c

	s.byReason[ev.Reason]++

	if s.trackKeys && ev.Key != "" {
		k := s.byKey[ev.Key]
		k.add(ev.Allowed)
		s.byKey[ev.Key] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByStrategy() map[domain.Strategy]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Strategy]Counters, len(s.byStrategy))
	for k, v := range s.byStrategy {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByReason() map[domain.Reason]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Reason]int64, len(s.byReason))
	for k, v := range s.byReason {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByKey() map[domain.Key]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Key]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}
