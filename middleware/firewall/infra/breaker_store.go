package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"middleware-firewall/middleware/firewall/domain"
)

// BreakerStore envolve um CounterStore com circuit breaker: depois de falhas
// consecutivas, as chamadas falham na hora (sem esperar timeout de rede)
// até o store voltar.
type BreakerStore struct {
	next domain.CounterStore
	cb   *gobreaker.CircuitBreaker
}

var _ domain.CounterStore = (*BreakerStore)(nil)

type BreakerConfig struct {
	Name string
	// ConsecutiveFailures abre o circuito. Padrão: 5.
	ConsecutiveFailures uint32
	// OpenTimeout é o tempo aberto antes de tentar meio-aberto. Padrão: 10s.
	OpenTimeout time.Duration
	Logger      *logrus.Logger
}

func NewBreakerStore(next domain.CounterStore, cfg BreakerConfig) *BreakerStore {
	if cfg.Name == "" {
		cfg.Name = "counter-store"
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		// cliente que desistiu não diz nada sobre a saúde do store
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("counter store breaker state changed")
		},
	}
	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (s *BreakerStore) State() gobreaker.State { return s.cb.State() }

type getResult struct {
	value []byte
	found bool
}

func (s *BreakerStore) Get(ctx context.Context, key domain.Key) ([]byte, bool, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		v, found, err := s.next.Get(ctx, key)
		return getResult{value: v, found: found}, withCancel(ctx, err)
	})
	if err != nil {
		return nil, false, breakerErr(err)
	}
	res := out.(getResult)
	return res.value, res.found, nil
}

func (s *BreakerStore) SetWithExpiry(ctx context.Context, key domain.Key, value []byte, ttl time.Duration) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, withCancel(ctx, s.next.SetWithExpiry(ctx, key, value, ttl))
	})
	if err != nil {
		return breakerErr(err)
	}
	return nil
}

// withCancel marca com context.Canceled a falha de uma chamada cujo contexto
// foi cancelado, mesmo que o store tenha devolvido outro erro.
func withCancel(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, context.Canceled) || !errors.Is(ctx.Err(), context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", err, context.Canceled)
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}
