package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"middleware-firewall/middleware/firewall/domain"
)

const (
	defaultStoreTimeout = 200 * time.Millisecond
	defaultDenyStatus   = 403
)

// Service é o pipeline de decisão de uma estratégia.
//
// Ele não sabe nada sobre HTTP (headers/redirect), apenas retorna uma decisão.
// Não guarda estado nem usa locks: todo estado mutável vive no Store.
// Leitura-avaliação-escrita não é atômica; requisições concorrentes do mesmo
// sujeito podem perder um incremento.
type Service struct {
	Rules     *domain.RuleSet
	Store     domain.CounterStore
	Response  domain.DenyResponse
	KeyPrefix string

	// FailClosed nega quando o store falha na leitura. O padrão é deixar passar,
	// para o firewall não virar ele mesmo um vetor de negação de serviço.
	FailClosed bool
	// StoreTimeout limita leitura+escrita de uma decisão. Padrão: 200ms.
	StoreTimeout time.Duration

	Log   *Logger
	Clock func() time.Time
}

// Decide avalia a requisição na ordem: lista de bloqueio, RuleSet vazio,
// lista de ignorados (e rotas ignoradas na estratégia por IP), e por fim
// store + avaliador de janelas.
func (s Service) Decide(ctx context.Context, req domain.Request) domain.Decision {
	if s.Rules == nil {
		return domain.Decision{Allowed: true, Reason: domain.ReasonNoRules}
	}
	strategy := s.Rules.Strategy()
	subject := s.subject()

	if s.Rules.Denied(req.Addr) {
		s.Log.Eventf("%s: %s in the forbidden list", subject, req.Addr)
		return s.deny(domain.ReasonDenyList, "", 0)
	}
	if s.Rules.Empty() {
		return s.allow(domain.ReasonNoRules, "")
	}
	if s.Rules.Ignored(req.Addr) {
		s.Log.Eventf("%s: %s in the ignore list", subject, req.Addr)
		return s.allow(domain.ReasonIgnored, "")
	}

	var (
		rules []domain.Rule
		key   domain.Key
	)
	switch strategy {
	case domain.StrategyRoute:
		rule, ok := s.Rules.Select(req.Method, req.Path)
		if !ok {
			return s.allow(domain.ReasonUnscoped, "")
		}
		rules = []domain.Rule{rule}
		key = RouteKey(s.KeyPrefix, req.Addr, req.Method, req.Path)
	default:
		if s.Rules.IgnoredRoute(req.Method, req.Path) {
			s.Log.Eventf("path: %s %s in the ignore list", req.Method, req.Path)
			return s.allow(domain.ReasonIgnoredRoute, "")
		}
		rules = s.Rules.Rules()
		key = IPKey(s.KeyPrefix, req.Addr)
	}

	return s.check(ctx, key, rules)
}

func (s Service) check(ctx context.Context, key domain.Key, rules []domain.Rule) domain.Decision {
	if s.Store == nil {
		return s.storeFailure(key, fmt.Errorf("%w: no store configured", domain.ErrStoreUnavailable))
	}

	timeout := s.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	now := s.now().Unix()

	raw, found, err := s.Store.Get(ctx, key)
	if err != nil {
		return s.storeFailure(key, err)
	}

	state := domain.NewCounterState(len(rules), now)
	if found {
		prev, err := domain.DecodeState(raw, len(rules))
		if err != nil {
			s.Log.Eventf("%s: discarding stored state: %v", key, err)
		} else {
			state = prev
		}
	}

	ev := evaluate(state, rules, now)
	if ev.Banned {
		s.Log.Eventf("%s: currently in the limit period until %d", key, ev.BanUntil)
		return s.deny(domain.ReasonBanned, key, ev.BanUntil-now)
	}
	if ev.Lifted {
		s.Log.Eventf("%s: ban lifted", key)
	}

	if ev.Changed {
		if err := s.Store.SetWithExpiry(ctx, key, domain.EncodeState(ev.State), s.Rules.TTL()); err != nil {
			// A leitura foi válida: o veredito calculado continua valendo.
			s.Log.StoreFailure(wrapStoreErr(err), logrus.Fields{"key": string(key), "op": "set"})
		}
	}

	if !ev.Allowed {
		for _, i := range ev.Violated {
			s.Log.Eventf("%s: violation of rule %s", key, rules[i])
		}
		return s.deny(domain.ReasonViolation, key, ev.BanUntil-now)
	}
	return s.allow(domain.ReasonWithinLimit, key)
}

func (s Service) storeFailure(key domain.Key, err error) domain.Decision {
	s.Log.StoreFailure(wrapStoreErr(err), logrus.Fields{"key": string(key), "op": "get"})
	if s.FailClosed {
		return s.deny(domain.ReasonStoreFailure, key, 0)
	}
	return s.allow(domain.ReasonStoreFailure, key)
}

func (s Service) allow(reason domain.Reason, key domain.Key) domain.Decision {
	return domain.Decision{Allowed: true, Strategy: s.Rules.Strategy(), Reason: reason, Key: key}
}

func (s Service) deny(reason domain.Reason, key domain.Key, retryAfterSec int64) domain.Decision {
	resp := s.Response
	if resp.RedirectURL == "" && resp.StatusCode == 0 {
		resp.StatusCode = defaultDenyStatus
	}
	dec := domain.Decision{
		Allowed:  false,
		Strategy: s.Rules.Strategy(),
		Reason:   reason,
		Key:      key,
		Response: resp,
	}
	if retryAfterSec > 0 {
		dec.RetryAfter = time.Duration(retryAfterSec) * time.Second
	}
	return dec
}

func (s Service) subject() string {
	if s.Rules.Strategy() == domain.StrategyRoute {
		return "request"
	}
	return "ip"
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func wrapStoreErr(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
