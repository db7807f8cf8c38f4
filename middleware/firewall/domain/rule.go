package domain

import (
	"fmt"
	"strings"
	"time"
)

// Strategy identifica a disciplina de limitação: por IP ou por rota.
// Cada estratégia tem seu próprio keyspace, RuleSet e formato de estado.
type Strategy string

const (
	StrategyIP    Strategy = "ip"
	StrategyRoute Strategy = "route"
)

// Rule é uma regra de limite. Interval e Ban estão em segundos.
//
// Method e Paths existem apenas em regras de rota; regras de IP se aplicam
// ao sujeito inteiro.
type Rule struct {
	Interval int64
	MaxCount int64
	Ban      int64

	Method string
	Paths  []string
}

// Matches informa se a regra de rota se aplica à requisição.
// Paths aceitam o mesmo formato de padrão das rotas ignoradas (sufixo "*").
func (r Rule) Matches(method, path string) bool {
	if r.Method != method {
		return false
	}
	for _, p := range r.Paths {
		if MatchPattern(p, path) {
			return true
		}
	}
	return false
}

func (r Rule) String() string {
	if r.Method == "" {
		return fmt.Sprintf("{interval=%ds count=%d ban=%ds}", r.Interval, r.MaxCount, r.Ban)
	}
	return fmt.Sprintf("{%s %v interval=%ds count=%d ban=%ds}", r.Method, r.Paths, r.Interval, r.MaxCount, r.Ban)
}

// MaxSpan limita interval+expire de uma regra (10 anos, em segundos). Acima
// disso now+Ban e a conversão do TTL para time.Duration estouram int64.
const MaxSpan int64 = 10 * 365 * 24 * 60 * 60

// RuleSetConfig é a entrada crua (já convertida para listas) de NewRuleSet.
type RuleSetConfig struct {
	Rules        []Rule
	DenyList     []string
	IgnoreList   []string
	IgnoreRoutes []IgnoreRoute
}

// RuleSet é a configuração imutável de uma estratégia. É montado uma vez na
// inicialização e compartilhado por todas as requisições.
type RuleSet struct {
	strategy     Strategy
	rules        []Rule
	deny         map[string]struct{}
	ignore       map[string]struct{}
	ignoreRoutes []IgnoreRoute
	ttl          time.Duration
}

// NewRuleSet valida e normaliza a configuração de uma estratégia.
// Métodos HTTP são convertidos para maiúsculas; regras de rota e rotas
// ignoradas sem método são erro de configuração.
func NewRuleSet(strategy Strategy, cfg RuleSetConfig) (*RuleSet, error) {
	if strategy != StrategyIP && strategy != StrategyRoute {
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, strategy)
	}

	rs := &RuleSet{
		strategy: strategy,
		rules:    make([]Rule, 0, len(cfg.Rules)),
		deny:     toSet(cfg.DenyList),
		ignore:   toSet(cfg.IgnoreList),
	}

	var maxSpan int64
	for i, r := range cfg.Rules {
		if r.Interval <= 0 {
			return nil, fmt.Errorf("%w: %s rule #%d: interval must be > 0", ErrConfiguration, strategy, i)
		}
		if r.MaxCount < 0 || r.Ban < 0 {
			return nil, fmt.Errorf("%w: %s rule #%d: count and expire must be >= 0", ErrConfiguration, strategy, i)
		}
		if r.Interval > MaxSpan || r.Ban > MaxSpan-r.Interval {
			return nil, fmt.Errorf("%w: %s rule #%d: interval + expire must be <= %ds", ErrConfiguration, strategy, i, MaxSpan)
		}

		method := strings.ToUpper(strings.TrimSpace(r.Method))
		switch strategy {
		case StrategyRoute:
			if method == "" {
				return nil, fmt.Errorf("%w: method (GET | POST | PUT ...) is required in every route rule (#%d)", ErrConfiguration, i)
			}
		case StrategyIP:
			if method != "" || len(r.Paths) > 0 {
				return nil, fmt.Errorf("%w: ip rule #%d must not declare method or urls", ErrConfiguration, i)
			}
		}

		rule := Rule{
			Interval: r.Interval,
			MaxCount: r.MaxCount,
			Ban:      r.Ban,
			Method:   method,
			Paths:    append([]string(nil), r.Paths...),
		}
		rs.rules = append(rs.rules, rule)

		if span := r.Interval + r.Ban; span > maxSpan {
			maxSpan = span
		}
	}
	rs.ttl = time.Duration(maxSpan) * time.Second

	for i, ir := range cfg.IgnoreRoutes {
		method := strings.ToUpper(strings.TrimSpace(ir.Method))
		if method == "" {
			return nil, fmt.Errorf("%w: method (GET | POST | PUT ...) is required in every ignore route (#%d)", ErrConfiguration, i)
		}
		if ir.Pattern == "" {
			return nil, fmt.Errorf("%w: ignore route #%d has an empty url", ErrConfiguration, i)
		}
		rs.ignoreRoutes = append(rs.ignoreRoutes, IgnoreRoute{Method: method, Pattern: ir.Pattern})
	}

	return rs, nil
}

func (rs *RuleSet) Strategy() Strategy { return rs.strategy }

// Rules devolve as regras na ordem configurada. Não modifique o slice.
func (rs *RuleSet) Rules() []Rule { return rs.rules }

func (rs *RuleSet) Len() int { return len(rs.rules) }

func (rs *RuleSet) Empty() bool { return len(rs.rules) == 0 }

// TTL é o maior interval+ban entre as regras: depois disso o estado guardado
// não tem mais efeito e pode expirar sozinho.
func (rs *RuleSet) TTL() time.Duration { return rs.ttl }

func (rs *RuleSet) Denied(subject string) bool {
	_, ok := rs.deny[subject]
	return ok
}

func (rs *RuleSet) Ignored(subject string) bool {
	_, ok := rs.ignore[subject]
	return ok
}

// IgnoredRoute informa se a requisição casa com alguma rota ignorada.
func (rs *RuleSet) IgnoredRoute(method, path string) bool {
	for _, ir := range rs.ignoreRoutes {
		if ir.Matches(method, path) {
			return true
		}
	}
	return false
}

// Select devolve a primeira regra de rota que se aplica à requisição.
func (rs *RuleSet) Select(method, path string) (Rule, bool) {
	for _, r := range rs.rules {
		if r.Matches(method, path) {
			return r, true
		}
	}
	return Rule{}, false
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			out[it] = struct{}{}
		}
	}
	return out
}
