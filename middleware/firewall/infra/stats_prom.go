package infra

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"middleware-firewall/middleware/firewall/domain"
)

// PromStatsStore expõe as decisões como métricas Prometheus.
// Labels são de baixa cardinalidade (strategy, verdict, reason); a chave do
// sujeito nunca vira label.
type PromStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPromStatsStore(reg prometheus.Registerer) (*PromStatsStore, error) {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "firewall",
		Name:      "decisions_total",
		Help:      "Firewall decisions by strategy, verdict and reason.",
	}, []string{"strategy", "verdict", "reason"})

	if reg != nil {
		if err := reg.Register(decisions); err != nil {
			return nil, err
		}
	}
	return &PromStatsStore{decisions: decisions}, nil
}

func (s *PromStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	verdict := "deny"
	if ev.Allowed {
		verdict = "allow"
	}
	s.decisions.WithLabelValues(string(ev.Strategy), verdict, string(ev.Reason)).Inc()
	return nil
}

// Decisions expõe o CounterVec (útil em testes).
func (s *PromStatsStore) Decisions() *prometheus.CounterVec { return s.decisions }
