package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do firewall.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle pode
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Key      Key
	Strategy Strategy
	Allowed  bool
	Reason   Reason

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas.
//
// O middleware trata erro como best-effort (não derruba a request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
