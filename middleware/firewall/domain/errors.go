package domain

import "errors"

var (
	// ErrConfiguration indica uma configuração inválida. É fatal na inicialização.
	ErrConfiguration = errors.New("firewall: invalid configuration")

	// ErrStoreUnavailable indica falha de transporte no CounterStore.
	// O pipeline aplica a política fail-open/fail-closed.
	ErrStoreUnavailable = errors.New("firewall: counter store unavailable")

	// ErrMalformedState indica um valor armazenado que não pôde ser lido
	// ou cujo número de slots não bate com o RuleSet atual.
	// É tratado como "sem estado anterior".
	ErrMalformedState = errors.New("firewall: malformed counter state")
)
