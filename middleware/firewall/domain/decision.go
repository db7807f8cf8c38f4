package domain

import "time"

// Request é o que o firewall enxerga de uma requisição HTTP.
// Path não inclui a query string.
type Request struct {
	Addr   string
	Method string
	Path   string
}

// Reason explica por que uma decisão foi tomada. Útil para stats/logs.
type Reason string

const (
	ReasonDenyList     Reason = "deny_list"
	ReasonNoRules      Reason = "no_rules"
	ReasonIgnored      Reason = "ignored"
	ReasonIgnoredRoute Reason = "ignored_route"
	ReasonUnscoped     Reason = "unscoped"
	ReasonBanned       Reason = "banned"
	ReasonViolation    Reason = "violation"
	ReasonWithinLimit  Reason = "within_limit"
	ReasonStoreFailure Reason = "store_failure"
)

// DenyResponse é a resposta configurada para bloqueios de uma estratégia.
// RedirectURL, quando definido, tem prioridade sobre StatusCode/Body.
type DenyResponse struct {
	RedirectURL string
	StatusCode  int
	Body        string
}

type Decision struct {
	Allowed  bool
	Strategy Strategy
	Reason   Reason
	Key      Key

	// Response só é preenchido quando Allowed == false.
	Response DenyResponse

	// RetryAfter é o tempo restante de banimento, quando conhecido.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
