package domain

import "strings"

// IgnoreRoute é uma rota isenta da estratégia por IP.
// Pattern pode terminar em "*" para casar por prefixo.
type IgnoreRoute struct {
	Method  string
	Pattern string
}

// Matches compara o método (já normalizado em maiúsculas) e o path.
func (ir IgnoreRoute) Matches(method, path string) bool {
	return ir.Method == method && MatchPattern(ir.Pattern, path)
}

// MatchPattern casa path exato ou, se o padrão termina em "*", por prefixo.
func MatchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return pattern == path
}
