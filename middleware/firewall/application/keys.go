package application

import (
	"net/url"
	"strings"

	"middleware-firewall/middleware/firewall/domain"
)

// IPKey deriva a chave da estratégia por IP: prefix:addr.
func IPKey(prefix, addr string) domain.Key {
	return domain.Key(prefix + ":" + addr)
}

// RouteKey deriva a chave da estratégia por rota: prefix:addr:METHOD:path,
// com o path escapado como componente de URL.
func RouteKey(prefix, addr, method, path string) domain.Key {
	escaped := strings.ReplaceAll(url.QueryEscape(path), "+", "%20")
	return domain.Key(prefix + ":" + addr + ":" + method + ":" + escaped)
}
