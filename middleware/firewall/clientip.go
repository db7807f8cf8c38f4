package firewall

import (
	"net"
	"net/http"
	"strings"
)

// AddrFunc extrai o endereço do sujeito de uma requisição.
type AddrFunc func(r *http.Request) string

// ClientIPFunc devolve o IP do cliente. Com trustProxy, usa o primeiro IP de
// X-Forwarded-For (cliente original) ou X-Real-IP; só habilite atrás de um
// proxy confiável, senão o cliente escolhe o próprio IP.
func ClientIPFunc(trustProxy bool) AddrFunc {
	return func(r *http.Request) string {
		if trustProxy {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
			if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
				return ip
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}
