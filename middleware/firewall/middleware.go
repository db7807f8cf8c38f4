package firewall

import (
	"io"
	"net/http"
	"time"

	"middleware-firewall/middleware/firewall/application"
	"middleware-firewall/middleware/firewall/domain"
)

type Options struct {
	// IP e Route são as estratégias; nil desabilita a estratégia.
	IP    *application.Service
	Route *application.Service

	Stats              domain.StatsStore
	AddrFn             AddrFunc
	TrustXForwardedFor bool
}

// Middleware aplica a estratégia por IP e, se liberado, a estratégia por rota.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.AddrFn == nil {
		opts.AddrFn = ClientIPFunc(opts.TrustXForwardedFor)
	}

	var chain []*application.Service
	for _, svc := range []*application.Service{opts.IP, opts.Route} {
		if svc != nil {
			chain = append(chain, svc)
		}
	}

	return func(next http.Handler) http.Handler {
		if len(chain) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := domain.Request{
				Addr:   opts.AddrFn(r),
				Method: r.Method,
				Path:   r.URL.Path,
			}

			for _, svc := range chain {
				dec := svc.Decide(r.Context(), req)
				if opts.Stats != nil {
					_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
						Key:      dec.Key,
						Strategy: dec.Strategy,
						Allowed:  dec.Allowed,
						Reason:   dec.Reason,
						Method:   req.Method,
						Path:     req.Path,
						At:       time.Now(),
					})
				}
				if !dec.Allowed {
					writeDenied(w, r, dec)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeDenied(w http.ResponseWriter, r *http.Request, dec domain.Decision) {
	resp := dec.Response
	if resp.RedirectURL != "" {
		http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
		return
	}

	code := resp.StatusCode
	if code == 0 {
		code = http.StatusForbidden
	}
	if dec.RetryAfter > 0 {
		w.Header().Set("Retry-After", formatSeconds(dec.RetryAfter.Seconds()))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, resp.Body)
}
