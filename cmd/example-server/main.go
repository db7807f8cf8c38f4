package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"middleware-firewall/middleware/firewall"
	"middleware-firewall/middleware/firewall/config"
	"middleware-firewall/middleware/firewall/infra"
)

func main() {
	// Exemplo: injetando o firewall diretamente no seu webserver (sem proxy),
	// com store em memória e a configuração padrão.
	fw, err := config.DefaultFirewall()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	fw.LogEnable = true

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := infra.NewMemoryStore()
	store.StartJanitor(ctx)

	stats, err := infra.NewPromStatsStore(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("prometheus stats: %v", err)
	}

	ip, route := firewall.NewServices(fw, store, store, log.StandardLogger(), 0)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(firewall.Middleware(firewall.Options{IP: ip, Route: route, Stats: stats}))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hi, firewall\n"))
		})
		r.Get("/404", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		r.Get("/build/*", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("static\n"))
		})
	})

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("example server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
