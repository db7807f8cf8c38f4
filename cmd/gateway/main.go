package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"middleware-firewall/middleware/firewall"
	"middleware-firewall/middleware/firewall/config"
	"middleware-firewall/middleware/firewall/domain"
	"middleware-firewall/middleware/firewall/infra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	log.SetFormatter(&log.JSONFormatter{})

	if cfg.UpstreamURL == "" {
		log.Fatal("UPSTREAM_URL is required")
	}
	target, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		log.Fatalf("invalid UPSTREAM_URL: %v", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).Warn("proxy error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// um client por servidor Redis; estratégias no mesmo endereço compartilham
	clients := map[config.RedisTarget]*redis.Client{}
	redisClient := func(t config.RedisTarget) *redis.Client {
		if c, ok := clients[t]; ok {
			return c
		}
		c := redis.NewClient(&redis.Options{
			Addr:     t.Addr,
			Password: cfg.Store.RedisPassword,
			DB:       t.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			// o firewall segue a política de falha; só avisamos
			log.WithError(err).WithField("addr", t.Addr).Warn("redis ping failed")
		}
		clients[t] = c
		return c
	}
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()

	var mem *infra.MemoryStore
	stores := map[config.RedisTarget]domain.CounterStore{}
	counterStore := func(t config.RedisTarget) domain.CounterStore {
		if cfg.Store.Backend == "memory" {
			if mem == nil {
				mem = infra.NewMemoryStore()
				mem.StartJanitor(ctx)
			}
			return mem
		}
		if s, ok := stores[t]; ok {
			return s
		}
		var store domain.CounterStore = infra.NewRedisStore(redisClient(t))
		if cfg.Store.Breaker {
			store = infra.NewBreakerStore(store, infra.BreakerConfig{
				Name:   "counter-store " + t.Addr,
				Logger: log.StandardLogger(),
			})
		}
		store = infra.NewPooledStore(store, cfg.Store.MaxInflight, cfg.Store.AcquireTimeout)
		stores[t] = store
		return store
	}
	ipStore := counterStore(cfg.Store.IP)
	routeStore := counterStore(cfg.Store.Route)

	mux := http.NewServeMux()

	var stats domain.StatsStore
	switch cfg.Stats.Backend {
	case "memory":
		stats = infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.Stats.TrackKeys))
	case "redis":
		stats = infra.NewRedisStatsStore(
			redisClient(config.RedisTarget{Addr: cfg.Store.RedisAddr, DB: cfg.Store.RedisDB}),
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
			infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
		)
	case "prometheus":
		prom, err := infra.NewPromStatsStore(prometheus.DefaultRegisterer)
		if err != nil {
			log.Fatalf("prometheus stats: %v", err)
		}
		stats = prom
		mux.Handle("/metrics", promhttp.Handler())
	}

	ip, route := firewall.NewServices(cfg.Firewall, ipStore, routeStore, log.StandardLogger(), cfg.Store.Timeout)
	mux.Handle("/", firewall.Middleware(firewall.Options{
		IP:                 ip,
		Route:              route,
		Stats:              stats,
		TrustXForwardedFor: cfg.TrustXFF,
	})(proxy))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{
		"listen":   cfg.ListenAddr,
		"upstream": target.String(),
	}).Info("gateway listening")
	log.WithFields(log.Fields{
		"ip":          cfg.Firewall.IP.Enabled,
		"ipRules":     cfg.Firewall.IP.Rules.Len(),
		"route":       cfg.Firewall.Route.Enabled,
		"routeRules":  cfg.Firewall.Route.Rules.Len(),
		"logEnable":   cfg.Firewall.LogEnable,
		"store":       cfg.Store.Backend,
		"ipRedis":     cfg.Store.IP.Addr,
		"routeRedis":  cfg.Store.Route.Addr,
		"breaker":     cfg.Store.Breaker,
		"maxInflight": cfg.Store.MaxInflight,
		"stats":       cfg.Stats.Backend,
		"trustXFF":    cfg.TrustXFF,
	}).Info("firewall config")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
