// Package config carrega a configuração do firewall: variáveis de ambiente
// (com suporte a .env) e o arquivo YAML de regras.
//
// A normalização acontece uma única vez aqui: listas ausentes ou com tipo
// errado viram listas vazias, métodos viram maiúsculas e regras inválidas
// impedem a inicialização.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"middleware-firewall/middleware/firewall/domain"
)

type Config struct {
	ListenAddr  string
	UpstreamURL string
	LogLevel    logrus.Level
	TrustXFF    bool

	Store    StoreConfig
	Stats    StatsConfig
	Firewall Firewall
}

type StoreConfig struct {
	Backend        string // "redis" (padrão) ou "memory"
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	Timeout        time.Duration
	MaxInflight    int
	AcquireTimeout time.Duration
	Breaker        bool

	// conexão própria de cada estratégia; ausente herda REDIS_ADDR/REDIS_DB
	IP    RedisTarget
	Route RedisTarget
}

// RedisTarget identifica um servidor Redis (endereço + database).
type RedisTarget struct {
	Addr string
	DB   int
}

type StatsConfig struct {
	Backend   string // "none" (padrão), "memory", "redis" ou "prometheus"
	Prefix    string
	TTL       time.Duration
	Bucket    string
	TrackKeys bool
}

// Firewall é a configuração já normalizada das duas estratégias.
type Firewall struct {
	LogEnable bool
	IP        StrategyConfig
	Route     StrategyConfig
}

type StrategyConfig struct {
	Enabled    bool
	Rules      *domain.RuleSet
	Response   domain.DenyResponse
	KeyPrefix  string
	FailClosed bool
}

// Load lê .env (se existir), as variáveis de ambiente e o arquivo apontado por
// FIREWALL_CONFIG. Sem arquivo, usa DefaultFirewall.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	cfg.ListenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.UpstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.TrustXFF = getenvBoolDefault("TRUST_XFF", false)

	level, err := logrus.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: LOG_LEVEL: %v", domain.ErrConfiguration, err)
	}
	cfg.LogLevel = level

	cfg.Store = StoreConfig{
		Backend:        strings.ToLower(getenvDefault("STORE_BACKEND", "redis")),
		RedisAddr:      getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getenvIntDefault("REDIS_DB", 0),
		Timeout:        getenvDurationDefault("STORE_TIMEOUT", 200*time.Millisecond),
		MaxInflight:    getenvIntDefault("STORE_MAX_INFLIGHT", 0),
		AcquireTimeout: getenvDurationDefault("STORE_ACQUIRE_TIMEOUT", 50*time.Millisecond),
		Breaker:        getenvBoolDefault("BREAKER_ENABLED", true),
	}
	cfg.Store.IP = RedisTarget{
		Addr: getenvDefault("IP_REDIS_ADDR", cfg.Store.RedisAddr),
		DB:   getenvIntDefault("IP_REDIS_DB", cfg.Store.RedisDB),
	}
	cfg.Store.Route = RedisTarget{
		Addr: getenvDefault("REQUEST_REDIS_ADDR", cfg.Store.RedisAddr),
		DB:   getenvIntDefault("REQUEST_REDIS_DB", cfg.Store.RedisDB),
	}
	cfg.Stats = StatsConfig{
		Backend:   strings.ToLower(getenvDefault("STATS_BACKEND", "none")),
		Prefix:    getenvDefault("STATS_PREFIX", "firewall:stats"),
		TTL:       getenvDurationDefault("STATS_TTL", 24*time.Hour),
		Bucket:    getenvDefault("STATS_BUCKET", "minute"),
		TrackKeys: getenvBoolDefault("STATS_TRACK_KEYS", false),
	}

	switch cfg.Store.Backend {
	case "redis", "memory":
	default:
		return Config{}, fmt.Errorf("%w: STORE_BACKEND must be redis or memory, got %q", domain.ErrConfiguration, cfg.Store.Backend)
	}
	switch cfg.Stats.Backend {
	case "none", "memory", "redis", "prometheus":
	default:
		return Config{}, fmt.Errorf("%w: STATS_BACKEND must be none, memory, redis or prometheus, got %q", domain.ErrConfiguration, cfg.Stats.Backend)
	}
	if cfg.Store.Backend == "redis" && strings.TrimSpace(cfg.Store.RedisAddr) == "" {
		return Config{}, errors.New("REDIS_ADDR is required when STORE_BACKEND=redis")
	}

	if path := os.Getenv("FIREWALL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read FIREWALL_CONFIG: %w", err)
		}
		cfg.Firewall, err = ParseFirewall(data)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	} else {
		cfg.Firewall, err = DefaultFirewall()
		if err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}
