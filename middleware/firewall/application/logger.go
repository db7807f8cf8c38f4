package application

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Logger encapsula o log de uma estratégia.
//
// Eventos (bloqueios, transições de estado) só saem com enabled=true.
// Falhas do store saem sempre em warn, mas limitadas por um token bucket
// para que uma queda do Redis não inunde o log. As falhas barradas saem em
// debug e são somadas no campo "suppressed" do próximo warn.
type Logger struct {
	entry      *logrus.Entry
	enabled    bool
	failures   *rate.Limiter
	suppressed atomic.Int64
}

func NewLogger(base *logrus.Logger, component string, enabled bool) *Logger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &Logger{
		entry:    base.WithField("component", component),
		enabled:  enabled,
		failures: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Eventf registra um evento de decisão se o log estiver habilitado.
func (l *Logger) Eventf(format string, args ...any) {
	if l == nil || !l.enabled {
		return
	}
	l.entry.Infof(format, args...)
}

// StoreFailure registra uma falha do store (sempre, com throttle).
func (l *Logger) StoreFailure(err error, fields logrus.Fields) {
	if l == nil {
		return
	}
	entry := l.entry.WithError(err).WithFields(fields)
	if !l.failures.Allow() {
		l.suppressed.Add(1)
		entry.Debug("counter store failure")
		return
	}
	if n := l.suppressed.Swap(0); n > 0 {
		entry = entry.WithField("suppressed", n)
	}
	entry.Warn("counter store failure")
}
