package domain

import (
	"context"
	"time"
)

// Key é a chave opaca de um sujeito no CounterStore.
type Key string

// CounterStore é um cache chave-valor com TTL (ex: Redis) compartilhado entre
// instâncias.
//
// Get não deve falhar para chave ausente (found=false); erros são apenas de
// transporte e devem envolver ErrStoreUnavailable.
type CounterStore interface {
	Get(ctx context.Context, key Key) (value []byte, found bool, err error)
	SetWithExpiry(ctx context.Context, key Key, value []byte, ttl time.Duration) error
}

// SlotPool representa um recurso com capacidade finita (ex: chamadas
// simultâneas ao store).
//
// A semântica é: Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
