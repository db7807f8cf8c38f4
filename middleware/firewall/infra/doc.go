// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - RedisStore: CounterStore compartilhado entre instâncias (GET / SET EX)
//   - MemoryStore: CounterStore local com TTL e limpeza periódica
//   - BreakerStore / PooledStore: decoradores de CounterStore (circuit breaker, limite de concorrência)
//   - Memory/Redis/PromStatsStore: estatísticas das decisões
package infra
