// Package firewall fornece o adapter HTTP (net/http) do filtro de admissão
// por IP e por rota.
//
// Visão geral (camadas):
//
//   - domain: regras, estado dos contadores, decisões e contratos (sem net/http)
//   - application: avaliador de janelas e pipeline de decisão (sem net/http)
//   - infra: stores (Redis, memória), decoradores e estatísticas
//   - config: carga e normalização da configuração (env + YAML)
//   - firewall (este pacote): middleware HTTP + extração do IP + resposta de bloqueio
//
// Fluxo por requisição:
//
//  1. Extrai o endereço do cliente (RemoteAddr ou X-Forwarded-For/X-Real-IP)
//  2. Estratégia por IP; se bloqueado, responde com redirect ou status+body
//  3. Estratégia por rota; idem
//  4. Se permitido, chama o próximo handler (ex: reverse proxy)
package firewall
