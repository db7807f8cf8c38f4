// Package domain define contratos e tipos de domínio do firewall: regras,
// estado dos contadores, decisões e os contratos de armazenamento.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura (Redis, memória, métricas).
package domain
