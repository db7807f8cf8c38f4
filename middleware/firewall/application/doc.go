// Package application contém os casos de uso do firewall: o avaliador de
// janelas, a derivação de chaves e o pipeline de decisão.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, req) retorna uma Decision (allow/deny + resposta).
package application
