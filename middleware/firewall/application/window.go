package application

import "middleware-firewall/middleware/firewall/domain"

// Evaluation é o resultado do avaliador de janelas.
type Evaluation struct {
	State   domain.CounterState
	Allowed bool

	// Changed é false quando o sujeito já estava banido: nada a persistir.
	Changed bool
	// Banned indica que a negação veio de um banimento ainda ativo.
	Banned bool
	// Lifted indica que um banimento vencido foi limpo nesta chamada.
	Lifted bool
	// Violated lista os índices das regras violadas nesta chamada.
	Violated []int
	// BanUntil é o maior fim de banimento relevante (0 se nenhum).
	BanUntil int64
}

// EvaluateVector aplica todas as regras, um slot por regra (estratégia por IP).
// Um estado com número de slots diferente do número de regras é descartado.
func EvaluateVector(state domain.CounterState, rules []domain.Rule, now int64) Evaluation {
	return evaluate(state, rules, now)
}

// EvaluateSlot aplica uma única regra ao slot do sujeito (estratégia por rota).
func EvaluateSlot(state domain.CounterState, rule domain.Rule, now int64) Evaluation {
	return evaluate(state, []domain.Rule{rule}, now)
}

// evaluate implementa janela fixa com reinício:
//
//   - banimento ativo em qualquer slot nega sem alterar o estado;
//   - dentro da janela, count > MaxCount bane por Ban segundos e zera o count;
//   - janela vencida reinicia em now com count 0 (a requisição atual não conta).
func evaluate(state domain.CounterState, rules []domain.Rule, now int64) Evaluation {
	if len(state.Slots) != len(rules) {
		state = domain.NewCounterState(len(rules), now)
	}

	var until int64
	for _, slot := range state.Slots {
		if slot.Banned(now) && slot.BanUntil > until {
			until = slot.BanUntil
		}
	}
	if until > 0 {
		return Evaluation{State: state, Banned: true, BanUntil: until}
	}

	next := state.Clone()
	ev := Evaluation{Allowed: true, Changed: true}
	for i, rule := range rules {
		slot := &next.Slots[i]
		if slot.BanUntil != 0 {
			slot.BanUntil = 0
			ev.Lifted = true
		}

		slot.Count++
		if now-slot.WindowStart < rule.Interval {
			if slot.Count > rule.MaxCount {
				slot.BanUntil = now + rule.Ban
				slot.Count = 0
				ev.Allowed = false
				ev.Violated = append(ev.Violated, i)
				if slot.BanUntil > ev.BanUntil {
					ev.BanUntil = slot.BanUntil
				}
			}
			continue
		}

		slot.WindowStart = now
		slot.Count = 0
	}
	ev.State = next
	return ev
}
