package domain

import (
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"
)

// Slot é o contador de uma regra. Tempos em epoch (segundos).
// BanUntil == 0 significa "sem banimento".
type Slot struct {
	WindowStart int64
	Count       int64
	BanUntil    int64
}

// Banned informa se o slot está banido no instante now.
func (s Slot) Banned(now int64) bool { return s.BanUntil > now }

// CounterState é o estado persistido de um sujeito.
//
// Na estratégia por IP há um slot por regra do RuleSet (mesma ordem).
// Na estratégia por rota há exatamente um slot.
type CounterState struct {
	Slots []Slot
}

// NewCounterState cria um estado zerado com n slots abrindo janela em now.
func NewCounterState(n int, now int64) CounterState {
	slots := make([]Slot, n)
	for i := range slots {
		slots[i].WindowStart = now
	}
	return CounterState{Slots: slots}
}

func (s CounterState) Clone() CounterState {
	return CounterState{Slots: append([]Slot(nil), s.Slots...)}
}

var (
	parserPool fastjson.ParserPool
	arenaPool  fastjson.ArenaPool
)

// EncodeState serializa o estado como uma lista de triplas
// [windowStart, count, banUntil].
func EncodeState(s CounterState) []byte {
	a := arenaPool.Get()
	defer arenaPool.Put(a)

	arr := a.NewArray()
	for i, slot := range s.Slots {
		triple := a.NewArray()
		triple.SetArrayItem(0, a.NewNumberString(strconv.FormatInt(slot.WindowStart, 10)))
		triple.SetArrayItem(1, a.NewNumberString(strconv.FormatInt(slot.Count, 10)))
		triple.SetArrayItem(2, a.NewNumberString(strconv.FormatInt(slot.BanUntil, 10)))
		arr.SetArrayItem(i, triple)
	}
	return arr.MarshalTo(nil)
}

// DecodeState valida e lê um estado com exatamente want slots.
// Qualquer divergência de formato ou tamanho devolve ErrMalformedState.
func DecodeState(b []byte, want int) (CounterState, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(b)
	if err != nil {
		return CounterState{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	items, err := v.Array()
	if err != nil {
		return CounterState{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if len(items) != want {
		return CounterState{}, fmt.Errorf("%w: got %d slots, want %d", ErrMalformedState, len(items), want)
	}

	out := CounterState{Slots: make([]Slot, len(items))}
	for i, item := range items {
		fields, err := item.Array()
		if err != nil || len(fields) != 3 {
			return CounterState{}, fmt.Errorf("%w: slot #%d is not a [windowStart, count, banUntil] triple", ErrMalformedState, i)
		}
		var nums [3]int64
		for j, f := range fields {
			n, err := f.Int64()
			if err != nil || n < 0 {
				return CounterState{}, fmt.Errorf("%w: slot #%d field #%d", ErrMalformedState, i, j)
			}
			nums[j] = n
		}
		out.Slots[i] = Slot{WindowStart: nums[0], Count: nums[1], BanUntil: nums[2]}
	}
	return out, nil
}
