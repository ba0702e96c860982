package learner

import "github.com/varga-lab/threatscope/internal/primitive"

// Hypothesis is a candidate deterministic finite acceptor over the
// oracle's alphabet. Symbols outside the alphabet are rejected outright.
type Hypothesis struct {
	alphabet    []primitive.Primitive
	column      [primitive.VocabularySize]int // symbol → column+1; 0 means absent
	start       int
	accepting   []bool
	transitions [][]int // [state][column] → state
}

func newHypothesis(alphabet []primitive.Primitive, start int, accepting []bool, transitions [][]int) *Hypothesis {
	h := &Hypothesis{
		alphabet:    alphabet,
		start:       start,
		accepting:   accepting,
		transitions: transitions,
	}
	for col, a := range alphabet {
		if a.Valid() {
			h.column[a] = col + 1
		}
	}
	return h
}

// States returns the automaton size.
func (h *Hypothesis) States() int {
	return len(h.accepting)
}

// Alphabet returns the symbols the acceptor is defined over.
func (h *Hypothesis) Alphabet() []primitive.Primitive {
	return h.alphabet
}

// Accepts runs the acceptor over a trace. Any symbol outside the
// alphabet rejects immediately.
func (h *Hypothesis) Accepts(trace []primitive.Primitive) bool {
	state := h.start
	for _, p := range trace {
		if !p.Valid() {
			return false
		}
		col := h.column[p]
		if col == 0 {
			return false
		}
		state = h.transitions[state][col-1]
	}
	return h.accepting[state]
}
