package learner

import (
	"context"
	"fmt"

	"github.com/varga-lab/threatscope/internal/primitive"
)

// encodeTrace packs a trace into a map key. Every primitive fits a
// single byte, so the encoding is order-preserving and reversible.
func encodeTrace(trace []primitive.Primitive) string {
	b := make([]byte, len(trace))
	for i, p := range trace {
		b[i] = byte(p)
	}
	return string(b)
}

// decodeTrace is the inverse of encodeTrace.
func decodeTrace(key string) []primitive.Primitive {
	trace := make([]primitive.Primitive, len(key))
	for i := 0; i < len(key); i++ {
		trace[i] = primitive.Primitive(key[i])
	}
	return trace
}

// observationTable is the L* data structure: membership answers for
// (prefix row) × (suffix column) pairs, over the rows S ∪ S·A.
type observationTable struct {
	alphabet []primitive.Primitive

	prefixes  [][]primitive.Primitive // S, in insertion order
	suffixes  [][]primitive.Primitive // E, in insertion order
	prefixSet map[string]bool
	suffixSet map[string]bool

	// answers maps an encoded full trace (row·column) to its
	// membership answer. Shared across rows so repeated traces are
	// queried once.
	answers map[string]bool
}

// newObservationTable starts with the empty prefix row and the empty
// suffix column, the canonical L* initial state.
func newObservationTable(alphabet []primitive.Primitive) *observationTable {
	t := &observationTable{
		alphabet:  alphabet,
		prefixSet: map[string]bool{},
		suffixSet: map[string]bool{},
		answers:   map[string]bool{},
	}
	t.addPrefix(nil)
	t.addSuffix(nil)
	return t
}

func (t *observationTable) addPrefix(p []primitive.Primitive) bool {
	key := encodeTrace(p)
	if t.prefixSet[key] {
		return false
	}
	t.prefixSet[key] = true
	t.prefixes = append(t.prefixes, append([]primitive.Primitive(nil), p...))
	return true
}

func (t *observationTable) addSuffix(s []primitive.Primitive) bool {
	key := encodeTrace(s)
	if t.suffixSet[key] {
		return false
	}
	t.suffixSet[key] = true
	t.suffixes = append(t.suffixes, append([]primitive.Primitive(nil), s...))
	return true
}

// addCounterexample folds a counterexample trace into the table by
// adding every prefix of it as a row (Angluin's construction).
func (t *observationTable) addCounterexample(trace []primitive.Primitive) {
	for i := 1; i <= len(trace); i++ {
		t.addPrefix(trace[:i])
	}
}

// longestPrefix returns the length of the longest row, used to bound
// held-out sampling.
func (t *observationTable) longestPrefix() int {
	max := 0
	for _, p := range t.prefixes {
		if len(p) > max {
			max = len(p)
		}
	}
	return max
}

// fill issues membership queries for every unanswered (row, column)
// cell across S ∪ S·A. Queries are strictly sequential; the context is
// checked before each one.
func (t *observationTable) fill(ctx context.Context, oracle Oracle) error {
	rows := t.allRows()
	for _, row := range rows {
		for _, suffix := range t.suffixes {
			trace := concat(row, suffix)
			key := encodeTrace(trace)
			if _, ok := t.answers[key]; ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			member, err := oracle.MembershipQuery(ctx, trace)
			if err != nil {
				return fmt.Errorf("membership query: %w", err)
			}
			t.answers[key] = member
		}
	}
	return nil
}

// allRows returns S followed by the boundary S·A.
func (t *observationTable) allRows() [][]primitive.Primitive {
	rows := make([][]primitive.Primitive, 0, len(t.prefixes)*(1+len(t.alphabet)))
	rows = append(rows, t.prefixes...)
	for _, p := range t.prefixes {
		for _, a := range t.alphabet {
			rows = append(rows, concat(p, []primitive.Primitive{a}))
		}
	}
	return rows
}

// signature renders a row as its answer vector across all suffixes.
// Rows with equal signatures are candidates for the same state.
func (t *observationTable) signature(row []primitive.Primitive) string {
	sig := make([]byte, len(t.suffixes))
	for i, suffix := range t.suffixes {
		if t.answers[encodeTrace(concat(row, suffix))] {
			sig[i] = '1'
		} else {
			sig[i] = '0'
		}
	}
	return string(sig)
}

// makeClosedAndConsistent repairs at most one defect per call: an
// unclosed boundary row is promoted into S, or a distinguishing suffix
// is added for an inconsistent prefix pair. It reports whether the
// table changed (and therefore needs refilling).
func (t *observationTable) makeClosedAndConsistent(ctx context.Context, oracle Oracle) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	// Closedness: every boundary row must match some prefix row.
	prefixSigs := map[string]bool{}
	for _, p := range t.prefixes {
		prefixSigs[t.signature(p)] = true
	}
	for _, p := range t.prefixes {
		for _, a := range t.alphabet {
			boundary := concat(p, []primitive.Primitive{a})
			if !prefixSigs[t.signature(boundary)] {
				t.addPrefix(boundary)
				return true, nil
			}
		}
	}

	// Consistency: equal prefix rows must stay equal under every
	// one-symbol extension.
	for i := 0; i < len(t.prefixes); i++ {
		for j := i + 1; j < len(t.prefixes); j++ {
			if t.signature(t.prefixes[i]) != t.signature(t.prefixes[j]) {
				continue
			}
			for _, a := range t.alphabet {
				ext1 := concat(t.prefixes[i], []primitive.Primitive{a})
				ext2 := concat(t.prefixes[j], []primitive.Primitive{a})
				sig1, sig2 := t.signature(ext1), t.signature(ext2)
				if sig1 == sig2 {
					continue
				}
				// Find the suffix that separates the extensions and
				// prepend the symbol to it.
				for k := range t.suffixes {
					if sig1[k] != sig2[k] {
						t.addSuffix(concat([]primitive.Primitive{a}, t.suffixes[k]))
						return true, nil
					}
				}
			}
		}
	}

	return false, nil
}

// hypothesis constructs the DFA induced by a closed, consistent table.
func (t *observationTable) hypothesis() *Hypothesis {
	stateOf := map[string]int{}
	var accepting []bool
	var representatives [][]primitive.Primitive

	for _, p := range t.prefixes {
		sig := t.signature(p)
		if _, ok := stateOf[sig]; ok {
			continue
		}
		stateOf[sig] = len(representatives)
		representatives = append(representatives, p)
		accepting = append(accepting, t.answers[encodeTrace(p)])
	}

	transitions := make([][]int, len(representatives))
	for s, rep := range representatives {
		transitions[s] = make([]int, len(t.alphabet))
		for col, a := range t.alphabet {
			target := t.signature(concat(rep, []primitive.Primitive{a}))
			transitions[s][col] = stateOf[target]
		}
	}

	return newHypothesis(t.alphabet, stateOf[t.signature(nil)], accepting, transitions)
}

func concat(a, b []primitive.Primitive) []primitive.Primitive {
	out := make([]primitive.Primitive, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
