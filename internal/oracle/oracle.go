// Package oracle adapts a threat scenario into the query interface the
// automaton learner consumes. The adapter is a pure read-only view of
// the scenario's primitive trace: it owns no state of its own.
package oracle

import (
	"context"

	"github.com/varga-lab/threatscope/internal/learner"
	"github.com/varga-lab/threatscope/internal/primitive"
)

// ScenarioOracle answers membership and equivalence queries for the
// behavior defined by one scenario. The target language is the
// prefix-closed set of the scenario's required-primitive trace: a
// query trace is a member iff it is a prefix of that trace. The
// scenario's own full trace is therefore always a positive example.
type ScenarioOracle struct {
	trace    []primitive.Primitive
	alphabet []primitive.Primitive
}

// FromScenario builds an oracle over the scenario's trace. The
// alphabet is the scenario's distinct primitives in first-appearance
// order.
func FromScenario(s *primitive.Scenario) *ScenarioOracle {
	trace := s.Trace()

	var seen [primitive.VocabularySize]bool
	var alphabet []primitive.Primitive
	for _, p := range trace {
		if p.Valid() && !seen[p] {
			seen[p] = true
			alphabet = append(alphabet, p)
		}
	}

	return &ScenarioOracle{trace: trace, alphabet: alphabet}
}

// Alphabet returns the symbols the scenario's behavior ranges over.
func (o *ScenarioOracle) Alphabet() []primitive.Primitive {
	return o.alphabet
}

// MembershipQuery reports whether the query trace is a prefix of the
// scenario trace. It never fails: the underlying data is in memory.
func (o *ScenarioOracle) MembershipQuery(ctx context.Context, trace []primitive.Primitive) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return o.isPrefix(trace), nil
}

func (o *ScenarioOracle) isPrefix(trace []primitive.Primitive) bool {
	if len(trace) > len(o.trace) {
		return false
	}
	for i, p := range trace {
		if o.trace[i] != p {
			return false
		}
	}
	return true
}

// EquivalenceQuery checks the hypothesis against a structured probe
// set: every prefix of the scenario trace (positives), every
// one-symbol extension of every prefix (mostly negatives), and the
// full trace with one extra symbol (overshoot). The first disagreement
// is returned as a counterexample. For a prefix-closed chain language
// this set pins the canonical automaton exactly.
func (o *ScenarioOracle) EquivalenceQuery(ctx context.Context, h *learner.Hypothesis) (learner.EquivalenceAnswer, error) {
	if err := ctx.Err(); err != nil {
		return learner.EquivalenceAnswer{}, err
	}

	for i := 0; i <= len(o.trace); i++ {
		prefix := o.trace[:i]
		if !h.Accepts(prefix) {
			return counterexample(prefix), nil
		}
		for _, a := range o.alphabet {
			extended := append(append([]primitive.Primitive(nil), prefix...), a)
			if h.Accepts(extended) != o.isPrefix(extended) {
				return counterexample(extended), nil
			}
		}
	}

	return learner.EquivalenceAnswer{Equivalent: true}, nil
}

func counterexample(trace []primitive.Primitive) learner.EquivalenceAnswer {
	return learner.EquivalenceAnswer{
		Counterexample: append([]primitive.Primitive(nil), trace...),
	}
}
