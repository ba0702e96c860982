package learner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/varga-lab/threatscope/internal/primitive"
)

// twoStateChain builds the acceptor for "R then nothing": state 0
// accepts, R leads to accepting state 1, everything else sinks.
func twoStateChain() *Hypothesis {
	return newHypothesis(
		[]primitive.Primitive{primitive.Read},
		0,
		[]bool{true, true, false},
		[][]int{{1}, {2}, {2}},
	)
}

func TestHypothesis_Accepts(t *testing.T) {
	h := twoStateChain()

	assert.True(t, h.Accepts(nil))
	assert.True(t, h.Accepts([]primitive.Primitive{primitive.Read}))
	assert.False(t, h.Accepts([]primitive.Primitive{primitive.Read, primitive.Read}))
}

func TestHypothesis_RejectsOutOfAlphabet(t *testing.T) {
	h := twoStateChain()

	assert.False(t, h.Accepts([]primitive.Primitive{primitive.Write}),
		"symbol outside the alphabet must reject")
	assert.False(t, h.Accepts([]primitive.Primitive{primitive.Primitive(99)}),
		"symbol outside the vocabulary must reject")
}

func TestHypothesis_States(t *testing.T) {
	h := twoStateChain()
	assert.Equal(t, 3, h.States())
	assert.Equal(t, []primitive.Primitive{primitive.Read}, h.Alphabet())
}

func TestObservationTable_CounterexampleFolding(t *testing.T) {
	table := newObservationTable([]primitive.Primitive{primitive.Read, primitive.Write})
	before := len(table.prefixes)

	table.addCounterexample([]primitive.Primitive{primitive.Read, primitive.Write, primitive.Read})

	// Every prefix of the counterexample joins the prefix set.
	assert.Equal(t, before+3, len(table.prefixes))

	// Folding the same counterexample again is a no-op.
	table.addCounterexample([]primitive.Primitive{primitive.Read, primitive.Write, primitive.Read})
	assert.Equal(t, before+3, len(table.prefixes))
}
