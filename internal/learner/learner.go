// Package learner implements L*-style active inference of a finite-state
// acceptor for a target threat behavior, driven by membership and
// equivalence queries against an injected oracle.
package learner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/varga-lab/threatscope/internal/primitive"
)

// ErrOracleUnavailable signals that the oracle could not answer a query.
// It must surface to the caller: silently treating it as a negative
// answer would corrupt the observation table.
var ErrOracleUnavailable = errors.New("learner: oracle unavailable")

// EquivalenceAnswer is the oracle's reply to an equivalence query:
// either confirmation or a counterexample trace the hypothesis
// misclassifies.
type EquivalenceAnswer struct {
	Equivalent     bool
	Counterexample []primitive.Primitive
}

// Oracle answers queries about the target behavior. Implementations may
// be I/O-bound (a live network scan); every query takes a context and
// may fail with an error wrapping ErrOracleUnavailable.
type Oracle interface {
	// Alphabet returns the symbols the target behavior ranges over.
	Alphabet() []primitive.Primitive
	// MembershipQuery reports whether the trace belongs to the target behavior.
	MembershipQuery(ctx context.Context, trace []primitive.Primitive) (bool, error)
	// EquivalenceQuery checks a hypothesis against the full behavior.
	EquivalenceQuery(ctx context.Context, h *Hypothesis) (EquivalenceAnswer, error)
}

// Phase is the learner's position in its run lifecycle.
type Phase int

const (
	Building        Phase = iota // filling the observation table
	Closed                       // table closed and consistent
	Querying                     // equivalence query outstanding
	Converged                    // terminal: oracle confirmed the hypothesis
	BudgetExhausted              // terminal: iteration cap hit without confirmation
	Failed                       // terminal: oracle error
)

// String returns a short lifecycle label.
func (p Phase) String() string {
	switch p {
	case Building:
		return "building"
	case Closed:
		return "closed"
	case Querying:
		return "querying"
	case Converged:
		return "converged"
	case BudgetExhausted:
		return "budget_exhausted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// LearningResult reports the outcome of one learning run.
// Non-convergence is a valid outcome, not an error.
type LearningResult struct {
	// Convergence is true when the oracle confirmed the hypothesis
	// within the iteration budget.
	Convergence bool `json:"convergence"`
	// Iterations counts hypothesis-refinement rounds. Convergence
	// implies Iterations ≤ the configured budget.
	Iterations int `json:"iterations"`
	// LearningAccuracy is the fraction of oracle-checked traces the
	// final hypothesis classifies correctly, in [0, 1]. Meaningful
	// once the run has terminated.
	LearningAccuracy float64 `json:"learning_accuracy"`
	// States is the size of the final hypothesis automaton.
	States int `json:"states"`
	// Phase is the terminal lifecycle phase of the run.
	Phase Phase `json:"phase"`
}

// MarshalJSON is implemented on Phase so results serialize with the
// lifecycle label rather than its ordinal.
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Learner runs the L* loop. Each call to LearnThreatAutomaton owns its
// observation table exclusively; a single Learner may serve sequential
// runs, and independent runs need independent Learner instances only
// when executed concurrently (the rng is not synchronized).
type Learner struct {
	maxIterations int
	sampleSize    int
	rng           *rand.Rand
}

// DefaultMaxIterations bounds the refinement loop; catalog-sized
// scenarios converge in a small fraction of it.
const DefaultMaxIterations = 50

// DefaultSampleSize is the held-out trace count for accuracy scoring.
const DefaultSampleSize = 50

// New creates a Learner with an explicit iteration budget, held-out
// sample size, and PRNG seed. The seed is explicit so runs are
// reproducible; zero values select the defaults.
func New(maxIterations, sampleSize int, seed int64) *Learner {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Learner{
		maxIterations: maxIterations,
		sampleSize:    sampleSize,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// LearnThreatAutomaton infers an acceptor for the oracle's target
// behavior. The loop is strictly sequential: each query's formulation
// depends on all earlier answers. Cancellation via ctx terminates the
// run early with a partial, non-converged result rather than an error;
// only oracle failure is an error.
func (l *Learner) LearnThreatAutomaton(ctx context.Context, oracle Oracle) (LearningResult, error) {
	alphabet := oracle.Alphabet()
	if len(alphabet) == 0 {
		return LearningResult{}, fmt.Errorf("%w: empty alphabet", ErrOracleUnavailable)
	}

	table := newObservationTable(alphabet)
	iterations := 0

	partial := func(h *Hypothesis) LearningResult {
		res := LearningResult{
			Convergence: false,
			Iterations:  iterations,
			Phase:       BudgetExhausted,
		}
		if h != nil {
			res.States = h.States()
			res.LearningAccuracy = l.estimateAccuracy(ctx, oracle, table, h)
		}
		return res
	}

	var hypothesis *Hypothesis
	for {
		// Building: fill gaps and repair closedness/consistency.
		if err := table.fill(ctx, oracle); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return partial(hypothesis), nil
			}
			return LearningResult{Iterations: iterations, Phase: Failed}, err
		}
		progressed, err := table.makeClosedAndConsistent(ctx, oracle)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return partial(hypothesis), nil
			}
			return LearningResult{Iterations: iterations, Phase: Failed}, err
		}
		if progressed {
			continue // more rows or suffixes to fill
		}

		// Closed: a hypothesis is constructible.
		hypothesis = table.hypothesis()

		iterations++
		if iterations > l.maxIterations {
			res := partial(hypothesis)
			res.Iterations = l.maxIterations
			return res, nil
		}
		if ctx.Err() != nil {
			return partial(hypothesis), nil
		}

		// Querying: one equivalence query per refinement round.
		answer, err := oracle.EquivalenceQuery(ctx, hypothesis)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return partial(hypothesis), nil
			}
			return LearningResult{Iterations: iterations, Phase: Failed}, err
		}
		if answer.Equivalent {
			return LearningResult{
				Convergence:      true,
				Iterations:       iterations,
				LearningAccuracy: l.estimateAccuracy(ctx, oracle, table, hypothesis),
				States:           hypothesis.States(),
				Phase:            Converged,
			}, nil
		}

		// Counterexample: fold every prefix into the table and refine.
		table.addCounterexample(answer.Counterexample)
	}
}

// estimateAccuracy scores the hypothesis against every trace the table
// already holds an answer for, plus a seeded random held-out set of
// fresh traces. Held-out samples the oracle cannot answer are skipped
// rather than guessed as negative.
func (l *Learner) estimateAccuracy(ctx context.Context, oracle Oracle, table *observationTable, h *Hypothesis) float64 {
	checked, correct := 0, 0

	for key, member := range table.answers {
		checked++
		if h.Accepts(decodeTrace(key)) == member {
			correct++
		}
	}

	maxLen := table.longestPrefix() + 2
	for i := 0; i < l.sampleSize; i++ {
		trace := randomTrace(l.rng, table.alphabet, maxLen)
		member, err := oracle.MembershipQuery(ctx, trace)
		if err != nil {
			continue
		}
		checked++
		if h.Accepts(trace) == member {
			correct++
		}
	}

	if checked == 0 {
		return 0.0
	}
	return float64(correct) / float64(checked)
}

// randomTrace draws a trace of length in [0, maxLen] uniformly over
// the alphabet, using the explicit seeded generator.
func randomTrace(rng *rand.Rand, alphabet []primitive.Primitive, maxLen int) []primitive.Primitive {
	if maxLen < 0 {
		maxLen = 0
	}
	n := rng.Intn(maxLen + 1)
	trace := make([]primitive.Primitive, n)
	for i := range trace {
		trace[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return trace
}
