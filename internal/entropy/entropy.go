// Package entropy implements the topological-entropy threat hierarchy
// (TETH) analyzer: a scalar structural-complexity score over primitive
// traces and its classification against capability-tier thresholds.
package entropy

import (
	"errors"
	"fmt"
	"math"

	"github.com/varga-lab/threatscope/internal/primitive"
)

// ErrComputation signals an internal numeric invariant violation
// (non-finite or negative entropy). It indicates a defect, not a
// condition callers are expected to recover from.
var ErrComputation = errors.New("entropy: computation failure")

// CalculateTopologicalEntropy scores the structural complexity of an
// ordered primitive trace.
//
// The trace is treated as a path over the closed alphabet. The score is
// the Shannon entropy of the observed symbol distribution plus the
// frequency-weighted mean Shannon entropy of the first-order transition
// rows, both in bits. An empty trace scores 0.0. Zero-probability cells
// contribute nothing (0·log0 := 0), so the result is always finite and
// non-negative.
func CalculateTopologicalEntropy(seq []primitive.Primitive) (float64, error) {
	if len(seq) == 0 {
		return 0.0, nil
	}

	var symbolCounts [primitive.VocabularySize]int
	var transitionCounts [primitive.VocabularySize][primitive.VocabularySize]int
	var rowTotals [primitive.VocabularySize]int

	for i, p := range seq {
		if !p.Valid() {
			return 0, fmt.Errorf("%w: symbol %d out of vocabulary", ErrComputation, i)
		}
		symbolCounts[p]++
		if i > 0 {
			prev := seq[i-1]
			transitionCounts[prev][p]++
			rowTotals[prev]++
		}
	}

	symbolEntropy := distributionEntropy(symbolCounts[:], len(seq))

	transitions := len(seq) - 1
	transitionEntropy := 0.0
	if transitions > 0 {
		for row := 0; row < primitive.VocabularySize; row++ {
			if rowTotals[row] == 0 {
				continue
			}
			weight := float64(rowTotals[row]) / float64(transitions)
			transitionEntropy += weight * distributionEntropy(transitionCounts[row][:], rowTotals[row])
		}
	}

	h := symbolEntropy + transitionEntropy
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0, fmt.Errorf("%w: non-finite result", ErrComputation)
	}
	return h, nil
}

// distributionEntropy computes the Shannon entropy in bits of a count
// vector with the given total. Zero counts are skipped.
func distributionEntropy(counts []int, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}
