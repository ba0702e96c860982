package entropy

import (
	"fmt"
	"strings"

	"github.com/varga-lab/threatscope/internal/primitive"
)

// ComplexityLevel is the discrete label derived from entropy under a
// tier's thresholds. Ordering is load-bearing: Low < Medium < High < Critical.
type ComplexityLevel int

const (
	Low ComplexityLevel = iota
	Medium
	High
	Critical
)

// String returns the canonical label name.
func (l ComplexityLevel) String() string {
	switch l {
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	case Critical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("ComplexityLevel(%d)", int(l))
	}
}

// MarshalJSON serializes the label as its canonical name.
func (l ComplexityLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// ParseComplexityLevel converts a label name into a ComplexityLevel.
func ParseComplexityLevel(s string) (ComplexityLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return Low, nil
	case "MEDIUM":
		return Medium, nil
	case "HIGH":
		return High, nil
	case "CRITICAL":
		return Critical, nil
	default:
		return 0, fmt.Errorf("unknown complexity level %q", s)
	}
}

// TierThresholds holds the classification cutoffs for one capability tier.
// Label cutoffs are lower bounds: entropy ≥ Critical → CRITICAL,
// ≥ High → HIGH, ≥ Medium → MEDIUM, otherwise LOW.
type TierThresholds struct {
	// Medium, High, Critical are the label cutoffs, strictly ascending.
	Medium   float64
	High     float64
	Critical float64
	// CriticalCutoff is the tier's alarm threshold: entropy strictly
	// above it sets ExceedsThreshold.
	CriticalCutoff float64
	// BandMin and BandMax bound the entropy expected of actors at this
	// tier. Only falling below BandMin fails the capability match;
	// exceeding BandMax is reported but tolerated, since
	// over-engineering a scenario is plausible.
	BandMin float64
	BandMax float64
	// MinDistinct is the minimum primitive diversity expected of the tier.
	MinDistinct int
}

// Validate enforces ascending label cutoffs and a sane band.
func (t TierThresholds) Validate() error {
	if !(t.Medium < t.High && t.High < t.Critical) {
		return fmt.Errorf("label cutoffs must ascend: medium=%g high=%g critical=%g", t.Medium, t.High, t.Critical)
	}
	if t.BandMin < 0 || t.BandMax < t.BandMin {
		return fmt.Errorf("invalid band [%g, %g]", t.BandMin, t.BandMax)
	}
	if t.CriticalCutoff <= 0 {
		return fmt.Errorf("critical cutoff must be positive, got %g", t.CriticalCutoff)
	}
	if t.MinDistinct < 0 {
		return fmt.Errorf("negative min_distinct %d", t.MinDistinct)
	}
	return nil
}

// Classify maps an entropy value to its label. The mapping is a
// deterministic, monotone step function of the entropy.
func (t TierThresholds) Classify(entropy float64) ComplexityLevel {
	switch {
	case entropy >= t.Critical:
		return Critical
	case entropy >= t.High:
		return High
	case entropy >= t.Medium:
		return Medium
	default:
		return Low
	}
}

// Thresholds maps each capability tier to its classification table.
// The orchestrator injects a tuned table; DefaultThresholds is used
// when none is supplied.
type Thresholds map[primitive.APTLevel]TierThresholds

// DefaultThresholds returns the built-in threshold table. Higher tiers
// carry higher cutoffs for the same label: what counts as HIGH for an
// intermediate actor is closer to baseline for a nation-state actor.
func DefaultThresholds() Thresholds {
	return Thresholds{
		primitive.Intermediate: {
			Medium: 1.2, High: 2.6, Critical: 3.2,
			CriticalCutoff: 2.8,
			BandMin:        0.8, BandMax: 3.4,
			MinDistinct: 2,
		},
		primitive.Advanced: {
			Medium: 1.4, High: 2.8, Critical: 3.4,
			CriticalCutoff: 2.9,
			BandMin:        1.6, BandMax: 4.2,
			MinDistinct: 3,
		},
		primitive.NationState: {
			Medium: 1.6, High: 3.0, Critical: 3.6,
			CriticalCutoff: 2.95,
			BandMin:        1.9, BandMax: 5.0,
			MinDistinct: 4,
		},
	}
}

// Validate checks every tier table and the cross-tier ordering: each
// label cutoff must be non-decreasing as capability rises.
func (th Thresholds) Validate() error {
	levels := primitive.Levels()
	for _, level := range levels {
		tier, ok := th[level]
		if !ok {
			return fmt.Errorf("missing thresholds for tier %s", level)
		}
		if err := tier.Validate(); err != nil {
			return fmt.Errorf("tier %s: %w", level, err)
		}
	}
	for i := 1; i < len(levels); i++ {
		lo, hi := th[levels[i-1]], th[levels[i]]
		if hi.Medium < lo.Medium || hi.High < lo.High || hi.Critical < lo.Critical {
			return fmt.Errorf("label cutoffs must not decrease from %s to %s", levels[i-1], levels[i])
		}
	}
	return nil
}

// ComplexityAssessment is the entropy engine's verdict for one scenario
// under one claimed capability tier.
type ComplexityAssessment struct {
	ScenarioID   string             `json:"scenario_id"`
	ScenarioName string             `json:"scenario_name"`
	APTLevel     primitive.APTLevel `json:"apt_level"`

	// TopologicalEntropy is the computed score, always ≥ 0.
	TopologicalEntropy float64 `json:"topological_entropy"`
	// ComplexityLevel is the label under the tier's cutoffs.
	ComplexityLevel ComplexityLevel `json:"complexity_level"`
	// ExceedsThreshold is true when entropy is above the tier's
	// critical cutoff.
	ExceedsThreshold bool `json:"exceeds_threshold"`
	// APTCapabilityMatch is true when the scenario's diversity and
	// entropy are consistent with actors of the claimed tier.
	APTCapabilityMatch bool `json:"apt_capability_match"`
	// OverBand is true when entropy exceeds the tier's band maximum;
	// informational only, it never fails the match.
	OverBand bool `json:"over_band,omitempty"`
	// DistinctPrimitives counts distinct symbols in the trace.
	DistinctPrimitives int `json:"distinct_primitives"`
	// SequenceLength is the trace length.
	SequenceLength int `json:"sequence_length"`
}

// Engine classifies scenarios against an injected threshold table.
// Assessment is a pure function of its inputs: the engine holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an Engine. A nil table selects DefaultThresholds.
func NewEngine(th Thresholds) *Engine {
	if th == nil {
		th = DefaultThresholds()
	}
	return &Engine{thresholds: th}
}

// Thresholds returns the engine's threshold table.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// AssessThreatComplexity scores a scenario's trace and classifies it
// under the claimed capability tier.
func (e *Engine) AssessThreatComplexity(s *primitive.Scenario, level primitive.APTLevel) (ComplexityAssessment, error) {
	tier, ok := e.thresholds[level]
	if !ok {
		return ComplexityAssessment{}, fmt.Errorf("no thresholds for tier %s", level)
	}

	h, err := CalculateTopologicalEntropy(s.PrimitivesRequired)
	if err != nil {
		return ComplexityAssessment{}, fmt.Errorf("assess %q: %w", s.Name, err)
	}

	distinct := primitive.Distinct(s.PrimitivesRequired)
	match := h >= tier.BandMin && distinct >= tier.MinDistinct

	return ComplexityAssessment{
		ScenarioID:         s.ID,
		ScenarioName:       s.Name,
		APTLevel:           level,
		TopologicalEntropy: h,
		ComplexityLevel:    tier.Classify(h),
		ExceedsThreshold:   h > tier.CriticalCutoff,
		APTCapabilityMatch: match,
		OverBand:           h > tier.BandMax,
		DistinctPrimitives: distinct,
		SequenceLength:     len(s.PrimitivesRequired),
	}, nil
}
