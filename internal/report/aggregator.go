// Package report aggregates scenario assessment results into escalation
// verdicts, persists evidence, and renders the suite report.
package report

import (
	"fmt"
	"time"

	"github.com/varga-lab/threatscope/internal/entropy"
	"github.com/varga-lab/threatscope/internal/learner"
	"github.com/varga-lab/threatscope/internal/primitive"
)

// EscalationLevel is the operational escalation ladder for a scenario
// verdict.
type EscalationLevel int

const (
	EscalateNone EscalationLevel = iota
	EscalateAnalyst
	EscalateSenior
	EscalateManagement
	EscalateEmergency
)

// String returns the ladder label.
func (l EscalationLevel) String() string {
	switch l {
	case EscalateNone:
		return "none"
	case EscalateAnalyst:
		return "analyst"
	case EscalateSenior:
		return "senior"
	case EscalateManagement:
		return "management"
	case EscalateEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the ladder label.
func (l EscalationLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// Escalation is the operational verdict derived from one scenario's
// entropy assessment and learning result.
type Escalation struct {
	Level              EscalationLevel `json:"level"`
	ImmediateAction    bool            `json:"immediate_action"`
	RecommendedActions []string        `json:"recommended_actions"`
}

// ScenarioResult is the combined outcome of one scenario analysis.
type ScenarioResult struct {
	Key      string        `json:"key"`
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration_ns"`

	Assessment entropy.ComplexityAssessment `json:"assessment"`
	Learning   learner.LearningResult       `json:"learning"`
	Escalation Escalation                   `json:"escalation"`

	// Error is set when the analysis itself failed (entropy defect or
	// oracle unavailability); the scenario then carries no verdict.
	Error string `json:"error,omitempty"`
	// Details is a one-line human summary.
	Details string `json:"details"`
}

// Aggregator derives escalation verdicts from assessment results.
type Aggregator struct{}

// Escalate maps a tier and assessment outcome onto the escalation
// ladder. Nation-state classifications always escalate at least to
// management; critical or threshold-exceeding complexity raises each
// tier one rung further. A non-converged behavior model never lowers
// the verdict, only its recommended actions.
func (a *Aggregator) Escalate(assessment entropy.ComplexityAssessment, learning learner.LearningResult) Escalation {
	critical := assessment.ExceedsThreshold || assessment.ComplexityLevel == entropy.Critical

	var level EscalationLevel
	switch assessment.APTLevel {
	case primitive.NationState:
		level = EscalateManagement
		if critical || assessment.ComplexityLevel >= entropy.High {
			level = EscalateEmergency
		}
	case primitive.Advanced:
		level = EscalateSenior
		if critical {
			level = EscalateManagement
		}
	default:
		switch {
		case critical, assessment.ComplexityLevel >= entropy.High:
			level = EscalateSenior
		case assessment.ComplexityLevel == entropy.Medium:
			level = EscalateAnalyst
		case assessment.APTCapabilityMatch:
			level = EscalateAnalyst
		default:
			level = EscalateNone
		}
	}

	immediate := assessment.ExceedsThreshold ||
		assessment.ComplexityLevel == entropy.Critical ||
		(assessment.ComplexityLevel == entropy.High && learning.LearningAccuracy > 0.8)

	var actions []string
	if immediate {
		actions = append(actions,
			"Isolate affected segment immediately",
			"Activate incident response team")
	}
	switch level {
	case EscalateEmergency:
		actions = append(actions,
			"Notify cyber command",
			"Begin forensic collection",
			"Activate threat hunting protocols")
	case EscalateManagement, EscalateSenior:
		actions = append(actions,
			"Enhance monitoring of target network",
			"Deploy additional sensors")
	default:
		actions = append(actions,
			"Continue monitoring",
			"Update threat intelligence")
	}
	if !learning.Convergence {
		actions = append(actions, fmt.Sprintf(
			"Behavior model did not converge in %d iterations; re-run with a larger query budget",
			learning.Iterations))
	}

	return Escalation{
		Level:              level,
		ImmediateAction:    immediate,
		RecommendedActions: actions,
	}
}

// SuiteSummary aggregates a full scenario run.
type SuiteSummary struct {
	TotalScenarios  int           `json:"total_scenarios"`
	Passed          int           `json:"passed"`
	Failed          int           `json:"failed"`
	PassRate        float64       `json:"pass_rate"`
	AverageEntropy  float64       `json:"average_entropy"`
	AverageAccuracy float64       `json:"average_accuracy"`
	TotalDuration   time.Duration `json:"total_duration_ns"`
	FailedScenarios []string      `json:"failed_scenarios,omitempty"`
}

// Summarize computes the suite summary over all scenario results.
func Summarize(results []ScenarioResult) SuiteSummary {
	s := SuiteSummary{TotalScenarios: len(results)}
	if len(results) == 0 {
		return s
	}

	var entropySum, accuracySum float64
	for _, r := range results {
		if r.Success {
			s.Passed++
		} else {
			s.Failed++
			s.FailedScenarios = append(s.FailedScenarios, r.Name)
		}
		entropySum += r.Assessment.TopologicalEntropy
		accuracySum += r.Learning.LearningAccuracy
		s.TotalDuration += r.Duration
	}
	n := float64(len(results))
	s.PassRate = float64(s.Passed) / n
	s.AverageEntropy = entropySum / n
	s.AverageAccuracy = accuracySum / n
	return s
}
