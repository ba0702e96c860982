package primitive

import "fmt"

// Scenario is one threat scenario under analysis. It is constructed once
// per run and treated as immutable afterwards: both the entropy engine
// and the learner's oracle read it, neither mutates it.
type Scenario struct {
	// ID is the unique identifier for this scenario instance.
	ID string `json:"id"`
	// Name is the human-readable scenario name.
	Name string `json:"name"`
	// PrimitivesRequired is the ordered execution trace of the scenario.
	// Order matters: this is a trace, not a set.
	PrimitivesRequired []Primitive `json:"primitives_required"`
	// Complexity is the author-assigned baseline rating, independent of
	// any computed entropy.
	Complexity float64 `json:"complexity"`
	// TargetNetwork optionally labels the network the scenario targets.
	TargetNetwork string `json:"target_network,omitempty"`
}

// Validate checks structural invariants: a non-empty name and a trace
// drawn entirely from the closed vocabulary.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario %s: name is required", s.ID)
	}
	if len(s.PrimitivesRequired) == 0 {
		return fmt.Errorf("scenario %q: primitives_required is empty", s.Name)
	}
	for i, p := range s.PrimitivesRequired {
		if !p.Valid() {
			return fmt.Errorf("scenario %q: primitive %d out of vocabulary", s.Name, i)
		}
	}
	if s.Complexity < 0 {
		return fmt.Errorf("scenario %q: negative complexity rating", s.Name)
	}
	return nil
}

// Trace returns a copy of the required-primitive sequence, preserving
// the immutability of the scenario for callers that need to extend it.
func (s *Scenario) Trace() []Primitive {
	out := make([]Primitive, len(s.PrimitivesRequired))
	copy(out, s.PrimitivesRequired)
	return out
}
