// Package primitive defines the closed vocabulary of attack primitives,
// adversary capability tiers, and the Scenario value type shared by the
// entropy engine and the automaton learner.
package primitive

import (
	"fmt"
	"strings"
)

// Primitive is one atomic action symbol in an attacker behavior trace.
// The vocabulary is closed: values outside the declared set never enter
// the analysis core. Identity is by variant only.
type Primitive int

const (
	Authenticate Primitive = iota
	Connect
	Read
	Write
	Transform
	Send
	Receive
	Encrypt
	Delete
	Create
	Update
	Coordinate
	Synchronize
	Signal
	Wait
	Call
	Filter
	Lock
	Validate
)

// VocabularySize is the number of distinct primitives.
const VocabularySize = 19

var primitiveNames = [VocabularySize]string{
	"AUTHENTICATE",
	"CONNECT",
	"READ",
	"WRITE",
	"TRANSFORM",
	"SEND",
	"RECEIVE",
	"ENCRYPT",
	"DELETE",
	"CREATE",
	"UPDATE",
	"COORDINATE",
	"SYNCHRONIZE",
	"SIGNAL",
	"WAIT",
	"CALL",
	"FILTER",
	"LOCK",
	"VALIDATE",
}

// String returns the canonical upper-case symbol name.
func (p Primitive) String() string {
	if p < 0 || int(p) >= len(primitiveNames) {
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
	return primitiveNames[p]
}

// MarshalJSON serializes the primitive as its canonical symbol name.
func (p Primitive) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Valid reports whether p is a member of the closed vocabulary.
func (p Primitive) Valid() bool {
	return p >= 0 && int(p) < len(primitiveNames)
}

// Parse converts a symbol name into a Primitive. Matching is
// case-insensitive; unknown symbols are rejected at the boundary so raw
// strings never propagate into the analysis core.
func Parse(s string) (Primitive, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range primitiveNames {
		if n == name {
			return Primitive(i), nil
		}
	}
	return 0, fmt.Errorf("unknown primitive %q", s)
}

// ParseSequence converts a list of symbol names into an ordered trace.
// The first unknown symbol aborts the parse.
func ParseSequence(symbols []string) ([]Primitive, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	seq := make([]Primitive, 0, len(symbols))
	for i, s := range symbols {
		p, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}
		seq = append(seq, p)
	}
	return seq, nil
}

// Names returns the symbol names for a trace, in order.
func Names(seq []Primitive) []string {
	names := make([]string, len(seq))
	for i, p := range seq {
		names[i] = p.String()
	}
	return names
}

// Distinct returns the number of distinct primitives in the trace.
func Distinct(seq []Primitive) int {
	var seen [VocabularySize]bool
	count := 0
	for _, p := range seq {
		if p.Valid() && !seen[p] {
			seen[p] = true
			count++
		}
	}
	return count
}
