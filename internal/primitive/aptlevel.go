package primitive

import (
	"fmt"
	"strings"
)

// APTLevel is an ordered adversary capability tier. Higher values mean
// more sophisticated actors; the ordering is load-bearing for threshold
// classification.
type APTLevel int

const (
	Intermediate APTLevel = iota
	Advanced
	NationState
)

// Levels lists all tiers in ascending capability order.
func Levels() []APTLevel {
	return []APTLevel{Intermediate, Advanced, NationState}
}

// String returns the canonical tier name.
func (l APTLevel) String() string {
	switch l {
	case Intermediate:
		return "INTERMEDIATE"
	case Advanced:
		return "ADVANCED"
	case NationState:
		return "APT_NATION_STATE"
	default:
		return fmt.Sprintf("APTLevel(%d)", int(l))
	}
}

// Valid reports whether l is a declared tier.
func (l APTLevel) Valid() bool {
	return l >= Intermediate && l <= NationState
}

// MarshalJSON serializes the tier as its canonical name.
func (l APTLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// ParseAPTLevel converts a tier name into an APTLevel. Matching is
// case-insensitive and accepts the short form "NATION_STATE".
func ParseAPTLevel(s string) (APTLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INTERMEDIATE":
		return Intermediate, nil
	case "ADVANCED":
		return Advanced, nil
	case "APT_NATION_STATE", "NATION_STATE":
		return NationState, nil
	default:
		return 0, fmt.Errorf("unknown APT level %q", s)
	}
}
