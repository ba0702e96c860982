package primitive

import (
	"strings"
	"testing"
)

func TestParse_Canonical(t *testing.T) {
	for i := 0; i < VocabularySize; i++ {
		p := Primitive(i)
		got, err := Parse(p.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", p, err)
		}
		if got != p {
			t.Errorf("Parse(%s) = %v, want %v", p, got, p)
		}
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	got, err := Parse("  authenticate ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != Authenticate {
		t.Errorf("Parse = %v, want AUTHENTICATE", got)
	}
}

func TestParse_Unknown(t *testing.T) {
	if _, err := Parse("EXFILTRATE"); err == nil {
		t.Error("expected error for unknown symbol")
	}
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty symbol")
	}
}

func TestParseSequence_ErrorPosition(t *testing.T) {
	_, err := ParseSequence([]string{"READ", "bogus", "WRITE"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "symbol 1") {
		t.Errorf("error should name the offending position: %v", err)
	}
}

func TestDistinct(t *testing.T) {
	seq := []Primitive{Read, Write, Read, Read, Write}
	if got := Distinct(seq); got != 2 {
		t.Errorf("Distinct = %d, want 2", got)
	}
	if got := Distinct(nil); got != 0 {
		t.Errorf("Distinct(nil) = %d, want 0", got)
	}
}

func TestAPTLevel_Ordering(t *testing.T) {
	if !(Intermediate < Advanced && Advanced < NationState) {
		t.Error("capability tiers must be ordered")
	}
}

func TestParseAPTLevel(t *testing.T) {
	cases := map[string]APTLevel{
		"INTERMEDIATE":     Intermediate,
		"advanced":         Advanced,
		"APT_NATION_STATE": NationState,
		"nation_state":     NationState,
	}
	for in, want := range cases {
		got, err := ParseAPTLevel(in)
		if err != nil {
			t.Errorf("ParseAPTLevel(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAPTLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseAPTLevel("SCRIPT_KIDDIE"); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestScenario_Validate(t *testing.T) {
	valid := Scenario{
		ID:                 "s-1",
		Name:               "test",
		PrimitivesRequired: []Primitive{Read, Write},
		Complexity:         1.0,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid scenario rejected: %v", err)
	}

	noName := valid
	noName.Name = ""
	if err := noName.Validate(); err == nil {
		t.Error("expected error for missing name")
	}

	empty := valid
	empty.PrimitivesRequired = nil
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty trace")
	}

	outOfVocab := valid
	outOfVocab.PrimitivesRequired = []Primitive{Read, Primitive(99)}
	if err := outOfVocab.Validate(); err == nil {
		t.Error("expected error for out-of-vocabulary primitive")
	}
}

func TestScenario_TraceIsCopy(t *testing.T) {
	s := Scenario{
		Name:               "copy",
		PrimitivesRequired: []Primitive{Read, Write},
	}
	trace := s.Trace()
	trace[0] = Delete
	if s.PrimitivesRequired[0] != Read {
		t.Error("Trace must not alias the scenario's sequence")
	}
}
