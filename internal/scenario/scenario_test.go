package scenario

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/varga-lab/threatscope/internal/primitive"
)

func TestBuiltin(t *testing.T) {
	entries, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if len(entries) != 11 {
		t.Fatalf("catalog size = %d, want 11", len(entries))
	}
	if !sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key }) {
		t.Error("entries must be sorted by key")
	}
	for _, e := range entries {
		if err := e.Scenario.Validate(); err != nil {
			t.Errorf("%s: invalid scenario: %v", e.Key, err)
		}
		if e.Scenario.ID == "" {
			t.Errorf("%s: missing scenario id", e.Key)
		}
		if !e.APTLevel.Valid() {
			t.Errorf("%s: invalid tier %v", e.Key, e.APTLevel)
		}
	}
}

func TestBuiltin_KnownEntries(t *testing.T) {
	entries, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	byKey := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e
	}

	apt, ok := byKey["apt_lateral_movement"]
	if !ok {
		t.Fatal("missing apt_lateral_movement")
	}
	if apt.APTLevel != primitive.Advanced {
		t.Errorf("apt_lateral_movement tier = %v, want ADVANCED", apt.APTLevel)
	}
	if len(apt.Scenario.PrimitivesRequired) != 8 {
		t.Errorf("apt_lateral_movement trace length = %d, want 8", len(apt.Scenario.PrimitivesRequired))
	}
	if apt.MinEntropy != 2.0 {
		t.Errorf("apt_lateral_movement min_entropy = %g, want 2.0", apt.MinEntropy)
	}

	ci, ok := byKey["critical_infrastructure_attack"]
	if !ok {
		t.Fatal("missing critical_infrastructure_attack")
	}
	if ci.APTLevel != primitive.NationState || !ci.RequireExceeds {
		t.Error("critical_infrastructure_attack must require exceeding the nation-state cutoff")
	}
}

func TestParseEntry_RejectsUnknownSymbol(t *testing.T) {
	data := []byte(`
name = "bad"
primitives = ["READ", "EXFILTRATE"]
`)
	if _, err := parseEntry("bad", data); err == nil {
		t.Error("expected error for unknown primitive symbol")
	}
}

func TestParseEntry_RejectsUnknownTier(t *testing.T) {
	data := []byte(`
name = "bad"
primitives = ["READ"]
apt_level = "ELITE"
`)
	if _, err := parseEntry("bad", data); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestParseEntry_DefaultsAndID(t *testing.T) {
	data := []byte(`
name = "minimal"
primitives = ["READ", "WRITE"]
`)
	entry, err := parseEntry("minimal", data)
	if err != nil {
		t.Fatalf("parseEntry: %v", err)
	}
	if entry.APTLevel != primitive.Intermediate {
		t.Errorf("default tier = %v, want INTERMEDIATE", entry.APTLevel)
	}
	if entry.Scenario.ID == "" {
		t.Error("missing id must be generated")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom_probe.toml")
	content := `
name = "custom probe"
primitives = ["CONNECT", "READ", "SEND"]
complexity = 1.5
apt_level = "INTERMEDIATE"
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "custom_probe" {
		t.Fatalf("entries = %+v, want one custom_probe", entries)
	}

	if _, err := LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFilterOnly(t *testing.T) {
	entries := []Entry{{Key: "a"}, {Key: "b"}, {Key: "c"}}
	got := FilterOnly(entries, []string{"c", "a"})
	if len(got) != 2 || got[0].Key != "a" || got[1].Key != "c" {
		t.Errorf("FilterOnly = %+v, want a and c in order", got)
	}
	if len(FilterOnly(entries, nil)) != 3 {
		t.Error("nil filter must keep everything")
	}
}

func TestFilterEnabled(t *testing.T) {
	entries := []Entry{{Key: "a"}, {Key: "b"}}
	got := FilterEnabled(entries, map[string]bool{"b": false})
	if len(got) != 1 || got[0].Key != "a" {
		t.Errorf("FilterEnabled = %+v, want only a", got)
	}
	if len(FilterEnabled(entries, nil)) != 2 {
		t.Error("nil map must keep everything")
	}
}
