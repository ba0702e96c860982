// Package scenario provides the built-in threat scenario catalog and
// loading of user-supplied scenario files.
package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/varga-lab/threatscope/internal/entropy"
	"github.com/varga-lab/threatscope/internal/primitive"
)

//go:embed catalog/*.toml
var catalogFS embed.FS

// Entry is one loadable scenario together with its claimed capability
// tier and the expectations the runner judges its result against.
type Entry struct {
	// Key identifies the entry in config enable-maps and --only
	// filters; it is the file stem of the scenario definition.
	Key string
	// Description explains the attack pattern the scenario models.
	Description string
	// Scenario is the immutable scenario value handed to the core.
	Scenario primitive.Scenario
	// APTLevel is the tier the scenario's actor is claimed to operate at.
	APTLevel primitive.APTLevel
	// MinEntropy optionally requires the computed entropy to exceed a
	// floor for the scenario to pass.
	MinEntropy float64
	// RequireExceeds requires the tier's critical cutoff to be exceeded.
	RequireExceeds bool
	// ExpectLevels optionally restricts which complexity labels count
	// as a pass. Empty means any label.
	ExpectLevels []entropy.ComplexityLevel
}

// scenarioFile is the on-disk TOML shape of one scenario.
type scenarioFile struct {
	ID             string   `toml:"id"`
	Name           string   `toml:"name"`
	Description    string   `toml:"description"`
	Primitives     []string `toml:"primitives"`
	Complexity     float64  `toml:"complexity"`
	TargetNetwork  string   `toml:"target_network"`
	APTLevel       string   `toml:"apt_level"`
	MinEntropy     float64  `toml:"min_entropy"`
	RequireExceeds bool     `toml:"require_exceeds"`
	ExpectLevels   []string `toml:"expect_levels"`
}

// Builtin loads the embedded scenario catalog.
func Builtin() ([]Entry, error) {
	sub, err := fs.Sub(catalogFS, "catalog")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadFS loads every .toml scenario definition in the given FS,
// sorted by key so runs are deterministic.
func LoadFS(fsys fs.FS) ([]Entry, error) {
	var entries []Entry
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if filepath.Ext(path) != ".toml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		entry, err := parseEntry(keyFor(path), data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// LoadDir loads user scenario files from a directory on disk.
func LoadDir(dir string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scenario directory not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scenario path is not a directory: %s", dir)
	}
	return LoadFS(os.DirFS(dir))
}

func keyFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseEntry decodes and validates one scenario definition. Every
// symbol crosses the parse boundary here; raw strings never reach the
// analysis core.
func parseEntry(key string, data []byte) (Entry, error) {
	var sf scenarioFile
	if err := toml.Unmarshal(data, &sf); err != nil {
		return Entry{}, fmt.Errorf("decode: %w", err)
	}

	seq, err := primitive.ParseSequence(sf.Primitives)
	if err != nil {
		return Entry{}, err
	}

	level := primitive.Intermediate
	if sf.APTLevel != "" {
		level, err = primitive.ParseAPTLevel(sf.APTLevel)
		if err != nil {
			return Entry{}, err
		}
	}

	var expect []entropy.ComplexityLevel
	for _, name := range sf.ExpectLevels {
		l, err := entropy.ParseComplexityLevel(name)
		if err != nil {
			return Entry{}, err
		}
		expect = append(expect, l)
	}

	id := sf.ID
	if id == "" {
		id = uuid.New().String()
	}

	entry := Entry{
		Key:         key,
		Description: sf.Description,
		Scenario: primitive.Scenario{
			ID:                 id,
			Name:               sf.Name,
			PrimitivesRequired: seq,
			Complexity:         sf.Complexity,
			TargetNetwork:      sf.TargetNetwork,
		},
		APTLevel:       level,
		MinEntropy:     sf.MinEntropy,
		RequireExceeds: sf.RequireExceeds,
		ExpectLevels:   expect,
	}
	if err := entry.Scenario.Validate(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// FilterOnly returns only entries whose keys are in the allowed list.
// If allowed is nil or empty, all entries are returned.
func FilterOnly(entries []Entry, allowed []string) []Entry {
	if len(allowed) == 0 {
		return entries
	}
	set := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		set[k] = true
	}
	var filtered []Entry
	for _, e := range entries {
		if set[e.Key] {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// FilterEnabled returns only entries enabled in the config map.
// Entries absent from the map stay enabled.
func FilterEnabled(entries []Entry, enabledMap map[string]bool) []Entry {
	if enabledMap == nil {
		return entries
	}
	var filtered []Entry
	for _, e := range entries {
		enabled, exists := enabledMap[e.Key]
		if !exists || enabled {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
