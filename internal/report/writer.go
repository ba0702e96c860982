package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Writer persists scenario results to disk as they complete.
// Evidence-first principle: raw assessment data is saved before any
// aggregation. Thread-safe: concurrent SaveResult calls are allowed.
type Writer struct {
	outputDir string
	mu        sync.Mutex
	hashes    []FileHash
}

// FileHash records the SHA-256 hash of a saved evidence file.
type FileHash struct {
	File   string `json:"file"`
	SHA256 string `json:"sha256"`
	Size   int    `json:"size"`
}

// NewWriter creates a Writer for the given output directory.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{outputDir: outputDir}, nil
}

// OutputDir returns the output directory path.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// SaveResult writes one scenario result to {key}.json and records its
// hash for the manifest.
func (w *Writer) SaveResult(result ScenarioResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", result.Key, err)
	}
	return w.save(result.Key+".json", data)
}

// SaveSummary writes the suite summary to summary.json.
func (w *Writer) SaveSummary(summary SuiteSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return w.save("summary.json", data)
}

func (w *Writer) save(filename string, data []byte) error {
	path := filepath.Join(w.outputDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.mu.Lock()
	w.hashes = append(w.hashes, FileHash{
		File:   filename,
		SHA256: sha256Hex(data),
		Size:   len(data),
	})
	w.mu.Unlock()
	return nil
}

// Hashes returns the accumulated evidence hashes.
func (w *Writer) Hashes() []FileHash {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]FileHash, len(w.hashes))
	copy(out, w.hashes)
	return out
}

// manifest is the integrity record for one run's evidence files.
type manifest struct {
	Hostname    string     `json:"hostname"`
	GeneratedAt time.Time  `json:"generated_at"`
	Files       []FileHash `json:"files"`
}

// SaveManifest writes the SHA-256 manifest of everything saved so far.
func (w *Writer) SaveManifest(hostname string) error {
	m := manifest{
		Hostname:    hostname,
		GeneratedAt: time.Now().UTC(),
		Files:       w.Hashes(),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(w.outputDir, "manifest.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
