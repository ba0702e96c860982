package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/varga-lab/threatscope/internal/detect"
	"github.com/varga-lab/threatscope/internal/entropy"
	"github.com/varga-lab/threatscope/internal/learner"
	"github.com/varga-lab/threatscope/internal/primitive"
)

func sampleReportData() ReportData {
	result := ScenarioResult{
		Key:     "apt_lateral_movement",
		Name:    "APT_Lateral_Movement",
		Success: true,
		Assessment: entropy.ComplexityAssessment{
			ScenarioName:       "APT_Lateral_Movement",
			APTLevel:           primitive.Advanced,
			TopologicalEntropy: 3.0,
			ComplexityLevel:    entropy.High,
			APTCapabilityMatch: true,
			DistinctPrimitives: 8,
			SequenceLength:     8,
		},
		Learning: learner.LearningResult{
			Convergence:      true,
			Iterations:       9,
			LearningAccuracy: 1.0,
			States:           10,
			Phase:            learner.Converged,
		},
		Escalation: Escalation{Level: EscalateSenior},
		Details:    "ok",
	}
	return ReportData{
		Hostname:    "testhost",
		GeneratedAt: time.Now().UTC(),
		Version:     "test",
		Summary:     Summarize([]ScenarioResult{result}),
		Results:     []ScenarioResult{result},
		RuleMatches: []detect.RuleMatch{{
			Scenario:  "apt_lateral_movement",
			RuleTitle: "Over-engineered scenario",
			Level:     "informational",
		}},
		EvidenceHashes: []FileHash{{File: "summary.json", SHA256: "abc", Size: 10}},
		RunDuration:    "1.2s",
	}
}

func TestReporter_Render(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := sampleReportData()
	html, err := r.Render(&data)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		"APT_Lateral_Movement",
		"testhost",
		"ADVANCED",
		"lvl-high",
		"Over-engineered scenario",
		"summary.json",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestReporter_Generate(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := t.TempDir()
	path, err := r.Generate(sampleReportData(), dir)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if path != filepath.Join(dir, "report.html") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), "<html") {
		t.Error("report does not look like HTML")
	}
}
