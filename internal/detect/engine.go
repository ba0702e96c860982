// Package detect evaluates Sigma detection rules against scenario
// assessment results.
package detect

import (
	"context"
	"embed"
	"io/fs"
	"path/filepath"

	sigmalib "github.com/bradleyjkemp/sigma-go"
	"github.com/bradleyjkemp/sigma-go/evaluator"
)

//go:embed rules
var embeddedRules embed.FS

// Event is one flattened assessment result presented to the rules.
type Event map[string]interface{}

// Engine evaluates Sigma rules against assessment events.
type Engine struct {
	rules []evaluator.RuleEvaluator
}

// NewDefault creates an Engine loaded with the built-in embedded Sigma rules.
func NewDefault() (*Engine, error) {
	sub, err := fs.Sub(embeddedRules, "rules")
	if err != nil {
		return nil, err
	}
	return New(sub)
}

// New creates an Engine by loading Sigma rules from the given FS.
// All .yml/.yaml files are parsed as Sigma rules.
func New(rulesFS fs.FS) (*Engine, error) {
	var rules []evaluator.RuleEvaluator

	err := fs.WalkDir(rulesFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		data, err := fs.ReadFile(rulesFS, path)
		if err != nil {
			return err
		}
		rule, err := sigmalib.ParseRule(data)
		if err != nil {
			return err
		}
		rules = append(rules, *evaluator.ForRule(rule))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Engine{rules: rules}, nil
}

// MatchAll evaluates all rules against each assessment event and
// returns the hits. Rules are scoped by logsource.category, which must
// match the event's "event_kind" field when set.
func (e *Engine) MatchAll(ctx context.Context, events []Event) []RuleMatch {
	var matches []RuleMatch
	for _, event := range events {
		kind, _ := event["event_kind"].(string)
		scenario, _ := event["scenario"].(string)

		for _, ev := range e.rules {
			cat := ev.Rule.Logsource.Category
			if cat != "" && cat != kind {
				continue
			}
			res, err := ev.Matches(ctx, map[string]interface{}(event))
			if err != nil || !res.Match {
				continue
			}
			matches = append(matches, RuleMatch{
				Scenario:  scenario,
				RuleTitle: ev.Rule.Title,
				RuleID:    ev.Rule.ID,
				Level:     ev.Rule.Level,
				Event:     event,
			})
		}
	}
	return matches
}
