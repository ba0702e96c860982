package detect

// RuleMatch records a Sigma rule hit against an assessment event.
type RuleMatch struct {
	Scenario  string `json:"scenario"`
	RuleTitle string `json:"rule_title"`
	RuleID    string `json:"rule_id,omitempty"`
	Level     string `json:"level"` // informational | low | medium | high | critical
	Event     Event  `json:"event"` // matched event for evidence
}
