package core

import "strings"

// Severity grades a bug finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity maps free-form model output onto the three known severities.
// Anything unrecognised becomes medium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "minor", "info":
		return SeverityLow
	case "high", "critical", "major", "blocker":
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// BugFinding is one issue reported by the model for a specific line.
type BugFinding struct {
	Line        int      `json:"line"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// Suggestion is a general improvement not tied to a single line.
type Suggestion struct {
	Description string `json:"description"`
	CodeSnippet string `json:"code_snippet,omitempty"`
}
