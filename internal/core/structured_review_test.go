package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverity(t *testing.T) {
	tests := map[string]Severity{
		"high":      SeverityHigh,
		"HIGH":      SeverityHigh,
		" Critical": SeverityHigh,
		"blocker":   SeverityHigh,
		"low":       SeverityLow,
		"info":      SeverityLow,
		"Minor":     SeverityLow,
		"medium":    SeverityMedium,
		"":          SeverityMedium,
		"urgent!!":  SeverityMedium,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSeverity(in), "input %q", in)
	}
}
