package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name      string
		codeA     string
		langA     string
		codeB     string
		langB     string
		wantEqual bool
	}{
		{"identical input", "def f(): pass", "python", "def f(): pass", "python", true},
		{"different code", "def f(): pass", "python", "def g(): pass", "python", false},
		{"different language", "x = 1", "python", "x = 1", "ruby", false},
		{"shifted boundary", "ab", "c", "a", "bc", false},
		{"empty strings", "", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Fingerprint(tt.codeA, tt.langA)
			b := Fingerprint(tt.codeB, tt.langB)
			assert.Len(t, a, 64)
			if tt.wantEqual {
				assert.Equal(t, a, b)
			} else {
				assert.NotEqual(t, a, b)
			}
		})
	}
}
