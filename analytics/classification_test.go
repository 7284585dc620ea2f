package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClassification(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"carpet", ClassCarpet},
		{"Carpet", ClassCarpet},
		{"  carpet ", ClassCarpet},
		{"hard_surface", ClassHardSurface},
		{"hard surface", ClassHardSurface},
		{"Hard-Surface", ClassHardSurface},
		{"HARD_SURFACE", ClassHardSurface},
		{"", ClassMixed},
		{"unknown", ClassMixed},
		{"mixed", ClassMixed},
		{"both", ClassMixed},
		{"laminate???", ClassMixed},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeClassification(tt.raw))
		})
	}
}

// Normalization is idempotent: canonical values map to themselves.
func TestNormalizeClassificationIdempotent(t *testing.T) {
	inputs := []string{"carpet", "Hard-Surface", "hard surface", "both", "", "unknown", "anything else"}
	for _, raw := range inputs {
		once := NormalizeClassification(raw)
		assert.Equal(t, once, NormalizeClassification(once), "normalize(normalize(%q))", raw)
	}
}
