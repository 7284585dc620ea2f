package analytics

import "strings"

// Canonical surface-type classifications.
const (
	ClassCarpet      = "carpet"
	ClassHardSurface = "hard_surface"
	ClassMixed       = "mixed"
)

// NormalizeClassification maps a raw surface-type label onto the canonical
// three-valued set. Case and the separators `_`, `-` and whitespace are
// folded before matching, so "Hard-Surface", "hard surface" and
// "hard_surface" are the same label. Anything empty or unrecognized falls
// back to mixed; the function is total and idempotent.
func NormalizeClassification(raw string) string {
	folded := strings.ToLower(strings.TrimSpace(raw))
	folded = strings.NewReplacer("-", "_", " ", "_", "\t", "_").Replace(folded)

	switch folded {
	case ClassCarpet:
		return ClassCarpet
	case ClassHardSurface:
		return ClassHardSurface
	default:
		// "", "unknown", "mixed", "both" and everything else.
		return ClassMixed
	}
}
