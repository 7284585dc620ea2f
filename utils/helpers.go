package utils

import (
	"fmt"
	"time"
)

// timeParamLayouts are the accepted formats for date filter parameters: full
// RFC3339 timestamps or bare dates.
var timeParamLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseTimeParam parses a caller-supplied date filter value, UTC.
func ParseTimeParam(value string) (time.Time, error) {
	for _, layout := range timeParamLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable time value %q", value)
}
