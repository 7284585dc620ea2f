package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeParam(t *testing.T) {
	ts, err := ParseTimeParam("2025-03-01T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 1, 15, 4, 5, 0, time.UTC), ts)

	ts, err = ParseTimeParam("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), ts)
}

func TestParseTimeParamRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "yesterday", "03/01/2025", "2025-13-40"} {
		_, err := ParseTimeParam(bad)
		assert.Error(t, err, "value %q", bad)
	}
}
