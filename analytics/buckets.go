// api/analytics/buckets.go
package analytics

import (
	"errors"
	"fmt"
	"time"
)

// Granularity is the unit of time aggregation for trend and cohort views.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

var ErrInvalidGranularity = errors.New("invalid granularity")

// ParseGranularity validates a caller-supplied granularity string.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return Granularity(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// Bucket is one contiguous period in a report window. Start is inclusive,
// End exclusive. Key is the canonical identifier used in API responses.
type Bucket struct {
	Key   string    `json:"period"`
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// bucketStart truncates t to the start of its containing period, in UTC.
// Weeks are ISO weeks and start on Monday.
func bucketStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// nextBucketStart advances a bucket start by exactly one period.
func nextBucketStart(start time.Time, g Granularity) time.Time {
	switch g {
	case GranularityHour:
		return start.Add(time.Hour)
	case GranularityWeek:
		return start.AddDate(0, 0, 7)
	case GranularityMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// bucketKey renders the canonical key for a bucket start.
func bucketKey(start time.Time, g Granularity) string {
	switch g {
	case GranularityHour:
		return start.Format("2006-01-02 15:00")
	case GranularityWeek:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GranularityMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

// BucketSequence generates the full span of buckets covering
// [windowStart, windowEnd]: sorted, gap-free, no duplicate keys, present
// whether or not any events fall inside a given bucket. An inverted window
// yields an empty sequence.
func BucketSequence(g Granularity, windowStart, windowEnd time.Time) []Bucket {
	if windowEnd.Before(windowStart) {
		return nil
	}
	var buckets []Bucket
	for start := bucketStart(windowStart, g); !start.After(windowEnd.UTC()); start = nextBucketStart(start, g) {
		buckets = append(buckets, Bucket{
			Key:   bucketKey(start, g),
			Start: start,
			End:   nextBucketStart(start, g),
		})
	}
	return buckets
}

// BucketKeyFor returns the canonical bucket key containing t.
func BucketKeyFor(t time.Time, g Granularity) string {
	return bucketKey(bucketStart(t, g), g)
}
