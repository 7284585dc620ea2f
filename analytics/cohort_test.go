package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorsight/api/models"
)

func sessionAt(userID string, ts time.Time) models.SessionEvent {
	return models.SessionEvent{
		SessionID: userID + "-" + ts.Format(time.RFC3339),
		UserID:    userID,
		CreatedAt: ts,
	}
}

// User U has sessions at day 0, day 13 and day 25 (UTC midnight). Bucketed
// by day, U is new in the first bucket and returning in the later two, and
// U's average gap is (13+12)/2 = 12.5 days.
func TestAnalyzeCohortsReturningUserScenario(t *testing.T) {
	base := day(2025, time.March, 1)
	events := []models.SessionEvent{
		sessionAt("U", base),
		sessionAt("U", base.AddDate(0, 0, 13)),
		sessionAt("U", base.AddDate(0, 0, 25)),
	}

	report := AnalyzeCohorts(events, GranularityDay, base, base.AddDate(0, 0, 25))

	require.Len(t, report.Trend, 26)
	byPeriod := make(map[string]CohortTrendPoint)
	for _, point := range report.Trend {
		byPeriod[point.Period] = point
	}

	assert.Equal(t, 1, byPeriod["2025-03-01"].NewUsers)
	assert.Equal(t, 0, byPeriod["2025-03-01"].ReturningUsers)
	assert.Equal(t, 1, byPeriod["2025-03-14"].ReturningUsers)
	assert.Equal(t, 0, byPeriod["2025-03-14"].NewUsers)
	assert.Equal(t, 1, byPeriod["2025-03-26"].ReturningUsers)

	assert.InDelta(t, 12.5, report.AvgReturnGapDays, 1e-9)
	assert.Equal(t, 1, report.NewUsers)
	assert.Equal(t, 0, report.ReturningUsers)
	assert.Equal(t, 1, report.FrequencyDistribution["2-3"])
}

// A user first seen before the reporting window must classify as returning
// inside it even though none of their in-window buckets contain their first
// session.
func TestAnalyzeCohortsFirstSessionBeforeWindow(t *testing.T) {
	windowStart := day(2025, time.June, 10)
	events := []models.SessionEvent{
		sessionAt("early", day(2025, time.January, 2)),
		sessionAt("early", day(2025, time.June, 11)),
		sessionAt("fresh", day(2025, time.June, 12)),
	}

	report := AnalyzeCohorts(events, GranularityDay, windowStart, day(2025, time.June, 14))

	assert.Equal(t, 1, report.ReturningUsers)
	assert.Equal(t, 1, report.NewUsers)
	assert.InDelta(t, 50.0, report.ReturningRate, 1e-9)

	for _, point := range report.Trend {
		switch point.Period {
		case "2025-06-11":
			assert.Equal(t, 1, point.ReturningUsers)
			assert.Equal(t, 0, point.NewUsers)
		case "2025-06-12":
			assert.Equal(t, 1, point.NewUsers)
		}
	}
}

// newUsers + returningUsers always equals the number of active users in the
// bucket.
func TestAnalyzeCohortsBucketTotalsMatchActiveUsers(t *testing.T) {
	base := day(2025, time.May, 1)
	events := []models.SessionEvent{
		sessionAt("a", base),
		sessionAt("b", base),
		sessionAt("a", base.AddDate(0, 0, 1)),
		sessionAt("b", base.AddDate(0, 0, 1)),
		sessionAt("c", base.AddDate(0, 0, 1)),
		sessionAt("c", base.AddDate(0, 0, 1).Add(3*time.Hour)), // same user twice in one bucket
	}
	activePerDay := map[string]int{"2025-05-01": 2, "2025-05-02": 3}

	report := AnalyzeCohorts(events, GranularityDay, base, base.AddDate(0, 0, 1))
	for _, point := range report.Trend {
		assert.Equal(t, activePerDay[point.Period], point.NewUsers+point.ReturningUsers, "bucket %s", point.Period)
	}
}

// A window with zero events still yields the full zero-filled bucket
// sequence, sorted with no gaps.
func TestAnalyzeCohortsEmptyWindow(t *testing.T) {
	start := day(2025, time.April, 1)
	report := AnalyzeCohorts(nil, GranularityDay, start, start.AddDate(0, 0, 4))

	require.Len(t, report.Trend, 5)
	for i, point := range report.Trend {
		assert.Equal(t, start.AddDate(0, 0, i).Format("2006-01-02"), point.Period)
		assert.Zero(t, point.NewUsers)
		assert.Zero(t, point.ReturningUsers)
	}
	assert.Zero(t, report.NewUsers)
	assert.Zero(t, report.ReturningUsers)
	assert.Zero(t, report.ReturningRate)
	assert.Zero(t, report.AvgReturnGapDays)
}

func TestAnalyzeCohortsFrequencyDistribution(t *testing.T) {
	base := day(2025, time.February, 1)
	var events []models.SessionEvent
	addSessions := func(userID string, n int) {
		for i := 0; i < n; i++ {
			events = append(events, sessionAt(userID, base.Add(time.Duration(i)*time.Hour)))
		}
	}
	addSessions("once", 1)
	addSessions("twice", 2)
	addSessions("five", 5)
	addSessions("many", 9)

	report := AnalyzeCohorts(events, GranularityDay, base, base.AddDate(0, 0, 1))
	assert.Equal(t, 1, report.FrequencyDistribution["1"])
	assert.Equal(t, 1, report.FrequencyDistribution["2-3"])
	assert.Equal(t, 1, report.FrequencyDistribution["4-5"])
	assert.Equal(t, 1, report.FrequencyDistribution["6+"])
}

// Events without a user id carry no cohort information and are skipped.
func TestAnalyzeCohortsSkipsAnonymousEvents(t *testing.T) {
	base := day(2025, time.July, 1)
	events := []models.SessionEvent{
		{SessionID: "anon", CreatedAt: base},
		sessionAt("u1", base),
	}

	report := AnalyzeCohorts(events, GranularityDay, base, base)
	assert.Equal(t, 1, report.NewUsers+report.ReturningUsers)
}

func TestAverageReturnGapSingleSessionUsersExcluded(t *testing.T) {
	base := day(2025, time.August, 1)
	events := []models.SessionEvent{
		sessionAt("solo", base),
		sessionAt("pair", base),
		sessionAt("pair", base.AddDate(0, 0, 4)),
	}
	assert.InDelta(t, 4.0, averageReturnGapDays(events), 1e-9)
}
