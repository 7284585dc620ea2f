// api/analytics/cohort.go
package analytics

import (
	"sort"
	"time"

	"floorsight/api/models"
)

// CohortTrendPoint is the new-vs-returning split for one period bucket.
type CohortTrendPoint struct {
	Period         string `json:"period"`
	NewUsers       int    `json:"newUsers"`
	ReturningUsers int    `json:"returningUsers"`
}

// CohortReport is the full retention view for one report window.
type CohortReport struct {
	NewUsers              int                `json:"newUsers"`
	ReturningUsers        int                `json:"returningUsers"`
	ReturningRate         float64            `json:"returningRate"`
	FrequencyDistribution map[string]int     `json:"frequencyDist"`
	AvgReturnGapDays      float64            `json:"avgReturnGapDays"`
	Trend                 []CohortTrendPoint `json:"trend"`
}

// AnalyzeCohorts computes the retention view. globalEvents must be the
// entire event history matching the caller's classification/device/geography
// filters WITHOUT any date bound: a user first seen before the reporting
// window still counts as returning inside it. The phases below are ordered;
// the windowed classification depends on the global first-session map and
// must not run before it.
func AnalyzeCohorts(globalEvents []models.SessionEvent, g Granularity, windowStart, windowEnd time.Time) CohortReport {
	// Phase 1: global history pass.
	firstSessions := firstSessionByUser(globalEvents)

	// Phase 2: windowed grouping pass.
	buckets := BucketSequence(g, windowStart, windowEnd)
	activeByBucket := groupActiveUsers(globalEvents, g, windowStart, windowEnd)

	// Phase 3: per-bucket classification against the global map.
	report := CohortReport{
		FrequencyDistribution: map[string]int{"1": 0, "2-3": 0, "4-5": 0, "6+": 0},
		Trend:                 make([]CohortTrendPoint, 0, len(buckets)),
	}
	windowUsers := make(map[string]struct{})
	for _, bucket := range buckets {
		point := CohortTrendPoint{Period: bucket.Key}
		for userID := range activeByBucket[bucket.Key] {
			windowUsers[userID] = struct{}{}
			if first, ok := firstSessions[userID]; ok && first.Before(bucket.Start) {
				point.ReturningUsers++
			} else {
				// First session inside this bucket, or (defensively) an
				// inconsistent record: count as new.
				point.NewUsers++
			}
		}
		report.Trend = append(report.Trend, point)
	}

	// Window-level split: returning iff the global first session precedes
	// the window itself.
	for userID := range windowUsers {
		if first, ok := firstSessions[userID]; ok && first.Before(windowStart.UTC()) {
			report.ReturningUsers++
		} else {
			report.NewUsers++
		}
	}
	if total := report.NewUsers + report.ReturningUsers; total > 0 {
		report.ReturningRate = float64(report.ReturningUsers) / float64(total) * 100
	}

	// Phase 4: average re-engagement gap over the non-windowed set.
	report.AvgReturnGapDays = averageReturnGapDays(globalEvents)

	// Phase 5: frequency distribution. Users active in the window, bucketed
	// by their total session count across the whole history.
	sessionCounts := sessionCountByUser(globalEvents)
	for userID := range windowUsers {
		report.FrequencyDistribution[frequencyBucket(sessionCounts[userID])]++
	}

	return report
}

// firstSessionByUser computes each user's earliest session timestamp.
// Events without a user id or timestamp carry no cohort information.
func firstSessionByUser(events []models.SessionEvent) map[string]time.Time {
	first := make(map[string]time.Time)
	for _, ev := range events {
		if ev.UserID == "" || ev.CreatedAt.IsZero() {
			continue
		}
		ts := ev.CreatedAt.UTC()
		if existing, ok := first[ev.UserID]; !ok || ts.Before(existing) {
			first[ev.UserID] = ts
		}
	}
	return first
}

// groupActiveUsers collects the set of active user ids per bucket key for
// events inside the window.
func groupActiveUsers(events []models.SessionEvent, g Granularity, windowStart, windowEnd time.Time) map[string]map[string]struct{} {
	start, end := windowStart.UTC(), windowEnd.UTC()
	active := make(map[string]map[string]struct{})
	for _, ev := range events {
		if ev.UserID == "" || ev.CreatedAt.IsZero() {
			continue
		}
		ts := ev.CreatedAt.UTC()
		if ts.Before(start) || ts.After(end) {
			continue
		}
		key := BucketKeyFor(ts, g)
		if active[key] == nil {
			active[key] = make(map[string]struct{})
		}
		active[key][ev.UserID] = struct{}{}
	}
	return active
}

// averageReturnGapDays averages, per user with at least two sessions, the
// consecutive gaps between their sorted session timestamps, then reports the
// mean of those per-user averages. Single-session users do not contribute.
func averageReturnGapDays(events []models.SessionEvent) float64 {
	timesByUser := make(map[string][]time.Time)
	for _, ev := range events {
		if ev.UserID == "" || ev.CreatedAt.IsZero() {
			continue
		}
		timesByUser[ev.UserID] = append(timesByUser[ev.UserID], ev.CreatedAt.UTC())
	}

	var sum float64
	var usersWithGaps int
	for _, times := range timesByUser {
		if len(times) < 2 {
			continue
		}
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
		var gapSum float64
		for i := 1; i < len(times); i++ {
			gapSum += times[i].Sub(times[i-1]).Hours() / 24
		}
		sum += gapSum / float64(len(times)-1)
		usersWithGaps++
	}
	if usersWithGaps == 0 {
		return 0
	}
	return sum / float64(usersWithGaps)
}

func sessionCountByUser(events []models.SessionEvent) map[string]int {
	counts := make(map[string]int)
	for _, ev := range events {
		if ev.UserID == "" {
			continue
		}
		counts[ev.UserID]++
	}
	return counts
}

func frequencyBucket(sessions int) string {
	switch {
	case sessions <= 1:
		return "1"
	case sessions <= 3:
		return "2-3"
	case sessions <= 5:
		return "4-5"
	default:
		return "6+"
	}
}
