// api/analytics/aggregate.go
//
// DimensionalAggregator: per-dimension roll-ups over session events. Counts
// are produced by independent grouping passes (basic counts, click stats,
// share/download stats) and merged by dimension key, with missing entries
// defaulting to zero. Events without a userId are excluded entirely: upload
// counts are user-keyed under current policy.
package analytics

import (
	"sort"
	"time"

	"floorsight/api/models"
)

// DimensionStats is the aggregation result for one dimension value.
type DimensionStats struct {
	Key               string  `json:"key"`
	Users             int     `json:"users"`
	Uploads           int     `json:"uploads"`
	Clicks            int     `json:"clicks"`
	TotalRank         int     `json:"-"`
	Shares            int     `json:"shares"`
	Downloads         int     `json:"downloads"`
	ClickRate         float64 `json:"clickRate"`
	AvgRank           float64 `json:"avgRank"`
	ShareDownloadRate float64 `json:"shareDownloadRate"`
}

// keyFunc maps an event to its dimension value. The second return is false
// when the event carries no usable value for this dimension and must be
// skipped for it (while still contributing to other dimensions).
type keyFunc func(models.SessionEvent) (string, bool)

type basicCounts struct {
	users   map[string]struct{}
	uploads int
}

type clickCounts struct {
	clicks    int
	totalRank int
}

type shareCounts struct {
	shares    int
	downloads int
}

// eligible filters out records that cannot support user-keyed metrics.
func eligible(ev models.SessionEvent) bool {
	return ev.UserID != ""
}

func basicCountsPass(events []models.SessionEvent, key keyFunc) map[string]*basicCounts {
	out := make(map[string]*basicCounts)
	for _, ev := range events {
		if !eligible(ev) {
			continue
		}
		k, ok := key(ev)
		if !ok {
			continue
		}
		bc := out[k]
		if bc == nil {
			bc = &basicCounts{users: make(map[string]struct{})}
			out[k] = bc
		}
		bc.users[ev.UserID] = struct{}{}
		bc.uploads++
	}
	return out
}

func clickStatsPass(events []models.SessionEvent, key keyFunc) map[string]*clickCounts {
	out := make(map[string]*clickCounts)
	for _, ev := range events {
		if !eligible(ev) {
			continue
		}
		k, ok := key(ev)
		if !ok {
			continue
		}
		for _, entry := range ev.UserActions {
			action := ParseAction(entry.Token)
			if action.Kind != ActionClick {
				continue
			}
			cc := out[k]
			if cc == nil {
				cc = &clickCounts{}
				out[k] = cc
			}
			cc.clicks++
			cc.totalRank += action.Rank
		}
	}
	return out
}

func shareDownloadPass(events []models.SessionEvent, key keyFunc) map[string]*shareCounts {
	out := make(map[string]*shareCounts)
	for _, ev := range events {
		if !eligible(ev) {
			continue
		}
		k, ok := key(ev)
		if !ok {
			continue
		}
		for _, entry := range ev.UserActions {
			kind := ParseAction(entry.Token).Kind
			if kind != ActionShare && kind != ActionDownload {
				continue
			}
			sc := out[k]
			if sc == nil {
				sc = &shareCounts{}
				out[k] = sc
			}
			if kind == ActionShare {
				sc.shares++
			} else {
				sc.downloads++
			}
		}
	}
	return out
}

// safeRate returns numerator/denominator scaled to percent, 0 when the
// denominator is 0. Rates are always finite and never negative.
func safeRate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

func safeAvg(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

// mergeStats joins the three pass outputs by dimension key. Keys present in
// any pass appear in the result; counts from passes that never saw the key
// default to zero, never dropped.
func mergeStats(basics map[string]*basicCounts, clicks map[string]*clickCounts, shares map[string]*shareCounts) []DimensionStats {
	keys := make(map[string]struct{})
	for k := range basics {
		keys[k] = struct{}{}
	}
	for k := range clicks {
		keys[k] = struct{}{}
	}
	for k := range shares {
		keys[k] = struct{}{}
	}

	results := make([]DimensionStats, 0, len(keys))
	for k := range keys {
		stats := DimensionStats{Key: k}
		if bc := basics[k]; bc != nil {
			stats.Users = len(bc.users)
			stats.Uploads = bc.uploads
		}
		if cc := clicks[k]; cc != nil {
			stats.Clicks = cc.clicks
			stats.TotalRank = cc.totalRank
		}
		if sc := shares[k]; sc != nil {
			stats.Shares = sc.shares
			stats.Downloads = sc.downloads
		}
		stats.ClickRate = safeRate(stats.Clicks, stats.Uploads)
		stats.AvgRank = safeAvg(stats.TotalRank, stats.Clicks)
		stats.ShareDownloadRate = safeRate(stats.Shares+stats.Downloads, stats.Uploads)
		results = append(results, stats)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Uploads != results[j].Uploads {
			return results[i].Uploads > results[j].Uploads
		}
		return results[i].Key < results[j].Key
	})
	return results
}

// AggregateByKey runs the three grouping passes for an arbitrary dimension.
func AggregateByKey(events []models.SessionEvent, key keyFunc) []DimensionStats {
	return mergeStats(
		basicCountsPass(events, key),
		clickStatsPass(events, key),
		shareDownloadPass(events, key),
	)
}

// AggregateByDevice rolls events up by canonical device category.
func AggregateByDevice(events []models.SessionEvent) []DimensionStats {
	return AggregateByKey(events, func(ev models.SessionEvent) (string, bool) {
		return ClassifyDevice(ev.DeviceType, ev.DeviceInfo), true
	})
}

// AggregateByClassification rolls events up by canonical surface type.
func AggregateByClassification(events []models.SessionEvent) []DimensionStats {
	return AggregateByKey(events, func(ev models.SessionEvent) (string, bool) {
		return NormalizeClassification(ev.Classification), true
	})
}

// GeoLevel selects state-only or state×city geography roll-ups.
type GeoLevel string

const (
	GeoStateLevel GeoLevel = "state"
	GeoCityLevel  GeoLevel = "city"
)

const geoKeySeparator = " / "

// AggregateByGeography rolls events up by state, or by state and city.
// Events without a state carry no geography and are skipped for this
// dimension only.
func AggregateByGeography(events []models.SessionEvent, level GeoLevel) []DimensionStats {
	return AggregateByKey(events, func(ev models.SessionEvent) (string, bool) {
		state := ev.UserLocation.State
		if state == "" {
			return "", false
		}
		if level == GeoCityLevel {
			city := ev.UserLocation.City
			if city == "" {
				return "", false
			}
			return state + geoKeySeparator + city, true
		}
		return state, true
	})
}

// AggregateByBuckets rolls events up into the gap-free bucket sequence
// covering [windowStart, windowEnd]. Every bucket in the window appears in
// the result, zero-filled when nothing matched; events outside the window or
// without a timestamp are skipped.
func AggregateByBuckets(events []models.SessionEvent, g Granularity, windowStart, windowEnd time.Time) []DimensionStats {
	start, end := windowStart.UTC(), windowEnd.UTC()
	keyed := AggregateByKey(events, func(ev models.SessionEvent) (string, bool) {
		if ev.CreatedAt.IsZero() {
			return "", false
		}
		ts := ev.CreatedAt.UTC()
		if ts.Before(start) || ts.After(end) {
			return "", false
		}
		return BucketKeyFor(ts, g), true
	})

	byKey := make(map[string]DimensionStats, len(keyed))
	for _, stats := range keyed {
		byKey[stats.Key] = stats
	}

	buckets := BucketSequence(g, windowStart, windowEnd)
	results := make([]DimensionStats, 0, len(buckets))
	for _, bucket := range buckets {
		stats, ok := byKey[bucket.Key]
		if !ok {
			stats = DimensionStats{Key: bucket.Key}
		}
		results = append(results, stats)
	}
	return results
}

// RankDistribution counts clicks per display-rank bucket across all events.
// Buckets are always present, zero-filled.
func RankDistribution(events []models.SessionEvent) map[string]int {
	dist := map[string]int{"Rank 1": 0, "Rank 2": 0, "Rank 3": 0, "Rank 4+": 0}
	for _, ev := range events {
		if !eligible(ev) {
			continue
		}
		for _, entry := range ev.UserActions {
			if action := ParseAction(entry.Token); action.Kind == ActionClick {
				dist[RankBucket(action.Rank)]++
			}
		}
	}
	return dist
}
