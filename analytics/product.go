// api/analytics/product.go
package analytics

import (
	"sort"

	"floorsight/api/models"
)

// LocationCount is a geography leader entry for one product.
type LocationCount struct {
	Location string `json:"location"`
	Clicks   int    `json:"clicks"`
}

// ProductStats is the click-performance roll-up for one logical product.
type ProductStats struct {
	Key          string          `json:"sku"`
	Name         string          `json:"productName"`
	Category     string          `json:"category,omitempty"`
	Impressions  int             `json:"impressions"`
	Clicks       int             `json:"clicks"`
	TotalRank    int             `json:"-"`
	CTR          float64         `json:"ctr"`
	AvgClickRank float64         `json:"avgClickRank"`
	TopStates    []LocationCount `json:"topStates,omitempty"`
	TopCities    []LocationCount `json:"topCities,omitempty"`
}

// topLocationCount is how many states/cities are reported per product.
const topLocationCount = 3

// resolveProductKey maps either identifier scheme (catalog SKU from search
// results, public id from action tokens) onto one canonical product key so
// impressions and clicks for the same logical product merge. Identifiers the
// catalog cannot resolve fall back to the raw value.
func resolveProductKey(id string, catalog map[string]models.Product) string {
	if product, ok := catalog[id]; ok {
		if product.SKU != "" {
			return product.SKU
		}
		return product.PublicID
	}
	return id
}

// AggregateProducts merges impression counts (derived from result-list
// positions) with click counts (derived from click actions) per canonical
// product, computes CTR and average click rank, and attaches the top states
// and cities by click count. Results are sorted by impressions, descending.
func AggregateProducts(events []models.SessionEvent, catalog map[string]models.Product) []ProductStats {
	type productAccum struct {
		impressions int
		clicks      int
		totalRank   int
		stateClicks map[string]int
		cityClicks  map[string]int
	}

	accums := make(map[string]*productAccum)
	get := func(key string) *productAccum {
		acc := accums[key]
		if acc == nil {
			acc = &productAccum{
				stateClicks: make(map[string]int),
				cityClicks:  make(map[string]int),
			}
			accums[key] = acc
		}
		return acc
	}

	for _, ev := range events {
		if !eligible(ev) {
			continue
		}
		// One impression per listed product per event.
		for _, sku := range ev.SearchResults {
			if sku == "" {
				continue
			}
			get(resolveProductKey(sku, catalog)).impressions++
		}
		for _, entry := range ev.UserActions {
			action := ParseAction(entry.Token)
			if action.Kind != ActionClick || action.ProductID == "" {
				continue
			}
			acc := get(resolveProductKey(action.ProductID, catalog))
			acc.clicks++
			acc.totalRank += action.Rank
			if state := ev.UserLocation.State; state != "" {
				acc.stateClicks[state]++
			}
			if city := ev.UserLocation.City; city != "" {
				acc.cityClicks[city]++
			}
		}
	}

	results := make([]ProductStats, 0, len(accums))
	for key, acc := range accums {
		stats := ProductStats{
			Key:          key,
			Name:         key,
			Impressions:  acc.impressions,
			Clicks:       acc.clicks,
			TotalRank:    acc.totalRank,
			CTR:          safeRate(acc.clicks, acc.impressions),
			AvgClickRank: safeAvg(acc.totalRank, acc.clicks),
			TopStates:    topLocations(acc.stateClicks, topLocationCount),
			TopCities:    topLocations(acc.cityClicks, topLocationCount),
		}
		if product, ok := catalog[key]; ok {
			if product.Name != "" {
				stats.Name = product.Name
			}
			stats.Category = product.Category
		}
		results = append(results, stats)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Impressions != results[j].Impressions {
			return results[i].Impressions > results[j].Impressions
		}
		return results[i].Key < results[j].Key
	})
	return results
}

func topLocations(clicksByLocation map[string]int, n int) []LocationCount {
	if len(clicksByLocation) == 0 {
		return nil
	}
	counts := make([]LocationCount, 0, len(clicksByLocation))
	for location, clicks := range clicksByLocation {
		counts = append(counts, LocationCount{Location: location, Clicks: clicks})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Clicks != counts[j].Clicks {
			return counts[i].Clicks > counts[j].Clicks
		}
		return counts[i].Location < counts[j].Location
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
