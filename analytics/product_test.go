package analytics

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorsight/api/models"
)

func productCatalog() map[string]models.Product {
	oakPlank := models.Product{SKU: "SKU-100", PublicID: "OAK100", Name: "Oak Plank", Category: "hard_surface"}
	berberGrey := models.Product{SKU: "SKU-200", PublicID: "BER200", Name: "Berber Grey", Category: "carpet"}
	return map[string]models.Product{
		"SKU-100": oakPlank,
		"OAK100":  oakPlank,
		"SKU-200": berberGrey,
		"BER200":  berberGrey,
	}
}

// Impressions arrive keyed by SKU, clicks keyed by public id; both must
// merge under one canonical product.
func TestAggregateProductsMergesIdentifierSchemes(t *testing.T) {
	events := []models.SessionEvent{
		{
			SessionID:     "s1",
			UserID:        "u1",
			SearchResults: []string{"SKU-100", "SKU-200"},
			UserActions:   actions(clickToken(0, "OAK100")),
			UserLocation:  models.UserLocation{State: "CA", City: "Fresno"},
		},
		{
			SessionID:     "s2",
			UserID:        "u2",
			SearchResults: []string{"SKU-100"},
			UserActions:   actions(clickToken(1, "OAK100")),
			UserLocation:  models.UserLocation{State: "TX", City: "Austin"},
		},
	}

	results := AggregateProducts(events, productCatalog())
	require.Len(t, results, 2)

	oak := results[0] // most impressions first
	assert.Equal(t, "SKU-100", oak.Key)
	assert.Equal(t, "Oak Plank", oak.Name)
	assert.Equal(t, 2, oak.Impressions)
	assert.Equal(t, 2, oak.Clicks)
	assert.InDelta(t, 100.0, oak.CTR, 1e-9)
	assert.InDelta(t, 0.5, oak.AvgClickRank, 1e-9)

	berber := results[1]
	assert.Equal(t, "SKU-200", berber.Key)
	assert.Equal(t, 1, berber.Impressions)
	assert.Zero(t, berber.Clicks)
	assert.Zero(t, berber.CTR)
}

// Identifiers the catalog cannot resolve fall back to the raw value as the
// product key.
func TestAggregateProductsUnresolvedIdentifiers(t *testing.T) {
	events := []models.SessionEvent{
		{
			SessionID:     "s1",
			UserID:        "u1",
			SearchResults: []string{"MYSTERY-1"},
			UserActions:   actions(clickToken(0, "GHOST-9")),
		},
	}

	results := AggregateProducts(events, map[string]models.Product{})
	require.Len(t, results, 2)

	byKey := make(map[string]ProductStats)
	for _, stats := range results {
		byKey[stats.Key] = stats
	}
	assert.Equal(t, 1, byKey["MYSTERY-1"].Impressions)
	assert.Equal(t, "MYSTERY-1", byKey["MYSTERY-1"].Name)
	assert.Equal(t, 1, byKey["GHOST-9"].Clicks)
}

func TestAggregateProductsTopLocations(t *testing.T) {
	catalog := productCatalog()
	var events []models.SessionEvent
	addClicks := func(state, city string, n int) {
		for i := 0; i < n; i++ {
			events = append(events, models.SessionEvent{
				SessionID:    state + city + strconv.Itoa(i),
				UserID:       "u-" + state + city,
				UserActions:  actions(clickToken(0, "OAK100")),
				UserLocation: models.UserLocation{State: state, City: city},
			})
		}
	}
	addClicks("CA", "Fresno", 4)
	addClicks("TX", "Austin", 3)
	addClicks("NY", "Albany", 2)
	addClicks("WA", "Tacoma", 1)

	results := AggregateProducts(events, catalog)
	require.Len(t, results, 1)

	topStates := results[0].TopStates
	require.Len(t, topStates, 3)
	assert.Equal(t, LocationCount{Location: "CA", Clicks: 4}, topStates[0])
	assert.Equal(t, LocationCount{Location: "TX", Clicks: 3}, topStates[1])
	assert.Equal(t, LocationCount{Location: "NY", Clicks: 2}, topStates[2])

	require.Len(t, results[0].TopCities, 3)
	assert.Equal(t, "Fresno", results[0].TopCities[0].Location)
}

func TestAggregateProductsEmptyInput(t *testing.T) {
	assert.Empty(t, AggregateProducts(nil, productCatalog()))
}
