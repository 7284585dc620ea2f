package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorsight/api/analytics"
	"floorsight/api/models"
)

type stubEventSource struct {
	events []models.SessionEvent
}

func (s *stubEventSource) FetchEvents(_ context.Context, _ models.EventFilter) ([]models.SessionEvent, error) {
	return s.events, nil
}

func (s *stubEventSource) RecentSessions(_ context.Context, _, _ int) ([]models.SessionEvent, error) {
	return s.events, nil
}

type stubCatalog struct{}

func (stubCatalog) LookupByIdentifiers(_ context.Context, _ []string) (map[string]models.Product, error) {
	return map[string]models.Product{}, nil
}

func newTestRouter(events []models.SessionEvent) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := analytics.NewEngine(&stubEventSource{events: events}, stubCatalog{})
	h := NewReportHandlers(engine)

	r := gin.New()
	r.GET("/reports/overview", h.Overview)
	r.GET("/reports/devices", h.Devices)
	r.GET("/reports/geography", h.Geography)
	r.GET("/reports/trends", h.Trends)
	r.GET("/reports/retention", h.Retention)
	r.GET("/reports/products", h.Products)
	return r
}

func performRequest(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestOverviewHandler(t *testing.T) {
	events := []models.SessionEvent{
		{
			SessionID:      "s1",
			UserID:         "u1",
			CreatedAt:      time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC),
			Classification: "carpet",
			DeviceType:     "mobile",
		},
	}
	w := performRequest(newTestRouter(events), "/reports/overview?startDate=2025-03-01&endDate=2025-03-05")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		KPIs struct {
			TotalUsers   int `json:"totalUsers"`
			TotalUploads int `json:"totalUploads"`
		} `json:"kpis"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.KPIs.TotalUsers)
	assert.Equal(t, 1, body.KPIs.TotalUploads)
}

// Malformed filter dates are rejected before the engine ever runs.
func TestFilterDateValidation(t *testing.T) {
	r := newTestRouter(nil)

	w := performRequest(r, "/reports/devices?startDate=not-a-date")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, "/reports/devices?endDate=01/02/2025")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// End before start is rejected too.
	w = performRequest(r, "/reports/devices?startDate=2025-03-05&endDate=2025-03-01")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeographyLevelValidation(t *testing.T) {
	w := performRequest(newTestRouter(nil), "/reports/geography?level=continent")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrendsGranularityValidation(t *testing.T) {
	w := performRequest(newTestRouter(nil), "/reports/trends?granularity=decade")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Trends and retention default their window when the caller omits dates.
func TestTrendsDefaultWindow(t *testing.T) {
	w := performRequest(newTestRouter(nil), "/reports/trends")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TrendData []struct {
			Key string `json:"key"`
		} `json:"trendData"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.TrendData, 8)
}

func TestRetentionHandler(t *testing.T) {
	now := time.Now().UTC()
	events := []models.SessionEvent{
		{SessionID: "s1", UserID: "u1", CreatedAt: now.AddDate(0, 0, -30)},
		{SessionID: "s2", UserID: "u1", CreatedAt: now.AddDate(0, 0, -1)},
	}
	w := performRequest(newTestRouter(events), "/reports/retention?granularity=day")
	require.Equal(t, http.StatusOK, w.Code)

	var report analytics.CohortReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.ReturningUsers)
	assert.Zero(t, report.NewUsers)
}

func TestProductsLimitValidation(t *testing.T) {
	w := performRequest(newTestRouter(nil), "/reports/products?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmptyResultIsZeroFilledNotMissing(t *testing.T) {
	w := performRequest(newTestRouter(nil), "/reports/devices")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "deviceData")
}
