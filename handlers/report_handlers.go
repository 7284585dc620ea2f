// api/handlers/report_handlers.go
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"floorsight/api/analytics"
	"floorsight/api/models"
	"floorsight/api/utils"
)

// ReportHandlers exposes one endpoint per report view, all backed by the
// aggregation engine.
type ReportHandlers struct {
	Engine *analytics.Engine
}

func NewReportHandlers(engine *analytics.Engine) *ReportHandlers {
	return &ReportHandlers{Engine: engine}
}

// defaultWindowDays is the reporting window applied when the caller supplies
// no date range.
const defaultWindowDays = 7

// parseEventFilter decodes the shared filter query parameters. Malformed
// dates are rejected here, before any store query.
func parseEventFilter(c *gin.Context) (models.EventFilter, bool) {
	var f models.EventFilter

	if startParam := c.Query("startDate"); startParam != "" {
		start, err := utils.ParseTimeParam(startParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'startDate'. Use RFC3339 or YYYY-MM-DD"})
			return f, false
		}
		f.Start = start
	}
	if endParam := c.Query("endDate"); endParam != "" {
		end, err := utils.ParseTimeParam(endParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'endDate'. Use RFC3339 or YYYY-MM-DD"})
			return f, false
		}
		f.End = end
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'endDate' must not precede 'startDate'"})
		return f, false
	}

	f.Classification = c.Query("classification")
	f.Device = c.Query("device")
	f.State = c.Query("state")
	f.City = c.Query("city")
	return f, true
}

// windowedFilter applies the default reporting window to views that require
// explicit bounds.
func windowedFilter(c *gin.Context) (models.EventFilter, bool) {
	f, ok := parseEventFilter(c)
	if !ok {
		return f, false
	}
	if f.End.IsZero() {
		f.End = time.Now().UTC()
	}
	if f.Start.IsZero() {
		f.Start = f.End.AddDate(0, 0, -defaultWindowDays)
	}
	return f, true
}

func reportContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}

// respondError maps engine failures onto the HTTP error taxonomy: filter
// faults are the client's, everything else is a data-layer failure.
func respondError(c *gin.Context, err error, view string) {
	if analytics.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Error().Err(err).Str("view", view).Msg("Report view failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve " + view + " data"})
}

func (h *ReportHandlers) Overview(c *gin.Context) {
	f, ok := parseEventFilter(c)
	if !ok {
		return
	}
	ctx, cancel := reportContext(c)
	defer cancel()

	report, err := h.Engine.Overview(ctx, f)
	if err != nil {
		respondError(c, err, "overview")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandlers) Devices(c *gin.Context) {
	f, ok := parseEventFilter(c)
	if !ok {
		return
	}
	ctx, cancel := reportContext(c)
	defer cancel()

	results, err := h.Engine.Devices(ctx, f)
	if err != nil {
		respondError(c, err, "device")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deviceData": results})
}

func (h *ReportHandlers) Classifications(c *gin.Context) {
	f, ok := parseEventFilter(c)
	if !ok {
		return
	}
	ctx, cancel := reportContext(c)
	defer cancel()

	results, err := h.Engine.Classifications(ctx, f)
	if err != nil {
		respondError(c, err, "classification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categoryData": results})
}

func (h *ReportHandlers) Geography(c *gin.Context) {
	f, ok := parseEventFilter(c)
	if !ok {
		return
	}
	ctx, cancel := reportContext(c)
	defer cancel()

	results, err := h.Engine.Geography(ctx, f, c.Query("level"))
	if err != nil {
		respondError(c, err, "geography")
		return
	}
	c.JSON(http.StatusOK, gin.H{"geoData": results})
}

func (h *ReportHandlers) Trends(c *gin.Context) {
	f, ok := windowedFilter(c)
	if !ok {
		return
	}
	granularity := c.DefaultQuery("granularity", string(analytics.GranularityDay))

	ctx, cancel := reportContext(c)
	defer cancel()

	results, err := h.Engine.Trends(ctx, f, granularity)
	if err != nil {
		respondError(c, err, "trend")
		return
	}
	c.JSON(http.StatusOK, gin.H{"trendData": results})
}

func (h *ReportHandlers) Retention(c *gin.Context) {
	f, ok := windowedFilter(c)
	if !ok {
		return
	}
	granularity := c.DefaultQuery("granularity", string(analytics.GranularityDay))

	ctx, cancel := reportContext(c)
	defer cancel()

	report, err := h.Engine.Retention(ctx, f, granularity)
	if err != nil {
		respondError(c, err, "retention")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandlers) Products(c *gin.Context) {
	f, ok := parseEventFilter(c)
	if !ok {
		return
	}

	limit := 50
	if limitParam := c.Query("limit"); limitParam != "" {
		parsedLimit, err := strconv.Atoi(limitParam)
		if err != nil || parsedLimit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsedLimit
	}

	ctx, cancel := reportContext(c)
	defer cancel()

	results, err := h.Engine.Products(ctx, f, limit)
	if err != nil {
		respondError(c, err, "product performance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"topProducts": results})
}

func (h *ReportHandlers) TimePatterns(c *gin.Context) {
	f, ok := parseEventFilter(c)
	if !ok {
		return
	}
	ctx, cancel := reportContext(c)
	defer cancel()

	report, err := h.Engine.TimePatterns(ctx, f)
	if err != nil {
		respondError(c, err, "time pattern")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandlers) Recent(c *gin.Context) {
	limit := 50
	if limitParam := c.Query("limit"); limitParam != "" {
		parsedLimit, err := strconv.Atoi(limitParam)
		if err != nil || parsedLimit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsedLimit
	}

	minActions := 5
	if minParam := c.Query("minActions"); minParam != "" {
		parsedMin, err := strconv.Atoi(minParam)
		if err != nil || parsedMin < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'minActions' parameter. Must be a non-negative integer."})
			return
		}
		minActions = parsedMin
	}

	ctx, cancel := reportContext(c)
	defer cancel()

	sessions, err := h.Engine.Recent(ctx, limit, minActions)
	if err != nil {
		respondError(c, err, "recent session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": sessions})
}
