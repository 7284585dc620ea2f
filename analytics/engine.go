// api/analytics/engine.go
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"floorsight/api/models"
)

// EventSource is the queryable session-event collection the engine reads
// from. Implementations push the filter predicates down to storage; the
// aggregation rules themselves always run here.
type EventSource interface {
	FetchEvents(ctx context.Context, f models.EventFilter) ([]models.SessionEvent, error)
	RecentSessions(ctx context.Context, limit, minActions int) ([]models.SessionEvent, error)
}

// ProductCatalog resolves product identifiers (SKU, internal id, public id)
// to catalog entries for cross-referencing impressions with clicks.
type ProductCatalog interface {
	LookupByIdentifiers(ctx context.Context, ids []string) (map[string]models.Product, error)
}

// ValidationError marks a malformed filter or view parameter. It is raised
// before any store query and surfaces to the caller as a client-side fault.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Engine composes the classification, parsing and cohort rules into the
// report views. It holds no state across calls; every invocation operates on
// its own locally fetched record set.
type Engine struct {
	events  EventSource
	catalog ProductCatalog
}

func NewEngine(events EventSource, catalog ProductCatalog) *Engine {
	return &Engine{events: events, catalog: catalog}
}

// OverviewKPIs is the headline block of the overview report.
type OverviewKPIs struct {
	TotalUsers        int     `json:"totalUsers"`
	TotalUploads      int     `json:"totalUploads"`
	ImageUploads      int     `json:"imageUploads"`
	TotalClicks       int     `json:"totalClicks"`
	TotalShares       int     `json:"totalShares"`
	TotalDownloads    int     `json:"totalDownloads"`
	ClickRate         float64 `json:"clickRate"`
	ShareDownloadRate float64 `json:"shareDownloadRate"`
	AvgUploadsPerUser float64 `json:"avgUploadsPerUser"`
}

// OverviewReport is the landing-page view: totals, mixes and a daily trend.
type OverviewReport struct {
	KPIs              OverviewKPIs     `json:"kpis"`
	ClassificationMix []DimensionStats `json:"classificationStats"`
	DeviceMix         []DimensionStats `json:"deviceStats"`
	RankDistribution  map[string]int   `json:"rankDistribution"`
	UploadTrend       []DimensionStats `json:"trendData"`
}

// overviewTrendDays is the daily-trend span used when the caller supplies no
// date window.
const overviewTrendDays = 14

func (e *Engine) Overview(ctx context.Context, f models.EventFilter) (*OverviewReport, error) {
	events, err := e.events.FetchEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch session events: %w", err)
	}

	report := &OverviewReport{
		ClassificationMix: AggregateByClassification(events),
		DeviceMix:         AggregateByDevice(events),
		RankDistribution:  RankDistribution(events),
	}

	users := make(map[string]struct{})
	for _, ev := range events {
		if !eligible(ev) {
			continue
		}
		users[ev.UserID] = struct{}{}
		report.KPIs.TotalUploads++
		if ev.UserImage != "" {
			report.KPIs.ImageUploads++
		}
		for _, entry := range ev.UserActions {
			switch ParseAction(entry.Token).Kind {
			case ActionClick:
				report.KPIs.TotalClicks++
			case ActionShare:
				report.KPIs.TotalShares++
			case ActionDownload:
				report.KPIs.TotalDownloads++
			}
		}
	}
	report.KPIs.TotalUsers = len(users)
	report.KPIs.ClickRate = safeRate(report.KPIs.TotalClicks, report.KPIs.TotalUploads)
	report.KPIs.ShareDownloadRate = safeRate(report.KPIs.TotalShares+report.KPIs.TotalDownloads, report.KPIs.TotalUploads)
	report.KPIs.AvgUploadsPerUser = safeAvg(report.KPIs.TotalUploads, report.KPIs.TotalUsers)

	trendStart, trendEnd := f.Start, f.End
	if trendEnd.IsZero() {
		trendEnd = time.Now().UTC()
	}
	if trendStart.IsZero() {
		trendStart = trendEnd.AddDate(0, 0, -overviewTrendDays)
	}
	report.UploadTrend = AggregateByBuckets(events, GranularityDay, trendStart, trendEnd)

	return report, nil
}

func (e *Engine) Devices(ctx context.Context, f models.EventFilter) ([]DimensionStats, error) {
	events, err := e.events.FetchEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch session events: %w", err)
	}
	return AggregateByDevice(events), nil
}

func (e *Engine) Classifications(ctx context.Context, f models.EventFilter) ([]DimensionStats, error) {
	events, err := e.events.FetchEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch session events: %w", err)
	}
	return AggregateByClassification(events), nil
}

func (e *Engine) Geography(ctx context.Context, f models.EventFilter, level string) ([]DimensionStats, error) {
	var geoLevel GeoLevel
	switch level {
	case "", string(GeoStateLevel):
		geoLevel = GeoStateLevel
	case string(GeoCityLevel):
		geoLevel = GeoCityLevel
	default:
		return nil, &ValidationError{Field: "level", Reason: fmt.Sprintf("must be %q or %q", GeoStateLevel, GeoCityLevel)}
	}

	events, err := e.events.FetchEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch session events: %w", err)
	}
	return AggregateByGeography(events, geoLevel), nil
}

// Trends returns the time-bucketed roll-up over the filter window, gap-free
// and zero-filled. The window must be set; handlers default it.
func (e *Engine) Trends(ctx context.Context, f models.EventFilter, granularity string) ([]DimensionStats, error) {
	g, err := ParseGranularity(granularity)
	if err != nil {
		return nil, &ValidationError{Field: "granularity", Reason: err.Error()}
	}
	if f.Start.IsZero() || f.End.IsZero() {
		return nil, &ValidationError{Field: "date range", Reason: "start and end are required for trend views"}
	}

	events, err := e.events.FetchEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch session events: %w", err)
	}
	return AggregateByBuckets(events, g, f.Start, f.End), nil
}

// Retention computes the cohort view. The event fetch deliberately drops the
// date bounds: the global-history phase of the cohort computation must see
// the user's entire filtered history, and the windowed phase re-applies the
// window in memory. Hour granularity is not offered for cohorts.
func (e *Engine) Retention(ctx context.Context, f models.EventFilter, granularity string) (*CohortReport, error) {
	g, err := ParseGranularity(granularity)
	if err != nil || g == GranularityHour {
		return nil, &ValidationError{Field: "granularity", Reason: "must be day, week or month"}
	}
	if f.Start.IsZero() || f.End.IsZero() {
		return nil, &ValidationError{Field: "date range", Reason: "start and end are required for retention views"}
	}

	globalEvents, err := e.events.FetchEvents(ctx, f.WithoutDateRange())
	if err != nil {
		return nil, fmt.Errorf("fetch session events: %w", err)
	}
	report := AnalyzeCohorts(globalEvents, g, f.Start, f.End)
	return &report, nil
}

// Products computes product click performance. The two identifier
// populations (SKUs from result lists, public ids from click tokens) are
// resolved through the catalog with independent lookups issued concurrently;
// the merge itself runs only once both are back.
func (e *Engine) Products(ctx context.Context, f models.EventFilter, limit int) ([]ProductStats, error) {
	events, err := e.events.FetchEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch session events: %w", err)
	}

	skuSet := make(map[string]struct{})
	clickIDSet := make(map[string]struct{})
	for _, ev := range events {
		if !eligible(ev) {
			continue
		}
		for _, sku := range ev.SearchResults {
			if sku != "" {
				skuSet[sku] = struct{}{}
			}
		}
		for _, entry := range ev.UserActions {
			if action := ParseAction(entry.Token); action.Kind == ActionClick && action.ProductID != "" {
				clickIDSet[action.ProductID] = struct{}{}
			}
		}
	}

	var skuProducts, clickProducts map[string]models.Product
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var lookupErr error
		skuProducts, lookupErr = e.lookupProducts(groupCtx, skuSet)
		return lookupErr
	})
	group.Go(func() error {
		var lookupErr error
		clickProducts, lookupErr = e.lookupProducts(groupCtx, clickIDSet)
		return lookupErr
	})
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("resolve product catalog: %w", err)
	}

	catalog := make(map[string]models.Product, len(skuProducts)+len(clickProducts))
	for id, product := range skuProducts {
		catalog[id] = product
	}
	for id, product := range clickProducts {
		catalog[id] = product
	}

	results := AggregateProducts(events, catalog)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) lookupProducts(ctx context.Context, idSet map[string]struct{}) (map[string]models.Product, error) {
	if len(idSet) == 0 {
		return map[string]models.Product{}, nil
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	return e.catalog.LookupByIdentifiers(ctx, ids)
}

// HourPattern is the upload count for one hour of the day.
type HourPattern struct {
	Hour    int `json:"hour"`
	Uploads int `json:"uploads"`
}

// WeekdayPattern is the upload count for one day of the week.
type WeekdayPattern struct {
	Day     string `json:"day"`
	Uploads int    `json:"uploads"`
}

// TimePatternsReport covers the hour-of-day and day-of-week views.
type TimePatternsReport struct {
	Hourly  []HourPattern    `json:"hourlyData"`
	Weekday []WeekdayPattern `json:"dailyData"`
}

func (e *Engine) TimePatterns(ctx context.Context, f models.EventFilter) (*TimePatternsReport, error) {
	events, err := e.events.FetchEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch session events: %w", err)
	}

	var hours [24]int
	var weekdays [7]int
	for _, ev := range events {
		if !eligible(ev) || ev.CreatedAt.IsZero() {
			continue
		}
		ts := ev.CreatedAt.UTC()
		hours[ts.Hour()]++
		weekdays[int(ts.Weekday())]++
	}

	report := &TimePatternsReport{
		Hourly:  make([]HourPattern, 24),
		Weekday: make([]WeekdayPattern, 7),
	}
	for h := 0; h < 24; h++ {
		report.Hourly[h] = HourPattern{Hour: h, Uploads: hours[h]}
	}
	for d := 0; d < 7; d++ {
		report.Weekday[d] = WeekdayPattern{Day: time.Weekday(d).String(), Uploads: weekdays[d]}
	}
	return report, nil
}

// Recent returns the most recent sessions with more than minActions recorded
// interactions.
func (e *Engine) Recent(ctx context.Context, limit, minActions int) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	sessions, err := e.events.RecentSessions(ctx, limit, minActions)
	if err != nil {
		return nil, fmt.Errorf("fetch recent sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.SessionEvent{}
	}
	return sessions, nil
}

// IsValidationError reports whether err should surface as a client-side
// failure rather than a server fault.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
