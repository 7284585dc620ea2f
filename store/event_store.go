// api/store/event_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"floorsight/api/database"
	"floorsight/api/models"
)

// EventStore is the ClickHouse-backed session-event collection. It supports
// batched ingest and filter-predicate fetches; all derived metrics are
// computed by the analytics package over the fetched record sets.
type EventStore struct {
	DB *database.ClickHouseClient
}

func NewEventStore(chClient *database.ClickHouseClient) *EventStore {
	return &EventStore{DB: chClient}
}

// InsertSessionEvents batch-inserts session events. Action tokens and their
// timestamps are stored as positionally paired arrays.
func (s *EventStore) InsertSessionEvents(ctx context.Context, events []models.SessionEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO session_events (
			session_id, user_id, created_at, classification, device_type, device_info,
			state, city, search_results, action_tokens, action_times, user_image
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	for _, event := range events {
		tokens := make([]string, 0, len(event.UserActions))
		times := make([]time.Time, 0, len(event.UserActions))
		for _, action := range event.UserActions {
			tokens = append(tokens, action.Token)
			times = append(times, action.Timestamp)
		}

		err := batch.Append(
			event.SessionID,
			event.UserID,
			event.CreatedAt,
			event.Classification,
			event.DeviceType,
			event.DeviceInfo,
			event.UserLocation.State,
			event.UserLocation.City,
			event.SearchResults,
			tokens,
			times,
			event.UserImage,
		)
		if err != nil {
			log.Error().Err(err).Str("session_id", event.SessionID).Msg("Error appending event to batch")
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Info().Int("count", len(events)).Msg("Inserted session events")
	return nil
}

// buildFilterClause assembles the WHERE clause for a filter set. Records
// without a user id never reach the aggregation engine: every user-keyed
// metric, uploads included, requires one.
func buildFilterClause(f models.EventFilter) (string, []interface{}) {
	whereClause := "WHERE user_id != ''"
	var args []interface{}

	if !f.Start.IsZero() {
		whereClause += " AND created_at >= ?"
		args = append(args, f.Start)
	}
	if !f.End.IsZero() {
		whereClause += " AND created_at <= ?"
		args = append(args, f.End)
	}
	if f.Classification != "" {
		whereClause += " AND classification = ?"
		args = append(args, f.Classification)
	}
	if f.Device != "" {
		whereClause += " AND device_type = ?"
		args = append(args, f.Device)
	}
	if f.State != "" {
		whereClause += " AND state = ?"
		args = append(args, f.State)
	}
	if f.City != "" {
		whereClause += " AND city = ?"
		args = append(args, f.City)
	}

	return whereClause, args
}

const eventColumns = `session_id, user_id, created_at, classification, device_type, device_info,
		state, city, search_results, action_tokens, action_times, user_image`

// FetchEvents returns the full record set matching the filter, ordered by
// creation time. Filter predicates are pushed down; nothing is aggregated
// here.
func (s *EventStore) FetchEvents(ctx context.Context, f models.EventFilter) ([]models.SessionEvent, error) {
	whereClause, args := buildFilterClause(f)
	query := fmt.Sprintf(`
		SELECT %s
		FROM session_events
		%s
		ORDER BY created_at ASC
	`, eventColumns, whereClause)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer rows.Close()

	var events []models.SessionEvent
	for rows.Next() {
		event, err := scanSessionEvent(rows)
		if err != nil {
			log.Error().Err(err).Msg("Error scanning session event row")
			continue
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during session event query: %w", err)
	}

	return events, nil
}

// RecentSessions returns the most recent sessions with more than minActions
// recorded action tokens.
func (s *EventStore) RecentSessions(ctx context.Context, limit, minActions int) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM session_events
		WHERE length(action_tokens) > ?
		ORDER BY created_at DESC
		LIMIT ?
	`, eventColumns)

	rows, err := s.DB.Conn.Query(ctx, query, minActions, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sessions: %w", err)
	}
	defer rows.Close()

	var events []models.SessionEvent
	for rows.Next() {
		event, err := scanSessionEvent(rows)
		if err != nil {
			log.Error().Err(err).Msg("Error scanning recent session row")
			continue
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during recent session query: %w", err)
	}

	return events, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSessionEvent(rows rowScanner) (models.SessionEvent, error) {
	var (
		event         models.SessionEvent
		searchResults []string
		actionTokens  []string
		actionTimes   []time.Time
	)
	err := rows.Scan(
		&event.SessionID,
		&event.UserID,
		&event.CreatedAt,
		&event.Classification,
		&event.DeviceType,
		&event.DeviceInfo,
		&event.UserLocation.State,
		&event.UserLocation.City,
		&searchResults,
		&actionTokens,
		&actionTimes,
		&event.UserImage,
	)
	if err != nil {
		return models.SessionEvent{}, err
	}

	event.SearchResults = searchResults
	event.UserActions = make([]models.ActionEntry, 0, len(actionTokens))
	for i, token := range actionTokens {
		entry := models.ActionEntry{Token: token}
		// The arrays are positionally paired; tolerate a length mismatch by
		// leaving the timestamp zero rather than dropping the token.
		if i < len(actionTimes) {
			entry.Timestamp = actionTimes[i]
		}
		event.UserActions = append(event.UserActions, entry)
	}
	return event, nil
}
