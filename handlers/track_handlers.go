// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"floorsight/api/models"
	"floorsight/api/store"
)

type TrackHandlers struct {
	EventStore *store.EventStore
}

func NewTrackHandlers(s *store.EventStore) *TrackHandlers {
	return &TrackHandlers{EventStore: s}
}

// TrackEvents ingests a batch of session events. Sessions without an id get
// a generated one; missing timestamps are stamped on arrival so later
// time-bucketed reports have a record-creation-order fallback.
func (h *TrackHandlers) TrackEvents(c *gin.Context) {
	var incomingEvents []models.SessionEvent
	if err := c.ShouldBindJSON(&incomingEvents); err != nil {
		log.Error().Err(err).Msg("Error binding incoming session events JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(incomingEvents) == 0 {
		c.Status(http.StatusOK)
		return
	}

	now := time.Now().UTC()
	eventsToInsert := make([]models.SessionEvent, 0, len(incomingEvents))
	for _, event := range incomingEvents {
		if event.SessionID == "" {
			event.SessionID = uuid.New().String()
		}
		if event.CreatedAt.IsZero() {
			event.CreatedAt = now
		}
		for i := range event.UserActions {
			if event.UserActions[i].Timestamp.IsZero() {
				event.UserActions[i].Timestamp = now
			}
		}
		eventsToInsert = append(eventsToInsert, event)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.EventStore.InsertSessionEvents(ctx, eventsToInsert); err != nil {
		log.Error().Err(err).Msg("Error inserting session events into ClickHouse")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record session events"})
		return
	}

	c.Status(http.StatusOK)
}
