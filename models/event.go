// api/models/event.go
package models

import (
	"time"
)

// UserLocation is the coarse geography captured with a session.
type UserLocation struct {
	State string `json:"state,omitempty"`
	City  string `json:"city,omitempty"`
}

// ActionEntry is one raw interaction recorded during a session: an opaque
// action token plus the moment it happened. Tokens are decoded by the
// analytics package, never here.
type ActionEntry struct {
	Token     string    `json:"token"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionEvent represents a single visual-search session: one uploaded image,
// the ordered product results shown for it, and the interactions that
// followed. This is the unit record of the whole reporting surface.
type SessionEvent struct {
	SessionID      string        `json:"sessionId"`
	UserID         string        `json:"userId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt,omitempty"`
	Classification string        `json:"classification,omitempty"`
	DeviceType     string        `json:"deviceType,omitempty"`
	DeviceInfo     string        `json:"deviceInfo,omitempty"`
	UserLocation   UserLocation  `json:"userLocation,omitempty"`
	SearchResults  []string      `json:"searchResults,omitempty"`
	UserActions    []ActionEntry `json:"userActions,omitempty"`
	UserImage      string        `json:"userImage,omitempty"`
}

// EventFilter is the filter set a caller supplies with every report request.
// Zero values mean "no constraint on this field".
type EventFilter struct {
	Start          time.Time
	End            time.Time
	Classification string
	Device         string
	State          string
	City           string
}

// WithoutDateRange returns a copy of the filter with the date bounds cleared.
// The cohort computation needs the same classification/device/geography
// filters applied over the entire event history.
func (f EventFilter) WithoutDateRange() EventFilter {
	f.Start = time.Time{}
	f.End = time.Time{}
	return f
}
