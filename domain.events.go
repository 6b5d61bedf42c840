package main

import (
	"context"
	"encoding/json"
	"time"
)

// Resource kinds used for cache keys and mutation events.
const (
	ResourceBooks          = "books"
	ResourceGenres         = "genres"
	ResourceReviews        = "reviews"
	ResourceLibrary        = "library"
	ResourceTutorials      = "tutorials"
	ResourceUsers          = "users"
	ResourceDashboard      = "dashboard"
	ResourceAdminDashboard = "admin-dashboard"
)

// Event is the record pushed on a mutation queue and archived by the
// audit consumer. Payload carries the entity as it was written.
type Event struct {
	Kind     string          `json:"kind"`
	EntityID string          `json:"entityId"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	At       time.Time       `json:"at"`
}

// NewEvent builds an audit event for an entity mutation. A payload
// that cannot be marshaled is dropped rather than failing the mutation.
func NewEvent(kind, entityID string, payload interface{}, at time.Time) Event {
	e := Event{Kind: kind, EntityID: entityID, At: at}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			e.Payload = raw
		}
	}
	return e
}

// EventArchive stores mutation events durably for audit purposes.
type EventArchive interface {
	Record(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityID string) ([]Event, error)
}
