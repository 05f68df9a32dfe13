// Package eventstream publishes fact-mutation events so downstream consumers
// can track what the memory store changed.
package eventstream

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is stamped on every emitted event.
const SchemaVersion = 1

// Event types for fact mutations.
const (
	EventFactCreated = "packrat.fact.created"
	EventFactDeleted = "packrat.fact.deleted"
	EventFactRenamed = "packrat.fact.renamed"
)

// ErrPublish indicates the event could not be handed to the stream.
var ErrPublish = errors.New("publishing event")

// FactEvent describes one mutation of an owner's facts.
type FactEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	EmittedAt     time.Time `json:"emitted_at"`
	OwnerID       int64     `json:"owner_id"`
	FactIDs       []string  `json:"fact_ids"`
}

// NewFactEvent stamps a fresh event of the given type.
func NewFactEvent(eventType string, ownerID int64, factIDs []string) *FactEvent {
	return &FactEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EmittedAt:     time.Now().UTC(),
		OwnerID:       ownerID,
		FactIDs:       factIDs,
	}
}

// Publisher hands fact events to a stream.
type Publisher interface {
	// Publish emits one event. Implementations may buffer; Close flushes.
	Publish(ctx context.Context, event *FactEvent) error

	// Close flushes buffered events and releases resources.
	Close() error
}
