// Package vector provides interfaces and implementations for storing and
// querying memory-fact embeddings.
package vector

import (
	"context"
	"time"
)

// Attributes is the metadata stored alongside each embedding. Item and
// Location are kept normalized (lower-cased, trimmed) so exact-filtered
// queries can match on equality.
type Attributes struct {
	// OwnerID scopes the record to a single user. Every query and mutation
	// carries it; records never move between owners.
	OwnerID int64

	// Item is the normalized name of the stored object.
	Item string

	// Location is the normalized place the item was put.
	Location string

	// OriginalText is the literal sentence the fact was extracted from,
	// retained for rename rewriting and response composition.
	OriginalText string

	// CreatedAt is set once at creation and never updated.
	CreatedAt time.Time
}

// Record is a stored fact embedding with its attributes.
type Record struct {
	// ID is a unique identifier for the record, generated at creation.
	ID string

	// Embedding is the vector representation of the original text.
	Embedding []float32

	Attrs Attributes
}

// Filter restricts a query to records matching exact attribute values.
// OwnerID is always required; Item and Location are optional and, when both
// are empty, the query is an owner-scoped similarity search.
type Filter struct {
	OwnerID  int64
	Item     string
	Location string
}

// Match is a query result with its similarity score (higher = more similar).
type Match struct {
	Record

	Score float32
}

// Driver handles storage and retrieval of fact embeddings.
type Driver interface {
	// Upsert stores records, replacing any record with the same ID.
	Upsert(ctx context.Context, records []Record) error

	// Fetch retrieves records by their IDs. Unknown IDs are skipped, not
	// errors; callers are expected to owner-filter the result.
	Fetch(ctx context.Context, ids []string) ([]Record, error)

	// Delete removes records by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Query finds the topK records most similar to the given embedding,
	// restricted by the filter, ordered by descending score. An empty
	// result is a legitimate "not found", never an error.
	Query(ctx context.Context, embedding []float32, topK int, f Filter) ([]Match, error)

	// Close releases any resources held by the driver.
	Close() error
}
