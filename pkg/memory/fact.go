// Package memory implements the item/location fact store: classifying
// utterances into operations, decomposing them into atomic facts, and keeping
// exactly one active location per item per owner.
package memory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/packratco/packrat/pkg/vector"
)

// wakePrefixes are conversational openers stripped before any processing.
// Matching is case-insensitive and tolerates a trailing comma or period.
var wakePrefixes = []string{"dear memory"}

// Fact is one atomic item/location statement owned by a single user.
type Fact struct {
	ID           string
	OwnerID      int64
	Item         string
	Location     string
	OriginalText string
	CreatedAt    time.Time
	Embedding    []float32
}

// NewFact mints a fact with a fresh ID and normalized item/location.
func NewFact(ownerID int64, item, location, originalText string, embedding []float32) Fact {
	return Fact{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Item:         Normalize(item),
		Location:     Normalize(location),
		OriginalText: originalText,
		CreatedAt:    time.Now().UTC(),
		Embedding:    embedding,
	}
}

// Normalize lower-cases and trims an item or location name. Equality of
// normalized forms is the only identity the store recognizes.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Record converts the fact to its stored representation.
func (f Fact) Record() vector.Record {
	return vector.Record{
		ID:        f.ID,
		Embedding: f.Embedding,
		Attrs: vector.Attributes{
			OwnerID:      f.OwnerID,
			Item:         f.Item,
			Location:     f.Location,
			OriginalText: f.OriginalText,
			CreatedAt:    f.CreatedAt,
		},
	}
}

func factFromRecord(r vector.Record) Fact {
	return Fact{
		ID:           r.ID,
		OwnerID:      r.Attrs.OwnerID,
		Item:         r.Attrs.Item,
		Location:     r.Attrs.Location,
		OriginalText: r.Attrs.OriginalText,
		CreatedAt:    r.Attrs.CreatedAt,
		Embedding:    r.Embedding,
	}
}

// StripWakePrefix removes a leading wake phrase ("Dear Memory, ...") and
// returns the trimmed remainder. Text without a wake phrase passes through
// trimmed but otherwise untouched.
func StripWakePrefix(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	for _, prefix := range wakePrefixes {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}

		rest := trimmed[len(prefix):]
		rest = strings.TrimLeft(rest, ",.")
		return strings.TrimSpace(rest)
	}

	return trimmed
}
