package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/packratco/packrat/pkg/embeddings"
	"github.com/packratco/packrat/pkg/vector"
)

// Similarity floors for fallback suggestions. A candidate scoring exactly at
// the floor is kept; below it is dropped. Deletion demands a higher floor
// than retrieval because a wrong suggestion there costs stored data.
const (
	ItemScoreFloor             float32 = 0.65
	RetrieveLocationScoreFloor float32 = 0.70
	DeleteLocationScoreFloor   float32 = 0.75
)

const (
	// exactItemTopK bounds exact-filtered item lookups. One active fact per
	// item makes anything beyond the top hit residue.
	exactItemTopK = 3

	// exactLocationTopK bounds exact-filtered location lookups, which must
	// surface every item stored there.
	exactLocationTopK = 100

	// fallbackTopK bounds similarity suggestions per missed target.
	fallbackTopK = 3
)

// itemQuestion and locationQuestion phrase lookups the way a user would ask
// them, so query embeddings live in the same space as the stored statements.
func itemQuestion(item string) string {
	return fmt.Sprintf("Where is %s?", item)
}

func locationQuestion(location string) string {
	return fmt.Sprintf("What did I keep at %s?", location)
}

// ItemLookup is the result of resolving one requested item: exact-filtered
// matches when the item is known, otherwise similar stored item names.
type ItemLookup struct {
	Matches []vector.Match
	Similar []string
}

// LocationLookup mirrors ItemLookup for a requested location.
type LocationLookup struct {
	Matches []vector.Match
	Similar []string
}

// Matcher resolves item and location names against the stored facts.
type Matcher struct {
	vec vector.Driver
	emb embeddings.Embedder
}

func NewMatcher(vec vector.Driver, emb embeddings.Embedder) *Matcher {
	return &Matcher{vec: vec, emb: emb}
}

// LookupItem resolves one item name: an exact-filtered query first, then an
// owner-wide similarity fallback when nothing matched exactly. The question
// is embedded once and reused for both passes.
func (m *Matcher) LookupItem(ctx context.Context, ownerID int64, item string, floor float32) (*ItemLookup, error) {
	embedding, err := m.emb.Embed(ctx, itemQuestion(item))
	if err != nil {
		return nil, fmt.Errorf("%w: embedding item query: %v", ErrExternalService, err)
	}

	matches, err := m.vec.Query(ctx, embedding, exactItemTopK, vector.Filter{
		OwnerID: ownerID,
		Item:    Normalize(item),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: item query: %v", ErrExternalService, err)
	}
	if len(matches) > 0 {
		return &ItemLookup{Matches: matches}, nil
	}

	similar, err := m.similar(ctx, ownerID, embedding, floor, func(match vector.Match) string {
		return match.Attrs.Item
	})
	if err != nil {
		return nil, err
	}
	return &ItemLookup{Similar: similar}, nil
}

// LookupLocation resolves one location name the same way LookupItem resolves
// an item, with a wider exact topK so every item stored there surfaces.
func (m *Matcher) LookupLocation(ctx context.Context, ownerID int64, location string, floor float32) (*LocationLookup, error) {
	embedding, err := m.emb.Embed(ctx, locationQuestion(location))
	if err != nil {
		return nil, fmt.Errorf("%w: embedding location query: %v", ErrExternalService, err)
	}

	matches, err := m.vec.Query(ctx, embedding, exactLocationTopK, vector.Filter{
		OwnerID:  ownerID,
		Location: Normalize(location),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: location query: %v", ErrExternalService, err)
	}
	if len(matches) > 0 {
		return &LocationLookup{Matches: matches}, nil
	}

	similar, err := m.similar(ctx, ownerID, embedding, floor, func(match vector.Match) string {
		return match.Attrs.Location
	})
	if err != nil {
		return nil, err
	}
	return &LocationLookup{Similar: similar}, nil
}

// CurrentForItem returns the owner's active fact for a normalized item, or
// nil when the item is absent. The caller supplies the statement embedding so
// reconciliation reuses the vector it is about to store.
func (m *Matcher) CurrentForItem(ctx context.Context, ownerID int64, item string, embedding []float32) (*vector.Match, error) {
	matches, err := m.vec.Query(ctx, embedding, exactItemTopK, vector.Filter{
		OwnerID: ownerID,
		Item:    Normalize(item),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: current-fact query: %v", ErrExternalService, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// similar runs the owner-wide fallback query, keeps candidates at or above
// the floor, and returns their attribute names deduplicated in descending
// score order.
func (m *Matcher) similar(ctx context.Context, ownerID int64, embedding []float32, floor float32, name func(vector.Match) string) ([]string, error) {
	matches, err := m.vec.Query(ctx, embedding, fallbackTopK, vector.Filter{OwnerID: ownerID})
	if err != nil {
		return nil, fmt.Errorf("%w: fallback query: %v", ErrExternalService, err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	seen := make(map[string]bool, len(matches))
	var names []string
	for _, match := range matches {
		if match.Score < floor {
			continue
		}
		n := name(match)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names, nil
}
