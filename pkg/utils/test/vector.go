package testutils

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/packratco/packrat/pkg/vector"
)

// MockVectorDriver is an in-memory vector.Driver with real cosine scoring,
// so threshold and filter behavior can be exercised without a store.
type MockVectorDriver struct {
	mu      sync.Mutex
	records map[string]vector.Record

	// FailQuery causes Query to return an error.
	FailQuery bool

	// FailUpsert causes Upsert to return an error.
	FailUpsert bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		records: make(map[string]vector.Record),
	}
}

func (m *MockVectorDriver) Upsert(_ context.Context, records []vector.Record) error {
	if m.FailUpsert {
		return fmt.Errorf("mock upsert failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		m.records[record.ID] = record
	}
	return nil
}

func (m *MockVectorDriver) Fetch(_ context.Context, ids []string) ([]vector.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []vector.Record
	for _, id := range ids {
		if record, ok := m.records[id]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, embedding []float32, topK int, f vector.Filter) ([]vector.Match, error) {
	if m.FailQuery {
		return nil, fmt.Errorf("mock query failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []vector.Match
	for _, record := range m.records {
		if record.Attrs.OwnerID != f.OwnerID {
			continue
		}
		if f.Item != "" && record.Attrs.Item != f.Item {
			continue
		}
		if f.Location != "" && record.Attrs.Location != f.Location {
			continue
		}
		matches = append(matches, vector.Match{
			Record: record,
			Score:  cosine(embedding, record.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports how many records are stored.
func (m *MockVectorDriver) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Get returns a stored record by ID.
func (m *MockVectorDriver) Get(id string) (vector.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	return record, ok
}

func (m *MockVectorDriver) Close() error {
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ vector.Driver = (*MockVectorDriver)(nil)
