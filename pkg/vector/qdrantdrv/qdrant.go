// Package qdrantdrv provides a Qdrant-backed vector driver.
package qdrantdrv

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/vector"
)

// DefaultCollection is the default Qdrant collection name.
const DefaultCollection = "packrat_facts"

// Driver implements vector.Driver against a Qdrant collection with cosine
// similarity. Attributes live in the point payload; owner/item/location
// filters become payload match conditions on the KNN query.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant gRPC host.
	Host string

	// Port is the Qdrant gRPC port.
	Port int

	// Collection is the collection name. Defaults to DefaultCollection.
	Collection string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint64
}

// NewDriver connects to Qdrant and ensures the collection exists.
func NewDriver(ctx context.Context, c Config, logger *zap.Logger) (*Driver, error) {
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collection := c.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: c.Host,
		Port: c.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     c.Dimensions,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: creating collection: %v", vector.ErrConnection, err)
		}
	}

	logger.Info("qdrant vector driver initialized",
		zap.String("host", c.Host),
		zap.Int("port", c.Port),
		zap.String("collection", collection),
		zap.Uint64("dimensions", c.Dimensions),
	)

	return &Driver{client: client, collection: collection, logger: logger}, nil
}

// Upsert stores records, replacing any record with the same ID.
func (d *Driver) Upsert(ctx context.Context, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, record := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(record.ID),
			Vectors: qdrant.NewVectors(record.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"owner_id":      record.Attrs.OwnerID,
				"item":          record.Attrs.Item,
				"location":      record.Attrs.Location,
				"original_text": record.Attrs.OriginalText,
				"created_at":    record.Attrs.CreatedAt.UTC().Format(time.RFC3339Nano),
			}),
		})
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: upserting points: %v", vector.ErrConnection, err)
	}
	return nil
}

// Fetch retrieves records by their IDs. Unknown IDs are skipped.
func (d *Driver) Fetch(ctx context.Context, ids []string) ([]vector.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fetching points: %v", vector.ErrConnection, err)
	}

	records := make([]vector.Record, 0, len(points))
	for _, point := range points {
		record, err := recordFromPayload(point.Id.GetUuid(), point.Payload, point.Vectors)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Delete removes records by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: deleting points: %v", vector.ErrConnection, err)
	}
	return nil
}

// Query finds the topK most similar records under the filter.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, f vector.Filter) ([]vector.Match, error) {
	must := []*qdrant.Condition{
		qdrant.NewMatchInt("owner_id", f.OwnerID),
	}
	if f.Item != "" {
		must = append(must, qdrant.NewMatch("item", f.Item))
	}
	if f.Location != "" {
		must = append(must, qdrant.NewMatch("location", f.Location))
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		Filter:         &qdrant.Filter{Must: must},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: knn query: %v", vector.ErrConnection, err)
	}

	matches := make([]vector.Match, 0, len(points))
	for _, point := range points {
		record, err := recordFromPayload(point.Id.GetUuid(), point.Payload, point.Vectors)
		if err != nil {
			return nil, err
		}
		matches = append(matches, vector.Match{Record: record, Score: point.Score})
	}
	return matches, nil
}

func recordFromPayload(id string, payload map[string]*qdrant.Value, vectors *qdrant.VectorsOutput) (vector.Record, error) {
	record := vector.Record{
		ID: id,
		Attrs: vector.Attributes{
			OwnerID:      payload["owner_id"].GetIntegerValue(),
			Item:         payload["item"].GetStringValue(),
			Location:     payload["location"].GetStringValue(),
			OriginalText: payload["original_text"].GetStringValue(),
		},
	}

	if raw := payload["created_at"].GetStringValue(); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return vector.Record{}, fmt.Errorf("point %s: parsing created_at: %w", id, err)
		}
		record.Attrs.CreatedAt = ts
	}

	if v := vectors.GetVector(); v != nil {
		record.Embedding = v.Data
	}
	return record, nil
}

// Close closes the Qdrant connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
