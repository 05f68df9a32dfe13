// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
//
// Facts live in one vec0 virtual table. owner_id is a partition key and
// item/location are metadata columns, so exact-filtered lookups run inside
// the KNN query instead of post-filtering its results.
type Driver struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	createVec := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS vec_facts USING vec0(
			fact_id text primary key,
			owner_id integer partition key,
			item text,
			location text,
			+original_text text,
			+created_at text,
			embedding float[%d] distance_metric=cosine
		)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{db: db, logger: logger}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Upsert stores records, replacing any record with the same ID.
// vec0 tables do not support UPDATE, so replacement is DELETE + INSERT.
func (d *Driver) Upsert(ctx context.Context, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", vector.ErrConnection, err)
	}
	defer tx.Rollback()

	for _, record := range records {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_facts WHERE fact_id = ?`, record.ID,
		); err != nil {
			return fmt.Errorf("clearing record %s: %w", record.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vec_facts(fact_id, owner_id, item, location, original_text, created_at, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.ID,
			record.Attrs.OwnerID,
			record.Attrs.Item,
			record.Attrs.Location,
			record.Attrs.OriginalText,
			record.Attrs.CreatedAt.UTC().Format(time.RFC3339Nano),
			serializeFloat32(record.Embedding),
		); err != nil {
			return fmt.Errorf("inserting record %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Fetch retrieves records by their IDs. Unknown IDs are skipped.
func (d *Driver) Fetch(ctx context.Context, ids []string) ([]vector.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT fact_id, owner_id, item, location, original_text, created_at, embedding
		FROM vec_facts WHERE fact_id IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching records: %v", vector.ErrConnection, err)
	}
	defer rows.Close()

	var records []vector.Record
	for rows.Next() {
		record, _, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Delete removes records by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := d.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM vec_facts WHERE fact_id IN (%s)`, placeholders),
		args...,
	); err != nil {
		return fmt.Errorf("%w: deleting records: %v", vector.ErrConnection, err)
	}
	return nil
}

// Query finds the topK most similar records under the filter. The owner
// constraint rides the partition key and item/location ride metadata
// columns, so the KNN never surfaces rows outside the filter.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, f vector.Filter) ([]vector.Match, error) {
	query := `
		SELECT fact_id, owner_id, item, location, original_text, created_at, embedding, distance
		FROM vec_facts
		WHERE embedding MATCH ? AND k = ? AND owner_id = ?`
	args := []any{serializeFloat32(embedding), topK, f.OwnerID}

	if f.Item != "" {
		query += ` AND item = ?`
		args = append(args, f.Item)
	}
	if f.Location != "" {
		query += ` AND location = ?`
		args = append(args, f.Location)
	}
	query += ` ORDER BY distance`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: knn query: %v", vector.ErrConnection, err)
	}
	defer rows.Close()

	var matches []vector.Match
	for rows.Next() {
		record, distance, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		// cosine distance in [0, 2]; similarity = 1 - distance
		matches = append(matches, vector.Match{Record: record, Score: 1 - distance})
	}
	return matches, rows.Err()
}

func scanRecord(rows *sql.Rows) (vector.Record, float32, error) {
	var (
		record    vector.Record
		createdAt string
		blob      []byte
	)
	if err := rows.Scan(
		&record.ID,
		&record.Attrs.OwnerID,
		&record.Attrs.Item,
		&record.Attrs.Location,
		&record.Attrs.OriginalText,
		&createdAt,
		&blob,
	); err != nil {
		return vector.Record{}, 0, fmt.Errorf("scanning record: %w", err)
	}
	return finishRecord(record, createdAt, blob, 0)
}

func scanMatch(rows *sql.Rows) (vector.Record, float32, error) {
	var (
		record    vector.Record
		createdAt string
		blob      []byte
		distance  float64
	)
	if err := rows.Scan(
		&record.ID,
		&record.Attrs.OwnerID,
		&record.Attrs.Item,
		&record.Attrs.Location,
		&record.Attrs.OriginalText,
		&createdAt,
		&blob,
		&distance,
	); err != nil {
		return vector.Record{}, 0, fmt.Errorf("scanning match: %w", err)
	}
	return finishRecord(record, createdAt, blob, float32(distance))
}

func finishRecord(record vector.Record, createdAt string, blob []byte, distance float32) (vector.Record, float32, error) {
	embedding, err := deserializeFloat32(blob)
	if err != nil {
		return vector.Record{}, 0, fmt.Errorf("record %s: %w", record.ID, err)
	}
	record.Embedding = embedding

	if createdAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return vector.Record{}, 0, fmt.Errorf("record %s: parsing created_at: %w", record.ID, err)
		}
		record.Attrs.CreatedAt = ts
	}
	return record, distance, nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)
