package vector

import "errors"

var (
	// ErrNotFound is returned when a record is not found in the vector store.
	ErrNotFound = errors.New("record not found")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
