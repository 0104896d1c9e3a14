package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks dreamweaver-ai/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// EnsureCollection creates the collection if it is missing and validates its vector size otherwise.
	// Safe to call concurrently.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// CollectionExists reports whether the collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search. Each filter is an exact match on a payload key.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]string) ([]SearchResult, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// Reset drops the collection and recreates it empty.
	Reset(ctx context.Context, collection string, vectorSize int) error
}
