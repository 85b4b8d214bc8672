package rag

import (
	"context"
	"errors"
)

var (
	ErrNotInitialized    = errors.New("vector store not initialized")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

type VectorDoc struct {
	ID       string
	Content  string
	Metadata map[string]any
	Vector   []float32
	Score    float32
}

// VectorStore is a named collection of embedded texts.
type VectorStore interface {
	// Init creates the collection for vectors of the given size, or checks
	// that an existing one uses the same size.
	Init(ctx context.Context, vectorSize int) error
	UpsertBatch(ctx context.Context, docs []VectorDoc) error
	// Query returns at most k docs by non-increasing cosine similarity.
	Query(ctx context.Context, vector []float32, filters map[string]string, k int) ([]VectorDoc, error)
	// Count returns how many docs match every filter (all docs when empty).
	Count(ctx context.Context, filters map[string]string) (int, error)
	Close() error
}

type Retriever interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]VectorDoc, error)
}
