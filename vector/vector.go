package vector

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned by Store.Open when a document's
// collection is missing or unreadable. Callers are expected to recover
// from it by skipping the document.
var ErrCollectionNotFound = errors.New("collection not found")

type Config struct {
	Path string `yaml:"path"`
}

// EmbeddingFunc turns a piece of text into a fixed-length vector.
type EmbeddingFunc func(ctx context.Context, text string) ([]float32, error)

// Store manages one isolated vector collection per indexed document.
type Store interface {

	// Create builds a fresh collection at a path derived from the
	// collection identifier, embeds the documents and stores them.
	// It returns the storage path of the new collection.
	Create(ctx context.Context, collection string, docs []Document, embed EmbeddingFunc) (string, error)

	// Open reopens the collection persisted at path. It returns
	// ErrCollectionNotFound when the path or the collection is
	// missing or corrupted.
	Open(path string, collection string, embed EmbeddingFunc) (Collection, error)

	// Delete removes the collection's on-disk representation.
	// It is a no-op when the path does not exist.
	Delete(path string) error

	// Clear removes the entire storage root.
	Clear() error
}

type Collection interface {
	Query(ctx context.Context, query string, k int) ([]Result, error)
}

type Document struct {
	ID        string            `json:"id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding,omitempty"`
}

type Result struct {
	Document
	Similarity float32 `json:"similarity"`
}
