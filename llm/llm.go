// Package llm defines the embedding and generation collaborator
// contracts the service depends on.
package llm

import (
	"context"
	"errors"
)

var (
	ErrEmptyEmbedding = errors.New("embedding service returned an empty vector")
	ErrNoCandidates   = errors.New("model returned no candidates")
)

// Task selects the embedding mode. Document embeddings are produced at
// index time, query embeddings at retrieval time.
type Task string

const (
	TaskDocument Task = "document"
	TaskQuery    Task = "query"
)

// Fragment is one incremental piece of a streamed completion. A
// non-nil Err terminates the stream.
type Fragment struct {
	Text string
	Err  error
}

// Provider bundles the embedding and generation collaborators behind a
// single credential. Providers are created per request and must be
// closed by the caller.
type Provider interface {
	Embed(ctx context.Context, text string, task Task) ([]float32, error)
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteStream(ctx context.Context, prompt string) (<-chan Fragment, error)
	Close() error
}

// Factory creates a Provider for a caller-supplied API key. Keys are
// never stored in process-wide state; each request carries its own.
type Factory interface {
	Provider(ctx context.Context, apiKey string) (Provider, error)
}
