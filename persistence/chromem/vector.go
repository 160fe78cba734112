package chromem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/philippgille/chromem-go"

	"github.com/pdfchat/pdfchat/vector"
)

// NewStore returns a vector.Store that keeps one persistent chromem
// database directory per document under root.
func NewStore(root string) vector.Store {
	return &store{root: root}
}

type store struct {
	root string
}

func (s *store) path(collection string) string {
	return filepath.Join(s.root, collection)
}

func (s *store) Create(ctx context.Context, collection string, docs []vector.Document, embed vector.EmbeddingFunc) (string, error) {
	path := s.path(collection)

	// A leftover directory from a failed earlier attempt would leak
	// stale entries into the fresh collection.
	if err := os.RemoveAll(path); err != nil {
		return "", fmt.Errorf("reset storage path: %w", err)
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return "", fmt.Errorf("create storage path: %w", err)
	}

	c, err := db.CreateCollection(collection, nil, chromem.EmbeddingFunc(embed))
	if err != nil {
		os.RemoveAll(path)
		return "", fmt.Errorf("create collection: %w", err)
	}

	documents := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		documents[i] = chromem.Document{
			ID:        doc.ID,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
			Content:   doc.Content,
		}
	}

	if err := c.AddDocuments(ctx, documents, runtime.NumCPU()); err != nil {
		os.RemoveAll(path)
		return "", fmt.Errorf("add documents: %w", err)
	}

	return path, nil
}

func (s *store) Open(path string, collection string, embed vector.EmbeddingFunc) (vector.Collection, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, vector.ErrCollectionNotFound
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrCollectionNotFound, err)
	}

	c := db.GetCollection(collection, chromem.EmbeddingFunc(embed))
	if c == nil {
		return nil, vector.ErrCollectionNotFound
	}

	return &coll{c}, nil
}

func (s *store) Delete(path string) error {
	return os.RemoveAll(path)
}

func (s *store) Clear() error {
	return os.RemoveAll(s.root)
}

type coll struct {
	collection *chromem.Collection
}

func (c *coll) Query(ctx context.Context, query string, k int) ([]vector.Result, error) {
	if k > c.collection.Count() {
		k = c.collection.Count()
	}

	if k <= 0 {
		return nil, nil
	}

	results, err := c.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, err
	}

	docs := make([]vector.Result, len(results))
	for i, result := range results {
		docs[i] = vector.Result{
			Document: vector.Document{
				ID:        result.ID,
				Metadata:  result.Metadata,
				Embedding: result.Embedding,
				Content:   result.Content,
			},
			Similarity: result.Similarity,
		}
	}

	return docs, nil
}
