package pdfchat

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/pdfchat/pdfchat/chunker"
	"github.com/pdfchat/pdfchat/llm/gemini"
	"github.com/pdfchat/pdfchat/vector"
)

var (
	ErrMissingAPIKey          = errors.New("api key is required")
	ErrNoFilesProvided        = errors.New("no files provided")
	ErrDocumentAlreadyIndexed = errors.New("document already indexed")
	ErrDocumentNotFound       = errors.New("document not found")
	ErrNoDocumentsIndexed     = errors.New("no documents indexed")
	ErrNoExtractableText      = errors.New("document contains no extractable text")
	ErrNotSupported           = errors.New("operation not supported")
)

type Config struct {
	Storage   vector.Config   `yaml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Gemini    gemini.Config   `yaml:"gemini"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type RetrievalConfig struct {
	// PerDocument is the number of nearest neighbours requested from
	// each document's collection.
	PerDocument int `yaml:"per_document"`

	// Limit caps the merged passage list across all documents.
	Limit int `yaml:"limit"`
}

const (
	DefaultRetrievalPerDocument = 4
	DefaultRetrievalLimit       = 8
)

func (cfg *Config) ApplyDefaults() {
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = chunker.DefaultChunkSize
	}

	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = chunker.DefaultOverlap
	}

	if cfg.Retrieval.PerDocument == 0 {
		cfg.Retrieval.PerDocument = DefaultRetrievalPerDocument
	}

	if cfg.Retrieval.Limit == 0 {
		cfg.Retrieval.Limit = DefaultRetrievalLimit
	}

	cfg.Gemini.ApplyDefaults()
}

// Upload is one file submitted for indexing.
type Upload struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// IndexSummary reports the outcome of indexing a single document. The
// chunk count is taken after deduplication.
type IndexSummary struct {
	Filename   string `json:"filename"`
	Collection string `json:"collection_name"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
}

// BatchSummary aggregates per-item outcomes of a batch upload. Every
// submitted file lands in exactly one of the two lists.
type BatchSummary struct {
	Indexed  []IndexSummary `json:"indexed_files"`
	Failures []BatchFailure `json:"errors,omitempty"`
}

type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureExtraction FailureKind = "extraction"
	FailureEmbedding  FailureKind = "embedding"
	FailureInternal   FailureKind = "internal"
)

type BatchFailure struct {
	Filename string      `json:"filename"`
	Kind     FailureKind `json:"kind"`
	Reason   string      `json:"reason"`
}

// DocumentInfo is one entry of the indexed document listing.
type DocumentInfo struct {
	Filename   string `json:"filename"`
	Collection string `json:"collection_name"`
	Pages      int    `json:"page_count"`
}

const collectionNameMaxLen = 63

// CollectionName derives the store-safe collection identifier from a
// document's display name. It is pure and total: any input maps to an
// identifier of 3 to 63 characters drawn from [a-z0-9_-], and a given
// name always resolves to the same identifier.
func CollectionName(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	name = b.String()
	if len(name) > collectionNameMaxLen {
		name = name[:collectionNameMaxLen]
	}

	name = strings.Trim(name, "_-")
	name = strings.ToLower(name)

	if len(name) < 3 {
		name += "_pdf"
	}

	return name
}
