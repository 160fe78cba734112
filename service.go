package pdfchat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/pdfchat/pdfchat/chunker"
	"github.com/pdfchat/pdfchat/extract"
	"github.com/pdfchat/pdfchat/ledger"
	"github.com/pdfchat/pdfchat/llm"
	"github.com/pdfchat/pdfchat/vector"
)

// Service defines the core logic of PDFChat: indexing uploaded
// documents into isolated vector collections and answering questions
// grounded in the retrieved passages.
type Service interface {

	// Close releases resources held by the service.
	Close() error

	// IndexDocument extracts, chunks, deduplicates, embeds and stores
	// a single document, then records it in the ledger.
	IndexDocument(ctx context.Context, apiKey, filename string, content []byte) (*IndexSummary, error)

	// IndexDocuments indexes a batch sequentially. One document's
	// failure never aborts the rest; every file is accounted for in
	// the returned summary.
	IndexDocuments(ctx context.Context, apiKey string, files []Upload) (*BatchSummary, error)

	// ListDocuments returns the indexed documents from the ledger.
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)

	// DeleteDocument removes a document's collection and its ledger
	// entry.
	DeleteDocument(ctx context.Context, name string) error

	// ClearDocuments removes every indexed document.
	ClearDocuments(ctx context.Context) error

	// Ask answers a question from the indexed documents, optionally
	// scoped to a single document name.
	Ask(ctx context.Context, apiKey, question, document string) (string, error)

	// AskStream is Ask with incremental answer delivery. The stream
	// ends when the channel closes; cancelling ctx abandons the
	// remaining generation work.
	AskStream(ctx context.Context, apiKey, question, document string) (<-chan llm.Fragment, error)
}

type ServiceMiddleware func(Service) Service

func NewService(cfg Config, repo ledger.Repository, store vector.Store, extractor extract.Extractor, models llm.Factory) Service {
	log := zap.L().With(
		zap.String("service", "pdfchat"),
	)

	return &service{
		cfg:       cfg,
		log:       log,
		ledger:    repo,
		store:     store,
		extractor: extractor,
		models:    models,
		splitter:  chunker.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap),
	}
}

type service struct {
	cfg       Config
	log       *zap.Logger
	ledger    ledger.Repository
	store     vector.Store
	extractor extract.Extractor
	models    llm.Factory
	splitter  *chunker.Splitter

	// mu serializes the ledger check-then-create cycle across
	// indexing and deletion requests; without it two uploads with the
	// same name could both pass the duplicate check.
	mu sync.Mutex
}

func (svc *service) Close() error {
	return nil
}

func (svc *service) IndexDocument(ctx context.Context, apiKey, filename string, content []byte) (*IndexSummary, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	provider, err := svc.models.Provider(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	return svc.indexOne(ctx, provider, filename, content)
}

func (svc *service) IndexDocuments(ctx context.Context, apiKey string, files []Upload) (*BatchSummary, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if len(files) == 0 {
		return nil, ErrNoFilesProvided
	}

	provider, err := svc.models.Provider(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	log := svc.log.With(
		zap.String("action", "index_documents"),
	)

	summary := &BatchSummary{
		Indexed: make([]IndexSummary, 0, len(files)),
	}

	for _, file := range files {
		result, err := svc.indexOne(ctx, provider, file.Filename, file.Content)
		if err != nil {
			log.Warn("document not indexed",
				zap.String("filename", file.Filename),
				zap.Error(err),
			)

			summary.Failures = append(summary.Failures, BatchFailure{
				Filename: file.Filename,
				Kind:     classifyFailure(err),
				Reason:   err.Error(),
			})
			continue
		}

		summary.Indexed = append(summary.Indexed, *result)
	}

	return summary, nil
}

func (svc *service) indexOne(ctx context.Context, provider llm.Provider, filename string, content []byte) (*IndexSummary, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	records, err := svc.ledger.All()
	if err != nil {
		return nil, err
	}

	if _, ok := records[filename]; ok {
		return nil, fmt.Errorf("%q: %w", filename, ErrDocumentAlreadyIndexed)
	}

	pages, err := svc.extractPages(content)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w", filename, err)
	}

	chunks := svc.splitter.SplitPages(filename, pages)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%q: %w", filename, ErrNoExtractableText)
	}

	unique := chunker.Dedupe(chunks)

	docs := make([]vector.Document, len(unique))
	for i, chunk := range unique {
		docs[i] = vector.Document{
			ID:      chunker.Fingerprint(chunk.Text),
			Content: chunk.Text,
			Metadata: map[string]string{
				"source_file": chunk.Source,
				"page":        strconv.Itoa(chunk.Page),
			},
		}
	}

	collection := CollectionName(filename)

	path, err := svc.store.Create(ctx, collection, docs, documentEmbedder(provider))
	if err != nil {
		return nil, fmt.Errorf("index %q: %w", filename, err)
	}

	record := ledger.Record{
		Collection: collection,
		Pages:      len(pages),
		Path:       path,
	}

	if err := svc.ledger.Upsert(filename, record); err != nil {
		svc.store.Delete(path)
		return nil, err
	}

	return &IndexSummary{
		Filename:   filename,
		Collection: collection,
		Pages:      len(pages),
		Chunks:     len(unique),
	}, nil
}

// extractPages spools the upload to a temporary file for the
// extractor. The file is removed on success and failure alike.
func (svc *service) extractPages(content []byte) ([]extract.Page, error) {
	tmp, err := os.CreateTemp("", "pdfchat-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(content); err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}

	return svc.extractor.Extract(tmp, int64(len(content)))
}

func (svc *service) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	records, err := svc.ledger.All()
	if err != nil {
		return nil, err
	}

	infos := make([]DocumentInfo, 0, len(records))
	for name, record := range records {
		infos = append(infos, DocumentInfo{
			Filename:   name,
			Collection: record.Collection,
			Pages:      record.Pages,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Filename < infos[j].Filename
	})

	return infos, nil
}

func (svc *service) DeleteDocument(ctx context.Context, name string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	records, err := svc.ledger.All()
	if err != nil {
		return err
	}

	record, ok := records[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrDocumentNotFound)
	}

	if err := svc.store.Delete(record.Path); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	return svc.ledger.Remove(name)
}

func (svc *service) ClearDocuments(ctx context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.store.Clear()
}

func (svc *service) Ask(ctx context.Context, apiKey, question, document string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	targets, err := svc.resolveTargets(document)
	if err != nil {
		return "", err
	}

	provider, err := svc.models.Provider(ctx, apiKey)
	if err != nil {
		return "", err
	}
	defer provider.Close()

	passages := svc.retrieve(ctx, provider, question, targets)
	if len(passages) == 0 {
		return NoRelevantInformation, nil
	}

	answer, err := provider.Complete(ctx, BuildPrompt(question, passages))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	return NormalizeAnswer(answer), nil
}

func (svc *service) AskStream(ctx context.Context, apiKey, question, document string) (<-chan llm.Fragment, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	targets, err := svc.resolveTargets(document)
	if err != nil {
		return nil, err
	}

	provider, err := svc.models.Provider(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	passages := svc.retrieve(ctx, provider, question, targets)

	out := make(chan llm.Fragment)

	if len(passages) == 0 {
		provider.Close()

		go func() {
			defer close(out)

			select {
			case out <- llm.Fragment{Text: NoRelevantInformation}:
			case <-ctx.Done():
			}
		}()

		return out, nil
	}

	fragments, err := provider.CompleteStream(ctx, BuildPrompt(question, passages))
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	go func() {
		defer close(out)
		defer provider.Close()

		var norm StreamNormalizer

		for fragment := range fragments {
			if fragment.Err != nil {
				select {
				case out <- fragment:
				case <-ctx.Done():
				}
				return
			}

			text := norm.Normalize(fragment.Text)
			if text == "" {
				continue
			}

			select {
			case out <- llm.Fragment{Text: text}:
			case <-ctx.Done():
				return
			}
		}

		if tail := norm.Flush(); tail != "" {
			select {
			case out <- llm.Fragment{Text: tail}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

// resolveTargets maps the optional document scope to the set of ledger
// records retrieval will fan out over.
func (svc *service) resolveTargets(document string) (map[string]ledger.Record, error) {
	records, err := svc.ledger.All()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, ErrNoDocumentsIndexed
	}

	if document == "" {
		return records, nil
	}

	record, ok := records[document]
	if !ok {
		return nil, fmt.Errorf("%q: %w", document, ErrDocumentNotFound)
	}

	return map[string]ledger.Record{document: record}, nil
}

// retrieve queries each target document's collection independently.
// A document whose collection cannot be opened or queried is skipped;
// partial failure never aborts retrieval from the others.
func (svc *service) retrieve(ctx context.Context, provider llm.Provider, question string, targets map[string]ledger.Record) []Passage {
	log := svc.log.With(
		zap.String("action", "retrieve"),
	)

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	embed := queryEmbedder(provider)

	var passages []Passage

	for _, name := range names {
		record := targets[name]

		log := log.With(
			zap.String("document", name),
		)

		collection, err := svc.store.Open(record.Path, record.Collection, embed)
		if err != nil {
			log.Warn("skipping document", zap.Error(err))
			continue
		}

		results, err := collection.Query(ctx, question, svc.cfg.Retrieval.PerDocument)
		if err != nil {
			log.Warn("skipping document", zap.Error(err))
			continue
		}

		for _, result := range results {
			page, _ := strconv.Atoi(result.Metadata["page"])

			source := result.Metadata["source_file"]
			if source == "" {
				source = name
			}

			passages = append(passages, Passage{
				Content:    result.Content,
				Source:     source,
				Page:       page,
				Similarity: result.Similarity,
			})
		}
	}

	// Merge by similarity so the global cut keeps the best passages
	// rather than whichever documents happened to come first.
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Similarity > passages[j].Similarity
	})

	if limit := svc.cfg.Retrieval.Limit; len(passages) > limit {
		passages = passages[:limit]
	}

	return passages
}

func documentEmbedder(provider llm.Provider) vector.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return provider.Embed(ctx, text, llm.TaskDocument)
	}
}

func queryEmbedder(provider llm.Provider) vector.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return provider.Embed(ctx, text, llm.TaskQuery)
	}
}

func classifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, ErrDocumentAlreadyIndexed),
		errors.Is(err, ErrNoExtractableText):
		return FailureValidation

	case errors.Is(err, extract.ErrMalformed):
		return FailureExtraction

	case errors.Is(err, llm.ErrEmptyEmbedding),
		errors.Is(err, llm.ErrNoCandidates):
		return FailureEmbedding

	default:
		return FailureInternal
	}
}
