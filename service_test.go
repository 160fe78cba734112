package pdfchat

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pdfchat/pdfchat/extract"
	"github.com/pdfchat/pdfchat/ledger"
	"github.com/pdfchat/pdfchat/llm"
	"github.com/pdfchat/pdfchat/persistence/chromem"
)

const testAPIKey = "test-key"

// textExtractor treats the upload as plain text with pages separated by
// form feeds, so tests control page content without crafting PDFs.
type textExtractor struct{}

func (textExtractor) Extract(r io.ReaderAt, size int64) ([]extract.Page, error) {
	data := make([]byte, size)
	if size > 0 {
		if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
			return nil, err
		}
	}

	text := string(data)
	if strings.HasPrefix(text, "MALFORMED") {
		return nil, extract.ErrMalformed
	}

	parts := strings.Split(text, "\f")

	pages := make([]extract.Page, len(parts))
	for i, part := range parts {
		pages[i] = extract.Page{Number: i + 1, Text: part}
	}

	return pages, nil
}

var vocabulary = []string{"alpha", "bravo", "charlie", "delta"}

func embedText(text string) []float32 {
	vec := make([]float32, len(vocabulary)+1)
	vec[len(vocabulary)] = 1

	lower := strings.ToLower(text)
	for i, word := range vocabulary {
		vec[i] = float32(strings.Count(lower, word))
	}

	return vec
}

type fakeProvider struct {
	mu         sync.Mutex
	answer     string
	fragments  []string
	lastPrompt string
}

func (p *fakeProvider) Embed(ctx context.Context, text string, task llm.Task) ([]float32, error) {
	return embedText(text), nil
}

func (p *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastPrompt = prompt
	return p.answer, nil
}

func (p *fakeProvider) CompleteStream(ctx context.Context, prompt string) (<-chan llm.Fragment, error) {
	p.mu.Lock()
	p.lastPrompt = prompt
	fragments := p.fragments
	p.mu.Unlock()

	out := make(chan llm.Fragment, len(fragments))
	for _, text := range fragments {
		out <- llm.Fragment{Text: text}
	}
	close(out)

	return out, nil
}

func (p *fakeProvider) Close() error {
	return nil
}

func (p *fakeProvider) prompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastPrompt
}

type fakeFactory struct {
	provider *fakeProvider
}

func (f *fakeFactory) Provider(ctx context.Context, apiKey string) (llm.Provider, error) {
	return f.provider, nil
}

type pdfChatTestSuite struct {
	suite.Suite
	ctx      context.Context
	root     string
	provider *fakeProvider
	svc      Service
}

func (suite *pdfChatTestSuite) SetupTest() {
	root := suite.T().TempDir()

	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.Storage.Path = root

	provider := &fakeProvider{
		answer:    "stub answer",
		fragments: []string{"stub ", "answer"},
	}

	svc := NewService(cfg,
		ledger.NewFileRepository(root),
		chromem.NewStore(root),
		textExtractor{},
		&fakeFactory{provider: provider},
	)

	suite.ctx = context.Background()
	suite.root = root
	suite.provider = provider
	suite.svc = svc
}

func (suite *pdfChatTestSuite) TearDownTest() {
	if suite.svc != nil {
		suite.svc.Close()
	}
}

func (suite *pdfChatTestSuite) index(filename, content string) *IndexSummary {
	summary, err := suite.svc.IndexDocument(suite.ctx, testAPIKey, filename, []byte(content))
	suite.Require().NoError(err)

	return summary
}

func (suite *pdfChatTestSuite) TestIndexDocument() {
	summary := suite.index("Manual v2.pdf", "alpha facts here\fbravo facts here")

	suite.Equal("Manual v2.pdf", summary.Filename)
	suite.Equal("manual_v2", summary.Collection)
	suite.Equal(2, summary.Pages)
	suite.Equal(2, summary.Chunks)

	infos, err := suite.svc.ListDocuments(suite.ctx)
	suite.NoError(err)
	suite.Len(infos, 1)
	suite.Equal("Manual v2.pdf", infos[0].Filename)
	suite.Equal(2, infos[0].Pages)
}

func (suite *pdfChatTestSuite) TestIndexDocumentDeduplicates() {
	summary := suite.index("a.pdf", "same header\fsame header\fsame header")

	suite.Equal(3, summary.Pages)
	suite.Equal(1, summary.Chunks, "identical page text collapses to one chunk")
}

func (suite *pdfChatTestSuite) TestIndexDocumentDuplicateName() {
	suite.index("a.pdf", "alpha text")

	_, err := suite.svc.IndexDocument(suite.ctx, testAPIKey, "a.pdf", []byte("alpha text"))
	suite.ErrorIs(err, ErrDocumentAlreadyIndexed)
}

func (suite *pdfChatTestSuite) TestIndexDocumentMissingAPIKey() {
	_, err := suite.svc.IndexDocument(suite.ctx, "", "a.pdf", []byte("alpha"))
	suite.ErrorIs(err, ErrMissingAPIKey)
}

func (suite *pdfChatTestSuite) TestIndexDocumentNoExtractableText() {
	_, err := suite.svc.IndexDocument(suite.ctx, testAPIKey, "blank.pdf", nil)
	suite.ErrorIs(err, ErrNoExtractableText)

	infos, err := suite.svc.ListDocuments(suite.ctx)
	suite.NoError(err)
	suite.Empty(infos, "failed uploads must not surface in the listing")
}

func (suite *pdfChatTestSuite) TestIndexDocuments() {
	files := []Upload{
		{Filename: "good.pdf", Content: []byte("alpha text")},
		{Filename: "broken.pdf", Content: []byte("MALFORMED")},
		{Filename: "also-good.pdf", Content: []byte("bravo text")},
	}

	summary, err := suite.svc.IndexDocuments(suite.ctx, testAPIKey, files)
	suite.NoError(err)

	suite.Len(summary.Indexed, 2)
	suite.Len(summary.Failures, 1)

	suite.Equal("broken.pdf", summary.Failures[0].Filename)
	suite.Equal(FailureExtraction, summary.Failures[0].Kind)
	suite.NotEmpty(summary.Failures[0].Reason)

	infos, err := suite.svc.ListDocuments(suite.ctx)
	suite.NoError(err)
	suite.Len(infos, 2)
}

func (suite *pdfChatTestSuite) TestIndexDocumentsEmptyBatch() {
	_, err := suite.svc.IndexDocuments(suite.ctx, testAPIKey, nil)
	suite.ErrorIs(err, ErrNoFilesProvided)
}

func (suite *pdfChatTestSuite) TestDeleteDocument() {
	suite.index("a.pdf", "alpha text")
	suite.index("b.pdf", "bravo text")

	err := suite.svc.DeleteDocument(suite.ctx, "a.pdf")
	suite.NoError(err)

	infos, err := suite.svc.ListDocuments(suite.ctx)
	suite.NoError(err)
	suite.Len(infos, 1)
	suite.Equal("b.pdf", infos[0].Filename)

	err = suite.svc.DeleteDocument(suite.ctx, "a.pdf")
	suite.ErrorIs(err, ErrDocumentNotFound)
}

func (suite *pdfChatTestSuite) TestDeleteThenReindex() {
	suite.index("a.pdf", "alpha text")

	suite.NoError(suite.svc.DeleteDocument(suite.ctx, "a.pdf"))

	summary := suite.index("a.pdf", "charlie text")
	suite.Equal("a_pdf", summary.Collection)

	answer, err := suite.svc.Ask(suite.ctx, testAPIKey, "charlie", "")
	suite.NoError(err)
	suite.Equal("stub answer", answer)
	suite.Contains(suite.provider.prompt(), "charlie text")
	suite.NotContains(suite.provider.prompt(), "alpha text")
}

func (suite *pdfChatTestSuite) TestClearDocuments() {
	suite.index("a.pdf", "alpha text")
	suite.index("b.pdf", "bravo text")

	suite.NoError(suite.svc.ClearDocuments(suite.ctx))

	_, err := suite.svc.Ask(suite.ctx, testAPIKey, "anything", "")
	suite.ErrorIs(err, ErrNoDocumentsIndexed)
}

func (suite *pdfChatTestSuite) TestAskNoDocuments() {
	_, err := suite.svc.Ask(suite.ctx, testAPIKey, "anything", "")
	suite.ErrorIs(err, ErrNoDocumentsIndexed)
}

func (suite *pdfChatTestSuite) TestAsk() {
	suite.index("a.pdf", "alpha facts live here")

	answer, err := suite.svc.Ask(suite.ctx, testAPIKey, "tell me about alpha", "")
	suite.NoError(err)
	suite.Equal("stub answer", answer)

	prompt := suite.provider.prompt()
	suite.Contains(prompt, "[Source: a.pdf, Page: 1]")
	suite.Contains(prompt, "alpha facts live here")
	suite.Contains(prompt, "tell me about alpha")
}

func (suite *pdfChatTestSuite) TestAskNormalizesAnswer() {
	suite.index("a.pdf", "alpha text")

	suite.provider.answer = "• first\r\n• second\r\n"

	answer, err := suite.svc.Ask(suite.ctx, testAPIKey, "alpha", "")
	suite.NoError(err)
	suite.Equal("- first\n- second", answer)
}

func (suite *pdfChatTestSuite) TestAskScopedToDocument() {
	suite.index("a.pdf", "alpha only content")
	suite.index("b.pdf", "bravo only content")

	answer, err := suite.svc.Ask(suite.ctx, testAPIKey, "bravo", "a.pdf")
	suite.NoError(err)
	suite.Equal("stub answer", answer)

	prompt := suite.provider.prompt()
	suite.Contains(prompt, "a.pdf")
	suite.NotContains(prompt, "b.pdf", "scoped questions must not leak other documents")
}

func (suite *pdfChatTestSuite) TestAskScopedToMissingDocument() {
	suite.index("a.pdf", "alpha text")

	_, err := suite.svc.Ask(suite.ctx, testAPIKey, "alpha", "ghost.pdf")
	suite.ErrorIs(err, ErrDocumentNotFound)
}

func (suite *pdfChatTestSuite) TestAskMergesDocuments() {
	suite.index("a.pdf", "alpha content")
	suite.index("b.pdf", "bravo content")

	_, err := suite.svc.Ask(suite.ctx, testAPIKey, "alpha bravo", "")
	suite.NoError(err)

	prompt := suite.provider.prompt()
	suite.Contains(prompt, "alpha content")
	suite.Contains(prompt, "bravo content")
}

func (suite *pdfChatTestSuite) TestAskSkipsBrokenCollection() {
	suite.index("a.pdf", "alpha content")
	suite.index("b.pdf", "bravo content")

	// Simulate out-of-band loss of one document's storage.
	suite.NoError(os.RemoveAll(filepath.Join(suite.root, CollectionName("b.pdf"))))

	answer, err := suite.svc.Ask(suite.ctx, testAPIKey, "alpha bravo", "")
	suite.NoError(err, "one broken collection must not abort retrieval")
	suite.Equal("stub answer", answer)

	prompt := suite.provider.prompt()
	suite.Contains(prompt, "alpha content")
	suite.NotContains(prompt, "bravo content")
}

func (suite *pdfChatTestSuite) TestAskNoRelevantInformation() {
	suite.index("a.pdf", "alpha content")

	suite.NoError(os.RemoveAll(filepath.Join(suite.root, CollectionName("a.pdf"))))

	answer, err := suite.svc.Ask(suite.ctx, testAPIKey, "alpha", "")
	suite.NoError(err)
	suite.Equal(NoRelevantInformation, answer)
}

func (suite *pdfChatTestSuite) TestAskStream() {
	suite.index("a.pdf", "alpha content")

	fragments, err := suite.svc.AskStream(suite.ctx, testAPIKey, "alpha", "")
	suite.Require().NoError(err)

	var b strings.Builder
	for fragment := range fragments {
		suite.NoError(fragment.Err)
		b.WriteString(fragment.Text)
	}

	suite.Equal("stub answer", b.String())
}

func (suite *pdfChatTestSuite) TestAskStreamNormalizesAcrossFragments() {
	suite.index("a.pdf", "alpha content")

	suite.provider.fragments = []string{"• line\r", "\nmore"}

	fragments, err := suite.svc.AskStream(suite.ctx, testAPIKey, "alpha", "")
	suite.Require().NoError(err)

	var b strings.Builder
	for fragment := range fragments {
		suite.NoError(fragment.Err)
		b.WriteString(fragment.Text)
	}

	suite.Equal("- line\nmore", b.String())
}

func (suite *pdfChatTestSuite) TestAskStreamNoDocuments() {
	_, err := suite.svc.AskStream(suite.ctx, testAPIKey, "anything", "")
	suite.ErrorIs(err, ErrNoDocumentsIndexed)
}

func TestPDFChatTestSuite(t *testing.T) {
	suite.Run(t, new(pdfChatTestSuite))
}
