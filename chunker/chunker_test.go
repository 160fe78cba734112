package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/pdfchat/pdfchat/extract"
)

func TestSplitShortText(t *testing.T) {
	assert := assert.New(t)

	s := NewSplitter(1500, 200)

	chunks := s.Split("a short paragraph")
	assert.Equal([]string{"a short paragraph"}, chunks)
}

func TestSplitEmptyText(t *testing.T) {
	assert := assert.New(t)

	s := NewSplitter(1500, 200)

	assert.Nil(s.Split(""))
	assert.Nil(s.Split("   \n\n  "))
}

func TestSplitRespectsSizeBound(t *testing.T) {
	assert := assert.New(t)

	s := NewSplitter(100, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("one sentence of filler text here. ")
	}

	chunks := s.Split(b.String())
	assert.NotEmpty(chunks)

	for i, chunk := range chunks {
		assert.LessOrEqual(utf8.RuneCountInString(chunk), 100, "chunk %d", i)
		assert.NotEmpty(strings.TrimSpace(chunk), "chunk %d", i)
	}
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	assert := assert.New(t)

	s := NewSplitter(100, 40)

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("alpha bravo charlie delta echo. ")
	}

	chunks := s.Split(b.String())
	assert.Greater(len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-10:]
		assert.Contains(chunks[i], strings.TrimSpace(tail),
			"chunk %d should begin with the tail of chunk %d", i, i-1)
	}
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	assert := assert.New(t)

	s := NewSplitter(50, 10)

	text := strings.Repeat("x", 300)

	chunks := s.Split(text)
	assert.Greater(len(chunks), 1)

	total := 0
	for i, chunk := range chunks {
		n := utf8.RuneCountInString(chunk)
		assert.LessOrEqual(n, 50, "chunk %d", i)
		assert.Equal(strings.Repeat("x", n), chunk, "chunk %d", i)
		total += n
	}

	assert.GreaterOrEqual(total, 300, "every rune of the input must be covered")
}

func TestSplitPagesProvenance(t *testing.T) {
	assert := assert.New(t)

	s := NewSplitter(1500, 200)

	pages := []extract.Page{
		{Number: 1, Text: "first page text"},
		{Number: 2, Text: ""},
		{Number: 3, Text: "third page text"},
	}

	chunks := s.SplitPages("manual.pdf", pages)
	assert.Len(chunks, 2)

	assert.Equal("first page text", chunks[0].Text)
	assert.Equal("manual.pdf", chunks[0].Source)
	assert.Equal(1, chunks[0].Page)

	assert.Equal("third page text", chunks[1].Text)
	assert.Equal(3, chunks[1].Page)
}

func TestNewSplitterGuards(t *testing.T) {
	assert := assert.New(t)

	s := NewSplitter(0, -5)
	assert.Equal(DefaultChunkSize, s.size)
	assert.Equal(0, s.overlap)

	s = NewSplitter(100, 100)
	assert.Equal(25, s.overlap)
}

func TestFingerprintDeterministic(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Fingerprint("same text"), Fingerprint("same text"))
	assert.NotEqual(Fingerprint("same text"), Fingerprint("other text"))
	assert.Len(Fingerprint("same text"), 64)
}

func TestDedupePreservesFirstSeenOrder(t *testing.T) {
	assert := assert.New(t)

	chunks := []Chunk{
		{Text: "header", Page: 1},
		{Text: "body one", Page: 1},
		{Text: "header", Page: 2},
		{Text: "body two", Page: 2},
		{Text: "header", Page: 3},
	}

	unique := Dedupe(chunks)
	assert.Len(unique, 3)

	assert.Equal("header", unique[0].Text)
	assert.Equal(1, unique[0].Page, "first occurrence wins")
	assert.Equal("body one", unique[1].Text)
	assert.Equal("body two", unique[2].Text)
}

func TestDedupeAllDuplicates(t *testing.T) {
	assert := assert.New(t)

	chunks := []Chunk{
		{Text: "same"},
		{Text: "same"},
		{Text: "same"},
	}

	unique := Dedupe(chunks)
	assert.Len(unique, 1)

	assert.Equal(unique, Dedupe(unique), "dedupe should be idempotent")
}
