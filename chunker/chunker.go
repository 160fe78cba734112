// Package chunker splits page text into overlapping segments sized for
// embedding.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/pdfchat/pdfchat/extract"
)

const (
	// DefaultChunkSize is the maximum chunk length in runes.
	DefaultChunkSize = 1500

	// DefaultOverlap is the number of runes carried over between
	// consecutive chunks from the same page.
	DefaultOverlap = 200
)

// separators, from the largest semantic boundary down. An empty match
// on all of them falls back to hard cuts.
var separators = []string{"\n\n", "\n", ". ", " "}

type Splitter struct {
	size    int
	overlap int
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}

	if overlap < 0 {
		overlap = 0
	}

	if overlap >= size {
		overlap = size / 4
	}

	return &Splitter{
		size:    size,
		overlap: overlap,
	}
}

// Chunk is a single segment of document text with its provenance.
type Chunk struct {
	Text   string
	Source string
	Page   int
}

// SplitPages splits every page independently, so overlap never crosses
// a page boundary, and tags each chunk with the source document name
// and the originating page number.
func (s *Splitter) SplitPages(source string, pages []extract.Page) []Chunk {
	var chunks []Chunk

	for _, page := range pages {
		for _, text := range s.Split(page.Text) {
			chunks = append(chunks, Chunk{
				Text:   text,
				Source: source,
				Page:   page.Number,
			})
		}
	}

	return chunks
}

// Split breaks text into chunks of at most the configured size,
// preferring paragraph, line, sentence and word boundaries before
// falling back to hard cuts. No returned chunk is empty.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	return s.merge(s.fragments(text, separators))
}

// fragments recursively breaks text on progressively smaller
// boundaries until every piece fits within the chunk size.
func (s *Splitter) fragments(text string, seps []string) []string {
	if utf8.RuneCountInString(text) <= s.size {
		return []string{text}
	}

	if len(seps) == 0 {
		return s.hardCut(text)
	}

	parts := strings.SplitAfter(text, seps[0])
	if len(parts) == 1 {
		return s.fragments(text, seps[1:])
	}

	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}

		if utf8.RuneCountInString(part) <= s.size {
			out = append(out, part)
			continue
		}

		out = append(out, s.fragments(part, seps[1:])...)
	}

	return out
}

// hardCut slices text into windows small enough for merge to rebuild
// the configured overlap.
func (s *Splitter) hardCut(text string) []string {
	window := s.overlap
	if window <= 0 {
		window = s.size
	}

	runes := []rune(text)
	out := make([]string, 0, len(runes)/window+1)

	for start := 0; start < len(runes); start += window {
		end := start + window
		if end > len(runes) {
			end = len(runes)
		}

		out = append(out, string(runes[start:end]))
	}

	return out
}

// merge greedily packs fragments into chunks of at most size runes,
// carrying up to overlap runes from the tail of each chunk into the
// next one.
func (s *Splitter) merge(frags []string) []string {
	var (
		chunks []string
		window []string
		total  int
	)

	flush := func() {
		chunk := strings.TrimSpace(strings.Join(window, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, frag := range frags {
		n := utf8.RuneCountInString(frag)

		if total > 0 && total+n > s.size {
			flush()

			for len(window) > 0 && (total > s.overlap || total+n > s.size) {
				total -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}

		window = append(window, frag)
		total += n
	}

	if total > 0 {
		flush()
	}

	return chunks
}
