package pdfchat

import (
	"fmt"
	"strings"
)

// NoRelevantInformation is the answer returned when retrieval produced
// no passages at all.
const NoRelevantInformation = "No relevant information found in the indexed PDFs."

// NoDocumentsIndexedMessage is shown to callers asking before any
// document has been uploaded.
const NoDocumentsIndexedMessage = "No PDFs indexed yet. Please upload a PDF first."

const promptTemplate = `Use ONLY the following context to answer the question. If the answer is not in the context, say "I don't know".

Always cite which document and page number you're referencing.

Context:
%s

Question:
%s
`

// Passage is one retrieved excerpt with its provenance.
type Passage struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Page       int     `json:"page"`
	Similarity float32 `json:"similarity"`
}

// BuildPrompt assembles the grounded prompt: every passage labelled
// with its source document and page, followed by the question.
func BuildPrompt(question string, passages []Passage) string {
	blocks := make([]string, len(passages))
	for i, passage := range passages {
		blocks[i] = fmt.Sprintf("[Source: %s, Page: %d]\n%s", passage.Source, passage.Page, passage.Content)
	}

	return fmt.Sprintf(promptTemplate, strings.Join(blocks, "\n\n---\n\n"), question)
}

var answerReplacer = strings.NewReplacer(
	"•", "-",
	"\r\n", "\n",
)

// NormalizeAnswer converts bullet glyphs to hyphens, normalizes line
// endings and trims surrounding whitespace.
func NormalizeAnswer(text string) string {
	return strings.TrimSpace(answerReplacer.Replace(text))
}

// StreamNormalizer applies the same character normalization fragment
// by fragment. A trailing carriage return is held back until the next
// fragment arrives, so a "\r\n" pair split across a fragment boundary
// still collapses to a single newline.
type StreamNormalizer struct {
	carry bool
}

func (n *StreamNormalizer) Normalize(fragment string) string {
	if fragment == "" {
		return ""
	}

	if n.carry {
		fragment = "\r" + fragment
		n.carry = false
	}

	fragment = answerReplacer.Replace(fragment)

	if strings.HasSuffix(fragment, "\r") {
		n.carry = true
		fragment = strings.TrimSuffix(fragment, "\r")
	}

	return fragment
}

// Flush returns the held-back carriage return, if any, once the stream
// has ended.
func (n *StreamNormalizer) Flush() string {
	if !n.carry {
		return ""
	}

	n.carry = false
	return "\r"
}
