package chunker

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the content-addressed identity of a chunk: a SHA-256
// digest of its exact text. Two chunks with identical text collapse to
// the same fingerprint no matter which page they came from.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Dedupe removes chunks whose text was already seen, preserving
// first-seen order. Repeated boilerplate such as headers and footers
// collapses to a single entry, which keeps embedding costs down.
func Dedupe(chunks []Chunk) []Chunk {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		fp := Fingerprint(chunk.Text)
		if _, ok := seen[fp]; ok {
			continue
		}

		seen[fp] = struct{}{}
		out = append(out, chunk)
	}

	return out
}
