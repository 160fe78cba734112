// Package extract turns uploaded file bytes into ordered page text.
package extract

import (
	"errors"
	"io"
)

// ErrMalformed is returned when the input cannot be parsed as a
// document of the expected format.
var ErrMalformed = errors.New("malformed document")

// Page is the text of a single page. Numbers are 1-based.
type Page struct {
	Number int
	Text   string
}

type Extractor interface {
	Extract(r io.ReaderAt, size int64) ([]Page, error)
}
