package extract

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// NewPDFExtractor returns an Extractor for PDF files.
func NewPDFExtractor() Extractor {
	return &pdfExtractor{}
}

type pdfExtractor struct{}

func (e *pdfExtractor) Extract(r io.ReaderAt, size int64) (pages []Page, err error) {
	// The pdf package panics on some malformed inputs instead of
	// returning an error.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrMalformed, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	pages = make([]Page, 0, reader.NumPage())

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)

		var text string
		if !page.V.IsNull() {
			// Pages whose text cannot be decoded still count
			// toward the page total.
			if t, err := page.GetPlainText(nil); err == nil {
				text = t
			}
		}

		pages = append(pages, Page{
			Number: i,
			Text:   text,
		})
	}

	return pages, nil
}
