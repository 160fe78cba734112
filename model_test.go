package pdfchat

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

func TestCollectionName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("manual_v2", CollectionName("Manual v2.pdf"))
	assert.Equal("report", CollectionName("report.pdf"))
	assert.Equal("annual_report__2024", CollectionName("Annual Report (2024).pdf"))
}

func TestCollectionNameShortInput(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("a_pdf", CollectionName("a.pdf"))
	assert.Equal("_pdf", CollectionName("..pdf"))
	assert.Equal("_pdf", CollectionName(""))
}

func TestCollectionNameProperties(t *testing.T) {
	assert := assert.New(t)

	inputs := []string{
		"Manual v2.pdf",
		"résumé.pdf",
		"报告.pdf",
		"___.pdf",
		"--weird--name--.PDF",
		"a.pdf",
		"no-extension",
		string(make([]byte, 200)) + ".pdf",
	}

	for _, input := range inputs {
		name := CollectionName(input)

		assert.GreaterOrEqual(len(name), 3, "input %q", input)
		assert.LessOrEqual(len(name), 63, "input %q", input)
		assert.Regexp(collectionNamePattern, name, "input %q", input)
		assert.Equal(name, CollectionName(input), "input %q should map deterministically", input)
	}
}
