package pdfchat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAnswer(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("- first\n- second", NormalizeAnswer("• first\r\n• second\r\n"))
	assert.Equal("plain", NormalizeAnswer("  plain  "))
	assert.Equal("", NormalizeAnswer("\r\n"))
}

func TestBuildPrompt(t *testing.T) {
	assert := assert.New(t)

	passages := []Passage{
		{Content: "alpha text", Source: "a.pdf", Page: 1},
		{Content: "bravo text", Source: "b.pdf", Page: 7},
	}

	prompt := BuildPrompt("what is alpha?", passages)

	assert.Contains(prompt, "[Source: a.pdf, Page: 1]\nalpha text")
	assert.Contains(prompt, "[Source: b.pdf, Page: 7]\nbravo text")
	assert.Contains(prompt, "\n\n---\n\n")
	assert.Contains(prompt, "Question:\nwhat is alpha?")
	assert.True(strings.Index(prompt, "a.pdf") < strings.Index(prompt, "b.pdf"))
}

func TestStreamNormalizerSplitCRLF(t *testing.T) {
	assert := assert.New(t)

	var norm StreamNormalizer

	assert.Equal("line", norm.Normalize("line\r"))
	assert.Equal("\nnext", norm.Normalize("\nnext"))
	assert.Equal("", norm.Flush())
}

func TestStreamNormalizerTrailingCR(t *testing.T) {
	assert := assert.New(t)

	var norm StreamNormalizer

	assert.Equal("tail", norm.Normalize("tail\r"))
	assert.Equal("\r", norm.Flush())
	assert.Equal("", norm.Flush())
}

func TestStreamNormalizerBullets(t *testing.T) {
	assert := assert.New(t)

	var norm StreamNormalizer

	assert.Equal("- one\n- two", norm.Normalize("• one\r\n• two"))
}
