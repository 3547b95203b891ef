package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, "markdown", n.Name())
	assert.Equal(t, []string{".md", ".markdown"}, n.SupportedExtensions())
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"heading", "# Title\n\nBody", "Title\n\nBody"},
		{"link", "See [the docs](http://x.io) now", "See the docs now"},
		{"image keeps alt", "![diagram](a.png)", "diagram"},
		{"bold and italic", "**bold** and *it* and __b2__", "bold and it and b2"},
		{"snake case survives", "call parse_config_file here", "call parse_config_file here"},
		{"underscore italic", "an _emphasised_ word", "an emphasised word"},
		{"inline code", "run `go test` now", "run go test now"},
		{"fenced code keeps content", "```go\nx := 1\n```", "x := 1"},
		{"lists", "- one\n* two\n1. three\n- [x] done", "one\ntwo\nthree\ndone"},
		{"blockquote", "> quoted", "quoted"},
		{"rule", "a\n\n---\n\nb", "a\n\nb"},
		{"strike", "~~old~~ new", "old new"},
		{"front matter", "---\ntitle: x\n---\nBody", "Body"},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", "a   b\n\n  1   2"},
		{"collapse blank lines", "a\n\n\n\n\nb", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.input))
		})
	}
}

func TestNormalise(t *testing.T) {
	raw := &domain.RawDocument{
		Filename: "README.md",
		Content:  []byte("# Install\r\n\r\nRun **make**.\r\n"),
	}

	text, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Install\n\nRun make.", text)
}
