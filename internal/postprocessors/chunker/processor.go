// Package chunker provides a fixed-size word window chunking processor.
package chunker

import (
	"context"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = 600

// DefaultChunkOverlap is the default number of words shared by successive chunks.
const DefaultChunkOverlap = 100

// Processor splits document text into overlapping word windows.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't reach chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size in words.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap in words.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split breaks text into windows of at most ChunkSize words. Each window
// after the first starts Overlap words before the end of its predecessor.
// Words are rejoined with single spaces; nothing else is normalised.
func (p *Processor) Split(text string) []string {
	return split(strings.Fields(text), p.chunkSize, p.overlap)
}

func split(words []string, size, overlap int) []string {
	if len(words) == 0 {
		return nil
	}

	stride := size - overlap
	if stride <= 0 {
		// A non-positive stride would never advance.
		return []string{strings.Join(words, " ")}
	}

	chunks := make([]string, 0, len(words)/stride+1)
	for start := 0; start < len(words); start += stride {
		end := start + size
		if end >= len(words) {
			chunks = append(chunks, strings.Join(words[start:], " "))
			break
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks
}

// Process splits the document text into chunks tagged with the document
// filename and the chunk's ordinal within the document.
func (p *Processor) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil || doc.Text == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	texts := p.Split(doc.Text)
	chunks := make([]domain.Chunk, 0, len(texts))

	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			Text: text,
			Metadata: map[string]string{
				domain.MetaSource:   doc.Filename,
				domain.MetaPosition: strconv.Itoa(i),
			},
		})
	}

	return chunks, nil
}
