// Package pdf extracts text from PDF files with poppler's pdftotext.
// Pages without a text layer are rasterised with pdftoppm and passed to OCR.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/normalisers/ocr"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// RasterDPI is the resolution scanned pages are rendered at.
const RasterDPI = 200

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils for PDF support")

// Normaliser handles PDF documents.
type Normaliser struct {
	runner normalisers.CommandRunner
	ocr    *ocr.Engine
}

// New creates a PDF normaliser. A nil engine leaves scanned pages empty.
func New(engine *ocr.Engine) *Normaliser {
	return NewWithRunner(normalisers.ExecRunner{}, engine)
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner normalisers.CommandRunner, engine *ocr.Engine) *Normaliser {
	return &Normaliser{runner: runner, ocr: engine}
}

// CheckAvailable returns ErrPDFToolNotFound when poppler is missing.
func CheckAvailable() error {
	if err := normalisers.LookPath("pdftotext", "pdftoppm"); err != nil {
		return fmt.Errorf("%w: %w", ErrPDFToolNotFound, err)
	}
	return nil
}

// InstallInstructions returns instructions for installing the PDF tools.
func InstallInstructions() string {
	return `PDF support requires pdftotext and pdftoppm (poppler) and tesseract for scanned pages:
  macOS:         brew install poppler tesseract
  Debian/Ubuntu: apt install poppler-utils tesseract-ocr`
}

// Name identifies the normaliser.
func (n *Normaliser) Name() string {
	return "pdf"
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Normalise extracts the text of every page, joined by blank lines.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	dir, err := os.MkdirTemp("", "docqa-pdf-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, raw.Content, 0600); err != nil {
		return "", err
	}

	out, err := n.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", input, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}

	pages := splitPages(string(out))
	parts := make([]string, 0, len(pages))
	for i, page := range pages {
		if page == "" {
			page, err = n.recognisePage(ctx, input, dir, i+1)
			if err != nil {
				return "", err
			}
		}
		if page != "" {
			parts = append(parts, page)
		}
	}

	logger.Debug("pdf %s: %d pages, %d with text", raw.Filename, len(pages), len(parts))
	return strings.Join(parts, "\n\n"), nil
}

// recognisePage renders one page to PNG and runs OCR on it.
func (n *Normaliser) recognisePage(ctx context.Context, input, dir string, page int) (string, error) {
	if n.ocr == nil {
		logger.Debug("page %d has no text layer and OCR is not configured", page)
		return "", nil
	}

	num := strconv.Itoa(page)
	prefix := filepath.Join(dir, "page-"+num)
	_, err := n.runner.Run(ctx, "pdftoppm",
		"-r", strconv.Itoa(RasterDPI), "-png", "-singlefile",
		"-f", num, "-l", num,
		input, prefix)
	if err != nil {
		return "", fmt.Errorf("rasterise page %d: %w", page, err)
	}

	image := prefix + ".png"
	defer os.Remove(image)

	text, err := n.ocr.Recognise(ctx, image)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", page, err)
	}
	return text, nil
}

// splitPages splits pdftotext output on form feeds. Each page is trimmed;
// the empty segment after the final form feed is dropped.
func splitPages(out string) []string {
	segments := strings.Split(out, "\f")
	if len(segments) > 1 && strings.TrimSpace(segments[len(segments)-1]) == "" {
		segments = segments[:len(segments)-1]
	}
	pages := make([]string, len(segments))
	for i, s := range segments {
		pages[i] = strings.TrimSpace(s)
	}
	return pages
}
