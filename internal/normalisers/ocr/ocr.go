// Package ocr recognises text in images with the tesseract CLI.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// DefaultBinary is the tesseract executable name.
const DefaultBinary = "tesseract"

// ErrTesseractNotFound indicates tesseract is not installed.
var ErrTesseractNotFound = errors.New("tesseract not found: install it for image and scanned PDF support")

// isoToTesseract maps ISO-639-1 codes to tesseract traineddata names.
var isoToTesseract = map[string]string{
	"ar": "ara",
	"cs": "ces",
	"da": "dan",
	"de": "deu",
	"el": "ell",
	"en": "eng",
	"es": "spa",
	"fi": "fin",
	"fr": "fra",
	"he": "heb",
	"hi": "hin",
	"hu": "hun",
	"id": "ind",
	"it": "ita",
	"ja": "jpn",
	"ko": "kor",
	"nl": "nld",
	"no": "nor",
	"pl": "pol",
	"pt": "por",
	"ro": "ron",
	"ru": "rus",
	"sv": "swe",
	"th": "tha",
	"tr": "tur",
	"uk": "ukr",
	"vi": "vie",
	"zh": "chi_sim",
}

// Languages converts ISO-639-1 codes to a tesseract -l argument.
// Codes that are already tesseract names pass through; unknown two-letter
// codes are dropped. The result is never empty.
func Languages(langs []string) string {
	seen := make(map[string]bool)
	var out []string
	for _, lang := range langs {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}
		code, ok := isoToTesseract[lang]
		if !ok {
			if len(lang) == 2 {
				logger.Warn("ignoring unknown OCR language %q", lang)
				continue
			}
			code = lang
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	if len(out) == 0 {
		return "eng"
	}
	return strings.Join(out, "+")
}

// Config configures the OCR engine.
type Config struct {
	// Langs are ISO-639-1 language codes.
	Langs []string

	// GPU is accepted for compatibility; tesseract always runs on the CPU.
	GPU bool

	// Binary overrides the tesseract executable.
	Binary string

	// Runner executes tesseract. Defaults to normalisers.ExecRunner.
	Runner normalisers.CommandRunner
}

// Engine runs tesseract over image files.
type Engine struct {
	binary string
	langs  string
	runner normalisers.CommandRunner
}

// NewEngine creates an OCR engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Runner == nil {
		cfg.Runner = normalisers.ExecRunner{}
	}
	if cfg.GPU {
		logger.Info("OCR GPU requested; tesseract runs on the CPU")
	}
	return &Engine{
		binary: cfg.Binary,
		langs:  Languages(cfg.Langs),
		runner: cfg.Runner,
	}
}

// Languages returns the tesseract -l argument in use.
func (e *Engine) Languages() string {
	return e.langs
}

// CheckAvailable returns ErrTesseractNotFound when the binary is missing.
func (e *Engine) CheckAvailable() error {
	if err := normalisers.LookPath(e.binary); err != nil {
		return fmt.Errorf("%w: %w", ErrTesseractNotFound, err)
	}
	return nil
}

// Recognise returns the text in the image at path with blank lines removed.
func (e *Engine) Recognise(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, e.binary, path, "stdout", "-l", e.langs)
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", filepath.Base(path), err)
	}
	return cleanLines(string(out)), nil
}

// RecogniseBytes writes data to a temporary file with the given extension
// and recognises it.
func (e *Engine) RecogniseBytes(ctx context.Context, data []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "docqa-ocr-*"+ext)
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return e.Recognise(ctx, f.Name())
}

// cleanLines trims each line and drops blank ones.
func cleanLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\f"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Normaliser extracts text from image uploads.
type Normaliser struct {
	engine *Engine
}

// New creates an image normaliser backed by engine.
func New(engine *Engine) *Normaliser {
	return &Normaliser{engine: engine}
}

// Name identifies the normaliser.
func (n *Normaliser) Name() string {
	return "ocr"
}

// SupportedExtensions returns the image types tesseract reads.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif"}
}

// Normalise recognises the text in an image.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	return n.engine.RecogniseBytes(ctx, raw.Content, raw.Extension())
}
