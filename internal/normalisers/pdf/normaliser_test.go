package pdf

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/normalisers/ocr"
)

// fakeRunner plays pdftotext, pdftoppm and tesseract.
type fakeRunner struct {
	text     string
	ocrText  string
	err      error
	commands []string
	rendered []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.commands = append(f.commands, name+" "+strings.Join(args, " "))
	if f.err != nil {
		return nil, f.err
	}
	switch name {
	case "pdftotext":
		return []byte(f.text), nil
	case "pdftoppm":
		image := args[len(args)-1] + ".png"
		f.rendered = append(f.rendered, image)
		return nil, os.WriteFile(image, []byte("png"), 0600)
	case "tesseract":
		return []byte(f.ocrText), nil
	}
	return nil, errors.New("unexpected command " + name)
}

func raw() *domain.RawDocument {
	return &domain.RawDocument{Filename: "report.pdf", Content: []byte("%PDF-1.4")}
}

func TestNormaliser_Metadata(t *testing.T) {
	n := New(nil)
	assert.Equal(t, "pdf", n.Name())
	assert.Equal(t, []string{".pdf"}, n.SupportedExtensions())
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []string
	}{
		{"two pages", "one\n\fTwo  \n\f", []string{"one", "Two"}},
		{"blank middle page", "a\f \n\fc\f", []string{"a", "", "c"}},
		{"no form feed", "only", []string{"only"}},
		{"empty", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitPages(tt.out))
		})
	}
}

func TestNormalise_TextLayer(t *testing.T) {
	runner := &fakeRunner{text: "Page one\fPage two\f"}
	n := NewWithRunner(runner, ocr.NewEngine(ocr.Config{Runner: runner}))

	text, err := n.Normalise(context.Background(), raw())
	require.NoError(t, err)

	assert.Equal(t, "Page one\n\nPage two", text)
	require.Len(t, runner.commands, 1)
	assert.True(t, strings.HasPrefix(runner.commands[0], "pdftotext -layout -enc UTF-8 "))
}

func TestNormalise_ScannedPageUsesOCR(t *testing.T) {
	runner := &fakeRunner{text: "Typed\f\f", ocrText: "Scanned line\n\n"}
	n := NewWithRunner(runner, ocr.NewEngine(ocr.Config{Runner: runner, Langs: []string{"en", "fr"}}))

	text, err := n.Normalise(context.Background(), raw())
	require.NoError(t, err)

	assert.Equal(t, "Typed\n\nScanned line", text)
	require.Len(t, runner.commands, 3)
	assert.Contains(t, runner.commands[1], "pdftoppm -r 200 -png -singlefile -f 2 -l 2 ")
	assert.Contains(t, runner.commands[2], "stdout -l eng+fra")

	// temp files are removed
	require.Len(t, runner.rendered, 1)
	_, err = os.Stat(runner.rendered[0])
	assert.True(t, os.IsNotExist(err))
}

func TestNormalise_ScannedPageWithoutOCR(t *testing.T) {
	runner := &fakeRunner{text: "Typed\f\f"}
	n := NewWithRunner(runner, nil)

	text, err := n.Normalise(context.Background(), raw())
	require.NoError(t, err)
	assert.Equal(t, "Typed", text)
	assert.Len(t, runner.commands, 1)
}

func TestNormalise_Errors(t *testing.T) {
	n := NewWithRunner(&fakeRunner{err: errors.New("syntax error")}, nil)

	_, err := n.Normalise(context.Background(), raw())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext")

	_, err = n.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

// Integration test - only runs if poppler is available.
func TestCheckAvailable(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		assert.ErrorIs(t, err, ErrPDFToolNotFound)
		t.Skip("poppler not available")
	}
}
