package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// readFiles loads local files as upload parts named by their base name.
func readFiles(paths []string) ([]domain.RawDocument, error) {
	docs := make([]domain.RawDocument, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, domain.RawDocument{
			Filename: filepath.Base(path),
			MIMEType: mime.TypeByExtension(filepath.Ext(path)),
			Content:  content,
		})
	}
	return docs, nil
}

// printIngestResult writes a per-file report.
func printIngestResult(cmd *cobra.Command, result *domain.IngestResult) {
	cmd.Printf("Session: %s\n", result.SessionID)
	for _, f := range result.Uploaded {
		if f.Chunks > 0 {
			cmd.Printf("  + %s (%d chars, %d chunks)\n", f.Filename, f.Chars, f.Chunks)
		} else {
			cmd.Printf("  + %s (%d chars)\n", f.Filename, f.Chars)
		}
	}
	for _, f := range result.Failed {
		cmd.Printf("  x %s: %s\n", f.Filename, f.Message())
	}
	if result.RAGReady {
		cmd.Println("Retrieval: ready")
	} else {
		cmd.Println("Retrieval: off, answers use the full text")
	}
}
