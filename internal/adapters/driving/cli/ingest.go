package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var errNothingIngested = errors.New("no files could be ingested")

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE...",
	Short: "Extract and index files, reporting the result",
	Long: `Extract text from each file, chunk and index it in a new session and
report the characters and chunks per file. Sessions live in memory, so this
is a dry run of what 'serve', 'chat' and 'ask' will see.

Supported formats depend on the installed tools: plain text, Markdown and
HTML always; PDF with pdftotext; images with tesseract.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}
	if err := requireCore(cmd.Context()); err != nil {
		return err
	}

	result, err := ingestFiles(cmd, "", args)
	if err != nil {
		return err
	}

	if asJSON {
		if err := writeJSON(cmd, ingestReport(result)); err != nil {
			return err
		}
	} else {
		printIngestResult(cmd, result)
	}

	if len(result.Uploaded) == 0 {
		return errNothingIngested
	}
	return nil
}

// ingestFiles reads paths and uploads them into sessionID.
func ingestFiles(cmd *cobra.Command, sessionID string, paths []string) (*domain.IngestResult, error) {
	docs, err := readFiles(paths)
	if err != nil {
		return nil, err
	}
	result, err := ingestService.Upload(cmd.Context(), sessionID, docs)
	if err != nil {
		return nil, fmt.Errorf("ingesting: %w", err)
	}
	return result, nil
}

// failedFile is the JSON form of a domain.FileError.
type failedFile struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type ingestJSON struct {
	SessionID string                `json:"session_id"`
	Uploaded  []domain.UploadedFile `json:"uploaded"`
	Failed    []failedFile          `json:"failed"`
	RAGReady  bool                  `json:"rag_ready"`
}

func ingestReport(result *domain.IngestResult) ingestJSON {
	report := ingestJSON{
		SessionID: result.SessionID,
		Uploaded:  result.Uploaded,
		Failed:    make([]failedFile, 0, len(result.Failed)),
		RAGReady:  result.RAGReady,
	}
	if report.Uploaded == nil {
		report.Uploaded = []domain.UploadedFile{}
	}
	for _, f := range result.Failed {
		report.Failed = append(report.Failed, failedFile{Filename: f.Filename, Error: f.Message()})
	}
	return report
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
