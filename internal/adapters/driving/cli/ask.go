package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// cliExcerptRadius is the context shown around evidence in text output.
const cliExcerptRadius = 60

var askCmd = &cobra.Command{
	Use:   "ask QUESTION",
	Short: "Answer one question about the given files",
	Long: `Ingest the files given with --file into a fresh session and answer the
question against them.

Examples:
  docqa ask -f report.pdf "What was the revenue in Q3?"
  docqa ask -f a.md -f b.html --rag=false --json "Who wrote this?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceP("file", "f", nil, "file to ingest (repeatable)")
	askCmd.Flags().Int("top-k", 0, "number of chunks to retrieve (default from settings)")
	askCmd.Flags().Bool("rag", true, "retrieve relevant chunks instead of using the full text")
	askCmd.Flags().Bool("json", false, "print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	files, err := cmd.Flags().GetStringSlice("file")
	if err != nil {
		return fmt.Errorf("getting file flag: %w", err)
	}
	if len(files) == 0 {
		return errors.New("at least one --file is required")
	}
	topK, err := cmd.Flags().GetInt("top-k")
	if err != nil {
		return fmt.Errorf("getting top-k flag: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}

	req := domain.AskRequest{Question: strings.TrimSpace(args[0]), TopK: topK}
	if cmd.Flags().Changed("rag") {
		useRAG, err := cmd.Flags().GetBool("rag")
		if err != nil {
			return fmt.Errorf("getting rag flag: %w", err)
		}
		req.UseRAG = &useRAG
	}

	if err := requireCore(cmd.Context()); err != nil {
		return err
	}

	result, err := ingestFiles(cmd, "", files)
	if err != nil {
		return err
	}
	for _, f := range result.Failed {
		cmd.PrintErrf("skipped %s: %s\n", f.Filename, f.Message())
	}
	if len(result.Uploaded) == 0 {
		return errNothingIngested
	}
	req.SessionID = result.SessionID

	answer, err := answerService.Answer(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	if asJSON {
		return writeJSON(cmd, answer)
	}
	printAnswer(cmd, answer)
	return nil
}

// printAnswer writes the answer with its evidence, sources and entities.
func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	if answer.Text == "" {
		cmd.Println("No answer found in the documents.")
	} else {
		cmd.Printf("Answer: %s\n", answer.Text)
	}

	if before, match, after, ok := answer.Excerpt(cliExcerptRadius); ok {
		cmd.Printf("Evidence: %s[%s]%s\n", before, match, after)
	}
	if len(answer.Sources) > 0 {
		cmd.Printf("Sources: %s\n", strings.Join(answer.Sources, ", "))
	}
	if len(answer.Entities) > 0 {
		parts := make([]string, 0, len(answer.Entities))
		for _, e := range answer.Entities {
			parts = append(parts, fmt.Sprintf("%s (%s, %.2f)", e.Word, e.EntityGroup, e.Score))
		}
		cmd.Printf("Entities: %s\n", strings.Join(parts, ", "))
	}
}
