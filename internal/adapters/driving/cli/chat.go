package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
)

// chatCmd represents the chat command.
var chatCmd = &cobra.Command{
	Use:   "chat FILE...",
	Short: "Ask questions about files in the terminal UI",
	Long: `Ingest the given files into a session and open the interactive terminal UI.

Controls:
  enter      - Ask the typed question
  tab        - List the session's documents
  ctrl+r     - Toggle retrieval for the next question
  pgup/pgdn  - Scroll the answers
  esc        - Back / clear
  ctrl+c     - Quit`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if err := requireCore(cmd.Context()); err != nil {
		return err
	}

	result, err := ingestFiles(cmd, "", args)
	if err != nil {
		return err
	}
	printIngestResult(cmd, result)
	if len(result.Uploaded) == 0 {
		return errNothingIngested
	}

	app, err := tui.NewApp(
		tui.NewPorts(answerService, sessionService),
		tui.Config{SessionID: result.SessionID, UseRAG: ragDefault() && result.RAGReady},
	)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
