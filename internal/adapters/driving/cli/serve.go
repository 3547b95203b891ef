package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/api"
	"github.com/custodia-labs/docqa/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the document Q&A API.

Routes:
  GET  /                status and feature flags
  POST /upload          multipart files (and optional session_id)
  POST /ask             {"session_id", "question", "use_rag", "top_k"}
  GET  /sessions/{id}   session snapshot

Examples:
  docqa serve
  docqa serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from settings, :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}
	logger.SetTimestamps(true)
	if err := requireCore(cmd.Context()); err != nil {
		return err
	}

	server, err := newAPIServer(addr)
	if err != nil {
		return err
	}

	cmd.Printf("docqa API listening on %s\n", server.Addr())
	return server.Run(cmd.Context())
}

// newAPIServer builds the HTTP API over the core services.
func newAPIServer(addr string) (*api.Server, error) {
	config := api.Config{Addr: addr, EnableRAG: ragDefault()}
	if appSettings != nil {
		if config.Addr == "" {
			config.Addr = appSettings.Server.Addr
		}
		config.EnableNER = appSettings.NER.Enabled
	}

	return api.NewServer(&api.Ports{
		Ingest:   ingestService,
		Answer:   answerService,
		Sessions: sessionService,
	}, config)
}
