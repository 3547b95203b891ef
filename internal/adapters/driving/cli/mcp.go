package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ingest
documents and ask questions about them.

By default the server communicates over stdio using JSON-RPC. Use --port to
start a streamable HTTP server instead; it binds to --host, which defaults to
the loopback interface.

The ingest_file tool reads local files. Use --root to confine it to one
directory. Over HTTP the tool is only offered when --root is set.

Examples:
  # Stdio mode (default, for desktop assistants)
  docqa mcp serve

  # HTTP mode (for MCP Inspector)
  docqa mcp serve --port 8080 --root ~/papers

Assistant configuration:
  {
    "mcpServers": {
      "docqa": {
        "command": "/path/to/docqa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("host", "127.0.0.1", "HTTP listen host")
	mcpServeCmd.Flags().String("root", "", "directory ingest_file is confined to")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return fmt.Errorf("getting host flag: %w", err)
	}
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return fmt.Errorf("getting root flag: %w", err)
	}
	if err := requireCore(cmd.Context()); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Ingest:   ingestService,
		Answer:   answerService,
		Sessions: sessionService,
	}, mcpOptions(port > 0, root)...)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

// mcpOptions limits file ingestion to root, and drops it over HTTP when
// no root is given.
func mcpOptions(overHTTP bool, root string) []mcp.ServerOption {
	switch {
	case root != "":
		return []mcp.ServerOption{mcp.WithFileRoot(root)}
	case overHTTP:
		return []mcp.ServerOption{mcp.WithoutFileIngest()}
	default:
		return nil
	}
}
