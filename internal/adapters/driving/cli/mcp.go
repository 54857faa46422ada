package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/normsearch/normsearch-cli/internal/adapters/driving/mcp"
	"github.com/normsearch/normsearch-cli/internal/core/domain"
	"github.com/normsearch/normsearch-cli/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "normsearch": {
        "command": "/path/to/normsearch",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.retrieval.Load(ctx); err != nil {
		// A missing snapshot is not fatal: the rebuild tool can create one.
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			return err
		}
		logger.Warn("No corpus snapshot published yet; queries will fail until one is built")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: a.retrieval,
		Ingest:    a.ingest,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
