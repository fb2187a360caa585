package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/mcp"
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

Tools: search_floats, ask, float_profiles, classify_query.
Resources: oceanai://floats/locations, oceanai://floats/{id}/profiles.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  oceanai mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  oceanai mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "oceanai": {
        "command": "/path/to/oceanai",
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

	// A server without its index would answer every search with nothing.
	if err := requireSearch(); err != nil {
		return err
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Router:    queryRouter,
		Floats:    floatService,
		Search:    searchService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
