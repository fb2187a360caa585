package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownTimeout bounds how long in-flight HTTP requests may drain.
const shutdownTimeout = 5 * time.Second

// Server exposes the float database to MCP clients.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "oceanai",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions(ports)}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells the client which tools have data behind them.
func instructions(ports *Ports) string {
	var b strings.Builder
	b.WriteString("OceanAI answers questions about ARGO ocean float profiles ")
	b.WriteString("(pressure in dbar, temperature in °C, salinity in PSU).\n")
	b.WriteString("Use ask for averages, counts, latest profiles, the deepest floats and locations. ")
	b.WriteString("Use classify_query to see which database query a question maps to.\n")
	if ports.Search != nil {
		b.WriteString("Use search_floats to find floats by id or region, then float_profiles for their measurements.\n")
	} else {
		b.WriteString("No vector index is loaded, so search_floats returns no matches.\n")
	}
	if ports.Floats == nil {
		b.WriteString("Float profiles and locations are unavailable.\n")
	}
	return b.String()
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until the context
// is cancelled, then drains open requests.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mcp http server: %w", err)
	}
	return nil
}

// Handler returns the streamable HTTP handler for mounting elsewhere.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
