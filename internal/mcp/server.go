// Package mcp exposes boat search over the Model Context Protocol so LLM
// clients can query the dataset as a tool.
package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matiasleandrokruk/boatsearch/internal/domain/dataset"
	"github.com/matiasleandrokruk/boatsearch/internal/domain/search"
	"github.com/matiasleandrokruk/boatsearch/internal/version"
)

// ServerName is advertised to clients during initialisation.
const ServerName = "boatsearch"

// Searcher runs one search. search.Service satisfies this interface.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (search.Result, error)
}

// DatasetInfoer describes the loaded dataset.
type DatasetInfoer interface {
	Info(ctx context.Context) (dataset.Info, error)
}

// handlers provides MCP tool handlers with access to the search pipeline.
type handlers struct {
	search  Searcher
	dataset DatasetInfoer
	logger  *slog.Logger
}

// NewServer builds the MCP server with every tool registered.
func NewServer(s Searcher, d DatasetInfoer, logger *slog.Logger) *server.MCPServer {
	h := &handlers{search: s, dataset: d, logger: logger.With("component", "mcp")}

	srv := server.NewMCPServer(
		ServerName,
		version.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	registerTools(srv, h)
	return srv
}

// Serve runs srv over stdio until ctx is cancelled or in closes.
// stdout is reserved for JSON-RPC; diagnostics go to logger.
func Serve(ctx context.Context, srv *server.MCPServer, in io.Reader, out io.Writer, logger *slog.Logger) error {
	stdio := server.NewStdioServer(srv)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	logger.Info("MCP server ready", "version", version.Version, "transport", "stdio")
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		logger.Info("MCP server stopped")
		return nil
	}
	return err
}

// registerTools exposes search operations as MCP tools.
func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(
		mcp.NewTool("boat_search",
			mcp.WithDescription("Search the boat dataset with a natural-language query. "+
				"Returns JSON chosen by the model: matching boats with only the relevant columns, "+
				"or an object with an error or warning field."),
			mcp.WithString("query", mcp.Required(), mcp.Description("What to look for, e.g. 'sailboats under 40ft built after 2015'")),
			mcp.WithNumber("top_k", mcp.Description("Maximum number of results the model should return")),
		),
		h.boatSearch,
	)

	s.AddTool(
		mcp.NewTool("dataset_info",
			mcp.WithDescription("Describe the loaded boat dataset: source, columns, and row count."),
		),
		h.datasetInfo,
	)
}

