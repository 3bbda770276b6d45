package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/retrieval"
	"github.com/docdex/docdex/pkg/version"
)

// noMatchMessage is returned by get_relevant_context when the query
// shares no terms with the corpus.
const noMatchMessage = "It was impossible to retrieve any relevant context for the given query. The available documentation may not cover this topic."

// Server bridges AI clients with the documentation retrieval engine
// over the Model Context Protocol.
type Server struct {
	mcp       *mcp.Server
	retriever *retrieval.Retriever
	config    *config.Config
	logger    *slog.Logger
}

// QueryInput defines the input schema for the get_relevant_context tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question or topic to retrieve documentation for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of fragments to return, default 5"`
}

// QueryOutput defines the output schema for the get_relevant_context tool.
type QueryOutput struct {
	Context string         `json:"context" jsonschema:"ranked documentation fragments formatted as text"`
	Results []ResultOutput `json:"results" jsonschema:"structured view of the ranked fragments"`
}

// ResultOutput is a single ranked fragment.
type ResultOutput struct {
	FragmentID string  `json:"fragment_id" jsonschema:"stable fragment identifier, source path plus ordinal"`
	Title      string  `json:"title" jsonschema:"fragment title derived from its first heading"`
	Excerpt    string  `json:"excerpt" jsonschema:"leading excerpt of the fragment text"`
	Score      float64 `json:"score" jsonschema:"BM25 relevance score"`
}

// StatusInput defines the input schema for the doc_index_status tool.
type StatusInput struct{}

// StatusOutput defines the output schema for the doc_index_status tool.
type StatusOutput struct {
	Checksum      string  `json:"checksum" jsonschema:"corpus checksum the index was built from"`
	FragmentCount int     `json:"fragment_count" jsonschema:"number of indexed fragments"`
	TermCount     int     `json:"term_count" jsonschema:"number of distinct terms in the index"`
	AvgDocLen     float64 `json:"avg_doc_len" jsonschema:"average fragment length in tokens"`
	BuiltAt       string  `json:"built_at" jsonschema:"RFC 3339 build timestamp"`
}

// NewServer creates an MCP server serving the given retriever.
func NewServer(retriever *retrieval.Retriever, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		retriever: retriever,
		config:    cfg,
		logger:    logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "docdex",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_relevant_context",
		Description: "Retrieve the documentation fragments most relevant to a query. Searches the locally indexed documentation with BM25 ranking and returns the top fragments as ready-to-use context.",
	}, s.queryHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "doc_index_status",
		Description: "Report the state of the documentation index: corpus checksum, fragment and term counts, and build time. Triggers a rebuild if the index is stale.",
	}, s.statusHandler)

	s.logger.Info("mcp_tools_registered", slog.Int("count", 2))
}

// queryHandler serves the get_relevant_context tool.
func (s *Server) queryHandler(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	if input.Query == "" {
		return nil, QueryOutput{}, NewInvalidParamsError("query parameter is required")
	}
	if input.TopK < 0 {
		return nil, QueryOutput{}, NewInvalidParamsError("top_k must not be negative")
	}

	resp, err := s.retriever.Retrieve(ctx, input.Query, input.TopK, false)
	if err != nil {
		return nil, QueryOutput{}, MapError(err)
	}

	output := QueryOutput{
		Context: resp.Formatted,
		Results: make([]ResultOutput, 0, len(resp.Results)),
	}
	if len(resp.Results) == 0 {
		output.Context = noMatchMessage
	}
	for _, r := range resp.Results {
		output.Results = append(output.Results, ResultOutput{
			FragmentID: r.FragmentID,
			Title:      r.Title,
			Excerpt:    r.Excerpt,
			Score:      r.Score,
		})
	}

	return nil, output, nil
}

// statusHandler serves the doc_index_status tool.
func (s *Server) statusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult,
	StatusOutput,
	error,
) {
	info, err := s.retriever.Info(ctx)
	if err != nil {
		return nil, StatusOutput{}, MapError(err)
	}

	return nil, StatusOutput{
		Checksum:      info.Checksum,
		FragmentCount: info.FragmentCount,
		TermCount:     info.TermCount,
		AvgDocLen:     info.AvgDocLen,
		BuiltAt:       info.BuiltAt,
	}, nil
}

// Serve runs the server on the given transport until the context is
// canceled. Only stdio is supported.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
