// Package mcpserver exposes the learning coach over the Model Context
// Protocol so MCP clients can manage sources, progress, and digests.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/digest"
	"github.com/studyowl/studyowl/internal/ingest"
	"github.com/studyowl/studyowl/internal/store"
)

// ProgressStore is the slice of the store the MCP tools need directly.
type ProgressStore interface {
	AppendProgress(ctx context.Context, week int, topics string) (int64, error)
}

// Generator produces weekly digests.
type Generator interface {
	Generate(ctx context.Context) (*digest.Result, error)
}

// Server wraps the MCP SDK server with the coach services.
type Server struct {
	mcpServer *mcp.Server
	ingest    *ingest.Service
	progress  ProgressStore
	generator Generator
	logger    *slog.Logger
}

// Config holds MCP server configuration.
type Config struct {
	Name      string
	Version   string
	Ingest    *ingest.Service
	Progress  ProgressStore
	Generator Generator
	Logger    *slog.Logger
}

// NewServer creates an MCP server with all coach tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Ingest == nil {
		return nil, fmt.Errorf("ingest service is required")
	}
	if cfg.Progress == nil {
		return nil, fmt.Errorf("progress store is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("digest generator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		ingest:    cfg.Ingest,
		progress:  cfg.Progress,
		generator: cfg.Generator,
		logger:    cfg.Logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	return s, nil
}

// Run starts the MCP server on the given transport. Blocks until the
// transport closes or ctx is canceled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// AddContentSourceInput is the input for the add_content_source tool.
type AddContentSourceInput struct {
	URL string `json:"url" jsonschema:"The http(s) URL of an RSS or Atom feed to register"`
}

// ListContentSourcesInput is the input for the list_content_sources tool.
type ListContentSourcesInput struct{}

// FetchSourcesInput is the input for the fetch_sources tool.
type FetchSourcesInput struct{}

// UploadDocumentInput is the input for the upload_document tool.
type UploadDocumentInput struct {
	Title string `json:"title" jsonschema:"Title of the document"`
	Text  string `json:"text" jsonschema:"Plain text content of the document"`
}

// UpdateProgressInput is the input for the update_progress tool.
type UpdateProgressInput struct {
	Week   int    `json:"week" jsonschema:"Learning week number between 1 and 52"`
	Topics string `json:"topics" jsonschema:"Comma-separated topics studied this week"`
}

// GenerateDigestInput is the input for the generate_daily_digest tool.
type GenerateDigestInput struct{}

func (s *Server) registerTools() error {
	addSourceSchema, err := jsonschema.For[AddContentSourceInput](nil)
	if err != nil {
		return fmt.Errorf("schema for add_content_source: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_content_source",
		Description: "Register an RSS or Atom feed URL as a learning content source.",
		InputSchema: addSourceSchema,
	}, s.AddContentSource)

	listSchema, err := jsonschema.For[ListContentSourcesInput](nil)
	if err != nil {
		return fmt.Errorf("schema for list_content_sources: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_content_sources",
		Description: "List all registered content source URLs.",
		InputSchema: listSchema,
	}, s.ListContentSources)

	fetchSchema, err := jsonschema.For[FetchSourcesInput](nil)
	if err != nil {
		return fmt.Errorf("schema for fetch_sources: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "fetch_sources",
		Description: "Fetch all registered feeds, embed new entries, and store them for retrieval.",
		InputSchema: fetchSchema,
	}, s.FetchSources)

	uploadSchema, err := jsonschema.For[UploadDocumentInput](nil)
	if err != nil {
		return fmt.Errorf("schema for upload_document: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "upload_document",
		Description: "Store a plain text document as learning content.",
		InputSchema: uploadSchema,
	}, s.UploadDocument)

	progressSchema, err := jsonschema.For[UpdateProgressInput](nil)
	if err != nil {
		return fmt.Errorf("schema for update_progress: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_progress",
		Description: "Record the topics studied in a given learning week (1-52).",
		InputSchema: progressSchema,
	}, s.UpdateProgress)

	digestSchema, err := jsonschema.For[GenerateDigestInput](nil)
	if err != nil {
		return fmt.Errorf("schema for generate_daily_digest: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "generate_daily_digest",
		Description: "Generate and store a learning digest for the most recent week from stored content.",
		InputSchema: digestSchema,
	}, s.GenerateDigest)

	return nil
}

// AddContentSource handles the add_content_source MCP tool call.
func (s *Server) AddContentSource(ctx context.Context, _ *mcp.CallToolRequest, in AddContentSourceInput) (*mcp.CallToolResult, any, error) {
	id, err := s.ingest.AddSource(ctx, in.URL)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(map[string]any{"status": "ok", "id": id}), nil, nil
}

// ListContentSources handles the list_content_sources MCP tool call.
func (s *Server) ListContentSources(ctx context.Context, _ *mcp.CallToolRequest, _ ListContentSourcesInput) (*mcp.CallToolResult, any, error) {
	sources, err := s.ingest.Sources(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing sources: %w", err)
	}
	if sources == nil {
		sources = []store.Source{}
	}
	return jsonResult(map[string]any{"sources": sources}), nil, nil
}

// FetchSources handles the fetch_sources MCP tool call.
func (s *Server) FetchSources(ctx context.Context, _ *mcp.CallToolRequest, _ FetchSourcesInput) (*mcp.CallToolResult, any, error) {
	report, err := s.ingest.Fetch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching sources: %w", err)
	}
	return jsonResult(report), nil, nil
}

// UploadDocument handles the upload_document MCP tool call.
func (s *Server) UploadDocument(ctx context.Context, _ *mcp.CallToolRequest, in UploadDocumentInput) (*mcp.CallToolResult, any, error) {
	id, err := s.ingest.AddDocument(ctx, in.Title, in.Text)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(map[string]any{"status": "ok", "id": id}), nil, nil
}

// UpdateProgress handles the update_progress MCP tool call.
func (s *Server) UpdateProgress(ctx context.Context, _ *mcp.CallToolRequest, in UpdateProgressInput) (*mcp.CallToolResult, any, error) {
	if in.Week < config.MinWeek || in.Week > config.MaxWeek {
		return errorResult(fmt.Errorf("week must be between %d and %d, got %d", config.MinWeek, config.MaxWeek, in.Week)), nil, nil
	}
	id, err := s.progress.AppendProgress(ctx, in.Week, in.Topics)
	if err != nil {
		return nil, nil, fmt.Errorf("recording progress: %w", err)
	}
	return jsonResult(map[string]any{"status": "ok", "id": id, "week": in.Week}), nil, nil
}

// GenerateDigest handles the generate_daily_digest MCP tool call.
func (s *Server) GenerateDigest(ctx context.Context, _ *mcp.CallToolRequest, _ GenerateDigestInput) (*mcp.CallToolResult, any, error) {
	res, err := s.generator.Generate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("generating digest: %w", err)
	}
	return jsonResult(map[string]any{
		"week":     res.Week,
		"digest":   res.Text,
		"fallback": res.Fallback,
	}), nil, nil
}

// jsonResult marshals v into a single text content block.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Errorf("encoding result: %w", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// errorResult reports a caller-facing failure without failing the protocol
// call itself.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}
