package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ghostlib/ghost/internal/config"
	"github.com/ghostlib/ghost/internal/distill"
	"github.com/ghostlib/ghost/internal/embedder"
	"github.com/ghostlib/ghost/internal/ingest"
	"github.com/ghostlib/ghost/internal/llm"
	"github.com/ghostlib/ghost/internal/store"
)

const (
	// ServerName is the MCP server name
	ServerName = "ghost"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    store.Store
	embedder embedder.Embedder
	ingester *ingest.Ingester
	pipeline *distill.Pipeline
	llm      *llm.Client
}

// NewServer wires the full engine from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	gateway, err := store.New(store.Config{
		Type: cfg.Store.Type,
		Path: cfg.Store.Path,
		Qdrant: store.QdrantConfig{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Qdrant.Collection,
			Timeout:    cfg.Store.Qdrant.QdrantTimeout(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Embedder.Provider,
		BaseURL:   cfg.Embedder.BaseURL,
		APIKey:    cfg.Embedder.APIKey(),
		Model:     cfg.Embedder.Model,
		CacheSize: cfg.Embedder.CacheSize,
	})
	if err != nil {
		_ = gateway.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	ingester, err := ingest.New(emb, gateway, ingest.Options{
		MaxChunkChars: cfg.Ingest.MaxChunkChars,
		BatchSize:     cfg.Ingest.BatchSize,
		Concurrency:   cfg.Ingest.Concurrency,
	})
	if err != nil {
		_ = gateway.Close()
		return nil, err
	}

	pipeline, err := distill.New(emb, gateway, distill.Options{
		ContextBudget:  cfg.Distill.ContextBudget,
		TopK:           cfg.Distill.TopK,
		DedupThreshold: cfg.Distill.DedupThreshold,
	})
	if err != nil {
		_ = gateway.Close()
		return nil, err
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    gateway,
		embedder: emb,
		ingester: ingester,
		pipeline: pipeline,
		llm:      llm.NewClient(llm.Config{BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model}),
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	defer func() { _ = s.embedder.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(addDocumentTool(), s.handleAddDocument)
	s.mcp.AddTool(distillContextTool(), s.handleDistillContext)
	s.mcp.AddTool(listDocumentsTool(), s.handleListDocuments)
	s.mcp.AddTool(deleteDocumentTool(), s.handleDeleteDocument)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
