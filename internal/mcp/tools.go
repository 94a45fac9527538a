package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ghostlib/ghost/internal/distill"
	"github.com/ghostlib/ghost/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeDocumentNotFound  = -32001 // No chunks stored under the given filename
	ErrorCodeUnsupportedFormat = -32002 // Document extension is not ingestible
	ErrorCodeEmptyQuery        = -32004 // Query parameter is empty
)

// handleAddDocument handles the add_document tool invocation
func (s *Server) handleAddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validateFile(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	stats, err := s.ingester.IngestFile(ctx, path)
	if err != nil {
		if errors.Is(err, types.ErrUnsupportedFormat) {
			return nil, newMCPError(ErrorCodeUnsupportedFormat, "unsupported document format", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"added":         true,
		"filename":      stats.Filename,
		"chunks":        stats.Chunks,
		"sections":      stats.Sections,
		"tokens_est":    stats.TokensEst,
		"embed_batches": stats.EmbedBatches,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDistillContext handles the distill_context tool invocation
func (s *Server) handleDistillContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	opts := s.pipeline.Options()
	budget := getIntDefault(args, "budget", opts.ContextBudget)
	topK := getIntDefault(args, "top_k", opts.TopK)
	if topK < 1 || topK > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}

	pipeline := s.pipeline
	if budget != opts.ContextBudget || topK != opts.TopK {
		var err error
		pipeline, err = distill.New(s.embedder, s.store, distill.Options{
			ContextBudget:  budget,
			TopK:           topK,
			DedupThreshold: opts.DedupThreshold,
		})
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid distillation options", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	result, err := pipeline.Distill(ctx, query)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "distillation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"context":            result.Context,
		"original_tokens":    result.OriginalTokens,
		"distilled_tokens":   result.DistilledTokens,
		"compression_ratio":  fmt.Sprintf("%.2f", result.CompressionRatio),
		"chunks_retrieved":   result.ChunksRetrieved,
		"chunks_after_dedup": result.ChunksAfterDedup,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListDocuments handles the list_documents tool invocation
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list documents", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		entries[i] = map[string]interface{}{
			"filename": doc.Filename,
			"chunks":   doc.Chunks,
		}
	}
	response := map[string]interface{}{
		"documents": entries,
		"count":     len(docs),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeleteDocument handles the delete_document tool invocation
func (s *Server) handleDeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	filename, ok := args["filename"].(string)
	if !ok || filename == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "filename parameter is required", map[string]interface{}{
			"param":  "filename",
			"reason": "missing or empty",
		})
	}

	deleted, err := s.store.DeleteDocument(ctx, filename)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, newMCPError(ErrorCodeDocumentNotFound, "document not indexed", map[string]interface{}{
				"filename": filename,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to delete document", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"deleted":        true,
		"filename":       filename,
		"chunks_removed": deleted,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read store", map[string]interface{}{
			"error": err.Error(),
		})
	}
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list documents", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"statistics": map[string]interface{}{
			"documents": len(docs),
			"chunks":    count,
		},
		"embedder": map[string]interface{}{
			"provider":  s.embedder.Provider(),
			"model":     s.embedder.Model(),
			"dimension": s.embedder.Dimension(),
		},
		"llm": map[string]interface{}{
			"model":     s.llm.Model(),
			"reachable": s.llm.HealthCheck(ctx),
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateFile checks that a path names an existing regular file.
func validateFile(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if info.IsDir() {
		return ErrPathIsDirectory
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrPathIsDirectory = errors.New("path is a directory, not a file")
)
