package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// addDocumentTool returns the tool definition for add_document
func addDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_document",
		Description: "Ingest a document (markdown, text, rst or pdf) into the knowledge base",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the document file",
				},
			},
			Required: []string{"path"},
		},
	}
}

// distillContextTool returns the tool definition for distill_context
func distillContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "distill_context",
		Description: "Retrieve, rank, deduplicate and compress stored chunks into a budgeted context for a query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query to distill context for",
				},
				"budget": map[string]interface{}{
					"type":        "integer",
					"description": "Token budget for the distilled context",
					"default":     3000,
					"minimum":     1,
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of candidate chunks to retrieve (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// listDocumentsTool returns the tool definition for list_documents
func listDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_documents",
		Description: "List indexed documents with their chunk counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// deleteDocumentTool returns the tool definition for delete_document
func deleteDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_document",
		Description: "Remove every stored chunk of one document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Base filename of the document to delete, as shown by list_documents",
				},
			},
			Required: []string{"filename"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report store statistics and embedder/LLM health",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
