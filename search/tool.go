package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atakanozcan/docagent/tools"
)

// ============================================================================
// SEARCH_DOCUMENTS TOOL
// ============================================================================

const toolDescription = `Search through documents using hybrid search combining semantic understanding and keyword matching.

This tool searches across document text and image descriptions to find relevant context for answering questions.
It uses:
- Semantic search on document text for understanding context
- Keyword matching on titles for precise matches
- Vector search on image descriptions to find relevant visual content

Returns relevant text excerpts and links to images with their descriptions.`

// Tool exposes hybrid document search to the model. Backend and transport
// failures come back as readable result text so the conversation can
// continue regardless of cluster health.
type Tool struct {
	executor    Executor
	index       string
	inferenceID string
}

// NewTool creates the search_documents tool.
func NewTool(executor Executor, index, inferenceID string) *Tool {
	return &Tool{
		executor:    executor,
		index:       index,
		inferenceID: inferenceID,
	}
}

// GetName returns the tool name
func (t *Tool) GetName() string {
	return "search_documents"
}

// GetDescription returns the tool description
func (t *Tool) GetDescription() string {
	return toolDescription
}

// GetInfo returns metadata about the tool
func (t *Tool) GetInfo() tools.ToolInfo {
	return tools.ToolInfo{
		Name:        t.GetName(),
		Description: toolDescription,
		Parameters: []tools.ToolParameter{
			{
				Name:        "question",
				Type:        "string",
				Description: "The question or search query",
				Required:    true,
			},
			{
				Name:        "top_k",
				Type:        "number",
				Description: "Number of results to return (default: 10)",
				Default:     DefaultTopK,
			},
			{
				Name:        "min_score",
				Type:        "number",
				Description: "Minimum relevance score threshold (default: 0.5)",
				Default:     DefaultMinScore,
			},
		},
	}
}

// Execute runs one hybrid search and renders the results for the model.
func (t *Tool) Execute(ctx context.Context, args map[string]interface{}) (tools.ToolResult, error) {
	question, _ := args["question"].(string)
	if question == "" {
		return tools.ToolResult{
			Success:  false,
			Content:  "Error: question parameter is required",
			ToolName: t.GetName(),
		}, nil
	}

	topK := intArg(args, "top_k", DefaultTopK)
	minScore := floatArg(args, "min_score", DefaultMinScore)

	query := BuildQuery(question, topK, minScore, t.inferenceID)

	response, err := t.executor.Search(ctx, t.index, query)
	if err != nil {
		slog.Error("Search failed", "question", question, "error", err)
		return tools.ToolResult{
			Success:  false,
			Content:  fmt.Sprintf("Error performing search: %v", err),
			ToolName: t.GetName(),
		}, nil
	}

	results := ShapeResults(response, minScore)
	slog.Debug("Search completed", "question", question, "results", len(results))

	return tools.ToolResult{
		Success:  true,
		Content:  FormatResults(results),
		ToolName: t.GetName(),
	}, nil
}

// intArg reads a numeric argument that may arrive as float64 from JSON.
func intArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func floatArg(args map[string]interface{}, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}
