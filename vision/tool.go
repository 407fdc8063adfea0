package vision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atakanozcan/docagent/tools"
)

// ============================================================================
// ANALYZE_IMAGES TOOL
// ============================================================================

const toolDescription = "Analyze one or more images using a vision LLM. Accepts a list of image file paths or URLs and a question to ask about the images."

// Tool exposes image analysis to the model. Analyzer failures, including a
// missing image file, come back as readable result text.
type Tool struct {
	analyzer *Analyzer
}

// NewTool creates the analyze_images tool.
func NewTool(analyzer *Analyzer) *Tool {
	return &Tool{analyzer: analyzer}
}

// GetName returns the tool name
func (t *Tool) GetName() string {
	return "analyze_images"
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
				Name:        "images",
				Type:        "array",
				Description: "List of image file paths or URLs (in order)",
				Required:    true,
				Items:       map[string]interface{}{"type": "string"},
			},
			{
				Name:        "question",
				Type:        "string",
				Description: "Question to ask about the image(s)",
				Required:    true,
			},
			{
				Name:        "max_tokens",
				Type:        "integer",
				Description: "Maximum tokens in the response (default: 1000)",
				Default:     1000,
			},
			{
				Name:        "temperature",
				Type:        "number",
				Description: "Temperature for response generation (default: 0.7)",
				Default:     0.7,
			},
		},
	}
}

// Execute runs one image analysis call.
func (t *Tool) Execute(ctx context.Context, args map[string]interface{}) (tools.ToolResult, error) {
	images := stringSliceArg(args, "images")
	question, _ := args["question"].(string)

	maxTokens := 0
	if v, ok := args["max_tokens"].(float64); ok {
		maxTokens = int(v)
	}
	temperature := 0.0
	if v, ok := args["temperature"].(float64); ok {
		temperature = v
	}

	answer, err := t.analyzer.Analyze(ctx, images, question, maxTokens, temperature)
	if err != nil {
		slog.Error("Image analysis failed", "images", len(images), "error", err)
		return tools.ToolResult{
			Success:  false,
			Content:  fmt.Sprintf("Error analyzing images: %v", err),
			ToolName: t.GetName(),
		}, nil
	}

	return tools.ToolResult{
		Success:  true,
		Content:  answer,
		ToolName: t.GetName(),
	}, nil
}

// stringSliceArg reads a string list that arrives as []interface{} from JSON.
func stringSliceArg(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}
