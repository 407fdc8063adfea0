// Package tools provides the tool catalog and execution gateway. Tools come
// from sources (built-in or MCP servers); the registry aggregates them into a
// single namespace and routes calls to the owning source.
package tools

import (
	"context"
	"time"
)

// ============================================================================
// TOOL SYSTEM INTERFACES
// ============================================================================

// ToolInfo represents metadata about a tool
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters,omitempty"`
	Source      string          `json:"source,omitempty"` // Source identifier
}

// ToolParameter represents a tool parameter definition
type ToolParameter struct {
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Required    bool                   `json:"required"`
	Default     interface{}            `json:"default,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Items       map[string]interface{} `json:"items,omitempty"` // For array types
}

// ToolResult represents the result of a tool execution. Failures are carried
// in Content as text the model can read, never as Go errors: the conversation
// must continue regardless of what a tool did.
type ToolResult struct {
	Success       bool          `json:"success"`
	Content       string        `json:"content,omitempty"`
	ToolName      string        `json:"tool_name"`
	ExecutionTime time.Duration `json:"execution_time,omitempty"`
}

// Tool represents a common interface for all tools (built-in and remote)
type Tool interface {
	// GetInfo returns metadata about the tool
	GetInfo() ToolInfo

	// Execute runs the tool with the given arguments
	Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error)

	// GetName returns the tool name (convenience method)
	GetName() string

	// GetDescription returns the tool description (convenience method)
	GetDescription() string
}

// ToolSource represents a source of tools (built-in, MCP server, etc.)
type ToolSource interface {
	// GetName returns the source name
	GetName() string

	// GetType returns the source type (local, mcp)
	GetType() string

	// DiscoverTools discovers and registers tools from this source
	DiscoverTools(ctx context.Context) error

	// ListTools returns all tools available in this source
	ListTools() []ToolInfo

	// GetTool retrieves a specific tool by name
	GetTool(name string) (Tool, bool)
}

// SchemaFromParameters builds a JSON Schema object from parameter definitions.
// Tools that already carry a raw schema (MCP) bypass this.
func SchemaFromParameters(params []ToolParameter) map[string]interface{} {
	properties := make(map[string]interface{}, len(params))
	var required []string

	for _, p := range params {
		prop := map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Items != nil {
			prop["items"] = p.Items
		}
		properties[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
