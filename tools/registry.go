package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atakanozcan/docagent/llms"
)

// ============================================================================
// REGISTRY - TOOL SYSTEM CORE
// ============================================================================

// ToolEntry represents a complete tool entry with all metadata
type ToolEntry struct {
	Tool       Tool       `json:"tool"`
	Source     ToolSource `json:"source"`
	SourceType string     `json:"source_type"`
	Name       string     `json:"name"`
}

// DuplicateToolError is returned when two sources offer a tool with the same
// name. The catalog is a flat namespace so this is always a registration
// failure, never a silent override.
type DuplicateToolError struct {
	Name           string
	ExistingSource string
	NewSource      string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q from source %q conflicts with existing tool from source %q",
		e.Name, e.NewSource, e.ExistingSource)
}

// Registry aggregates tools from multiple sources into a single namespace.
// The catalog preserves registration order so the model always sees tools in
// the order sources were wired up.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]ToolEntry
	order   []string
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]ToolEntry),
	}
}

// RegisterSource discovers tools from a source and adds them to the catalog.
func (r *Registry) RegisterSource(ctx context.Context, source ToolSource) error {
	name := source.GetName()
	if name == "" {
		return fmt.Errorf("source name cannot be empty")
	}

	if err := source.DiscoverTools(ctx); err != nil {
		return fmt.Errorf("failed to discover tools from source %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, info := range source.ListTools() {
		tool, exists := source.GetTool(info.Name)
		if !exists {
			continue
		}

		if existing, conflict := r.entries[info.Name]; conflict {
			return &DuplicateToolError{
				Name:           info.Name,
				ExistingSource: existing.Source.GetName(),
				NewSource:      name,
			}
		}

		r.entries[info.Name] = ToolEntry{
			Tool:       tool,
			Source:     source,
			SourceType: source.GetType(),
			Name:       info.Name,
		}
		r.order = append(r.order, info.Name)
	}

	slog.Debug("Registered tool source", "source", name, "type", source.GetType())
	return nil
}

// GetTool retrieves a tool by name
func (r *Registry) GetTool(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", name)
	}
	return entry.Tool, nil
}

// GetToolSource returns the source name that provides a specific tool
func (r *Registry) GetToolSource(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return "", fmt.Errorf("tool %s not found", name)
	}
	return entry.Source.GetName(), nil
}

// ListTools returns all available tools in registration order.
func (r *Registry) ListTools() []ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		entry := r.entries[name]
		info := entry.Tool.GetInfo()
		info.Source = entry.Source.GetName()
		tools = append(tools, info)
	}
	return tools
}

// Definitions returns the model-facing tool catalog in registration order.
func (r *Registry) Definitions() []llms.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llms.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		entry := r.entries[name]
		info := entry.Tool.GetInfo()

		var schema map[string]interface{}
		if provider, ok := entry.Tool.(interface{ Schema() map[string]interface{} }); ok {
			schema = provider.Schema()
		}
		if schema == nil {
			schema = SchemaFromParameters(info.Parameters)
		}

		defs = append(defs, llms.ToolDefinition{
			Name:        info.Name,
			Description: info.Description,
			Parameters:  schema,
		})
	}
	return defs
}

// Execute runs a tool by name. It is the single gateway between the agent
// loop and tool code: every failure mode, including an unknown tool name or
// a tool error, comes back as readable result text so the model can see what
// went wrong and adjust. Callers that need to distinguish failure check
// Success rather than an error return.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) ToolResult {
	started := time.Now()

	tool, err := r.GetTool(name)
	if err != nil {
		return ToolResult{
			Success:       false,
			Content:       fmt.Sprintf("Tool %s not found", name),
			ToolName:      name,
			ExecutionTime: time.Since(started),
		}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		slog.Warn("Tool execution failed", "tool", name, "error", err)
		return ToolResult{
			Success:       false,
			Content:       fmt.Sprintf("Error executing tool %s: %v", name, err),
			ToolName:      name,
			ExecutionTime: time.Since(started),
		}
	}

	result.ToolName = name
	result.ExecutionTime = time.Since(started)
	return result
}
