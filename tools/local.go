package tools

import (
	"context"
	"fmt"
	"sync"
)

// ============================================================================
// LOCAL - BUILT-IN TOOL SOURCE
// ============================================================================

// LocalToolSource manages built-in/in-process tools
type LocalToolSource struct {
	name  string
	tools map[string]Tool
	order []string
	mu    sync.RWMutex
}

// NewLocalToolSource creates a new local tool source
func NewLocalToolSource(name string) *LocalToolSource {
	if name == "" {
		name = "local"
	}

	return &LocalToolSource{
		name:  name,
		tools: make(map[string]Tool),
	}
}

// GetName returns the source name
func (s *LocalToolSource) GetName() string {
	return s.name
}

// GetType returns the source type
func (s *LocalToolSource) GetType() string {
	return "local"
}

// RegisterTool adds a tool to the local source
func (s *LocalToolSource) RegisterTool(tool Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := tool.GetName()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if _, exists := s.tools[name]; exists {
		return fmt.Errorf("tool %s already registered in source %s", name, s.name)
	}

	s.tools[name] = tool
	s.order = append(s.order, name)
	return nil
}

// DiscoverTools is a no-op for the local source since tools are pre-registered
func (s *LocalToolSource) DiscoverTools(ctx context.Context) error {
	return nil
}

// ListTools returns all tools in this source in registration order
func (s *LocalToolSource) ListTools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]ToolInfo, 0, len(s.order))
	for _, name := range s.order {
		info := s.tools[name].GetInfo()
		info.Source = s.name
		tools = append(tools, info)
	}
	return tools
}

// GetTool retrieves a specific tool by name
func (s *LocalToolSource) GetTool(name string) (Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tool, exists := s.tools[name]
	return tool, exists
}
