package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/atakanozcan/docagent/config"
)

// ============================================================================
// MCP - STDIO TOOL SOURCE
// ============================================================================

const mcpProtocolVersion = "2024-11-05"

// MCPToolSource exposes the tools of one MCP stdio server. Every operation,
// discovery included, runs inside its own subprocess session: start the
// server, initialize, do the work, shut it down. Sessions are never reused
// across calls, so a crashed or wedged server affects only the one call that
// hit it.
type MCPToolSource struct {
	cfg config.MCPServerConfig

	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewMCPToolSource creates a tool source backed by an MCP stdio server.
func NewMCPToolSource(cfg config.MCPServerConfig) (*MCPToolSource, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("command is required for MCP server %s", cfg.Name)
	}

	return &MCPToolSource{
		cfg:   cfg,
		tools: make(map[string]Tool),
	}, nil
}

// GetName returns the source name
func (s *MCPToolSource) GetName() string {
	return s.cfg.Name
}

// GetType returns the source type
func (s *MCPToolSource) GetType() string {
	return "mcp"
}

// DiscoverTools spawns a session, lists the server's tools, and shuts the
// session down again.
func (s *MCPToolSource) DiscoverTools(ctx context.Context) error {
	mcpClient, err := s.openSession(ctx)
	if err != nil {
		return err
	}
	defer mcpClient.Close()

	listResp, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tools from MCP server %s: %w", s.cfg.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = make(map[string]Tool, len(listResp.Tools))
	s.order = s.order[:0]
	for _, remote := range listResp.Tools {
		s.tools[remote.Name] = &mcpTool{
			source: s,
			name:   remote.Name,
			desc:   remote.Description,
			schema: convertSchema(remote.InputSchema),
		}
		s.order = append(s.order, remote.Name)
	}

	slog.Info("Discovered MCP tools",
		"server", s.cfg.Name,
		"command", s.cfg.Command,
		"tools", len(s.order),
	)
	return nil
}

// ListTools returns the discovered tools in server order
func (s *MCPToolSource) ListTools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]ToolInfo, 0, len(s.order))
	for _, name := range s.order {
		info := s.tools[name].GetInfo()
		info.Source = s.cfg.Name
		tools = append(tools, info)
	}
	return tools
}

// GetTool retrieves a specific tool by name
func (s *MCPToolSource) GetTool(name string) (Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tool, exists := s.tools[name]
	return tool, exists
}

// openSession starts the server subprocess and completes the MCP handshake.
// The caller owns the returned client and must Close it.
func (s *MCPToolSource) openSession(ctx context.Context) (*client.Client, error) {
	mcpClient, err := client.NewStdioMCPClient(
		s.cfg.Command,
		convertEnv(s.cfg.Env),
		s.cfg.Args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client for %s: %w", s.cfg.Name, err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP server %s: %w", s.cfg.Name, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "docagent",
		Version: "1.0.0",
	}
	initReq.Params.ProtocolVersion = mcpProtocolVersion

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("failed to initialize MCP server %s: %w", s.cfg.Name, err)
	}

	return mcpClient, nil
}

// callTool runs one tool invocation inside a fresh session.
func (s *MCPToolSource) callTool(ctx context.Context, name string, args map[string]interface{}) (string, bool, error) {
	mcpClient, err := s.openSession(ctx)
	if err != nil {
		return "", false, err
	}
	defer mcpClient.Close()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := mcpClient.CallTool(ctx, req)
	if err != nil {
		return "", false, fmt.Errorf("MCP call failed: %w", err)
	}

	var text string
	for _, content := range resp.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			if text != "" {
				text += "\n"
			}
			text += textContent.Text
		}
	}

	return text, resp.IsError, nil
}

// mcpTool is a catalog entry backed by a remote MCP tool.
type mcpTool struct {
	source *MCPToolSource
	name   string
	desc   string
	schema map[string]interface{}
}

// GetInfo returns metadata about the tool
func (t *mcpTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.name,
		Description: t.desc,
		Source:      t.source.cfg.Name,
	}
}

// GetName returns the tool name
func (t *mcpTool) GetName() string {
	return t.name
}

// GetDescription returns the tool description
func (t *mcpTool) GetDescription() string {
	return t.desc
}

// Schema returns the server-provided JSON Schema for the tool's input.
func (t *mcpTool) Schema() map[string]interface{} {
	return t.schema
}

// Execute runs the tool on the MCP server inside a dedicated session.
func (t *mcpTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	text, isError, err := t.source.callTool(ctx, t.name, args)
	if err != nil {
		return ToolResult{Success: false, ToolName: t.name}, err
	}

	if isError && text == "" {
		text = "unknown error"
	}

	return ToolResult{
		Success:  !isError,
		Content:  text,
		ToolName: t.name,
	}, nil
}

// convertSchema converts an MCP tool schema to a plain map.
func convertSchema(schema mcp.ToolInputSchema) map[string]interface{} {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// convertEnv converts a map to a slice of "KEY=VALUE".
func convertEnv(env map[string]string) []string {
	if env == nil {
		return nil
	}
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}
