package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTool is a minimal in-process tool for registry tests.
type stubTool struct {
	name    string
	desc    string
	params  []ToolParameter
	execute func(ctx context.Context, args map[string]interface{}) (ToolResult, error)
}

func (t *stubTool) GetInfo() ToolInfo {
	return ToolInfo{Name: t.name, Description: t.desc, Parameters: t.params}
}

func (t *stubTool) GetName() string        { return t.name }
func (t *stubTool) GetDescription() string { return t.desc }

func (t *stubTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	if t.execute != nil {
		return t.execute(ctx, args)
	}
	return ToolResult{Success: true, Content: "ok", ToolName: t.name}, nil
}

func newSourceWithTools(t *testing.T, sourceName string, tools ...Tool) *LocalToolSource {
	t.Helper()
	source := NewLocalToolSource(sourceName)
	for _, tool := range tools {
		require.NoError(t, source.RegisterTool(tool))
	}
	return source
}

func TestRegistryCatalogPreservesRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	first := newSourceWithTools(t, "docs",
		&stubTool{name: "search_documents", desc: "search"},
		&stubTool{name: "analyze_images", desc: "vision"},
	)
	second := newSourceWithTools(t, "extras",
		&stubTool{name: "aaa_tool", desc: "sorts before the others alphabetically"},
	)

	require.NoError(t, registry.RegisterSource(ctx, first))
	require.NoError(t, registry.RegisterSource(ctx, second))

	infos := registry.ListTools()
	require.Len(t, infos, 3)
	assert.Equal(t, "search_documents", infos[0].Name)
	assert.Equal(t, "analyze_images", infos[1].Name)
	assert.Equal(t, "aaa_tool", infos[2].Name)
	assert.Equal(t, "docs", infos[0].Source)
	assert.Equal(t, "extras", infos[2].Source)
}

func TestRegistryRejectsDuplicateToolAcrossSources(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	require.NoError(t, registry.RegisterSource(ctx,
		newSourceWithTools(t, "first", &stubTool{name: "search_documents"})))

	err := registry.RegisterSource(ctx,
		newSourceWithTools(t, "second", &stubTool{name: "search_documents"}))
	require.Error(t, err)

	var dup *DuplicateToolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "search_documents", dup.Name)
	assert.Equal(t, "first", dup.ExistingSource)
	assert.Equal(t, "second", dup.NewSource)
}

func TestRegistryDefinitionsBuildSchemas(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	tool := &stubTool{
		name: "search_documents",
		desc: "Hybrid document search",
		params: []ToolParameter{
			{Name: "question", Type: "string", Description: "the question", Required: true},
			{Name: "top_k", Type: "integer", Description: "result count", Default: 10},
		},
	}
	require.NoError(t, registry.RegisterSource(ctx, newSourceWithTools(t, "docs", tool)))

	defs := registry.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "search_documents", defs[0].Name)
	assert.Equal(t, "object", defs[0].Parameters["type"])

	properties := defs[0].Parameters["properties"].(map[string]interface{})
	question := properties["question"].(map[string]interface{})
	assert.Equal(t, "string", question["type"])
	topK := properties["top_k"].(map[string]interface{})
	assert.Equal(t, 10, topK["default"])

	assert.Equal(t, []string{"question"}, defs[0].Parameters["required"])
}

func TestExecuteUnknownToolReturnsReadableResult(t *testing.T) {
	registry := NewRegistry()

	result := registry.Execute(context.Background(), "missing_tool", nil)
	assert.False(t, result.Success)
	assert.Equal(t, "Tool missing_tool not found", result.Content)
	assert.Equal(t, "missing_tool", result.ToolName)
}

func TestExecuteToolErrorBecomesResultText(t *testing.T) {
	registry := NewRegistry()
	failing := &stubTool{
		name: "search_documents",
		execute: func(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
			return ToolResult{}, fmt.Errorf("connection refused")
		},
	}
	require.NoError(t, registry.RegisterSource(context.Background(),
		newSourceWithTools(t, "docs", failing)))

	result := registry.Execute(context.Background(), "search_documents", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Content, "Error executing tool search_documents")
	assert.Contains(t, result.Content, "connection refused")
}

func TestExecuteSuccessPassesThroughContent(t *testing.T) {
	registry := NewRegistry()
	tool := &stubTool{
		name: "search_documents",
		execute: func(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
			assert.Equal(t, "Q4 report", args["question"])
			return ToolResult{Success: true, Content: "Found 2 documents"}, nil
		},
	}
	require.NoError(t, registry.RegisterSource(context.Background(),
		newSourceWithTools(t, "docs", tool)))

	result := registry.Execute(context.Background(), "search_documents",
		map[string]interface{}{"question": "Q4 report"})
	assert.True(t, result.Success)
	assert.Equal(t, "Found 2 documents", result.Content)
	assert.Equal(t, "search_documents", result.ToolName)
}

func TestLocalSourceRejectsDuplicateRegistration(t *testing.T) {
	source := NewLocalToolSource("local")
	require.NoError(t, source.RegisterTool(&stubTool{name: "search_documents"}))
	assert.Error(t, source.RegisterTool(&stubTool{name: "search_documents"}))

	_, exists := source.GetTool("search_documents")
	assert.True(t, exists)
	_, exists = source.GetTool("other")
	assert.False(t, exists)
}
