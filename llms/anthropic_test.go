package llms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atakanozcan/docagent/config"
)

func newAnthropicTestProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewAnthropicProviderFromConfig(&config.LLMConfig{
		Provider:  "anthropic",
		Model:     "claude-sonnet-4-5-20250929",
		APIKey:    "test-key",
		Host:      server.URL,
		MaxTokens: 1024,
		Timeout:   5,
	})
	require.NoError(t, err)
	return provider
}

func TestAnthropicGenerateFinalAnswer(t *testing.T) {
	var gotRequest AnthropicRequest
	provider := newAnthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotRequest))

		json.NewEncoder(w).Encode(AnthropicResponse{
			StopReason: "end_turn",
			Content:    []AnthropicContent{{Type: "text", Text: "The Q4 report covers revenue."}},
			Usage:      AnthropicUsage{InputTokens: 10, OutputTokens: 5},
		})
	})

	messages := []Message{
		{Role: RoleSystem, Content: "You answer questions about documents."},
		{Role: RoleUser, Content: "What is in the Q4 report?"},
	}

	turn, err := provider.Generate(context.Background(), messages, nil)
	require.NoError(t, err)

	assert.Equal(t, StopEndTurn, turn.StopReason)
	assert.Equal(t, "The Q4 report covers revenue.", turn.Text)
	assert.False(t, turn.HasToolCalls())
	assert.Equal(t, 15, turn.Usage.TotalTokens())

	// System messages must move to the dedicated field, not the message list.
	assert.Equal(t, "You answer questions about documents.", gotRequest.System)
	require.Len(t, gotRequest.Messages, 1)
	assert.Equal(t, "user", gotRequest.Messages[0].Role)
}

func TestAnthropicGenerateToolUse(t *testing.T) {
	provider := newAnthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AnthropicResponse{
			StopReason: "tool_use",
			Content: []AnthropicContent{
				{Type: "text", Text: "Let me search for that."},
				{
					Type:  "tool_use",
					ID:    "toolu_01",
					Name:  "search_documents",
					Input: map[string]interface{}{"question": "Q4 report"},
				},
			},
		})
	})

	turn, err := provider.Generate(context.Background(), []Message{{Role: RoleUser, Content: "q"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, StopToolUse, turn.StopReason)
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "toolu_01", turn.ToolCalls[0].ID)
	assert.Equal(t, "search_documents", turn.ToolCalls[0].Name)
	assert.Equal(t, "Q4 report", turn.ToolCalls[0].Arguments["question"])
}

func TestAnthropicToolResultTranslation(t *testing.T) {
	var gotRequest AnthropicRequest
	provider := newAnthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotRequest))
		json.NewEncoder(w).Encode(AnthropicResponse{
			StopReason: "end_turn",
			Content:    []AnthropicContent{{Type: "text", Text: "done"}},
		})
	})

	messages := []Message{
		{Role: RoleUser, Content: "q"},
		{
			Role:    RoleAssistant,
			Content: "searching",
			ToolCalls: []ToolCall{
				{ID: "toolu_01", Name: "search_documents", Arguments: map[string]interface{}{"question": "q"}},
			},
		},
		{Role: RoleTool, ToolCallID: "toolu_01", Content: "Found 2 documents"},
	}

	_, err := provider.Generate(context.Background(), messages, nil)
	require.NoError(t, err)

	require.Len(t, gotRequest.Messages, 3)

	// Assistant turn becomes text + tool_use blocks.
	assistantContent, ok := gotRequest.Messages[1].Content.([]interface{})
	require.True(t, ok)
	require.Len(t, assistantContent, 2)
	textBlock := assistantContent[0].(map[string]interface{})
	assert.Equal(t, "text", textBlock["type"])
	toolBlock := assistantContent[1].(map[string]interface{})
	assert.Equal(t, "tool_use", toolBlock["type"])
	assert.Equal(t, "toolu_01", toolBlock["id"])

	// Tool result becomes a user message with a tool_result block.
	assert.Equal(t, "user", gotRequest.Messages[2].Role)
	resultContent := gotRequest.Messages[2].Content.([]interface{})
	resultBlock := resultContent[0].(map[string]interface{})
	assert.Equal(t, "tool_result", resultBlock["type"])
	assert.Equal(t, "toolu_01", resultBlock["tool_use_id"])
	assert.Equal(t, "Found 2 documents", resultBlock["content"])
}

func TestAnthropicToolCatalogSerialization(t *testing.T) {
	var gotRequest AnthropicRequest
	provider := newAnthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotRequest))
		json.NewEncoder(w).Encode(AnthropicResponse{
			StopReason: "end_turn",
			Content:    []AnthropicContent{{Type: "text", Text: "ok"}},
		})
	})

	tools := []ToolDefinition{
		{
			Name:        "search_documents",
			Description: "Hybrid document search",
			Parameters: map[string]interface{}{
				"type":     "object",
				"required": []string{"question"},
			},
		},
	}

	_, err := provider.Generate(context.Background(), []Message{{Role: RoleUser, Content: "q"}}, tools)
	require.NoError(t, err)

	require.Len(t, gotRequest.Tools, 1)
	assert.Equal(t, "search_documents", gotRequest.Tools[0].Name)
	assert.Equal(t, "object", gotRequest.Tools[0].InputSchema["type"])
}

func TestAnthropicAPIErrorSurfaced(t *testing.T) {
	provider := newAnthropicTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad model"}}`))
	})

	_, err := provider.Generate(context.Background(), []Message{{Role: RoleUser, Content: "q"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
