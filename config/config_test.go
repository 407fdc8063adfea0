package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_MODEL", "claude-sonnet-4-5-20250929")
	os.Unsetenv("TEST_MISSING")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"braced", "${TEST_MODEL}", "claude-sonnet-4-5-20250929"},
		{"simple", "$TEST_MODEL", "claude-sonnet-4-5-20250929"},
		{"with default used", "${TEST_MISSING:-fallback}", "fallback"},
		{"with default unused", "${TEST_MODEL:-fallback}", "claude-sonnet-4-5-20250929"},
		{"no vars", "plain text", "plain text"},
		{"embedded", "model is ${TEST_MODEL}!", "model is claude-sonnet-4-5-20250929!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestExpandEnvVarsInDataPreservesTypes(t *testing.T) {
	t.Setenv("TEST_MAX_TOKENS", "2048")
	t.Setenv("TEST_TEMP", "0.5")
	t.Setenv("TEST_FLAG", "true")

	data := map[string]interface{}{
		"max_tokens":  "${TEST_MAX_TOKENS}",
		"temperature": "${TEST_TEMP}",
		"enabled":     "${TEST_FLAG}",
		"nested": []interface{}{
			map[string]interface{}{"count": "${TEST_MAX_TOKENS}"},
		},
	}

	result := ExpandEnvVarsInData(data).(map[string]interface{})
	assert.Equal(t, 2048, result["max_tokens"])
	assert.Equal(t, 0.5, result["temperature"])
	assert.Equal(t, true, result["enabled"])

	nested := result["nested"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 2048, nested["count"])
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_ELASTIC_KEY", "secret-key")

	content := `
llm:
  provider: anthropic
  api_key: test-key
  max_tokens: 2000
elastic:
  url: https://example.es.io:9243
  api_key: ${TEST_ELASTIC_KEY}
  index: reports
agent:
  max_turns: 5
mcp_servers:
  - name: extra-tools
    command: node
    args: ["server.js"]
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, "secret-key", cfg.Elastic.APIKey)
	assert.Equal(t, "reports", cfg.Elastic.Index)
	assert.Equal(t, 5, cfg.Agent.MaxTurns)
	require.Len(t, cfg.MCPServers, 1)
	assert.Equal(t, "extra-tools", cfg.MCPServers[0].Name)
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "https://api.anthropic.com", cfg.LLM.Host)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, "documents", cfg.Elastic.Index)
	assert.Equal(t, "my-embedding-model", cfg.Elastic.InferenceID)
	assert.Equal(t, "lmstudio", cfg.Vision.Provider)
	assert.Equal(t, "http://localhost:1234/v1", cfg.Vision.BaseURL)
	assert.Equal(t, DefaultMaxTurns, cfg.Agent.MaxTurns)
	assert.Equal(t, DefaultSystemPrompt, cfg.Agent.SystemPrompt)
}

func TestValidateMissingCredentials(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestValidateUnsupportedProvider(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: "cohere", APIKey: "k"}}
	cfg.Elastic = ElasticConfig{URL: "http://localhost:9200", APIKey: "k"}
	cfg.SetDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

func TestLoadFromEnvOpenAI(t *testing.T) {
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4-turbo-preview")
	t.Setenv("MAX_TOKENS", "1234")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4-turbo-preview", cfg.LLM.Model)
	assert.Equal(t, 1234, cfg.LLM.MaxTokens)
}

func TestLoadEnvFilesWalksParents(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(child, 0755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("PARENT_ONLY=from-parent\nSHARED=from-parent\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(child, ".env"), []byte("SHARED=from-child\n"), 0644))

	os.Unsetenv("PARENT_ONLY")
	os.Unsetenv("SHARED")
	t.Cleanup(func() {
		os.Unsetenv("PARENT_ONLY")
		os.Unsetenv("SHARED")
	})

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(child))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	loaded := LoadEnvFiles()
	require.Len(t, loaded, 2)

	assert.Equal(t, "from-child", os.Getenv("SHARED"))
	assert.Equal(t, "from-parent", os.Getenv("PARENT_ONLY"))
}
