package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// CONFIGURATION TYPES
// ============================================================================

// DefaultSystemPrompt guides the model through the search-then-analyze flow.
const DefaultSystemPrompt = "You are a helpful AI assistant that answers questions about documents. " +
	"Follow these steps: 1) Use the search_documents tool to find relevant documents. " +
	"2) If search results include image paths or URLs, use the analyze_images tool to examine them. " +
	"3) Synthesize information from both document content and image analysis to provide a comprehensive answer."

// Config is the root configuration for the document agent.
type Config struct {
	LLM        LLMConfig         `yaml:"llm"`
	Elastic    ElasticConfig     `yaml:"elastic"`
	Vision     VisionConfig      `yaml:"vision"`
	MCPServers []MCPServerConfig `yaml:"mcp_servers"`
	Agent      AgentConfig       `yaml:"agent"`
	Logger     LoggerConfig      `yaml:"logger"`
}

// LLMConfig configures the conversation LLM provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "anthropic" or "openai"
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Host        string  `yaml:"host"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Timeout     int     `yaml:"timeout"`     // seconds
	MaxRetries  int     `yaml:"max_retries"` // HTTP retry budget
}

// SetDefaults applies defaults to the LLM configuration.
func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "anthropic"
	}
	if c.Model == "" {
		switch c.Provider {
		case "anthropic":
			c.Model = "claude-sonnet-4-5-20250929"
		case "openai":
			c.Model = "gpt-4-turbo-preview"
		}
	}
	if c.Host == "" {
		switch c.Provider {
		case "anthropic":
			c.Host = "https://api.anthropic.com"
		case "openai":
			c.Host = "https://api.openai.com/v1"
		}
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.Timeout == 0 {
		c.Timeout = 120
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Validate checks the LLM configuration.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unsupported LLM provider: %s (choose 'anthropic' or 'openai')", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required for %s provider", c.Provider)
	}
	return nil
}

// ElasticConfig configures the Elasticsearch document index.
type ElasticConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Index       string `yaml:"index"`
	InferenceID string `yaml:"inference_id"` // server-side embedding endpoint
	Timeout     int    `yaml:"timeout"`      // seconds
	MaxRetries  int    `yaml:"max_retries"`
}

// SetDefaults applies defaults to the Elasticsearch configuration.
func (c *ElasticConfig) SetDefaults() {
	if c.Index == "" {
		c.Index = "documents"
	}
	if c.InferenceID == "" {
		c.InferenceID = "my-embedding-model"
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Validate checks the Elasticsearch configuration.
func (c *ElasticConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("elastic URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("elastic API key is required")
	}
	return nil
}

// VisionConfig configures the vision analysis endpoint. Both providers speak
// the OpenAI chat completions protocol; "lmstudio" just points at a local
// server and needs no API key.
type VisionConfig struct {
	Provider    string  `yaml:"provider"` // "lmstudio" or "openai"
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Timeout     int     `yaml:"timeout"` // seconds
}

// SetDefaults applies defaults to the vision configuration.
func (c *VisionConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "lmstudio"
	}
	if c.BaseURL == "" {
		switch c.Provider {
		case "lmstudio":
			c.BaseURL = "http://localhost:1234/v1"
		case "openai":
			c.BaseURL = "https://api.openai.com/v1"
		}
	}
	if c.Model == "" {
		switch c.Provider {
		case "lmstudio":
			c.Model = "local-model"
		case "openai":
			c.Model = "gpt-4o"
		}
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1000
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.Timeout == 0 {
		c.Timeout = 120
	}
}

// Validate checks the vision configuration.
func (c *VisionConfig) Validate() error {
	switch c.Provider {
	case "lmstudio":
	case "openai":
		if c.APIKey == "" {
			return fmt.Errorf("vision API key is required when using the openai provider")
		}
	default:
		return fmt.Errorf("unsupported vision provider: %s (choose 'lmstudio' or 'openai')", c.Provider)
	}
	return nil
}

// MCPServerConfig describes an external MCP tool server (stdio transport).
type MCPServerConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// Validate checks an MCP server configuration.
func (c *MCPServerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("MCP server name is required")
	}
	if c.Command == "" {
		return fmt.Errorf("MCP server '%s': command is required", c.Name)
	}
	return nil
}

// AgentConfig configures the orchestration loop.
type AgentConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	MaxTurns     int    `yaml:"max_turns"` // negative = unbounded
}

// DefaultMaxTurns bounds the agent loop unless explicitly overridden.
const DefaultMaxTurns = 10

// SetDefaults applies defaults to the agent configuration.
func (c *AgentConfig) SetDefaults() {
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.MaxTurns == 0 {
		c.MaxTurns = DefaultMaxTurns
	}
}

// LoggerConfig configures logging output.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// SetDefaults applies defaults to the logger configuration.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// ============================================================================
// LOADING
// ============================================================================

// SetDefaults applies defaults to all sections.
func (c *Config) SetDefaults() {
	c.LLM.SetDefaults()
	c.Elastic.SetDefaults()
	c.Vision.SetDefaults()
	c.Agent.SetDefaults()
	c.Logger.SetDefaults()
}

// Validate checks all sections. Configuration errors are fatal at startup.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Elastic.Validate(); err != nil {
		return fmt.Errorf("elastic: %w", err)
	}
	if err := c.Vision.Validate(); err != nil {
		return fmt.Errorf("vision: %w", err)
	}
	for i := range c.MCPServers {
		if err := c.MCPServers[i].Validate(); err != nil {
			return fmt.Errorf("mcp_servers[%d]: %w", i, err)
		}
	}
	return nil
}

// Load builds the configuration. .env files are loaded first (walking up
// parent directories), then the YAML file if a path is given, otherwise the
// configuration is read from environment variables alone.
func Load(path string) (*Config, error) {
	LoadEnvFiles()

	var cfg *Config
	var err error
	if path != "" {
		cfg, err = LoadFromFile(path)
	} else {
		cfg, err = LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file with environment
// variable expansion (${VAR}, ${VAR:-default}, $VAR).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand env vars on the structured form so value types survive expansion.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	expanded := ExpandEnvVarsInData(raw)

	expandedData, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to process config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandedData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv builds configuration purely from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LLM: LLMConfig{
			Provider:    os.Getenv("AI_PROVIDER"),
			MaxTokens:   getEnvInt("MAX_TOKENS", 0),
			Temperature: getEnvFloat("TEMPERATURE", 0),
		},
		Elastic: ElasticConfig{
			URL:         os.Getenv("ELASTIC_URL"),
			APIKey:      os.Getenv("ELASTIC_API_KEY"),
			Index:       os.Getenv("ELASTIC_INDEX"),
			InferenceID: os.Getenv("INFERENCE_ID"),
		},
		Vision: VisionConfig{
			Provider:    os.Getenv("VISION_PROVIDER"),
			BaseURL:     os.Getenv("VISION_BASE_URL"),
			APIKey:      os.Getenv("VISION_API_KEY"),
			Model:       os.Getenv("VISION_MODEL"),
			MaxTokens:   getEnvInt("VISION_MAX_TOKENS", 0),
			Temperature: getEnvFloat("VISION_TEMPERATURE", 0),
		},
		Agent: AgentConfig{
			SystemPrompt: os.Getenv("SYSTEM_PROMPT"),
			MaxTurns:     getEnvInt("MAX_TURNS", 0),
		},
		Logger: LoggerConfig{
			Level:  os.Getenv("LOG_LEVEL"),
			File:   os.Getenv("LOG_FILE"),
			Format: os.Getenv("LOG_FORMAT"),
		},
	}

	// Provider-specific credentials follow the conventional variable names.
	switch getEnv("AI_PROVIDER", "anthropic") {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.LLM.Model = os.Getenv("OPENAI_MODEL")
	default:
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		cfg.LLM.Model = os.Getenv("ANTHROPIC_MODEL")
	}

	// LMStudio keeps its historical variable names.
	if cfg.Vision.BaseURL == "" {
		cfg.Vision.BaseURL = os.Getenv("LMSTUDIO_BASE_URL")
	}
	if cfg.Vision.Model == "" && cfg.Vision.Provider != "openai" {
		cfg.Vision.Model = os.Getenv("LMSTUDIO_MODEL")
	}
	if cfg.Vision.Provider == "openai" && cfg.Vision.APIKey == "" {
		cfg.Vision.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
