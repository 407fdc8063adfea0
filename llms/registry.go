package llms

import (
	"context"
	"fmt"
	"sync"

	"github.com/atakanozcan/docagent/config"
)

// ============================================================================
// LLM PROVIDER INTERFACE AND REGISTRY
// ============================================================================

// LLMProvider is the narrow boundary between the agent loop and a concrete
// LLM service: send the conversation plus the tool catalog, receive the next
// model action. Envelope translation is entirely the provider's concern.
type LLMProvider interface {
	// Generate performs one model call over the full conversation.
	Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (*ModelTurn, error)

	// GetModelName returns the model name
	GetModelName() string

	// GetMaxTokens returns the maximum tokens for generation
	GetMaxTokens() int

	// GetTemperature returns the temperature setting
	GetTemperature() float64

	// Close closes the provider and releases resources
	Close() error
}

// NewProviderFromConfig creates an LLM provider from configuration.
func NewProviderFromConfig(cfg *config.LLMConfig) (LLMProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("LLM config cannot be nil")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid LLM config: %w", err)
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProviderFromConfig(cfg)
	case "openai":
		return NewOpenAIProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// Registry manages named LLM provider instances.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]LLMProvider
	order     []string
}

// NewRegistry creates a new LLM registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]LLMProvider),
	}
}

// Register registers an LLM provider instance under a name.
func (r *Registry) Register(name string, provider LLMProvider) error {
	if name == "" {
		return fmt.Errorf("LLM name cannot be empty")
	}
	if provider == nil {
		return fmt.Errorf("LLM provider cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("LLM provider '%s' already registered", name)
	}

	r.providers[name] = provider
	r.order = append(r.order, name)
	return nil
}

// Get retrieves an LLM provider by name.
func (r *Registry) Get(name string) (LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("LLM provider '%s' not found", name)
	}
	return provider, nil
}

// List returns registered provider names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Close closes all registered providers, returning the first error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, name := range r.order {
		if err := r.providers[name].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
