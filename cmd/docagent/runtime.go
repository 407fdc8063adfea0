package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atakanozcan/docagent/agent"
	"github.com/atakanozcan/docagent/config"
	"github.com/atakanozcan/docagent/llms"
	"github.com/atakanozcan/docagent/search"
	"github.com/atakanozcan/docagent/tools"
	"github.com/atakanozcan/docagent/vision"
)

// runtime bundles everything a command needs to answer questions.
type runtime struct {
	cfg      *config.Config
	provider llms.LLMProvider
	registry *tools.Registry
	agent    *agent.Agent
}

// buildRuntime loads configuration and wires the provider, tool catalog, and
// agent. The catalog is frozen here: built-in tools first, then each
// configured MCP server in order.
func buildRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	provider, err := llms.NewProviderFromConfig(&cfg.LLM)
	if err != nil {
		return nil, err
	}
	slog.Info("LLM provider ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	registry := tools.NewRegistry()

	builtin := tools.NewLocalToolSource("builtin")

	elastic, err := search.NewElasticClient(&cfg.Elastic)
	if err != nil {
		return nil, err
	}
	if err := elastic.Ping(ctx); err != nil {
		return nil, err
	}
	if err := builtin.RegisterTool(search.NewTool(elastic, cfg.Elastic.Index, cfg.Elastic.InferenceID)); err != nil {
		return nil, err
	}

	analyzer, err := vision.NewAnalyzer(&cfg.Vision)
	if err != nil {
		return nil, err
	}
	if err := builtin.RegisterTool(vision.NewTool(analyzer)); err != nil {
		return nil, err
	}

	if err := registry.RegisterSource(ctx, builtin); err != nil {
		return nil, err
	}

	for _, serverCfg := range cfg.MCPServers {
		source, err := tools.NewMCPToolSource(serverCfg)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterSource(ctx, source); err != nil {
			return nil, fmt.Errorf("failed to register MCP server %s: %w", serverCfg.Name, err)
		}
	}

	slog.Info("Tool catalog ready", "tools", len(registry.ListTools()))

	return &runtime{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		agent:    agent.New(provider, registry, &cfg.Agent),
	}, nil
}

// Close releases the provider.
func (r *runtime) Close() {
	if err := r.provider.Close(); err != nil {
		slog.Warn("Failed to close provider", "error", err)
	}
}
