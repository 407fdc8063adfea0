package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/atakanozcan/docagent/config"
	"github.com/atakanozcan/docagent/internal/httpclient"
)

// ============================================================================
// SEARCH EXECUTION
// ============================================================================

// Executor runs a structured query against a search backend. The query
// builder only depends on this boundary, so any engine that executes a
// boolean/nested/vector query and returns scored hits can sit behind it.
type Executor interface {
	Search(ctx context.Context, index string, query map[string]interface{}) (*Response, error)
}

// ElasticClient executes queries against an Elasticsearch cluster over its
// REST API with API-key authentication.
type ElasticClient struct {
	url    string
	apiKey string
	client *httpclient.Client
}

// NewElasticClient creates a client from configuration.
func NewElasticClient(cfg *config.ElasticConfig) (*ElasticClient, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("elastic url and api key are required")
	}

	return &ElasticClient{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
			httpclient.WithMaxRetries(2),
			httpclient.WithRetryStrategy(func(statusCode int) httpclient.RetryStrategy {
				if statusCode >= 500 {
					return httpclient.ConservativeRetry
				}
				return httpclient.NoRetry
			}),
		),
	}, nil
}

// Ping verifies the cluster is reachable with the configured credentials.
func (c *ElasticClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil && resp == nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Elasticsearch ping failed with status %d", resp.StatusCode)
	}

	slog.Info("Connected to Elasticsearch", "url", c.url)
	return nil
}

// Search executes a query against an index and decodes the scored hits.
func (c *ElasticClient) Search(ctx context.Context, index string, query map[string]interface{}) (*Response, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/_search", c.url, index), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil && resp == nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var response Response
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}
