// Package vision analyzes images with an OpenAI-compatible vision model.
// Both LM Studio and OpenAI speak the same chat-completions surface, so one
// analyzer covers both; only the base URL and auth differ.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/atakanozcan/docagent/config"
	"github.com/atakanozcan/docagent/internal/httpclient"
)

// ============================================================================
// VISION ANALYZER
// ============================================================================

// Analyzer sends images plus a question to a vision model and returns its
// textual answer.
type Analyzer struct {
	config *config.VisionConfig
	client *httpclient.Client
}

// chatRequest is the OpenAI-compatible chat completions payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// contentPart is one element of a multimodal message: either text or an
// image reference.
type contentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewAnalyzer creates an analyzer from configuration.
func NewAnalyzer(cfg *config.VisionConfig) (*Analyzer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vision config: %w", err)
	}

	return &Analyzer{
		config: cfg,
		client: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}),
			httpclient.WithMaxRetries(2),
		),
	}, nil
}

// Analyze sends the images and question to the vision model. Image entries
// may be URLs, passed through as-is, or local file paths, inlined as base64
// data URLs.
func (a *Analyzer) Analyze(ctx context.Context, images []string, question string, maxTokens int, temperature float64) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("at least one image is required")
	}
	if question == "" {
		return "", fmt.Errorf("question is required")
	}

	if maxTokens <= 0 {
		maxTokens = a.config.MaxTokens
	}
	if temperature <= 0 {
		temperature = a.config.Temperature
	}

	content, err := buildContent(images, question)
	if err != nil {
		return "", err
	}

	request := chatRequest{
		Model:       a.config.Model,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	return a.makeRequest(ctx, request)
}

// buildContent assembles the multimodal content array: every image first, in
// caller order, then the question text.
func buildContent(images []string, question string) ([]contentPart, error) {
	content := make([]contentPart, 0, len(images)+1)

	for _, image := range images {
		if isURL(image) {
			content = append(content, contentPart{
				Type:     "image_url",
				ImageURL: &imageURL{URL: image},
			})
			continue
		}

		data, err := os.ReadFile(image)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("image file not found: %s", image)
			}
			return nil, fmt.Errorf("failed to read image %s: %w", image, err)
		}

		encoded := base64.StdEncoding.EncodeToString(data)
		content = append(content, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: fmt.Sprintf("data:image/%s;base64,%s", imageFormat(image), encoded),
			},
		})
	}

	content = append(content, contentPart{Type: "text", Text: question})
	return content, nil
}

// isURL reports whether the path is a fetchable URL rather than a local file.
func isURL(path string) bool {
	parsed, err := url.Parse(path)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

// imageFormat maps a file extension to the MIME subtype used in the data
// URL. Unknown extensions fall back to jpeg.
func imageFormat(path string) string {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg", ".JPG", ".JPEG":
		return "jpeg"
	case ".png", ".PNG":
		return "png"
	case ".gif", ".GIF":
		return "gif"
	case ".webp", ".WEBP":
		return "webp"
	default:
		return "jpeg"
	}
}

// makeRequest posts the chat completion and extracts the answer text.
func (a *Analyzer) makeRequest(ctx context.Context, request chatRequest) (string, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if a.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil && resp == nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("unexpected response format from vision API: %s", string(body))
	}

	return response.Choices[0].Message.Content, nil
}
