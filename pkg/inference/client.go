package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const providerClient = "client"

// Client is the standard HTTP-based inference provider.
// Works with any OpenAI-compatible API (OpenAI, Ollama, vLLM, Together,
// Groq, etc.) and with Azure OpenAI deployments when configured via
// WithAzure.
type Client struct {
	baseURL string
	apiKey  string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new inference client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.AzureEndpoint != "" {
		baseURL = strings.TrimSuffix(cfg.AzureEndpoint, "/")
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "inference.client"),
	}, nil
}

// Chat generates a chat completion.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	payload := c.buildChatPayload(req, model)

	resp, err := c.post(ctx, c.chatPath(model), payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerClient, fmt.Errorf("decode response: %w", err))
	}

	if len(result.Choices) == 0 {
		return nil, WrapError(providerClient, fmt.Errorf("no choices returned"))
	}

	choice := result.Choices[0]

	return &ChatResponse{
		Message: Message{
			Role:    RoleAssistant,
			Content: choice.Message.Content,
		},
		FinishReason: choice.FinishReason,
		Usage: Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
		Model:     result.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Health checks API connectivity.
func (c *Client) Health(ctx context.Context) error {
	path := "/models"
	if c.azure() {
		path = "/openai/models?api-version=" + url.QueryEscape(c.config.AzureAPIVersion)
	}
	resp, err := c.get(ctx, path)
	if err != nil {
		return WrapError(providerClient, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) azure() bool {
	return c.config.AzureEndpoint != ""
}

// chatPath returns the request path for a chat completion. Azure routes
// through the deployment named by the model.
func (c *Client) chatPath(model string) string {
	if c.azure() {
		return fmt.Sprintf("/openai/deployments/%s/chat/completions?api-version=%s",
			url.PathEscape(model), url.QueryEscape(c.config.AzureAPIVersion))
	}
	return "/chat/completions"
}

// buildChatPayload constructs the API request payload.
func (c *Client) buildChatPayload(req *ChatRequest, model string) map[string]interface{} {
	messages := make([]map[string]interface{}, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = map[string]interface{}{
			"role":    string(msg.Role),
			"content": msg.Content,
		}
	}

	payload := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}
	if maxTokens > 0 {
		payload["max_tokens"] = maxTokens
	}

	temp := req.Temperature
	if temp == 0 {
		temp = c.config.Temperature
	}
	if temp > 0 {
		payload["temperature"] = temp
	}

	if req.TopP > 0 {
		payload["top_p"] = req.TopP
	}

	if len(req.Stop) > 0 {
		payload["stop"] = req.Stop
	}

	return payload
}

// post makes a POST request.
func (c *Client) post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerClient, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerClient, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	return c.doWithRetry(ctx, req, body)
}

// get makes a GET request.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, WrapError(providerClient, fmt.Errorf("create request: %w", err))
	}

	c.setAuth(req)

	return c.http.Do(req)
}

// setAuth sets the provider's auth header. Azure uses api-key instead of a
// bearer token.
func (c *Client) setAuth(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	if c.azure() {
		req.Header.Set("api-key", c.apiKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// doWithRetry performs the request with retry logic.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			// Reset body for retry
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = WrapError(providerClient, err)
			c.logger.Warn("request failed, retrying",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		// Check if retryable
		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = c.parseError(resp)
			resp.Body.Close()
			c.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	// Try to parse OpenAI-style error
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerClient,
	}
}

// API response types
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Verify Client implements Provider at compile time.
var _ Provider = (*Client)(nil)
