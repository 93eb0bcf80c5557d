package llm

import (
	"context"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

type AnthropicClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewAnthropicClient(baseURL, apiKey, model string) *AnthropicClient {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}
	return &AnthropicClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{},
	}
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
	System    string    `json:"system,omitempty"`
}

type anthropicResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.ChatComplete(ctx, userPrompt(prompt))
}

func (c *AnthropicClient) ChatComplete(ctx context.Context, messages []Message) (string, error) {
	system, rest := splitSystem(messages)
	req := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxSummaryTokens,
		Messages:  rest,
		System:    system,
	}

	var resp anthropicResponse
	err := postJSON(ctx, c.client, ProviderAnthropic, c.baseURL+"/messages", req, &resp,
		func(r *http.Request, _ []byte) error {
			r.Header.Set("x-api-key", c.apiKey)
			r.Header.Set("anthropic-version", anthropicVersion)
			return nil
		})
	if err != nil {
		return "", err
	}
	return joinText(resp.Content)
}
