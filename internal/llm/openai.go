package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OpenAIClient speaks the /chat/completions format. DeepSeek, OpenRouter and
// most self-hosted gateways accept the same request shape.
type OpenAIClient struct {
	provider  Provider
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	headers   map[string]string
	client    *http.Client
}

func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	return newOpenAICompatibleClient(ProviderOpenAI, baseURL, apiKey, model)
}

// NewDeepSeekClient returns an OpenAI-compatible client for api.deepseek.com.
func NewDeepSeekClient(baseURL, apiKey, model string) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}
	if model == "" {
		model = "deepseek-chat"
	}
	return newOpenAICompatibleClient(ProviderDeepSeek, baseURL, apiKey, model)
}

func newOpenAICompatibleClient(provider Provider, baseURL, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		provider:  provider,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxSummaryTokens,
		headers:   map[string]string{},
		client:    &http.Client{},
	}
}

type openAIChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	Stream    bool      `json:"stream"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.ChatComplete(ctx, userPrompt(prompt))
}

func (c *OpenAIClient) ChatComplete(ctx context.Context, messages []Message) (string, error) {
	req := openAIChatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	}

	var resp openAIChatResponse
	if err := postJSON(ctx, c.client, c.provider, c.baseURL+"/chat/completions", req, &resp, bearer(c.apiKey, c.headers)); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.provider)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
