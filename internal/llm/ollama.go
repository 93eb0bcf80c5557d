package llm

import (
	"context"
	"net/http"
	"strings"
)

// OllamaClient talks to a local Ollama server through /api/chat.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.ChatComplete(ctx, userPrompt(prompt))
}

func (c *OllamaClient) ChatComplete(ctx context.Context, messages []Message) (string, error) {
	req := ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Options:  ollamaOptions{NumPredict: maxSummaryTokens},
	}

	var resp ollamaChatResponse
	if err := postJSON(ctx, c.client, ProviderOllama, c.baseURL+"/api/chat", req, &resp, nil); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &APIError{Provider: ProviderOllama, StatusCode: http.StatusOK, Message: resp.Error}
	}
	return strings.TrimSpace(resp.Message.Content), nil
}
