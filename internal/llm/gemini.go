package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiClient talks to the Gemini API through the genai SDK.
type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string

	once    sync.Once
	client  *genai.Client
	initErr error
}

func NewGeminiClient(baseURL, apiKey, model string) *GeminiClient {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{baseURL: baseURL, apiKey: apiKey, model: model}
}

// sdk builds the SDK client on first use. Workers share one client.
func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		cc := &genai.ClientConfig{Backend: genai.BackendGeminiAPI, APIKey: c.apiKey}
		if c.baseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
		}
		c.client, c.initErr = genai.NewClient(ctx, cc)
		if c.initErr != nil {
			c.initErr = fmt.Errorf("failed to create gemini client: %w", c.initErr)
		}
	})
	return c.client, c.initErr
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.ChatComplete(ctx, userPrompt(prompt))
}

func (c *GeminiClient) ChatComplete(ctx context.Context, messages []Message) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}

	system, rest := splitSystem(messages)
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: maxSummaryTokens}
	if system != "" {
		cfg.SystemInstruction = textContent("", system)
	}

	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, textContent(role, m.Content))
	}
	if len(contents) == 0 {
		return "", errors.New("no user or assistant messages to send")
	}

	result, err := client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &APIError{Provider: ProviderGemini, StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	out := strings.TrimSpace(result.Text())
	if out == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return out, nil
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{genai.NewPartFromText(text)}}
}
