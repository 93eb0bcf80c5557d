package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxSummaryTokens caps provider output. Summaries are a few sentences, so
// this only guards against runaway responses.
const maxSummaryTokens = 1024

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// prepareFunc sets auth headers (or signs) once the payload is known.
type prepareFunc func(req *http.Request, payload []byte) error

// postJSON sends body to url and decodes a 200 response into out. Any other
// status becomes an *APIError carrying the provider's message.
func postJSON(ctx context.Context, hc *http.Client, provider Provider, url string, body, out any, prepare prepareFunc) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if prepare != nil {
		if err := prepare(req, payload); err != nil {
			return err
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return newAPIError(provider, resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", provider, err)
	}
	return nil
}

func bearer(key string, extra map[string]string) prepareFunc {
	return func(req *http.Request, _ []byte) error {
		if key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
		for k, v := range extra {
			req.Header.Set(k, v)
		}
		return nil
	}
}

// splitSystem pulls system messages out for APIs that take them separately.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

func userPrompt(prompt string) []Message {
	return []Message{{Role: "user", Content: prompt}}
}

// contentBlock is the Anthropic-style response part used by both the
// Anthropic API and Claude models on Bedrock.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func joinText(blocks []contentBlock) (string, error) {
	var text strings.Builder
	for _, b := range blocks {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("no text content in response")
	}
	return out, nil
}
