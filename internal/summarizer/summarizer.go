// Package summarizer turns document text into a single-line summary using
// an LLM client.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ishaan812/mdsum/internal/llm"
	"github.com/ishaan812/mdsum/internal/prompts"
)

// ErrEmptySummary is returned when the provider reply has no usable text.
var ErrEmptySummary = errors.New("provider returned an empty summary")

const defaultTimeout = 120 * time.Second

// Summarizer generates summaries for Markdown documents.
type Summarizer struct {
	client   llm.Client
	template string
	timeout  time.Duration
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithTemplate sets the user prompt template. It may use the {max_length}
// and {content} placeholders; empty selects the built-in template.
func WithTemplate(tmpl string) Option {
	return func(s *Summarizer) { s.template = tmpl }
}

// WithTimeout bounds each provider request.
func WithTimeout(d time.Duration) Option {
	return func(s *Summarizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a new summarizer.
func New(client llm.Client, opts ...Option) *Summarizer {
	s := &Summarizer{client: client, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Messages builds the chat request for content.
func (s *Summarizer) Messages(content string, maxLength int) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: prompts.SystemPrompt()},
		{Role: "user", Content: prompts.BuildSummaryPrompt(s.template, maxLength, content)},
	}
}

// Summarize makes exactly one provider request and returns the cleaned reply.
func (s *Summarizer) Summarize(ctx context.Context, content string, maxLength int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.client.ChatComplete(ctx, s.Messages(content, maxLength))
	if err != nil {
		return "", fmt.Errorf("summary request failed: %w", err)
	}

	summary := Clean(response)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"},
	{"「", "」"},
	{"`", "`"},
}

// Clean normalizes a provider reply into one line of plain text: code
// fences and wrapping quotes are removed and whitespace runs collapse to a
// single space.
func Clean(response string) string {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], " \t") {
			s = s[i+1:] // language tag
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	s = strings.Join(strings.Fields(s), " ")

	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
			break
		}
	}
	return s
}
