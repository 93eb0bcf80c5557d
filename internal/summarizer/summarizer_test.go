package summarizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/mdsum/internal/llm"
)

type fakeClient struct {
	reply    string
	err      error
	calls    int
	messages []llm.Message
	deadline bool
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.ChatComplete(ctx, []llm.Message{{Role: "user", Content: prompt}})
}

func (f *fakeClient) ChatComplete(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls++
	f.messages = messages
	_, f.deadline = ctx.Deadline()
	return f.reply, f.err
}

func TestSummarize(t *testing.T) {
	fc := &fakeClient{reply: "  A compact\n\nsummary.  "}
	s := New(fc, WithTimeout(5*time.Second))

	out, err := s.Summarize(context.Background(), "Hello world", 200)
	require.NoError(t, err)
	assert.Equal(t, "A compact summary.", out)
	assert.Equal(t, 1, fc.calls)
	assert.True(t, fc.deadline)

	require.Len(t, fc.messages, 2)
	assert.Equal(t, "system", fc.messages[0].Role)
	assert.Contains(t, fc.messages[1].Content, "Hello world")
	assert.Contains(t, fc.messages[1].Content, "200")
}

func TestSummarizeCustomTemplate(t *testing.T) {
	fc := &fakeClient{reply: "ok"}
	s := New(fc, WithTemplate("<= {max_length}: {content}"))

	_, err := s.Summarize(context.Background(), "body", 50)
	require.NoError(t, err)
	assert.Equal(t, "<= 50: body", fc.messages[1].Content)
}

func TestSummarizeEmptyReply(t *testing.T) {
	s := New(&fakeClient{reply: " \n\"\" "})
	_, err := s.Summarize(context.Background(), "x", 10)
	assert.ErrorIs(t, err, ErrEmptySummary)
}

func TestSummarizeProviderError(t *testing.T) {
	apiErr := &llm.APIError{Provider: llm.ProviderOpenAI, StatusCode: 429}
	s := New(&fakeClient{err: apiErr})

	_, err := s.Summarize(context.Background(), "x", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apiErr))
	assert.True(t, llm.IsTransient(err))
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"\"quoted summary\"", "quoted summary"},
		{"“curly”", "curly"},
		{"```\nfenced text\n```", "fenced text"},
		{"```text\nfenced with tag\n```", "fenced with tag"},
		{"line one\nline two\ttabbed", "line one line two tabbed"},
		{"\"unbalanced", "\"unbalanced"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), "input %q", tt.in)
	}
}
