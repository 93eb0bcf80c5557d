package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSummaryPromptDefault(t *testing.T) {
	p := BuildSummaryPrompt("", 150, "Hello world")
	assert.Contains(t, p, "150 characters")
	assert.Contains(t, p, "Hello world")
	assert.NotContains(t, p, MaxLengthPlaceholder)
	assert.NotContains(t, p, ContentPlaceholder)
}

func TestBuildSummaryPromptCustomTemplate(t *testing.T) {
	p := BuildSummaryPrompt("Max {max_length}: {content}", 80, "body")
	assert.Equal(t, "Max 80: body", p)
}

func TestBuildSummaryPromptDoesNotExpandContent(t *testing.T) {
	p := BuildSummaryPrompt("{content}", 10, "literal {max_length} in body")
	assert.Equal(t, "literal {max_length} in body", p)
}

func TestSystemPrompt(t *testing.T) {
	assert.Contains(t, SystemPrompt(), "plain-text")
}
