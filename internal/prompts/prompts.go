package prompts

import (
	_ "embed"
	"strconv"
	"strings"
)

//go:embed summary.md
var summaryPromptTemplate string

//go:embed system.md
var systemPrompt string

// Placeholders recognized in summary templates.
const (
	MaxLengthPlaceholder = "{max_length}"
	ContentPlaceholder   = "{content}"
)

// DefaultSummaryTemplate returns the built-in summary prompt template.
func DefaultSummaryTemplate() string {
	return strings.TrimSpace(summaryPromptTemplate)
}

// SystemPrompt returns the system message sent with every summary request.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// BuildSummaryPrompt fills template; an empty template selects the default.
// Placeholders are substituted in a single pass, so braces inside content are
// never expanded.
func BuildSummaryPrompt(template string, maxLength int, content string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultSummaryTemplate()
	}
	r := strings.NewReplacer(
		MaxLengthPlaceholder, strconv.Itoa(maxLength),
		ContentPlaceholder, content,
	)
	return r.Replace(template)
}
