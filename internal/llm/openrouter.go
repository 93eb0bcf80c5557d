package llm

// NewOpenRouterClient returns an OpenAI-compatible client with the
// attribution headers OpenRouter asks callers to send.
func NewOpenRouterClient(baseURL, apiKey, model string) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	c := newOpenAICompatibleClient(ProviderOpenRouter, baseURL, apiKey, model)
	c.headers["HTTP-Referer"] = "https://github.com/ishaan812/mdsum"
	c.headers["X-Title"] = "mdsum"
	return c
}
