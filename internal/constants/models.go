package constants

// DefaultAWSRegion is used for Bedrock when no region is configured.
const DefaultAWSRegion = "us-east-1"

// Model is a selectable model shown in menus.
type Model struct {
	Name string
	Note string
}

// catalog holds per-provider endpoints and model choices. The first choice
// is the provider's default model.
type catalog struct {
	baseURL string
	models  []Model
}

var catalogs = map[Provider]catalog{
	ProviderDeepSeek: {
		baseURL: "https://api.deepseek.com",
		models: []Model{
			{"deepseek-chat", "DeepSeek V3 chat"},
			{"deepseek-reasoner", "DeepSeek R1, slower"},
		},
	},
	ProviderOpenAI: {
		baseURL: "https://api.openai.com/v1",
		models: []Model{
			{"gpt-4o-mini", "cheap and fast"},
			{"gpt-4.1-mini", "newer small model"},
			{"gpt-4o", "higher quality"},
		},
	},
	ProviderAnthropic: {
		baseURL: "https://api.anthropic.com/v1",
		models: []Model{
			{"claude-haiku-4-5-20251001", "Claude Haiku 4.5"},
			{"claude-sonnet-4-5-20250929", "Claude Sonnet 4.5"},
		},
	},
	ProviderGemini: {
		models: []Model{
			{"gemini-2.5-flash", "Gemini 2.5 Flash"},
			{"gemini-2.5-flash-lite", "cheapest"},
			{"gemini-2.5-pro", "Gemini 2.5 Pro"},
		},
	},
	ProviderOllama: {
		baseURL: "http://localhost:11434",
		models: []Model{
			{"llama3.1", "Meta Llama 3.1 8B"},
			{"qwen3", "Qwen3"},
			{"gemma3", "Gemma 3"},
			{"llama3.2", "Meta Llama 3.2, lightweight"},
		},
	},
	ProviderOpenRouter: {
		baseURL: "https://openrouter.ai/api/v1",
		models: []Model{
			{"openrouter/free", "routes to a free model"},
			{"google/gemini-2.5-flash:free", "Gemini 2.5 Flash, free tier"},
			{"meta-llama/llama-3.3-70b-instruct:free", "Llama 3.3 70B, free tier"},
			{"deepseek/deepseek-v3.2", "DeepSeek V3.2"},
		},
	},
	ProviderBedrock: {
		models: []Model{
			{"anthropic.claude-haiku-4-5-20251001-v1:0", "Claude Haiku 4.5"},
			{"anthropic.claude-sonnet-4-5-20250929-v1:0", "Claude Sonnet 4.5"},
		},
	},
}

// Models returns the menu choices for p, default first.
func Models(p Provider) []Model {
	return catalogs[p].models
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	if models := catalogs[p].models; len(models) > 0 {
		return models[0].Name
	}
	return ""
}

// DefaultBaseURL returns the provider's public endpoint, or "" when the
// client library picks it.
func DefaultBaseURL(p Provider) string {
	return catalogs[p].baseURL
}
