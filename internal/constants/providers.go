package constants

import "strings"

// Provider names an LLM backend.
type Provider string

const (
	ProviderOllama     Provider = "ollama"
	ProviderOpenAI     Provider = "openai"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenRouter Provider = "openrouter"
	ProviderBedrock    Provider = "bedrock"
	ProviderGemini     Provider = "gemini"
)

// ProviderInfo describes a provider for menus and credential lookup.
type ProviderInfo struct {
	ID          Provider
	Label       string
	Description string
	// KeyEnv is consulted when no key is configured. For Bedrock it holds
	// the access key ID.
	KeyEnv    string
	KeyPrefix string
	KeyURL    string
	// Local providers run on this machine and take no API key.
	Local bool
}

// NeedsAPIKey reports whether requests must carry a credential.
func (i ProviderInfo) NeedsAPIKey() bool {
	return !i.Local
}

// Providers lists the supported backends in menu order. The first entry is
// the default.
var Providers = []ProviderInfo{
	{
		ID: ProviderDeepSeek, Label: "DeepSeek",
		Description: "deepseek-chat, cheap and fast",
		KeyEnv:      "DEEPSEEK_API_KEY", KeyPrefix: "sk-",
		KeyURL: "https://platform.deepseek.com/api_keys",
	},
	{
		ID: ProviderOpenAI, Label: "OpenAI",
		Description: "GPT-4o mini or any OpenAI-compatible endpoint",
		KeyEnv:      "OPENAI_API_KEY", KeyPrefix: "sk-",
		KeyURL: "https://platform.openai.com/api-keys",
	},
	{
		ID: ProviderAnthropic, Label: "Anthropic",
		Description: "Claude Haiku and Sonnet",
		KeyEnv:      "ANTHROPIC_API_KEY", KeyPrefix: "sk-ant-",
		KeyURL: "https://console.anthropic.com/",
	},
	{
		ID: ProviderGemini, Label: "Gemini",
		Description: "Google Gemini Flash and Pro",
		KeyEnv:      "GEMINI_API_KEY", KeyPrefix: "AI",
		KeyURL: "https://aistudio.google.com/apikey",
	},
	{
		ID: ProviderOllama, Label: "Ollama",
		Description: "local models, nothing leaves the machine",
		Local:       true,
	},
	{
		ID: ProviderOpenRouter, Label: "OpenRouter",
		Description: "one key for many hosted models",
		KeyEnv:      "OPENROUTER_API_KEY", KeyPrefix: "sk-or-",
		KeyURL: "https://openrouter.ai/keys",
	},
	{
		ID: ProviderBedrock, Label: "Bedrock",
		Description: "Claude through AWS with IAM credentials",
		KeyEnv:      "AWS_ACCESS_KEY_ID",
	},
}

// Lookup returns the table entry for p.
func Lookup(p Provider) (ProviderInfo, bool) {
	for _, info := range Providers {
		if info.ID == p {
			return info, true
		}
	}
	return ProviderInfo{}, false
}

// ParseProvider normalizes user input such as "DeepSeek" to a Provider.
func ParseProvider(s string) (Provider, bool) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	_, ok := Lookup(p)
	return p, ok
}

// ProviderIDs returns every provider name in menu order.
func ProviderIDs() []string {
	ids := make([]string, len(Providers))
	for i, info := range Providers {
		ids[i] = string(info.ID)
	}
	return ids
}
