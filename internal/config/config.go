package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ishaan812/mdsum/internal/constants"
)

const (
	DefaultSummaryLength   = 200
	DefaultRequestInterval = 3.0
	DefaultMaxWorkers      = 1
	DefaultSummaryKey      = "articleGPT"
	DefaultRequestTimeout  = 120
	DefaultMaxFileSize     = 1 << 20
)

// DefaultExtensions are the file extensions treated as Markdown.
var DefaultExtensions = []string{".md", ".markdown"}

type Config struct {
	DefaultProvider string `json:"default_provider"`
	DefaultModel    string `json:"default_model"`

	// API Keys
	OpenAIAPIKey     string `json:"openai_api_key,omitempty"`
	DeepSeekAPIKey   string `json:"deepseek_api_key,omitempty"`
	AnthropicAPIKey  string `json:"anthropic_api_key,omitempty"`
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`
	OpenRouterAPIKey string `json:"openrouter_api_key,omitempty"`

	// OpenAIBaseURL points the openai provider at any compatible endpoint.
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`

	// Bedrock config
	AWSRegion          string `json:"aws_region,omitempty"`
	AWSAccessKeyID     string `json:"aws_access_key_id,omitempty"`
	AWSSecretAccessKey string `json:"aws_secret_access_key,omitempty"`

	// Ollama config
	OllamaBaseURL string `json:"ollama_base_url,omitempty"`

	// Summaries
	SummaryLength  int    `json:"summary_length"`
	SummaryKey     string `json:"summary_key"`
	MarkShown      bool   `json:"mark_shown"`
	PromptTemplate string `json:"prompt_template,omitempty"`
	MaxInputChars  int    `json:"max_input_chars,omitempty"`
	StripMarkdown  bool   `json:"strip_markdown,omitempty"`

	// Batch processing
	RequestIntervalSeconds float64  `json:"request_interval_seconds"`
	MaxWorkers             int      `json:"max_workers"`
	RequestTimeoutSeconds  int      `json:"request_timeout_seconds"`
	MaxFileSize            int64    `json:"max_file_size"`
	Extensions             []string `json:"extensions,omitempty"`

	LogFile string `json:"log_file,omitempty"`
}

var configPath string

func init() {
	configPath = filepath.Join(GetMdsumDir(), "config.json")
}

func GetConfigPath() string {
	return configPath
}

// SetConfigPath overrides the config file location (the --config flag).
func SetConfigPath(path string) {
	if path != "" {
		configPath = path
	}
}

// GetMdsumDir returns the base mdsum directory path
func GetMdsumDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".mdsum"
	}
	return filepath.Join(homeDir, ".mdsum")
}

// GetDBPath returns the run history database path.
func GetDBPath() string {
	return filepath.Join(GetMdsumDir(), "history.db")
}

// GetLogPath returns the log file path, honoring the log_file override.
func (c *Config) GetLogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(GetMdsumDir(), "mdsum.log")
}

// Default returns a config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		DefaultProvider:        string(constants.ProviderDeepSeek),
		OllamaBaseURL:          constants.DefaultBaseURL(constants.ProviderOllama),
		AWSRegion:              constants.DefaultAWSRegion,
		SummaryLength:          DefaultSummaryLength,
		SummaryKey:             DefaultSummaryKey,
		MarkShown:              true,
		RequestIntervalSeconds: DefaultRequestInterval,
		MaxWorkers:             DefaultMaxWorkers,
		RequestTimeoutSeconds:  DefaultRequestTimeout,
		MaxFileSize:            DefaultMaxFileSize,
	}
}

func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Secrets may be written as ${VAR} references.
	for _, s := range []*string{
		&cfg.OpenAIAPIKey, &cfg.DeepSeekAPIKey, &cfg.AnthropicAPIKey,
		&cfg.GeminiAPIKey, &cfg.OpenRouterAPIKey,
		&cfg.AWSAccessKeyID, &cfg.AWSSecretAccessKey,
	} {
		*s = os.ExpandEnv(*s)
	}

	return cfg, nil
}

func (c *Config) Save() error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

var summaryKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Validate checks the settings a batch depends on.
func (c *Config) Validate() error {
	providers := make([]interface{}, 0, len(constants.Providers))
	for _, id := range constants.ProviderIDs() {
		providers = append(providers, id)
	}

	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultProvider, validation.Required, validation.In(providers...)),
		validation.Field(&c.SummaryLength, validation.Required, validation.Min(10), validation.Max(5000)),
		validation.Field(&c.SummaryKey, validation.Required, validation.Match(summaryKeyPattern)),
		validation.Field(&c.PromptTemplate, validation.By(checkPromptTemplate)),
		validation.Field(&c.MaxInputChars, validation.Min(0)),
		validation.Field(&c.RequestIntervalSeconds, validation.Min(0.0)),
		validation.Field(&c.MaxWorkers, validation.Required, validation.Min(1), validation.Max(32)),
		validation.Field(&c.RequestTimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxFileSize, validation.Required, validation.Min(int64(1))),
	)
}

func checkPromptTemplate(value interface{}) error {
	tmpl, _ := value.(string)
	if tmpl == "" {
		return nil
	}
	if !strings.Contains(tmpl, "{content}") {
		return fmt.Errorf("must contain the {content} placeholder")
	}
	return nil
}

// GetProvider returns the configured provider, normalized.
func (c *Config) GetProvider() constants.Provider {
	p, _ := constants.ParseProvider(c.DefaultProvider)
	return p
}

// GetModel returns the model for provider, falling back to its default.
func (c *Config) GetModel(provider constants.Provider) string {
	if c.DefaultModel != "" && provider == c.GetProvider() {
		return c.DefaultModel
	}
	return constants.DefaultModel(provider)
}

func (c *Config) GetAPIKey(provider string) string {
	var key string
	switch constants.Provider(provider) {
	case constants.ProviderOpenAI:
		key = c.OpenAIAPIKey
	case constants.ProviderDeepSeek:
		key = c.DeepSeekAPIKey
	case constants.ProviderAnthropic:
		key = c.AnthropicAPIKey
	case constants.ProviderGemini:
		key = c.GeminiAPIKey
	case constants.ProviderOpenRouter:
		key = c.OpenRouterAPIKey
	case constants.ProviderBedrock:
		key = c.AWSAccessKeyID
	}
	if key != "" {
		return key
	}
	if info, ok := constants.Lookup(constants.Provider(provider)); ok && info.KeyEnv != "" {
		return os.Getenv(info.KeyEnv)
	}
	return ""
}

// SetAPIKey stores key for provider.
func (c *Config) SetAPIKey(provider, key string) {
	switch constants.Provider(provider) {
	case constants.ProviderOpenAI:
		c.OpenAIAPIKey = key
	case constants.ProviderDeepSeek:
		c.DeepSeekAPIKey = key
	case constants.ProviderAnthropic:
		c.AnthropicAPIKey = key
	case constants.ProviderGemini:
		c.GeminiAPIKey = key
	case constants.ProviderOpenRouter:
		c.OpenRouterAPIKey = key
	case constants.ProviderBedrock:
		c.AWSAccessKeyID = key
	}
}

// GetAWSSecretAccessKey returns the Bedrock secret with env fallback.
func (c *Config) GetAWSSecretAccessKey() string {
	if c.AWSSecretAccessKey != "" {
		return c.AWSSecretAccessKey
	}
	return os.Getenv("AWS_SECRET_ACCESS_KEY")
}

// GetBaseURL returns the endpoint for provider.
func (c *Config) GetBaseURL(provider string) string {
	switch constants.Provider(provider) {
	case constants.ProviderOllama:
		if c.OllamaBaseURL != "" {
			return c.OllamaBaseURL
		}
	case constants.ProviderOpenAI:
		if c.OpenAIBaseURL != "" {
			return c.OpenAIBaseURL
		}
	}
	return constants.DefaultBaseURL(constants.Provider(provider))
}

// SetBaseURL overrides the endpoint for providers that allow it. It reports
// false for providers with a fixed endpoint.
func (c *Config) SetBaseURL(provider, url string) bool {
	switch constants.Provider(provider) {
	case constants.ProviderOllama:
		c.OllamaBaseURL = url
	case constants.ProviderOpenAI:
		c.OpenAIBaseURL = url
	default:
		return false
	}
	return true
}

// HasProvider reports whether provider has the credentials it needs.
func (c *Config) HasProvider(provider string) bool {
	switch constants.Provider(provider) {
	case constants.ProviderOllama:
		return true
	case constants.ProviderBedrock:
		return c.GetAPIKey(provider) != "" && c.GetAWSSecretAccessKey() != ""
	default:
		return c.GetAPIKey(provider) != ""
	}
}

// RequestInterval returns the minimum spacing between API requests.
func (c *Config) RequestInterval() time.Duration {
	return time.Duration(c.RequestIntervalSeconds * float64(time.Second))
}

// RequestTimeout returns the per-request deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// GetExtensions returns the configured Markdown extensions.
func (c *Config) GetExtensions() []string {
	if len(c.Extensions) == 0 {
		return DefaultExtensions
	}
	return c.Extensions
}
