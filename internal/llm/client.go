// Package llm holds the chat clients for every supported provider behind a
// single Client interface.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/ishaan812/mdsum/internal/constants"
)

// Message is one chat turn. Role is "system", "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client sends a prompt or a conversation and returns the reply text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ChatComplete(ctx context.Context, messages []Message) (string, error)
}

type Provider = constants.Provider

const (
	ProviderOllama     = constants.ProviderOllama
	ProviderOpenAI     = constants.ProviderOpenAI
	ProviderDeepSeek   = constants.ProviderDeepSeek
	ProviderAnthropic  = constants.ProviderAnthropic
	ProviderBedrock    = constants.ProviderBedrock
	ProviderOpenRouter = constants.ProviderOpenRouter
	ProviderGemini     = constants.ProviderGemini
)

// ErrMissingCredentials is returned by NewClient when a provider needs a key
// that was not configured.
var ErrMissingCredentials = errors.New("missing credentials")

// Config selects a provider and carries what its client needs.
type Config struct {
	Provider Provider
	Model    string
	BaseURL  string
	APIKey   string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// DefaultConfig returns the built-in model and endpoint for provider.
func DefaultConfig(provider Provider) Config {
	cfg := Config{
		Provider: provider,
		Model:    constants.DefaultModel(provider),
		BaseURL:  constants.DefaultBaseURL(provider),
	}
	if provider == ProviderBedrock {
		cfg.AWSRegion = constants.DefaultAWSRegion
	}
	return cfg
}

// Option adjusts a Config before the client is built. Empty values leave the
// field alone so callers can pass optional flags straight through.
type Option func(*Config)

func WithModel(model string) Option {
	return func(c *Config) { setIfNotEmpty(&c.Model, model) }
}

func WithBaseURL(url string) Option {
	return func(c *Config) { setIfNotEmpty(&c.BaseURL, url) }
}

func WithAPIKey(key string) Option {
	return func(c *Config) { setIfNotEmpty(&c.APIKey, key) }
}

// WithAWSCredentials sets the Bedrock access key pair and region.
func WithAWSCredentials(accessKeyID, secretAccessKey, region string) Option {
	return func(c *Config) {
		c.AWSAccessKeyID = accessKeyID
		c.AWSSecretAccessKey = secretAccessKey
		setIfNotEmpty(&c.AWSRegion, region)
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// builder constructs a client from a Config that already has a model and
// base URL filled in.
type builder func(cfg Config) (Client, error)

var builders = map[Provider]builder{
	ProviderOllama: func(cfg Config) (Client, error) {
		return NewOllamaClient(cfg.BaseURL, cfg.Model), nil
	},
	ProviderOpenAI: keyed("OpenAI", func(cfg Config) Client {
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	}),
	ProviderDeepSeek: keyed("DeepSeek", func(cfg Config) Client {
		return NewDeepSeekClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	}),
	ProviderAnthropic: keyed("Anthropic", func(cfg Config) Client {
		return NewAnthropicClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	}),
	ProviderOpenRouter: keyed("OpenRouter", func(cfg Config) Client {
		return NewOpenRouterClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	}),
	ProviderGemini: keyed("Gemini", func(cfg Config) Client {
		return NewGeminiClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	}),
	ProviderBedrock: func(cfg Config) (Client, error) {
		if cfg.AWSAccessKeyID == "" || cfg.AWSSecretAccessKey == "" {
			return nil, fmt.Errorf("%w: Bedrock needs an AWS access key ID and secret", ErrMissingCredentials)
		}
		if cfg.AWSRegion == "" {
			return nil, errors.New("bedrock needs an AWS region")
		}
		return NewBedrockClient(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSRegion, cfg.Model), nil
	},
}

// keyed wraps a constructor for providers that authenticate with one API key.
func keyed(name string, build func(Config) Client) builder {
	return func(cfg Config) (Client, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: %s API key is required", ErrMissingCredentials, name)
		}
		return build(cfg), nil
	}
}

// NewClient applies opts to cfg and builds the provider's client. Missing
// credentials are reported here, before any request is made.
func NewClient(cfg Config, opts ...Option) (Client, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	build, ok := builders[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultModel(cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("no model configured for %s; run 'mdsum models set'", cfg.Provider)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultBaseURL(cfg.Provider)
	}
	return build(cfg)
}
