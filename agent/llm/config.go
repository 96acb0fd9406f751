package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Marketplace-Assistant/pkg/openrouter"
)

type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
	ProviderNone       Provider = "none"
)

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"256"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	MaxRetries         int           `envconfig:"MAX_RETRIES" split_words:"true" default:"1"`

	ClassifierModel       string  `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	ClassifierTemperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" split_words:"true" default:"-1"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" split_words:"true"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" split_words:"true" default:"gemini-2.0-flash"`
}

func (c Config) ProviderName() Provider {
	p := Provider(strings.ToLower(strings.TrimSpace(c.Provider)))
	if p == "" {
		return ProviderOpenRouter
	}
	return p
}

func (c Config) Validate() error {
	switch c.ProviderName() {
	case ProviderNone:
		return nil
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return fmt.Errorf("%w: gemini api key is required", contractx.ErrValidation)
		}
		return nil
	case ProviderOpenRouter, ProviderOpenAI:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
		}
		if strings.TrimSpace(c.ClassifierModelName()) == "" {
			return fmt.Errorf("%w: llm model is required", contractx.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, c.Provider)
	}
}

// ClassifierModelName prefers the classifier override over the default model.
func (c Config) ClassifierModelName() string {
	if v := strings.TrimSpace(c.ClassifierModel); v != "" {
		return v
	}
	return strings.TrimSpace(c.Model)
}

func (c Config) ClassifierTemp() float32 {
	if c.ClassifierTemperature >= 0 {
		return c.ClassifierTemperature
	}
	return c.Temperature
}

func (c Config) OpenRouter() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              c.ClassifierModelName(),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.ClassifierTemp(),
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
		MaxRetries:         c.MaxRetries,
	}
}
