package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	llmx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/prompt"
	openrouterx "github.com/tanpawarit/Chative-Marketplace-Assistant/pkg/openrouter"
)

// output is the JSON object every backend is asked to produce.
type output struct {
	Intent      string `json:"intent"`
	Category    string `json:"category,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

func (o output) toClassification() (contractx.Classification, error) {
	label := strings.TrimSpace(o.Intent)
	if label == "" {
		return contractx.Classification{}, fmt.Errorf("%w: intent label is empty", contractx.ErrSchemaViolation)
	}
	return contractx.Classification{
		Label:       label,
		Category:    strings.TrimSpace(o.Category),
		ProductName: strings.TrimSpace(o.ProductName),
	}, nil
}

// New builds the classifier selected by cfg. It returns a nil classifier and
// no error for the "none" provider; the resolver then relies on its
// deterministic rules only.
func New(ctx context.Context, cfg llmx.Config, prompts promptx.PromptSet) (contractx.IntentClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompts.Classifier) == "" {
		return nil, fmt.Errorf("%w: classifier", contractx.ErrPromptMissing)
	}

	switch cfg.ProviderName() {
	case llmx.ProviderNone:
		return nil, nil
	case llmx.ProviderOpenRouter:
		chatModel, err := cfg.OpenRouter().NewChatModel(ctx)
		if err != nil {
			return nil, err
		}
		c, err := NewStructured(ctx, chatModel, prompts.Classifier)
		if err != nil {
			return nil, err
		}
		return c, nil
	case llmx.ProviderOpenAI:
		client := openrouterx.NewClient(cfg.OpenRouter())
		if client == nil {
			return nil, fmt.Errorf("%w: openai client requires an api key", contractx.ErrValidation)
		}
		c, err := NewOpenAI(client, OpenAIOptions{
			Model:        cfg.ClassifierModelName(),
			Temperature:  cfg.ClassifierTemp(),
			MaxTokens:    cfg.MaxCompletionToken,
			SystemPrompt: prompts.Classifier,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case llmx.ProviderGemini:
		c, err := NewGemini(ctx, cfg.GeminiAPIKey, GeminiOptions{
			Model:        cfg.GeminiModel,
			Temperature:  cfg.ClassifierTemp(),
			SystemPrompt: prompts.Classifier,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, cfg.Provider)
	}
}

// decode parses a model reply that should hold a single JSON object.
func decode(content string) (contractx.Classification, error) {
	raw := extractJSON(content)
	if raw == "" {
		return contractx.Classification{}, fmt.Errorf("%w: no json object in reply", contractx.ErrSchemaViolation)
	}
	var out output
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	return out.toClassification()
}

// extractJSON strips markdown fences and any prose around the outermost object.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func unavailable(backend string, err error) error {
	return fmt.Errorf("%w: %s: %w", contractx.ErrClassifierUnavailable, backend, err)
}
