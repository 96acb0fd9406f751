package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

type OpenAIOptions struct {
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

// OpenAI calls the chat completions endpoint directly through the SDK.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

var _ contractx.IntentClassifier = (*OpenAI)(nil)

func NewOpenAI(client *openai.Client, opts OpenAIOptions) (*OpenAI, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(opts.SystemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier", contractx.ErrPromptMissing)
	}
	return &OpenAI{client: client, opts: opts}, nil
}

func (c *OpenAI) Classify(ctx context.Context, utterance string) (contractx.Classification, error) {
	if strings.TrimSpace(utterance) == "" {
		return contractx.Classification{}, fmt.Errorf("%w: utterance is required", contractx.ErrValidation)
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.opts.SystemPrompt),
			openai.UserMessage(utterance),
		},
		Temperature: openai.Float(float64(c.opts.Temperature)),
	}
	if c.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.opts.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.Classification{}, unavailable("openai", err)
	}
	if len(resp.Choices) == 0 {
		return contractx.Classification{}, unavailable("openai", fmt.Errorf("%w: no choices returned", contractx.ErrSchemaViolation))
	}

	out, err := decode(resp.Choices[0].Message.Content)
	if err != nil {
		return contractx.Classification{}, unavailable("openai", err)
	}
	return out, nil
}
