package classifier

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

type GeminiOptions struct {
	Model        string
	Temperature  float32
	SystemPrompt string
}

// contentGenerator is the slice of *genai.Models the classifier uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini classifies with Google's Gemini API using JSON response mode.
type Gemini struct {
	models contentGenerator
	opts   GeminiOptions
}

var _ contractx.IntentClassifier = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey string, opts GeminiOptions) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", contractx.ErrValidation)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGemini(client.Models, opts)
}

func newGemini(models contentGenerator, opts GeminiOptions) (*Gemini, error) {
	if strings.TrimSpace(opts.SystemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier", contractx.ErrPromptMissing)
	}
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = defaultGeminiModel
	}
	return &Gemini{models: models, opts: opts}, nil
}

func (g *Gemini) Classify(ctx context.Context, utterance string) (contractx.Classification, error) {
	if strings.TrimSpace(utterance) == "" {
		return contractx.Classification{}, fmt.Errorf("%w: utterance is required", contractx.ErrValidation)
	}

	resp, err := g.models.GenerateContent(ctx, g.opts.Model, genai.Text(utterance), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.opts.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.opts.Temperature),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return contractx.Classification{}, unavailable("gemini", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return contractx.Classification{}, unavailable("gemini", fmt.Errorf("%w: no candidates returned", contractx.ErrSchemaViolation))
	}

	out, err := decode(resp.Text())
	if err != nil {
		return contractx.Classification{}, unavailable("gemini", err)
	}
	return out, nil
}
