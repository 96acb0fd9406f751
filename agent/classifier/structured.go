package classifier

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

// Structured classifies through an eino graph around any eino chat model.
type Structured struct {
	runner       compose.Runnable[map[string]any, output]
	systemPrompt string
}

var _ contractx.IntentClassifier = (*Structured)(nil)

func NewStructured(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Structured, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier", contractx.ErrPromptMissing)
	}
	runner, err := compileStructuredGraph[output](ctx, chatModel, "classifier.structured_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Structured{runner: runner, systemPrompt: systemPrompt}, nil
}

func (s *Structured) Classify(ctx context.Context, utterance string) (contractx.Classification, error) {
	if strings.TrimSpace(utterance) == "" {
		return contractx.Classification{}, fmt.Errorf("%w: utterance is required", contractx.ErrValidation)
	}

	out, err := s.runner.Invoke(ctx, map[string]any{
		"system": s.systemPrompt,
		"input":  utterance,
	})
	if err != nil {
		return contractx.Classification{}, unavailable("structured", err)
	}

	c, err := out.toClassification()
	if err != nil {
		return contractx.Classification{}, unavailable("structured", err)
	}
	return c, nil
}
