package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

func ValidateAndSaveState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil || in.Next == nil {
		return nil, fmt.Errorf("%w: graph next state is nil", contractx.ErrValidation)
	}

	in.Next.Touch(in.Now)
	if err := in.Next.Validate(); err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Next); err != nil {
		return nil, err
	}

	return in, nil
}
