package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

// LoadState never creates state: a session only exists once its location
// code has been accepted.
func LoadState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := store.Load(ctx, in.SessionID)
	if errors.Is(err, statex.ErrStateNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotStarted, in.SessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}

	in.Session = st
	return in, nil
}
