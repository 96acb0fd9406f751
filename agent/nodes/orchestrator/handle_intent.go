package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

type DialogEngine interface {
	Handle(ctx context.Context, st *statex.SessionState, in contractx.Intent) (*statex.SessionState, contractx.Response)
}

func HandleIntent(
	ctx context.Context,
	in *GraphState,
	engine DialogEngine,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	next, resp := engine.Handle(ctx, in.Session, in.Intent)
	if next == nil {
		return nil, fmt.Errorf("%w: engine returned no state", contractx.ErrValidation)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("%w: engine returned empty reply", contractx.ErrValidation)
	}

	in.Next = next
	in.Response = resp
	return in, nil
}
