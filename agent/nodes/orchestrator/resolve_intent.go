package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

type IntentResolver interface {
	Resolve(ctx context.Context, utterance string, st *statex.SessionState) contractx.Intent
}

func ResolveIntent(
	ctx context.Context,
	in *GraphState,
	resolver IntentResolver,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Intent = resolver.Resolve(ctx, in.Text, in.Session)

	log.Debug().
		Str("session_id", in.SessionID).
		Str("intent", string(in.Intent.Kind)).
		Str("pending", in.Session.Pending.String()).
		Msg("intent resolved")
	return in, nil
}
