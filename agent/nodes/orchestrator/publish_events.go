package orchestratornode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

// PublishEvents forwards the turn's cart events. A failed publish is logged
// and never changes the reply. A nil publisher disables the step.
func PublishEvents(
	ctx context.Context,
	in *GraphState,
	publisher contractx.EventPublisher,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if publisher == nil || len(in.Response.Events) == 0 {
		return in, nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := publisher.Publish(ctx, in.SessionID, in.Response.Events); err != nil {
		log.Warn().
			Err(err).
			Str("session_id", in.SessionID).
			Int("events", len(in.Response.Events)).
			Msg("publish cart events failed")
	}
	return in, nil
}
