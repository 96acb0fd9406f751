package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

var (
	ErrInvalidMessage    = errors.New("message is empty")
	ErrInvalidSession    = errors.New("session id is empty")
	ErrSessionNotStarted = errors.New("session has not been started")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply  string
	Events []contractx.CartEvent
}

// GraphState carries one turn through the pipeline. Session is the state as
// loaded; Next is the state the engine produced and the one that gets saved.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Session  *statex.SessionState
	Intent   contractx.Intent
	Next     *statex.SessionState
	Response contractx.Response
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
