package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	enginex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/engine"
	nodex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
)

var (
	ErrInvalidMessage    = nodex.ErrInvalidMessage
	ErrInvalidSession    = nodex.ErrInvalidSession
	ErrSessionNotStarted = nodex.ErrSessionNotStarted
)

// Engine is the dialog engine surface the orchestrator drives.
type Engine interface {
	nodex.DialogEngine
	Open(ctx context.Context, sessionID string, code string, now time.Time) enginex.OpenResult
}

type Config struct {
	// Publisher receives cart events after each turn. nil disables publishing.
	Publisher      contractx.EventPublisher
	PublishTimeout time.Duration
}

type Orchestrator struct {
	store     statex.Store
	engine    Engine
	resolver  nodex.IntentResolver
	publisher contractx.EventPublisher

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	publishTimeout time.Duration
	now            func() time.Time
}

func New(
	store statex.Store,
	engine Engine,
	resolver nodex.IntentResolver,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if engine == nil {
		return nil, errors.New("dialog engine is required")
	}
	if resolver == nil {
		return nil, errors.New("intent resolver is required")
	}

	publishTimeout := cfg.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}

	o := &Orchestrator{
		store:          store,
		engine:         engine,
		resolver:       resolver,
		publisher:      cfg.Publisher,
		publishTimeout: publishTimeout,
		now:            time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// StartSession opens a session for a location code. State is stored only
// when the code is accepted; the status tells the caller whether to retry.
func (o *Orchestrator) StartSession(ctx context.Context, sessionID string, code string) (enginex.OpenStatus, contractx.Response, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return enginex.OpenInvalidFormat, contractx.Response{}, ErrInvalidSession
	}

	res := o.engine.Open(ctx, sessionID, code, o.now().UTC())
	if res.Status != enginex.OpenReady {
		return res.Status, res.Response, nil
	}

	if err := o.store.Save(ctx, res.State); err != nil {
		return res.Status, contractx.Response{}, fmt.Errorf("save new session: %w", err)
	}

	log.Info().
		Str("session_id", sessionID).
		Str("location_code", res.State.LocationCode).
		Strs("categories", res.State.AvailableCategories).
		Msg("session started")
	return res.Status, res.Response, nil
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (contractx.Response, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return contractx.Response{}, err
	}
	return contractx.Response{Text: out.Reply, Events: out.Events}, nil
}

func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}
	if err := o.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	log.Info().Str("session_id", sessionID).Msg("session ended")
	return nil
}
