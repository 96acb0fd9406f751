package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/agents/orchestrator"
	classifierx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/classifier"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	enginex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/engine"
	intentx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/intent"
	llmx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/state"
	configx "github.com/tanpawarit/Chative-Marketplace-Assistant/pkg/config"
	consolex "github.com/tanpawarit/Chative-Marketplace-Assistant/pkg/console"
	_ "github.com/tanpawarit/Chative-Marketplace-Assistant/pkg/logger/autoload"
	marketplacex "github.com/tanpawarit/Chative-Marketplace-Assistant/pkg/marketplace"
	qstashx "github.com/tanpawarit/Chative-Marketplace-Assistant/pkg/qstash"
)

type AppConfig struct {
	StateBackend   string        `envconfig:"STATE_BACKEND" default:"memory"`
	EventsEnabled  bool          `envconfig:"EVENTS_ENABLED" default:"false"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	PublishTimeout time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"5s"`
}

func (c AppConfig) Validate() error {
	switch c.backend() {
	case "memory", "upstash", "redis":
	default:
		return fmt.Errorf("unknown state backend %q", c.StateBackend)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("session ttl must be >= 0")
	}
	return nil
}

func (c AppConfig) backend() string {
	return strings.ToLower(strings.TrimSpace(c.StateBackend))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	marketplaceCfg := configx.MustNew[marketplacex.Config]("MARKETPLACE")
	marketplace := marketplacex.MustNew(*marketplaceCfg)

	llmCfg := configx.MustNew[llmx.Config]("LLM")
	classifier, err := classifierx.New(ctx, *llmCfg, promptx.LoadPromptSet())
	if err != nil {
		log.Fatal().Err(err).Str("provider", string(llmCfg.ProviderName())).Msg("init classifier")
	}

	engine, err := enginex.New(marketplace, marketplace, marketplace)
	if err != nil {
		log.Fatal().Err(err).Msg("init dialog engine")
	}

	store, closeStore, err := newStore(ctx, *appCfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", appCfg.backend()).Msg("init state store")
	}
	defer closeStore()

	orchCfg := orchestratorx.Config{PublishTimeout: appCfg.PublishTimeout}
	if appCfg.EventsEnabled {
		qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
		orchCfg.Publisher = qstashx.MustNew(*qstashCfg)
	}

	orchestrator, err := orchestratorx.New(store, engine, intentx.NewResolver(classifier), orchCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init orchestrator")
	}

	log.Info().
		Str("provider", string(llmCfg.ProviderName())).
		Str("backend", appCfg.backend()).
		Bool("events", appCfg.EventsEnabled).
		Msg("assistant ready")

	if err := consolex.New(orchestrator, os.Stdin, os.Stdout).Run(ctx); err != nil {
		log.Error().Err(err).Msg("console session failed")
	}
}

func newStore(ctx context.Context, cfg AppConfig) (statex.Store, func(), error) {
	noop := func() {}

	switch cfg.backend() {
	case "upstash":
		upstashCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		opts := []statex.StoreOption{statex.WithKeyPrefix(upstashCfg.KeyPrefix)}
		if cfg.SessionTTL > 0 {
			opts = append(opts, statex.WithTTL(cfg.SessionTTL))
		}
		store, err := statex.NewUpstashRedisStore(*upstashCfg, opts...)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "redis":
		redisCfg := configx.MustNew[statex.RedisConfig]("REDIS")
		if cfg.SessionTTL > 0 {
			redisCfg.TTL = cfg.SessionTTL
		}
		store, err := statex.NewRedisStore(*redisCfg)
		if err != nil {
			return nil, noop, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, noop, fmt.Errorf("%w: redis: %w", contractx.ErrCollaboratorUnavailable, err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return statex.NewMemoryStore(), noop, nil
	}
}
