package botbuilder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/goldenbells-bot/internal/bot"
	"github.com/park285/goldenbells-bot/internal/config"
	"github.com/park285/goldenbells-bot/internal/content"
	"github.com/park285/goldenbells-bot/internal/metrics"
	"github.com/park285/goldenbells-bot/internal/modegate"
	"github.com/park285/goldenbells-bot/internal/msgcat"
	"github.com/park285/goldenbells-bot/internal/session"
	"github.com/park285/goldenbells-bot/internal/store"
)

type Deps struct {
	Store    store.Store
	Content  *content.Store
	Sessions *session.Registry
	Gate     *modegate.Gate
	Catalog  *msgcat.Catalog
	Metrics  *metrics.Metrics
	Bot      *bot.Bot
}

// OpenStore opens the document store selected by cfg.
func OpenStore(ctx context.Context, cfg *config.AppConfig) (store.Store, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		Dir:         cfg.DataDir,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
		KeyPrefix:   cfg.StoreKeyPrefix,
	})
}

// New wires the whole bot from cfg. dir may be nil, in which case !tagall replies
// with its failure message.
func New(ctx context.Context, cfg *config.AppConfig, dir bot.Directory, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	docs, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	cs, err := content.Open(ctx, docs)
	if err != nil {
		_ = docs.Close()
		return nil, fmt.Errorf("load content: %w", err)
	}
	for _, d := range content.Difficulties {
		logger.Info("trivia_loaded", zap.String("difficulty", string(d)), zap.Int("questions", cs.QuestionCount(d)))
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		_ = docs.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}

	battleDifficulty, ok := content.ParseDifficulty(cfg.BattleDifficulty)
	if !ok {
		logger.Warn("battle_difficulty_invalid", zap.String("value", cfg.BattleDifficulty))
		battleDifficulty = content.Medium
	}

	d := &Deps{
		Store:    docs,
		Content:  cs,
		Sessions: session.NewRegistry(session.WithTTL(cfg.SessionTTL)),
		Gate:     modegate.NewGate(cfg.AdminIDs, cfg.StartPrivate),
		Catalog:  catalog,
		Metrics:  metrics.New(),
	}
	d.Bot, err = bot.New(bot.Deps{
		Config: bot.Config{
			Prefix:           cfg.BotPrefix,
			BattleTarget:     cfg.BattleTarget,
			BattleMaxRounds:  cfg.BattleMaxRounds,
			BattleDifficulty: battleDifficulty,
		},
		Content:   d.Content,
		Sessions:  d.Sessions,
		Gate:      d.Gate,
		Catalog:   d.Catalog,
		Directory: dir,
		Metrics:   d.Metrics,
	})
	if err != nil {
		_ = docs.Close()
		return nil, err
	}
	return d, nil
}

func (d *Deps) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
