package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"studyagent/internal/config"
	"studyagent/internal/infrastructure/llm"
	"studyagent/internal/infrastructure/scraper"
	"studyagent/internal/infrastructure/storage"
	"studyagent/internal/infrastructure/telegram"
	"studyagent/internal/logging"
	"studyagent/internal/ports"
	"studyagent/internal/session"
	"studyagent/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	bot     *usecase.Bot
	client  *telegram.Client
	repo    *storage.Repository
	sweeper *session.Sweeper
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := storage.NewRepository(db)

	tokenTTL := time.Duration(cfg.Sessions.TokenTTLMinutes) * time.Minute
	sessions := session.NewStore(tokenTTL)
	tokens := session.NewTokens(tokenTTL)
	sweeper := session.NewSweeper(
		sessions, tokens,
		time.Duration(cfg.Sessions.SweepIntervalMin)*time.Minute,
		baseLogger.With("component", "sweeper"),
	)

	fetcher := scraper.NewService(
		baseLogger.With("component", "scraper"),
		scraper.NewHabrParser(nil),
		scraper.NewGitHubParser(nil),
		scraper.NewInfostartParser(nil),
	)
	generator := llm.NewService(cfg.Providers, baseLogger.With("component", "llm"))
	client := telegram.NewClient(cfg.Telegram.BotToken, baseLogger.With("component", "telegram"))

	bot := usecase.New(
		repo, fetcher, generator, client,
		sessions, tokens,
		cfg.Defaults.Choice(),
		baseLogger.With("component", "bot"),
	)

	return &Application{
		cfg:     cfg,
		logger:  baseLogger,
		bot:     bot,
		client:  client,
		repo:    repo,
		sweeper: sweeper,
	}, nil
}

// Run initializes storage and polls the conversation channel until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.repo.Init(ctx); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	a.sweeper.Start(ctx)
	defer a.sweeper.Stop()

	a.logger.Info("bot started", "database", a.cfg.Database.Path)
	return a.client.Poll(ctx, a.cfg.Telegram.PollTimeout, func(ev ports.Event) {
		a.bot.HandleEvent(ctx, ev)
	})
}
