package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/semaphore"

	"diagram2terraform/internal/bot"
	"diagram2terraform/internal/config"
	"diagram2terraform/internal/gemini"
	"diagram2terraform/internal/httpclient"
	"diagram2terraform/internal/mediagroup"
	"diagram2terraform/internal/session"
	"diagram2terraform/internal/telegram"
	"diagram2terraform/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		panic(err)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: httpClient,
		Logger:     logger,
		Debug:      cfg.Debug,
	})
	if err != nil {
		logger.Error("telegram init failed", "err", err)
		os.Exit(1)
	}

	gen, err := newGenerator(ctx, cfg, httpClient, logger)
	if err != nil {
		logger.Error("gemini init failed", "err", err)
		os.Exit(1)
	}

	sessions := session.NewStore(session.Options{
		TTL: cfg.SessionTTL,
		NewWorkflow: func() *workflow.Workflow {
			return workflow.New(workflow.Options{
				Generator:      gen,
				Logger:         logger,
				CopyResetDelay: cfg.CopyResetDelay,
			})
		},
	})
	go sessions.Run(ctx, time.Minute, func(removed int) {
		if removed > 0 {
			logger.Info("expired chats removed", "count", removed, "active", sessions.Len())
		}
	})

	handler := bot.New(bot.Options{
		Messenger: tg,
		Sessions:  sessions,
		Logger:    logger,
	})

	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	run := func(fn func(context.Context)) {
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		go func() {
			defer sem.Release(1)

			reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()

			fn(reqCtx)
		}()
	}

	aggregator := mediagroup.New(mediagroup.Options{
		Debounce: cfg.AlbumDebounce,
		OnFlush: func(group mediagroup.Group) {
			run(func(reqCtx context.Context) {
				handler.HandleMediaGroup(reqCtx, group)
			})
		},
	})
	handler.SetMediaGroupAggregator(aggregator)

	if err := tg.SetCommands(bot.Commands()); err != nil {
		logger.Warn("set commands failed", "err", err)
	}

	logger.Info("bot started", "username", tg.Username(), "backend", cfg.GeminiBackend, "model", cfg.GeminiModel)

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("updates channel closed")
				return
			}

			run(func(reqCtx context.Context) {
				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", "err", err)
				}
			})
		}
	}
}

func newGenerator(ctx context.Context, cfg config.Config, httpClient *http.Client, logger *slog.Logger) (gemini.ContentGenerator, error) {
	opts := gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		Model:      cfg.GeminiModel,
		HTTPClient: httpClient,
		Logger:     logger,
	}
	if cfg.GeminiBackend == config.BackendSDK {
		return gemini.NewSDK(ctx, opts)
	}
	return gemini.New(opts), nil
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
