package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"diagram2terraform/internal/api"
	"diagram2terraform/internal/config"
	"diagram2terraform/internal/gemini"
	"diagram2terraform/internal/httpclient"
	"diagram2terraform/internal/session"
	"diagram2terraform/internal/workflow"
)

//go:embed static/*
var staticFS embed.FS

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  "diagram2terraform-web",
	})

	gen, err := newGenerator(ctx, cfg, httpClient, logger)
	if err != nil {
		logger.Error("gemini init failed", "err", err)
		os.Exit(1)
	}

	newWorkflow := func() *workflow.Workflow {
		return workflow.New(workflow.Options{
			Generator:      gen,
			Logger:         logger,
			CopyResetDelay: cfg.CopyResetDelay,
		})
	}

	sessions := session.NewStore(session.Options{
		TTL:         cfg.SessionTTL,
		NewWorkflow: newWorkflow,
	})

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	apiServer := api.NewServer(api.Options{
		Sessions:       sessions,
		NewWorkflow:    newWorkflow,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.RequestTimeout,
		Static:         staticSub,
	})

	srv := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("web started", "addr", cfg.WebAddr, "backend", cfg.GeminiBackend, "model", cfg.GeminiModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sessions.Run(gctx, time.Minute, func(removed int) {
			if removed > 0 {
				logger.Info("expired sessions removed", "count", removed, "active", sessions.Len())
			}
		})
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
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
