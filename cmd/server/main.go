package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/config"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/database"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ensureEnvFile()

	logger := newLogger(os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("server stopped",
			slog.String("kind", apperr.KindOf(err).String()),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
}

// run поднимает зависимости и обслуживает HTTP до отмены ctx.
// Без ключа модели или базы данных сервис не стартует.
func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	aiClient, err := ai.NewClient(cfg.AI)
	if err != nil {
		return fmt.Errorf("create ai client: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	handler := server.New(cfg, logger, server.Dependencies{DB: db, AI: aiClient})
	httpServer := server.NewHTTPServer(cfg.Server, cfg.CORS, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server started",
			slog.String("addr", httpServer.Addr),
			slog.String("env", cfg.Env),
			slog.String("ai_provider", aiClient.Provider()),
			slog.String("ai_model", aiClient.Model()),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", slog.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newLogger пишет JSON в stdout. Неизвестный уровень означает info.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// ensureEnvFile находит .env рядом с бинарником или уровнем выше, если ENV_FILE не задан.
func ensureEnvFile() {
	if os.Getenv("ENV_FILE") != "" {
		return
	}
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = os.Setenv("ENV_FILE", path)
			return
		}
	}
}
