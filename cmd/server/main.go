package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/trivia/internal/api"
	"github.com/p-n-ai/trivia/internal/auth"
	"github.com/p-n-ai/trivia/internal/bank"
	"github.com/p-n-ai/trivia/internal/platform/cache"
	"github.com/p-n-ai/trivia/internal/platform/config"
	"github.com/p-n-ai/trivia/internal/platform/database"
	"github.com/p-n-ai/trivia/internal/trivia"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", a.storeKind, "auth", cfg.AuthEnabled())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// app is the wired server with the resources it must release.
type app struct {
	handler   http.Handler
	storeKind string
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp connects storage, seeds the question bank and builds the HTTP handler.
// Without a database URL everything runs in memory.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{storeKind: "memory"}
	checks := map[string]api.HealthChecker{}

	var (
		store  trivia.Store = trivia.NewMemoryStore()
		events trivia.EventLogger
	)
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		if err := db.ApplySchema(ctx, trivia.Schema); err != nil {
			a.Close()
			return nil, err
		}
		pgStore, err := trivia.NewPostgresStore(db.Pool)
		if err != nil {
			a.Close()
			return nil, err
		}
		store = pgStore
		events = trivia.NewPostgresEventLogger(db.Pool)
		checks["database"] = db
		a.storeKind = "postgres"
	}

	var categoryCache trivia.CategoryCache
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Warn("cache unavailable, continuing without it", "error", err)
		} else {
			a.closers = append(a.closers, func() { c.Close() })
			rc, err := trivia.NewRedisCategoryCache(c, cfg.Cache.TTL)
			if err != nil {
				a.Close()
				return nil, err
			}
			categoryCache = rc
			checks["cache"] = c
		}
	}

	svc := trivia.NewService(trivia.ServiceConfig{
		Store:            store,
		Cache:            categoryCache,
		Events:           events,
		QuestionsPerPage: cfg.Quiz.QuestionsPerPage,
	})

	if cfg.SeedPath != "" {
		b, err := bank.LoadDir(cfg.SeedPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		n, err := bank.Seed(ctx, store, b)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seeding question bank: %w", err)
		}
		if n > 0 {
			svc.InvalidateCategories(ctx)
		}
		slog.Info("question bank seeded", "path", cfg.SeedPath, "questions", n)
	}

	var authenticator *auth.Authenticator
	if cfg.AuthEnabled() {
		authenticator = auth.New(
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.AccessTokenTTL)*time.Minute,
			cfg.Auth.AdminPasswordHash,
		)
	}

	a.handler = api.NewHandler(api.Config{
		Service:          svc,
		Auth:             authenticator,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		QuizMaxQuestions: cfg.Quiz.MaxQuestions,
		HealthChecks:     checks,
	})
	return a, nil
}
