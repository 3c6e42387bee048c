package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/asterisk/tourney/internal/auth"
	"github.com/asterisk/tourney/internal/bracket"
	"github.com/asterisk/tourney/internal/broadcast"
	"github.com/asterisk/tourney/internal/config"
	"github.com/asterisk/tourney/internal/database"
	"github.com/asterisk/tourney/internal/handler/health"
	"github.com/asterisk/tourney/internal/leaderboard"
	"github.com/asterisk/tourney/internal/migrations"
	"github.com/asterisk/tourney/internal/overlay"
	"github.com/asterisk/tourney/internal/relay"
	"github.com/asterisk/tourney/internal/server"
	"github.com/asterisk/tourney/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)
	store := storage.New(db)

	// --- Admin credential ---
	authz, err := adminAuthorizer(cfg)
	if err != nil {
		return fmt.Errorf("preparing admin credential: %w", err)
	}

	// --- Hubs and services ---
	bracketHub := broadcast.NewHub("bracket", logger)
	overlayHub := broadcast.NewHub("overlay", logger)

	brackets := bracket.New(store, bracketHub, authz, logger.With("component", "bracket"), bracket.Config{
		QualifierRound:   cfg.QualifierRound,
		QualifierMatches: cfg.QualifierMatches,
	})
	ctl := overlay.New(overlayHub, bracketHub, store, authz, logger.With("component", "overlay"))
	board := leaderboard.New(store, bracketHub, authz, logger.With("component", "leaderboard"))

	checks := map[string]health.Checker{
		"sqlite": health.CheckerFunc(store.Ping),
	}

	g, gctx := errgroup.WithContext(ctx)

	// --- Redis relay (optional) ---
	if cfg.RedisURL != "" {
		rdb, err := relay.Open(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		rl := relay.New(rdb, logger)
		rl.Attach(bracketHub)
		rl.Attach(overlayHub)
		checks["redis"] = rl

		g.Go(func() error { return rl.Run(gctx) })
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Bracket:     brackets,
		Overlay:     ctl,
		Leaderboard: board,
		BracketHub:  bracketHub,
		OverlayHub:  overlayHub,
		Health: health.NewHandler(logger, checks, map[string]health.Counter{
			"bracket": bracketHub,
			"overlay": overlayHub,
		}).Routes(),
		PingInterval:  cfg.SSEPingInterval,
		CORSOrigins:   cfg.CORSOrigins,
		ChatRateLimit: cfg.ChatRateLimit,
	})

	// --- Run ---
	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// adminAuthorizer prefers a precomputed bcrypt hash over a plain password.
func adminAuthorizer(cfg *config.Config) (auth.Authorizer, error) {
	if cfg.AdminPasswordHash != "" {
		return auth.PasswordFromHash(cfg.AdminPasswordHash)
	}
	return auth.NewPassword(cfg.AdminPassword, bcrypt.DefaultCost)
}
