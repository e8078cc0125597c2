package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/huddle-chat/huddle/internal/api"
	"github.com/huddle-chat/huddle/internal/bot"
	"github.com/huddle-chat/huddle/internal/config"
	"github.com/huddle-chat/huddle/internal/email"
	"github.com/huddle-chat/huddle/internal/observ"
	"github.com/huddle-chat/huddle/internal/sched"
	"github.com/huddle-chat/huddle/internal/snapshot"
	"github.com/huddle-chat/huddle/internal/store"
	"github.com/huddle-chat/huddle/internal/workspace"
	"github.com/huddle-chat/huddle/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	st := store.New()

	// Reload the last snapshot before anything can touch the store.
	// An empty pebble directory is a fresh workspace, not an error.
	sink, err := snapshot.Open(cfg.SnapshotPath, logger)
	if err != nil {
		return fmt.Errorf("open snapshot sink: %w", err)
	}
	defer sink.Close()

	docs, err := sink.ReadTables()
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if len(docs) > 0 {
		if err := st.Restore(docs); err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		logger.Info("restored state from snapshot", zap.Int("tables", len(docs)))
	}

	scheduler := sched.New(logger)

	mailer := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, logger)

	engine := workspace.New(st, scheduler, logger, cfg.JWTSecret,
		workspace.WithSessionTTL(cfg.SessionTTL),
		workspace.WithMailer(mailer),
	)

	// The hub and the bot both need the engine, and the engine calls
	// back into them, so they are wired after construction.
	hub := ws.NewHub(engine, logger)
	go hub.Run()
	engine.SetNotifier(hub)

	engine.SetDispatcher(bot.New(engine, logger, time.Now().UnixNano()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writeSnapshot := func() {
		docs, err := st.Snapshot()
		if err != nil {
			logger.Error("snapshot state", zap.Error(err))
			return
		}
		if err := sink.WriteTables(docs); err != nil {
			logger.Error("write snapshot", zap.Error(err))
			return
		}
		logger.Debug("snapshot written", zap.Int("tables", len(docs)))
	}

	go func() {
		if err := scheduler.Cron(ctx, cfg.SnapshotCron, writeSnapshot); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("snapshot cron stopped", zap.Error(err))
		}
	}()

	router := api.NewRouter(engine, hub, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting huddle",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}

	// One last snapshot so a clean shutdown loses nothing since the
	// previous cron tick.
	writeSnapshot()

	return nil
}
