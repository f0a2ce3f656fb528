package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/polebot/internal/admin"
	"github.com/udisondev/polebot/internal/bot"
	"github.com/udisondev/polebot/internal/config"
	"github.com/udisondev/polebot/internal/db"
	"github.com/udisondev/polebot/internal/game"
	"github.com/udisondev/polebot/internal/model"
	"github.com/udisondev/polebot/internal/vk"
)

const ConfigPath = "config/polebot.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// .env before the config so secrets can ride environment files
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("loading .env", "error", err)
	}

	cfgPath := ConfigPath
	if p := os.Getenv("POLEBOT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("polebot starting", "log_level", cfg.LogLevel, "group_id", cfg.Bot.GroupID)

	// Database
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	store := db.NewStore(database.Pool())

	// Seed the admin account from config
	hash, err := admin.HashPassword(cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	if err := store.EnsureAdmin(ctx, cfg.Admin.Email, hash); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}

	// VK long poll session
	client := vk.NewClient(cfg.Bot.GroupID, cfg.Bot.Token, cfg.Bot.LongPollWait)
	if err := client.Handshake(ctx); err != nil {
		return fmt.Errorf("long-poll handshake: %w", err)
	}
	slog.Info("long-poll session established")

	// Pipeline: poller → queue → workers → router → engine
	engine := game.NewEngine(store, client)
	router := bot.NewRouter(engine, store, client)
	limiter := bot.NewUserLimiter(cfg.Pipeline.RateLimit, cfg.Pipeline.RateBurst)
	queue := make(chan model.Update, cfg.Pipeline.QueueSize)
	poller := bot.NewPoller(client, queue)
	workers := bot.NewWorkerPool(queue, router, limiter, cfg.Pipeline.Workers)

	adminSrv := admin.NewServer(cfg.HTTP.Addr, store, admin.NewTokenIssuer(cfg.Session.Key))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting long-poll poller", "wait", cfg.Bot.LongPollWait)
		if err := poller.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("poller: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting worker pool",
			"workers", cfg.Pipeline.Workers,
			"queue_size", cfg.Pipeline.QueueSize)
		// возвращается после закрытия очереди поллером и разбора хвоста
		return workers.Run()
	})

	g.Go(func() error {
		slog.Info("starting admin http server", "addr", cfg.HTTP.Addr)
		if err := adminSrv.Run(); err != nil {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return adminSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("bot error: %w", err)
	}

	// сессия VK закрывается после того, как воркеры дообработали хвост
	client.Close()
	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
