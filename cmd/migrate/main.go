package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/clubhub/member-portal/internal/app"
	"github.com/clubhub/member-portal/internal/platform/db"
	"github.com/clubhub/member-portal/internal/platform/migrations"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg).With(slog.String("component", "migrate"))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := migrations.New(pool, logger)
	if err != nil {
		logger.Error("configure migration runner", slog.Any("error", err))
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = runner.Up(ctx)
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target)
	default:
		logger.Error("unsupported command", slog.String("command", *command))
		os.Exit(1)
	}
	if err != nil {
		logger.Error("migration command failed", slog.String("command", *command), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migration command completed", slog.String("command", *command))
}
