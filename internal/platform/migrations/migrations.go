// Package migrations applies the embedded schema with goose.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedded embed.FS

const dir = "sql"

// Files returns the embedded migration set.
func Files() fs.FS {
	return embedded
}

// Runner wraps goose on top of the application pool.
type Runner struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	timeout time.Duration
}

// New returns a migration runner.
func New(pool *pgxpool.Pool, logger *slog.Logger) (Runner, error) {
	if pool == nil {
		return Runner{}, errors.New("migrations: nil pool provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Runner{pool: pool, logger: logger, timeout: time.Minute}, nil
}

// Up applies pending migrations.
func (r Runner) Up(ctx context.Context) error {
	return r.run(ctx, func(ctx context.Context, p *goose.Provider) error {
		results, err := p.Up(ctx)
		for _, res := range results {
			r.logger.Info("migration applied", slog.String("source", res.Source.Path), slog.Duration("took", res.Duration))
		}
		if err != nil {
			return fmt.Errorf("migrations: up: %w", err)
		}
		return nil
	})
}

// Down rolls back the latest migration, or down to target when it is positive.
func (r Runner) Down(ctx context.Context, target int64) error {
	return r.run(ctx, func(ctx context.Context, p *goose.Provider) error {
		var err error
		if target > 0 {
			_, err = p.DownTo(ctx, target)
		} else {
			_, err = p.Down(ctx)
		}
		if err != nil {
			return fmt.Errorf("migrations: down: %w", err)
		}
		r.logger.Info("rollback complete", slog.Int64("target", target))
		return nil
	})
}

// Status logs applied and pending migrations.
func (r Runner) Status(ctx context.Context) error {
	return r.run(ctx, func(ctx context.Context, p *goose.Provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrations: status: %w", err)
		}
		for _, st := range statuses {
			r.logger.Info("migration status",
				slog.Int64("version", st.Source.Version),
				slog.String("state", string(st.State)),
				slog.Time("applied_at", st.AppliedAt))
		}
		return nil
	})
}

func (r Runner) run(ctx context.Context, fn func(context.Context, *goose.Provider) error) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	sub, err := fs.Sub(embedded, dir)
	if err != nil {
		return fmt.Errorf("migrations: open embedded dir: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return fmt.Errorf("migrations: configure goose: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return fn(runCtx, provider)
}
