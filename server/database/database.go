package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/topi314/gomigrate"
	"github.com/topi314/gomigrate/drivers/postgres"

	"github.com/gatherhq/gather-server/server/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

func New(cfg Config) (*Database, error) {
	dbx, err := sqlx.Connect("pgx", cfg.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = gomigrate.Migrate(ctx, dbx, postgres.New, migrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{
		queries: queries{ext: dbx},
		db:      dbx,
	}, nil
}

// Database implements domain.Store on a pooled connection. InTx hands the
// callback a transaction-bound store.
type Database struct {
	queries
	db *sqlx.DB
}

func (d *Database) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

func (d *Database) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "failed to rollback transaction", slog.Any("error", err))
		}
	}()

	if err = fn(&Tx{queries: queries{ext: tx}, tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Tx implements domain.Store bound to one open transaction.
type Tx struct {
	queries
	tx *sqlx.Tx
}

// InTx on an open transaction joins it instead of nesting.
func (t *Tx) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return fn(t)
}

// queries holds every statement; ext is either the pool or a transaction.
type queries struct {
	ext sqlx.ExtContext
}

// convertErr maps unique-constraint violations to domain.ErrDuplicate so
// engines can turn the loser of an insert race into a Conflict.
func convertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicate
	}
	return err
}
