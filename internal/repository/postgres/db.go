// internal/repository/postgres/db.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

var (
	dbInstance *DB
	once       sync.Once
)

// NewDB creates a new database connection pool and ensures the schema
// exists.
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	var err error
	once.Do(func() {
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

		var db *sqlx.DB
		db, err = sqlx.Connect("postgres", connStr)
		if err != nil {
			return
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err = ensureSchema(db); err != nil {
			return
		}

		// Semaphore guards against bursts of concurrent batch writes.
		dbInstance = &DB{
			DB:  db,
			sem: semaphore.NewWeighted(10),
		}
	})

	return dbInstance, err
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx.Tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS stock_observations (
		item_id     TEXT NOT NULL,
		observed_at TIMESTAMPTZ NOT NULL,
		on_hand     DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (item_id, observed_at)
	);

	CREATE TABLE IF NOT EXISTS restock_decisions (
		id                BIGSERIAL PRIMARY KEY,
		item_id           TEXT NOT NULL,
		seasonal_forecast DOUBLE PRECISION NOT NULL,
		reactive_forecast DOUBLE PRECISION NOT NULL,
		fallback_floor    DOUBLE PRECISION NOT NULL,
		current_stock     DOUBLE PRECISION NOT NULL,
		order_quantity    DOUBLE PRECISION NOT NULL,
		winning_model     TEXT NOT NULL,
		decided_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_restock_decisions_item
		ON restock_decisions (item_id, decided_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
