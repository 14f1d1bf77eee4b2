package services

import (
	"context"
	"fmt"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/luckfunc/ticketBot/internal/models"
)

const createPriceHistoryTable = `
CREATE TABLE IF NOT EXISTS price_history (
    id          BIGSERIAL PRIMARY KEY,
    recorded_at TIMESTAMPTZ NOT NULL,
    price       NUMERIC(12, 2) NOT NULL
)`

// PostgresHistory keeps the same append-only log in a price_history table.
type PostgresHistory struct {
	db *sqlx.DB
}

// OpenPostgresHistory connects and makes sure the table exists.
func OpenPostgresHistory(ctx context.Context, dsn string) (*PostgresHistory, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: connect postgres: %w", err)
	}
	h := NewPostgresHistory(db)
	if err := h.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func NewPostgresHistory(db *sqlx.DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

func (h *PostgresHistory) Migrate(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, createPriceHistoryTable); err != nil {
		return fmt.Errorf("history: create table: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Append(ctx context.Context, obs models.Observation) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO price_history (recorded_at, price) VALUES ($1, $2)`,
		obs.Timestamp, obs.Price)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Load(ctx context.Context) ([]models.Observation, error) {
	var out []models.Observation
	err := h.db.SelectContext(ctx, &out,
		`SELECT recorded_at, price FROM price_history ORDER BY recorded_at, id`)
	if err != nil {
		return nil, fmt.Errorf("history: select: %w", err)
	}
	return out, nil
}

func (h *PostgresHistory) Close() error {
	return h.db.Close()
}
