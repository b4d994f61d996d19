package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the DDL for both entity tables. Statements are idempotent so
// Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id             TEXT PRIMARY KEY,
		order_number   TEXT NOT NULL UNIQUE,
		status         TEXT NOT NULL,
		customer       JSONB NOT NULL,
		items          JSONB NOT NULL,
		subtotal       BIGINT NOT NULL,
		tax            BIGINT NOT NULL,
		discount       BIGINT NOT NULL,
		shipping       BIGINT NOT NULL,
		total          BIGINT NOT NULL,
		payment_method TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		history        JSONB NOT NULL,
		contacts       JSONB NOT NULL,
		version        BIGINT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at)`,
	`CREATE TABLE IF NOT EXISTS artisans (
		id                TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL DEFAULT '',
		status            TEXT NOT NULL,
		business_name     TEXT NOT NULL,
		full_name         TEXT NOT NULL,
		specializations   JSONB NOT NULL,
		years_experience  INT NOT NULL DEFAULT 0,
		address           TEXT NOT NULL DEFAULT '',
		email             TEXT NOT NULL,
		phone             TEXT NOT NULL DEFAULT '',
		id_proof          JSONB,
		bank_details      JSONB,
		admin_notes       TEXT NOT NULL DEFAULT '',
		approved_at       TIMESTAMPTZ,
		approved_by       TEXT NOT NULL DEFAULT '',
		rejected_at       TIMESTAMPTZ,
		rejection_reason  TEXT NOT NULL DEFAULT '',
		suspended_at      TIMESTAMPTZ,
		suspension_reason TEXT NOT NULL DEFAULT '',
		performance       JSONB NOT NULL,
		version           BIGINT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_artisans_status ON artisans (status)`,
	`CREATE INDEX IF NOT EXISTS idx_artisans_created_at ON artisans (created_at)`,
}

// Migrate applies the schema to the given pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
