package db

import (
	"context"
	"database/sql"
	"fmt"

	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
)

const paymentsTableDDL = `
CREATE TABLE IF NOT EXISTS payments (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  member_id UUID NOT NULL REFERENCES members(id),
  period TEXT NOT NULL,
  amount BIGINT NOT NULL CHECK (amount > 0),
  method TEXT,
  reference TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  paid_at TIMESTAMPTZ NOT NULL,
  verified_at TIMESTAMPTZ,
  verified_by TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS payments_member_idx ON payments (member_id);
`

const schemaMarkersDDL = `
CREATE TABLE IF NOT EXISTS schema_markers (
  name TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL,
  affected INTEGER NOT NULL DEFAULT 0
);
`

// EnsureSchema creates the tables used by the Postgres adapters.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range []string{memdom.MembersTableDDL, paymentsTableDDL, schemaMarkersDDL} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
