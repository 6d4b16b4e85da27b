package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	dbcommon "github.com/Argy1/pdpi-member-sub002/internal/adapters/out/db/common"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/migration"
)

// MarkerRepositoryPG keeps migration markers in schema_markers.
type MarkerRepositoryPG struct {
	DB *sql.DB
}

func NewMarkerRepositoryPG(db *sql.DB) *MarkerRepositoryPG {
	return &MarkerRepositoryPG{DB: db}
}

var _ migration.MarkerRepository = (*MarkerRepositoryPG)(nil)

func (r *MarkerRepositoryPG) Get(ctx context.Context, name string) (migration.Marker, bool, error) {
	var m migration.Marker
	err := dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx,
		`SELECT name, applied_at, affected FROM schema_markers WHERE name = $1`,
		strings.TrimSpace(name),
	).Scan(&m.Name, &m.AppliedAt, &m.Affected)
	if errors.Is(err, sql.ErrNoRows) {
		return migration.Marker{}, false, nil
	}
	if err != nil {
		return migration.Marker{}, false, err
	}
	m.AppliedAt = m.AppliedAt.UTC()
	return m, true, nil
}

func (r *MarkerRepositoryPG) Put(ctx context.Context, m migration.Marker) error {
	_, err := dbcommon.GetRunner(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO schema_markers (name, applied_at, affected) VALUES ($1, $2, $3)`,
		strings.TrimSpace(m.Name), m.AppliedAt.UTC(), m.Affected,
	)
	if dbcommon.IsUniqueViolation(err) {
		return migration.ErrAlreadyApplied
	}
	return err
}
