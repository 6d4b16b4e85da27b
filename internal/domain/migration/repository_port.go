// internal/domain/migration/repository_port.go
package migration

import (
	"context"
	"errors"
	"time"
)

// Marker records that a named one-off data migration has been applied.
type Marker struct {
	Name      string    `json:"name" firestore:"name"`
	AppliedAt time.Time `json:"appliedAt" firestore:"appliedAt"`
	Affected  int       `json:"affected" firestore:"affected"`
}

var ErrAlreadyApplied = errors.New("migration: already applied")

// MarkerRepository persists markers outside the migrated data.
type MarkerRepository interface {
	Get(ctx context.Context, name string) (Marker, bool, error)
	// Put stores m; it returns ErrAlreadyApplied if a marker with the same
	// name already exists.
	Put(ctx context.Context, m Marker) error
}

// Names of known migrations.
const NormalizeProvinces = "normalize-provinces-v1"
