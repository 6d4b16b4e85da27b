// internal/domain/stats/repository_port.go
package stats

import (
	"context"
	"fmt"
)

// Source is the remote query collaborator behind the statistics views.
// Implementations must be safe for concurrent use: both queries of a cycle run
// at the same time.
type Source interface {
	Summary(ctx context.Context, p FilterParams) (Summary, error)
	RegionStats(ctx context.Context, p FilterParams) ([]RegionStat, error)
}

// RemoteError is a network or query failure reported by a Source.
type RemoteError struct {
	Op  string // "summary" | "regions"
	Err error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return "stats: " + e.Op + " failed"
	}
	return fmt.Sprintf("stats: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Op names used by adapters when wrapping failures.
const (
	OpSummary = "summary"
	OpRegions = "regions"
)

type freshReadKey struct{}

// WithFreshRead marks ctx as a manual refresh: caches in front of a Source must
// read through and overwrite instead of serving a cached value.
func WithFreshRead(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshReadKey{}, true)
}

// IsFreshRead reports whether ctx was marked by WithFreshRead.
func IsFreshRead(ctx context.Context) bool {
	v, _ := ctx.Value(freshReadKey{}).(bool)
	return v
}
