// internal/adapters/out/firestore/marker_repository_fs.go
package firestore

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Argy1/pdpi-member-sub002/internal/domain/migration"
)

// MarkerRepositoryFS keeps migration markers in "system_markers", one
// document per marker name.
type MarkerRepositoryFS struct {
	Client *firestore.Client
}

func NewMarkerRepositoryFS(client *firestore.Client) *MarkerRepositoryFS {
	return &MarkerRepositoryFS{Client: client}
}

var _ migration.MarkerRepository = (*MarkerRepositoryFS)(nil)

func (r *MarkerRepositoryFS) doc(name string) *firestore.DocumentRef {
	return r.Client.Collection("system_markers").Doc(strings.TrimSpace(name))
}

func (r *MarkerRepositoryFS) Get(ctx context.Context, name string) (migration.Marker, bool, error) {
	if r.Client == nil {
		return migration.Marker{}, false, errNilClient
	}
	snap, err := r.doc(name).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return migration.Marker{}, false, nil
	}
	if err != nil {
		return migration.Marker{}, false, err
	}
	var m migration.Marker
	if err := snap.DataTo(&m); err != nil {
		return migration.Marker{}, false, err
	}
	return m, true, nil
}

// Put uses Create so two concurrent runs cannot both record the marker.
func (r *MarkerRepositoryFS) Put(ctx context.Context, m migration.Marker) error {
	if r.Client == nil {
		return errNilClient
	}
	if _, err := r.doc(m.Name).Create(ctx, m); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return migration.ErrAlreadyApplied
		}
		return err
	}
	return nil
}
