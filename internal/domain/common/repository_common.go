// internal/domain/common/repository_common.go
package common

import (
	"context"
	"time"
)

// Sort is the shared representation of list ordering.
// Column is validated against a per-domain allow list by adapters.
type Sort struct {
	Column string
	Order  SortOrder
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Page is an offset page request.
type Page struct {
	Number  int // 1-based
	PerPage int // <= 0 means adapter default
}

// PageResult is a page of items plus totals.
type PageResult[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
}

// TimeRange is an optional [From, To) window.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// RepositoryCRUD is the common CRUD port. P is the per-domain patch type.
type RepositoryCRUD[T any, P any] interface {
	GetByID(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, id string, patch P) (T, error)
	Delete(ctx context.Context, id string) error
}

// RepositoryList lists with Filter + Sort + Page.
type RepositoryList[T any, F any] interface {
	List(ctx context.Context, filter F, sort Sort, page Page) (PageResult[T], error)
}
