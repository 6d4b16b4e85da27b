// internal/domain/member/repository_port.go
package member

import (
	"context"
	"strings"

	common "github.com/Argy1/pdpi-member-sub002/internal/domain/common"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

// Filter defines list conditions for members.
// Field names/semantics align with entity.Member.
type Filter struct {
	// Free-text query over name / NPA / email.
	SearchQuery string

	Province string
	Branch   string
	City     string
	Status   string // "", "active", "inactive"
	Gender   string // "", "L", "P"
	Role     string

	// Soft-deleted rows are hidden unless set.
	IncludeDeleted bool
}

// FilterFromParams converts statistics filter params into a member filter.
func FilterFromParams(p stats.FilterParams) Filter {
	p = p.Normalized()
	return Filter{
		SearchQuery: p.Query,
		Province:    p.Province,
		Branch:      p.Branch,
		City:        p.City,
		Status:      p.Status,
		Gender:      p.Gender,
	}
}

// Match evaluates f against m in memory. Adapters without server-side
// filtering (Firestore) use it; SQL adapters translate f to WHERE clauses.
func (f Filter) Match(m Member) bool {
	if !f.IncludeDeleted && m.IsDeleted() {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.SearchQuery)); q != "" {
		hay := strings.ToLower(m.FullName + " " + m.NPA + " " + m.Email)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	eq := func(want, got string) bool {
		want = strings.TrimSpace(want)
		return want == "" || strings.EqualFold(want, strings.TrimSpace(got))
	}
	return eq(f.Province, m.Province) &&
		eq(f.Branch, m.Branch) &&
		eq(f.City, m.City) &&
		eq(f.Status, m.Status) &&
		eq(f.Gender, m.Gender) &&
		eq(f.Role, m.Role)
}

type SortColumn string

const (
	SortByName      SortColumn = "name"
	SortByNPA       SortColumn = "npa"
	SortByProvince  SortColumn = "province"
	SortByJoinedAt  SortColumn = "joinedAt"
	SortByUpdatedAt SortColumn = "updatedAt"
)

// Common aliases
type Page = common.Page
type PageResult = common.PageResult[Member]

// Repository is the persistence port for the Member aggregate.
type Repository interface {
	common.RepositoryCRUD[Member, MemberPatch]
	common.RepositoryList[Member, Filter]

	GetByEmail(ctx context.Context, email string) (Member, error)
	GetByFirebaseUID(ctx context.Context, firebaseUID string) (Member, error)
	Count(ctx context.Context, filter Filter) (int, error)
}

// PhotoStore stores member photos outside the row store.
type PhotoStore interface {
	// Put stores the photo and returns the object path kept on the member.
	Put(ctx context.Context, memberID, contentType string, data []byte) (string, error)
	// SignedURL returns a short-lived download URL for path.
	SignedURL(ctx context.Context, path string) (string, error)
}
