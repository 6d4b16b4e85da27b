// internal/adapters/out/firestore/member_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	dbcommon "github.com/Argy1/pdpi-member-sub002/internal/adapters/out/db/common"
	common "github.com/Argy1/pdpi-member-sub002/internal/domain/common"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
)

var errNilClient = errors.New("firestore client is nil")

// MemberRepositoryFS is a Firestore-based implementation of member.Repository.
// Uses the "members" collection; filtering happens in memory via Filter.Match.
type MemberRepositoryFS struct {
	Client *firestore.Client
}

func NewMemberRepositoryFS(client *firestore.Client) *MemberRepositoryFS {
	return &MemberRepositoryFS{Client: client}
}

func (r *MemberRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("members")
}

var _ memdom.Repository = (*MemberRepositoryFS)(nil)

// ========================
// Queries
// ========================

func (r *MemberRepositoryFS) GetByID(ctx context.Context, id string) (memdom.Member, error) {
	if r.Client == nil {
		return memdom.Member{}, errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return memdom.Member{}, memdom.ErrNotFound
	}
	doc, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return memdom.Member{}, memdom.ErrNotFound
		}
		return memdom.Member{}, err
	}
	return decodeMember(doc)
}

func (r *MemberRepositoryFS) GetByEmail(ctx context.Context, email string) (memdom.Member, error) {
	return r.getOneWhere(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *MemberRepositoryFS) GetByFirebaseUID(ctx context.Context, uid string) (memdom.Member, error) {
	return r.getOneWhere(ctx, "firebaseUid", strings.TrimSpace(uid))
}

func (r *MemberRepositoryFS) getOneWhere(ctx context.Context, field, value string) (memdom.Member, error) {
	if r.Client == nil {
		return memdom.Member{}, errNilClient
	}
	if value == "" {
		return memdom.Member{}, memdom.ErrNotFound
	}
	it := r.col().Where(field, "==", value).Limit(1).Documents(ctx)
	defer it.Stop()

	doc, err := it.Next()
	if err == iterator.Done {
		return memdom.Member{}, memdom.ErrNotFound
	}
	if err != nil {
		return memdom.Member{}, err
	}
	return decodeMember(doc)
}

// scan streams every member document that matches f.
func (r *MemberRepositoryFS) scan(ctx context.Context, q firestore.Query, f memdom.Filter, fn func(memdom.Member)) error {
	if r.Client == nil {
		return errNilClient
	}
	it := q.Documents(ctx)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		m, err := decodeMember(doc)
		if err != nil {
			return err
		}
		if f.Match(m) {
			fn(m)
		}
	}
}

func (r *MemberRepositoryFS) Count(ctx context.Context, f memdom.Filter) (int, error) {
	if r.Client == nil {
		return 0, errNilClient
	}
	total := 0
	err := r.scan(ctx, r.col().Query, f, func(memdom.Member) { total++ })
	return total, err
}

func (r *MemberRepositoryFS) List(
	ctx context.Context,
	f memdom.Filter,
	s common.Sort,
	p common.Page,
) (common.PageResult[memdom.Member], error) {
	if r.Client == nil {
		return common.PageResult[memdom.Member]{}, errNilClient
	}
	pageNum, perPage, offset := dbcommon.NormalizePage(p.Number, p.PerPage, 50, 200)

	all := []memdom.Member{}
	if err := r.scan(ctx, r.col().Query, f, func(m memdom.Member) { all = append(all, m) }); err != nil {
		return common.PageResult[memdom.Member]{}, err
	}
	sortMembers(all, s)

	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + perPage
	if end > total {
		end = total
	}
	return common.PageResult[memdom.Member]{
		Items:      all[offset:end],
		TotalCount: total,
		TotalPages: dbcommon.ComputeTotalPages(total, perPage),
		Page:       pageNum,
		PerPage:    perPage,
	}, nil
}

// ========================
// Mutations
// ========================

func (r *MemberRepositoryFS) Create(ctx context.Context, m memdom.Member) (memdom.Member, error) {
	if r.Client == nil {
		return memdom.Member{}, errNilClient
	}
	ref := r.col().NewDoc()
	if id := strings.TrimSpace(m.ID); id != "" {
		ref = r.col().Doc(id)
	}
	m.ID = ref.ID

	// unique fields are checked up front; Firestore has no unique indexes
	for field, v := range map[string]string{"email": m.Email, "firebaseUid": m.FirebaseUID, "npa": m.NPA} {
		if v == "" {
			continue
		}
		if _, err := r.getOneWhere(ctx, field, v); err == nil {
			return memdom.Member{}, memdom.ErrConflict
		} else if !errors.Is(err, memdom.ErrNotFound) {
			return memdom.Member{}, err
		}
	}

	if _, err := ref.Create(ctx, m); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return memdom.Member{}, memdom.ErrConflict
		}
		return memdom.Member{}, err
	}
	return m, nil
}

func (r *MemberRepositoryFS) Update(ctx context.Context, id string, patch memdom.MemberPatch) (memdom.Member, error) {
	if r.Client == nil {
		return memdom.Member{}, errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return memdom.Member{}, memdom.ErrNotFound
	}
	ups := memberUpdates(patch)
	if len(ups) == 0 {
		return r.GetByID(ctx, id)
	}
	if _, err := r.col().Doc(id).Update(ctx, ups); err != nil {
		if status.Code(err) == codes.NotFound {
			return memdom.Member{}, memdom.ErrNotFound
		}
		return memdom.Member{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *MemberRepositoryFS) Delete(ctx context.Context, id string) error {
	if r.Client == nil {
		return errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return memdom.ErrNotFound
	}
	// Exists precondition turns a missing document into NotFound.
	if _, err := r.col().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return memdom.ErrNotFound
		}
		return err
	}
	return nil
}

// ========================
// Helpers
// ========================

func decodeMember(doc *firestore.DocumentSnapshot) (memdom.Member, error) {
	var m memdom.Member
	if err := doc.DataTo(&m); err != nil {
		return memdom.Member{}, err
	}
	if m.ID == "" {
		m.ID = doc.Ref.ID
	}
	return m, nil
}

// memberUpdates maps the non-nil patch fields to Firestore field updates.
func memberUpdates(p memdom.MemberPatch) []firestore.Update {
	var ups []firestore.Update
	str := func(path string, v *string) {
		if v != nil {
			ups = append(ups, firestore.Update{Path: path, Value: *v})
		}
	}
	str("npa", p.NPA)
	str("fullName", p.FullName)
	str("email", p.Email)
	str("phone", p.Phone)
	str("gender", p.Gender)
	str("province", p.Province)
	str("branch", p.Branch)
	str("city", p.City)
	str("status", p.Status)
	str("role", p.Role)
	str("photoPath", p.PhotoPath)
	str("firebaseUid", p.FirebaseUID)
	if p.UpdatedAt != nil {
		ups = append(ups, firestore.Update{Path: "updatedAt", Value: p.UpdatedAt.UTC()})
	}
	str("updatedBy", p.UpdatedBy)
	if p.DeletedAt != nil {
		ups = append(ups, firestore.Update{Path: "deletedAt", Value: p.DeletedAt.UTC()})
	}
	str("deletedBy", p.DeletedBy)
	return ups
}

// sortMembers orders in memory. Without a known column members sort by join
// date, newest first.
func sortMembers(ms []memdom.Member, s common.Sort) {
	const tsLayout = "2006-01-02T15:04:05.000000000"
	desc := strings.EqualFold(string(s.Order), string(common.SortDesc))

	var key func(memdom.Member) string
	switch memdom.SortColumn(s.Column) {
	case memdom.SortByName:
		key = func(m memdom.Member) string { return strings.ToLower(m.FullName) }
	case memdom.SortByNPA:
		key = func(m memdom.Member) string { return m.NPA }
	case memdom.SortByProvince:
		key = func(m memdom.Member) string { return m.Province }
	case memdom.SortByUpdatedAt:
		key = func(m memdom.Member) string {
			if m.UpdatedAt == nil {
				return ""
			}
			return m.UpdatedAt.UTC().Format(tsLayout)
		}
	case memdom.SortByJoinedAt:
		key = func(m memdom.Member) string { return m.CreatedAt.UTC().Format(tsLayout) }
	default:
		key = func(m memdom.Member) string { return m.CreatedAt.UTC().Format(tsLayout) }
		desc = true
	}

	sort.SliceStable(ms, func(i, j int) bool {
		a, b := key(ms[i]), key(ms[j])
		if a == b {
			return ms[i].ID < ms[j].ID
		}
		if desc {
			return a > b
		}
		return a < b
	})
}
