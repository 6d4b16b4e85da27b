package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	common "github.com/Argy1/pdpi-member-sub002/internal/domain/common"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
)

// MaxPhotoBytes bounds uploaded member photos.
const MaxPhotoBytes = 2 << 20

var ErrPhotoStoreMissing = errors.New("usecase: photo store is not configured")

type MemberUsecase struct {
	repo   memdom.Repository
	photos memdom.PhotoStore
	now    func() time.Time
	newID  func() string
}

func NewMemberUsecase(repo memdom.Repository, photos memdom.PhotoStore) *MemberUsecase {
	return &MemberUsecase{
		repo:   repo,
		photos: photos,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// ─────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────

func (u *MemberUsecase) GetByID(ctx context.Context, id string) (memdom.Member, error) {
	m, err := u.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return memdom.Member{}, err
	}
	if err := checkBranch(ctx, m); err != nil {
		return memdom.Member{}, err
	}
	return m, nil
}

// Me returns the caller's own profile.
func (u *MemberUsecase) Me(ctx context.Context) (memdom.Member, error) {
	id := actorID(ctx)
	if id == "" {
		return memdom.Member{}, memdom.ErrNotFound
	}
	return u.repo.GetByID(ctx, id)
}

func (u *MemberUsecase) GetByFirebaseUID(ctx context.Context, uid string) (memdom.Member, error) {
	return u.repo.GetByFirebaseUID(ctx, strings.TrimSpace(uid))
}

func (u *MemberUsecase) Count(ctx context.Context, f memdom.Filter) (int, error) {
	b, err := scopedBranch(ctx)
	if err != nil {
		return 0, err
	}
	if b != "" {
		f.Branch = b
	}
	return u.repo.Count(ctx, f)
}

// List forces a branch admin's own branch regardless of the requested filter.
func (u *MemberUsecase) List(
	ctx context.Context,
	f memdom.Filter,
	s common.Sort,
	p common.Page,
) (common.PageResult[memdom.Member], error) {
	b, err := scopedBranch(ctx)
	if err != nil {
		return common.PageResult[memdom.Member]{}, err
	}
	if b != "" {
		f.Branch = b
	}
	return u.repo.List(ctx, f, s, p)
}

// ─────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────

type CreateMemberInput struct {
	ID          string `validate:"omitempty,uuid"`
	NPA         string `validate:"omitempty,max=32"`
	FullName    string `validate:"required,max=200"`
	Email       string `validate:"omitempty,email"`
	Phone       string `validate:"omitempty,max=32"`
	Gender      string `validate:"omitempty,oneof=L P l p"`
	Province    string `validate:"omitempty,max=100"`
	Branch      string `validate:"omitempty,max=100"`
	City        string `validate:"omitempty,max=100"`
	Status      string `validate:"omitempty,oneof=active inactive"`
	Role        string `validate:"omitempty,max=32"`
	FirebaseUID string `validate:"omitempty,max=128"`

	// CreatedAt defaults to now.
	CreatedAt *time.Time
}

func (u *MemberUsecase) Create(ctx context.Context, in CreateMemberInput) (memdom.Member, error) {
	if err := validateInput(in); err != nil {
		return memdom.Member{}, err
	}

	createdAt := u.now().UTC()
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		createdAt = in.CreatedAt.UTC()
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = u.newID()
	}

	r := role.Member
	if strings.TrimSpace(in.Role) != "" {
		parsed, err := role.Parse(in.Role)
		if err != nil {
			return memdom.Member{}, memdom.ErrInvalidRole
		}
		r = parsed
	}
	if err := checkRoleAssignment(ctx, r); err != nil {
		return memdom.Member{}, err
	}

	branch := in.Branch
	b, err := scopedBranch(ctx)
	if err != nil {
		return memdom.Member{}, err
	}
	if b != "" {
		branch = b
	}

	opts := []func(*memdom.Member){
		memdom.WithNPA(in.NPA),
		memdom.WithEmail(in.Email),
		memdom.WithPhone(in.Phone),
		memdom.WithGender(in.Gender),
		memdom.WithLocation(in.Province, branch, in.City),
		memdom.WithRole(r),
		memdom.WithFirebaseUID(in.FirebaseUID),
	}
	if in.Status != "" {
		opts = append(opts, memdom.WithStatus(in.Status))
	}
	m, err := memdom.New(id, in.FullName, createdAt, opts...)
	if err != nil {
		return memdom.Member{}, err
	}
	return u.repo.Create(ctx, m)
}

type UpdateMemberInput struct {
	NPA      *string `validate:"omitempty,max=32"`
	FullName *string `validate:"omitempty,min=1,max=200"`
	Email    *string `validate:"omitempty,email"`
	Phone    *string `validate:"omitempty,max=32"`
	Gender   *string `validate:"omitempty,oneof=L P l p"`
	Province *string `validate:"omitempty,max=100"`
	Branch   *string `validate:"omitempty,max=100"`
	City     *string `validate:"omitempty,max=100"`
	Status   *string `validate:"omitempty,oneof=active inactive"`
}

// Update applies in to the member. Role changes go through SetRole.
func (u *MemberUsecase) Update(ctx context.Context, id string, in UpdateMemberInput) (memdom.Member, error) {
	if err := validateInput(in); err != nil {
		return memdom.Member{}, err
	}
	current, err := u.GetByID(ctx, id)
	if err != nil {
		return memdom.Member{}, err
	}

	patch := memdom.MemberPatch{
		NPA:      trimPtr(in.NPA),
		FullName: trimPtr(in.FullName),
		Email:    trimPtr(in.Email),
		Phone:    trimPtr(in.Phone),
		Gender:   trimPtr(in.Gender),
		Province: trimPtr(in.Province),
		Branch:   trimPtr(in.Branch),
		City:     trimPtr(in.City),
		Status:   trimPtr(in.Status),
	}
	// branch admins cannot move a member out of their branch
	if b, _ := scopedBranch(ctx); b != "" && patch.Branch != nil && !strings.EqualFold(*patch.Branch, b) {
		return memdom.Member{}, memdom.ErrForbidden
	}
	return u.save(ctx, current, patch)
}

// SetRole assigns r to the member. Only central admins (or system callers)
// may assign roles.
func (u *MemberUsecase) SetRole(ctx context.Context, id string, r role.Role) (memdom.Member, error) {
	if !r.Valid() {
		return memdom.Member{}, memdom.ErrInvalidRole
	}
	if a, ok := ActorFromContext(ctx); ok && a.Role != role.CentralAdmin {
		return memdom.Member{}, memdom.ErrForbidden
	}
	current, err := u.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return memdom.Member{}, err
	}
	if r == role.BranchAdmin && strings.TrimSpace(current.Branch) == "" {
		return memdom.Member{}, fmt.Errorf("%w: branch admin needs a branch", ErrInvalidInput)
	}
	return u.save(ctx, current, memdom.MemberPatch{Role: ptr(r.String())})
}

// Delete soft-deletes the member.
func (u *MemberUsecase) Delete(ctx context.Context, id string) error {
	current, err := u.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.IsDeleted() {
		return nil
	}
	if err := current.MarkDeleted(u.now(), actorID(ctx)); err != nil {
		return err
	}
	_, err = u.repo.Update(ctx, current.ID, memdom.MemberPatch{
		DeletedAt: current.DeletedAt,
		DeletedBy: current.DeletedBy,
	})
	return err
}

// UploadPhoto stores the photo and records its object path on the member.
func (u *MemberUsecase) UploadPhoto(ctx context.Context, id, contentType string, data []byte) (memdom.Member, error) {
	if u.photos == nil {
		return memdom.Member{}, ErrPhotoStoreMissing
	}
	switch {
	case len(data) == 0, len(data) > MaxPhotoBytes:
		return memdom.Member{}, fmt.Errorf("%w: photo size", ErrInvalidInput)
	case contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp":
		return memdom.Member{}, fmt.Errorf("%w: photo content type %q", ErrInvalidInput, contentType)
	}

	current, err := u.GetByID(ctx, id)
	if err != nil {
		return memdom.Member{}, err
	}
	path, err := u.photos.Put(ctx, current.ID, contentType, data)
	if err != nil {
		return memdom.Member{}, err
	}
	return u.save(ctx, current, memdom.MemberPatch{PhotoPath: &path})
}

// PhotoURL returns a short-lived URL for the member's photo.
func (u *MemberUsecase) PhotoURL(ctx context.Context, id string) (string, error) {
	if u.photos == nil {
		return "", ErrPhotoStoreMissing
	}
	m, err := u.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if m.PhotoPath == "" {
		return "", memdom.ErrNotFound
	}
	return u.photos.SignedURL(ctx, m.PhotoPath)
}

// save validates current+patch before handing the patch to the repository.
func (u *MemberUsecase) save(ctx context.Context, current memdom.Member, patch memdom.MemberPatch) (memdom.Member, error) {
	if err := current.TouchUpdated(u.now(), actorID(ctx)); err != nil {
		return memdom.Member{}, err
	}
	patch.UpdatedAt = current.UpdatedAt
	patch.UpdatedBy = current.UpdatedBy

	next := current
	patch.Apply(&next)
	if err := next.Validate(); err != nil {
		return memdom.Member{}, err
	}
	return u.repo.Update(ctx, current.ID, patch.Resolve(next))
}

func checkBranch(ctx context.Context, m memdom.Member) error {
	b, err := scopedBranch(ctx)
	if err != nil {
		return err
	}
	if b == "" || strings.EqualFold(b, m.Branch) {
		return nil
	}
	return memdom.ErrForbidden
}

func checkRoleAssignment(ctx context.Context, r role.Role) error {
	if r == role.Member {
		return nil
	}
	if a, ok := ActorFromContext(ctx); ok && a.Role != role.CentralAdmin {
		return memdom.ErrForbidden
	}
	return nil
}
