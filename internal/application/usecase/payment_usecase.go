package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	paydom "github.com/Argy1/pdpi-member-sub002/internal/domain/payment"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
)

// DefaultPaymentListLimit caps admin payment listings.
const DefaultPaymentListLimit = 200

type PaymentUsecase struct {
	repo    paydom.Repository
	members memdom.Repository
	now     func() time.Time
	newID   func() string
}

func NewPaymentUsecase(repo paydom.Repository, members memdom.Repository) *PaymentUsecase {
	return &PaymentUsecase{
		repo:    repo,
		members: members,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// ListByMember returns the payments of one member. Plain members only see
// their own; branch admins only members of their branch.
func (u *PaymentUsecase) ListByMember(ctx context.Context, memberID string) ([]paydom.Payment, error) {
	memberID = strings.TrimSpace(memberID)
	if err := u.checkMember(ctx, memberID); err != nil {
		return nil, err
	}
	return u.repo.ListByMember(ctx, memberID)
}

func (u *PaymentUsecase) List(ctx context.Context, f paydom.Filter, limit int) ([]paydom.Payment, error) {
	if limit <= 0 || limit > DefaultPaymentListLimit {
		limit = DefaultPaymentListLimit
	}
	// plain members only ever list their own payments
	if a, ok := ActorFromContext(ctx); ok && !a.Role.IsAdmin() {
		f.MemberID = a.MemberID
	}
	if f.MemberID != "" {
		if err := u.checkMember(ctx, f.MemberID); err != nil {
			return nil, err
		}
	}
	b, err := scopedBranch(ctx)
	if err != nil {
		return nil, err
	}
	if b != "" {
		f.Branch = b
	}
	return u.repo.List(ctx, f, limit)
}

type RecordPaymentInput struct {
	MemberID  string    `validate:"required"`
	Period    string    `validate:"required"`
	Amount    int64     `validate:"gt=0"`
	Method    string    `validate:"omitempty,max=50"`
	Reference string    `validate:"omitempty,max=100"`
	PaidAt    time.Time `validate:"required"`
}

func (u *PaymentUsecase) Record(ctx context.Context, in RecordPaymentInput) (paydom.Payment, error) {
	if err := validateInput(in); err != nil {
		return paydom.Payment{}, err
	}
	if err := u.checkMember(ctx, in.MemberID); err != nil {
		return paydom.Payment{}, err
	}
	p, err := paydom.New(u.newID(), in.MemberID, in.Period, in.Amount, in.PaidAt, u.now())
	if err != nil {
		return paydom.Payment{}, err
	}
	p.Method = strings.TrimSpace(in.Method)
	p.Reference = strings.TrimSpace(in.Reference)
	return u.repo.Create(ctx, p)
}

// Settle marks a pending payment verified or rejected.
func (u *PaymentUsecase) Settle(ctx context.Context, id string, next paydom.Status) (paydom.Payment, error) {
	p, err := u.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return paydom.Payment{}, err
	}
	if err := u.checkMember(ctx, p.MemberID); err != nil {
		return paydom.Payment{}, err
	}
	if err := p.Settle(next, actorID(ctx), u.now()); err != nil {
		return paydom.Payment{}, err
	}
	return u.repo.Save(ctx, p)
}

func (u *PaymentUsecase) checkMember(ctx context.Context, memberID string) error {
	a, ok := ActorFromContext(ctx)
	if !ok || a.Role == role.CentralAdmin {
		return nil
	}
	if a.Role == role.BranchAdmin {
		if _, err := scopedBranch(ctx); err != nil {
			return err
		}
		m, err := u.members.GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		return checkBranch(ctx, m)
	}
	if a.MemberID != memberID {
		return memdom.ErrForbidden
	}
	return nil
}
