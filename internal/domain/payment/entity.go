// internal/domain/payment/entity.go
package payment

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Status of a dues payment.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	default:
		return false
	}
}

// Payment is one membership dues payment.
type Payment struct {
	ID         string     `json:"id" firestore:"id"`
	MemberID   string     `json:"memberId" firestore:"memberId"`
	Period     string     `json:"period" firestore:"period"` // "2024" or "2024-03"
	Amount     int64      `json:"amount" firestore:"amount"` // rupiah
	Method     string     `json:"method,omitempty" firestore:"method"`
	Reference  string     `json:"reference,omitempty" firestore:"reference"`
	Status     Status     `json:"status" firestore:"status"`
	PaidAt     time.Time  `json:"paidAt" firestore:"paidAt"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty" firestore:"verifiedAt"`
	VerifiedBy *string    `json:"verifiedBy,omitempty" firestore:"verifiedBy"`
	CreatedAt  time.Time  `json:"createdAt" firestore:"createdAt"`
}

var (
	ErrInvalidID       = errors.New("payment: invalid id")
	ErrInvalidMemberID = errors.New("payment: invalid memberId")
	ErrInvalidPeriod   = errors.New("payment: invalid period")
	ErrInvalidAmount   = errors.New("payment: invalid amount")
	ErrInvalidStatus   = errors.New("payment: invalid status")
	ErrInvalidPaidAt   = errors.New("payment: invalid paidAt")
	ErrAlreadySettled  = errors.New("payment: already settled")
	ErrNotFound        = errors.New("payment: not found")
	ErrConflict        = errors.New("payment: conflict")
)

var periodRe = regexp.MustCompile(`^\d{4}(-(0[1-9]|1[0-2]))?$`)

// New constructs a pending payment.
func New(id, memberID, period string, amount int64, paidAt, now time.Time) (Payment, error) {
	p := Payment{
		ID:        strings.TrimSpace(id),
		MemberID:  strings.TrimSpace(memberID),
		Period:    strings.TrimSpace(period),
		Amount:    amount,
		Status:    StatusPending,
		PaidAt:    paidAt.UTC(),
		CreatedAt: now.UTC(),
	}
	if err := p.Validate(); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (p Payment) Validate() error {
	if p.ID == "" {
		return ErrInvalidID
	}
	if p.MemberID == "" {
		return ErrInvalidMemberID
	}
	if !periodRe.MatchString(p.Period) {
		return ErrInvalidPeriod
	}
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !IsValidStatus(p.Status) {
		return ErrInvalidStatus
	}
	if p.PaidAt.IsZero() {
		return ErrInvalidPaidAt
	}
	return nil
}

// Settle moves a pending payment to verified or rejected.
func (p *Payment) Settle(next Status, by string, now time.Time) error {
	if next != StatusVerified && next != StatusRejected {
		return ErrInvalidStatus
	}
	if p.Status != StatusPending {
		return ErrAlreadySettled
	}
	t := now.UTC()
	p.Status = next
	p.VerifiedAt = &t
	if by = strings.TrimSpace(by); by != "" {
		p.VerifiedBy = &by
	}
	return nil
}
