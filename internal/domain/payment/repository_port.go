// internal/domain/payment/repository_port.go
package payment

import "context"

// Filter for payment listings.
type Filter struct {
	MemberID string
	Period   string
	Status   Status
	// Branch keeps payments of members in that branch (case-insensitive).
	Branch string
}

// Repository is the persistence port for payments.
type Repository interface {
	GetByID(ctx context.Context, id string) (Payment, error)
	ListByMember(ctx context.Context, memberID string) ([]Payment, error)
	List(ctx context.Context, f Filter, limit int) ([]Payment, error)
	Create(ctx context.Context, p Payment) (Payment, error)
	// Save overwrites the stored payment with p.
	Save(ctx context.Context, p Payment) (Payment, error)
}
