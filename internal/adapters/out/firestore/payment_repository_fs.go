// internal/adapters/out/firestore/payment_repository_fs.go
package firestore

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	paydom "github.com/Argy1/pdpi-member-sub002/internal/domain/payment"
)

// PaymentRepositoryFS stores payments in the "payments" collection.
type PaymentRepositoryFS struct {
	Client *firestore.Client
}

func NewPaymentRepositoryFS(client *firestore.Client) *PaymentRepositoryFS {
	return &PaymentRepositoryFS{Client: client}
}

var _ paydom.Repository = (*PaymentRepositoryFS)(nil)

func (r *PaymentRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("payments")
}

func (r *PaymentRepositoryFS) GetByID(ctx context.Context, id string) (paydom.Payment, error) {
	if r.Client == nil {
		return paydom.Payment{}, errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return paydom.Payment{}, paydom.ErrNotFound
	}
	doc, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return paydom.Payment{}, paydom.ErrNotFound
		}
		return paydom.Payment{}, err
	}
	return decodePayment(doc)
}

func (r *PaymentRepositoryFS) ListByMember(ctx context.Context, memberID string) ([]paydom.Payment, error) {
	return r.List(ctx, paydom.Filter{MemberID: memberID}, 0)
}

func (r *PaymentRepositoryFS) List(ctx context.Context, f paydom.Filter, limit int) ([]paydom.Payment, error) {
	if r.Client == nil {
		return nil, errNilClient
	}
	q := r.col().Query
	if v := strings.TrimSpace(f.MemberID); v != "" {
		q = q.Where("memberId", "==", v)
	}
	if v := strings.TrimSpace(f.Period); v != "" {
		q = q.Where("period", "==", v)
	}
	if f.Status != "" {
		q = q.Where("status", "==", string(f.Status))
	}
	q = q.OrderBy("paidAt", firestore.Desc)

	// payments carry no branch; it is resolved per member while scanning
	keep := func(paydom.Payment) (bool, error) { return true, nil }
	if b := strings.TrimSpace(f.Branch); b != "" {
		keep = inBranch(ctx, b, r.memberBranch)
	} else if limit > 0 {
		q = q.Limit(limit)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	out := []paydom.Payment{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := decodePayment(doc)
		if err != nil {
			return nil, err
		}
		ok, err := keep(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// memberBranch reads the branch of one member; a missing member has none.
func (r *PaymentRepositoryFS) memberBranch(ctx context.Context, memberID string) (string, error) {
	doc, err := r.Client.Collection("members").Doc(memberID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", err
	}
	b, _ := doc.Data()["branch"].(string)
	return b, nil
}

// inBranch reports whether a payment's member belongs to branch, looking up
// each member once.
func inBranch(
	ctx context.Context,
	branch string,
	lookup func(ctx context.Context, memberID string) (string, error),
) func(paydom.Payment) (bool, error) {
	seen := map[string]bool{}
	return func(p paydom.Payment) (bool, error) {
		if ok, hit := seen[p.MemberID]; hit {
			return ok, nil
		}
		b, err := lookup(ctx, p.MemberID)
		if err != nil {
			return false, err
		}
		ok := strings.EqualFold(strings.TrimSpace(b), branch)
		seen[p.MemberID] = ok
		return ok, nil
	}
}

func (r *PaymentRepositoryFS) Create(ctx context.Context, p paydom.Payment) (paydom.Payment, error) {
	if r.Client == nil {
		return paydom.Payment{}, errNilClient
	}
	ref := r.col().NewDoc()
	if id := strings.TrimSpace(p.ID); id != "" {
		ref = r.col().Doc(id)
	}
	p.ID = ref.ID
	if _, err := ref.Create(ctx, p); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return paydom.Payment{}, paydom.ErrConflict
		}
		return paydom.Payment{}, err
	}
	return p, nil
}

func (r *PaymentRepositoryFS) Save(ctx context.Context, p paydom.Payment) (paydom.Payment, error) {
	if r.Client == nil {
		return paydom.Payment{}, errNilClient
	}
	if strings.TrimSpace(p.ID) == "" {
		return paydom.Payment{}, paydom.ErrInvalidID
	}
	if _, err := r.col().Doc(p.ID).Set(ctx, p); err != nil {
		return paydom.Payment{}, err
	}
	return p, nil
}

func decodePayment(doc *firestore.DocumentSnapshot) (paydom.Payment, error) {
	var p paydom.Payment
	if err := doc.DataTo(&p); err != nil {
		return paydom.Payment{}, err
	}
	if p.ID == "" {
		p.ID = doc.Ref.ID
	}
	return p, nil
}
