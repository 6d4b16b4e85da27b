package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	dbcommon "github.com/Argy1/pdpi-member-sub002/internal/adapters/out/db/common"
	paydom "github.com/Argy1/pdpi-member-sub002/internal/domain/payment"
)

// PaymentRepositoryPG is the PostgreSQL implementation of payment.Repository.
type PaymentRepositoryPG struct {
	DB *sql.DB
}

func NewPaymentRepositoryPG(db *sql.DB) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{DB: db}
}

var _ paydom.Repository = (*PaymentRepositoryPG)(nil)

const paymentColumns = `
  id::text,
  member_id::text,
  period,
  amount,
  method,
  reference,
  status,
  paid_at,
  verified_at,
  verified_by,
  created_at`

func (r *PaymentRepositoryPG) GetByID(ctx context.Context, id string) (paydom.Payment, error) {
	q := "SELECT " + paymentColumns + "\nFROM payments\nWHERE id::text = $1"
	p, err := scanPayment(dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, q, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return paydom.Payment{}, paydom.ErrNotFound
		}
		return paydom.Payment{}, err
	}
	return p, nil
}

func (r *PaymentRepositoryPG) ListByMember(ctx context.Context, memberID string) ([]paydom.Payment, error) {
	return r.List(ctx, paydom.Filter{MemberID: memberID}, 0)
}

func (r *PaymentRepositoryPG) List(ctx context.Context, f paydom.Filter, limit int) ([]paydom.Payment, error) {
	where, args := buildPaymentWhere(f)
	q := "SELECT " + paymentColumns + "\nFROM payments\n" + dbcommon.WhereSQL(where) +
		"\nORDER BY paid_at DESC, id"
	if limit > 0 {
		q += fmt.Sprintf("\nLIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := dbcommon.GetRunner(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []paydom.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PaymentRepositoryPG) Create(ctx context.Context, p paydom.Payment) (paydom.Payment, error) {
	q := `
INSERT INTO payments (
  id, member_id, period, amount, method, reference, status, paid_at, verified_at, verified_by, created_at
) VALUES (
  COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
RETURNING` + paymentColumns
	out, err := scanPayment(dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, q, paymentArgs(p)...))
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return paydom.Payment{}, paydom.ErrConflict
		}
		return paydom.Payment{}, err
	}
	return out, nil
}

// Save overwrites the mutable columns of an existing payment.
func (r *PaymentRepositoryPG) Save(ctx context.Context, p paydom.Payment) (paydom.Payment, error) {
	q := `
UPDATE payments SET
  period      = $2,
  amount      = $3,
  method      = $4,
  reference   = $5,
  status      = $6,
  paid_at     = $7,
  verified_at = $8,
  verified_by = $9
WHERE id::text = $1
RETURNING` + paymentColumns
	args := paymentArgs(p)
	out, err := scanPayment(dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, q,
		append([]any{args[0]}, args[2:10]...)...,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return paydom.Payment{}, paydom.ErrNotFound
		}
		return paydom.Payment{}, err
	}
	return out, nil
}

func paymentArgs(p paydom.Payment) []any {
	return []any{
		p.ID,
		p.MemberID,
		p.Period,
		p.Amount,
		p.Method,
		p.Reference,
		string(p.Status),
		p.PaidAt.UTC(),
		dbcommon.ToDBTime(p.VerifiedAt),
		dbcommon.ToDBText(p.VerifiedBy),
		p.CreatedAt.UTC(),
	}
}

func scanPayment(s dbcommon.RowScanner) (paydom.Payment, error) {
	var (
		p                     paydom.Payment
		method, ref, verifier sql.NullString
		status                string
		verifiedAt            sql.NullTime
	)
	if err := s.Scan(
		&p.ID,
		&p.MemberID,
		&p.Period,
		&p.Amount,
		&method,
		&ref,
		&status,
		&p.PaidAt,
		&verifiedAt,
		&verifier,
		&p.CreatedAt,
	); err != nil {
		return paydom.Payment{}, err
	}
	p.Method = method.String
	p.Reference = ref.String
	p.Status = paydom.Status(status)
	p.PaidAt = p.PaidAt.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.VerifiedAt = dbcommon.FromNullTime(verifiedAt)
	p.VerifiedBy = dbcommon.FromNullString(verifier)
	return p, nil
}

// buildPaymentWhere translates a payment filter into WHERE conditions. The
// branch lives on the member row and is matched through a subquery.
func buildPaymentWhere(f paydom.Filter) ([]string, []any) {
	where := []string{}
	args := []any{}
	if v := strings.TrimSpace(f.MemberID); v != "" {
		dbcommon.AppendCond(&where, &args, "member_id::text = $%d", v)
	}
	if v := strings.TrimSpace(f.Period); v != "" {
		dbcommon.AppendCond(&where, &args, "period = $%d", v)
	}
	if f.Status != "" {
		dbcommon.AppendCond(&where, &args, "status = $%d", string(f.Status))
	}
	if v := strings.TrimSpace(f.Branch); v != "" {
		dbcommon.AppendCond(&where, &args,
			"member_id IN (SELECT id FROM members WHERE LOWER(branch) = LOWER($%d))", v)
	}
	return where, args
}
