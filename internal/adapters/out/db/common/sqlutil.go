// internal/adapters/out/db/common/sqlutil.go
package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// RowScanner is satisfied by both *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// IsUniqueViolation detects PostgreSQL duplicate-key errors.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Runner is the common surface of *sql.DB and *sql.Tx.
type Runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type txKey struct{}

// CtxWithTx stores tx on ctx so repositories join the transaction.
func CtxWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetRunner returns the transaction on ctx, or db.
func GetRunner(ctx context.Context, db *sql.DB) Runner {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok && tx != nil {
		return tx
	}
	return db
}

// QueryCount runs a COUNT(*) query.
func QueryCount(ctx context.Context, r Runner, query string, args ...any) (int, error) {
	var total int
	if err := r.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// NormalizePage clamps page number and size and returns limit/offset.
func NormalizePage(number, perPage, defaultPerPage, maxPerPage int) (page int, limit int, offset int) {
	page = number
	if page <= 0 {
		page = 1
	}
	limit = perPage
	if limit <= 0 {
		limit = defaultPerPage
	}
	if maxPerPage > 0 && limit > maxPerPage {
		limit = maxPerPage
	}
	offset = (page - 1) * limit
	return
}

// ComputeTotalPages is ceil(total / perPage).
func ComputeTotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// BuildOrderBy turns a domain sort into a whitelisted ORDER BY clause.
// allowed maps lower-cased domain column names to SQL columns.
func BuildOrderBy(column string, allowed map[string]string, order string, fallback string) string {
	sqlCol, ok := allowed[strings.ToLower(strings.TrimSpace(column))]
	if !ok || sqlCol == "" {
		if fallback == "" {
			return ""
		}
		return "ORDER BY " + fallback
	}
	dir := strings.ToUpper(order)
	if dir != "ASC" && dir != "DESC" {
		dir = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s", sqlCol, dir)
}

// AppendCond appends a condition whose "%d" is replaced by the next placeholder index.
func AppendCond(where *[]string, args *[]any, exprFmt string, val any) {
	*where = append(*where, fmt.Sprintf(exprFmt, len(*args)+1))
	*args = append(*args, val)
}

// WhereSQL joins conditions with AND; empty input yields "".
func WhereSQL(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(where, " AND ")
}

func FromNullString(ns sql.NullString) *string {
	if ns.Valid {
		v := ns.String
		return &v
	}
	return nil
}

func FromNullTime(nt sql.NullTime) *time.Time {
	if nt.Valid {
		v := nt.Time.UTC()
		return &v
	}
	return nil
}

// ToDBText converts *string to a nullable parameter (nil/blank → NULL).
func ToDBText(p *string) any {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return s
}

// NullIfEmpty maps "" to NULL.
func NullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// ToDBTime converts *time.Time to a nullable UTC parameter.
func ToDBTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
