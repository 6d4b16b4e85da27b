package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	dbcommon "github.com/Argy1/pdpi-member-sub002/internal/adapters/out/db/common"
	common "github.com/Argy1/pdpi-member-sub002/internal/domain/common"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
)

// MemberRepositoryPG is the PostgreSQL implementation of member.Repository.
type MemberRepositoryPG struct {
	DB *sql.DB
}

func NewMemberRepositoryPG(db *sql.DB) *MemberRepositoryPG {
	return &MemberRepositoryPG{DB: db}
}

var _ memdom.Repository = (*MemberRepositoryPG)(nil)

const memberColumns = `
  id::text,
  npa,
  full_name,
  email,
  phone,
  gender,
  province,
  branch,
  city,
  status,
  role,
  photo_path,
  firebase_uid,
  created_at,
  updated_at,
  updated_by,
  deleted_at,
  deleted_by`

var memberSortColumns = map[string]string{
	strings.ToLower(string(memdom.SortByName)):      "full_name",
	strings.ToLower(string(memdom.SortByNPA)):       "npa",
	strings.ToLower(string(memdom.SortByProvince)):  "province",
	strings.ToLower(string(memdom.SortByJoinedAt)):  "created_at",
	strings.ToLower(string(memdom.SortByUpdatedAt)): "updated_at",
}

// ========================================
// List (filter + sort + pagination)
// ========================================
func (r *MemberRepositoryPG) List(
	ctx context.Context,
	filter memdom.Filter,
	sort common.Sort,
	page common.Page,
) (common.PageResult[memdom.Member], error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	where, args := buildMemberWhere(filter)
	whereSQL := dbcommon.WhereSQL(where)
	orderBy := dbcommon.BuildOrderBy(sort.Column, memberSortColumns, string(sort.Order), "created_at DESC")

	number, limit, offset := dbcommon.NormalizePage(page.Number, page.PerPage, 50, 200)

	total, err := dbcommon.QueryCount(ctx, run, "SELECT COUNT(*) FROM members "+whereSQL, args...)
	if err != nil {
		return common.PageResult[memdom.Member]{}, err
	}

	q := fmt.Sprintf(`SELECT %s
FROM members
%s
%s, id
LIMIT $%d OFFSET $%d`, memberColumns, whereSQL, orderBy, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := run.QueryContext(ctx, q, args...)
	if err != nil {
		return common.PageResult[memdom.Member]{}, err
	}
	defer rows.Close()

	items := make([]memdom.Member, 0, limit)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return common.PageResult[memdom.Member]{}, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return common.PageResult[memdom.Member]{}, err
	}

	return common.PageResult[memdom.Member]{
		Items:      items,
		TotalCount: total,
		TotalPages: dbcommon.ComputeTotalPages(total, limit),
		Page:       number,
		PerPage:    limit,
	}, nil
}

func (r *MemberRepositoryPG) Count(ctx context.Context, filter memdom.Filter) (int, error) {
	where, args := buildMemberWhere(filter)
	return dbcommon.QueryCount(ctx, dbcommon.GetRunner(ctx, r.DB),
		"SELECT COUNT(*) FROM members "+dbcommon.WhereSQL(where), args...)
}

// ========================================
// Lookups
// ========================================
func (r *MemberRepositoryPG) GetByID(ctx context.Context, id string) (memdom.Member, error) {
	return r.getOne(ctx, "id::text = $1", strings.TrimSpace(id))
}

func (r *MemberRepositoryPG) GetByEmail(ctx context.Context, email string) (memdom.Member, error) {
	return r.getOne(ctx, "email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *MemberRepositoryPG) GetByFirebaseUID(ctx context.Context, uid string) (memdom.Member, error) {
	return r.getOne(ctx, "firebase_uid = $1", strings.TrimSpace(uid))
}

func (r *MemberRepositoryPG) getOne(ctx context.Context, cond string, arg string) (memdom.Member, error) {
	if arg == "" {
		return memdom.Member{}, memdom.ErrNotFound
	}
	q := "SELECT " + memberColumns + "\nFROM members\nWHERE " + cond
	m, err := scanMember(dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return memdom.Member{}, memdom.ErrNotFound
		}
		return memdom.Member{}, err
	}
	return m, nil
}

// ========================================
// Create
// ========================================
func (r *MemberRepositoryPG) Create(ctx context.Context, m memdom.Member) (memdom.Member, error) {
	q := `
INSERT INTO members (
  id, npa, full_name, email, phone, gender, province, branch, city,
  status, role, photo_path, firebase_uid, created_at
) VALUES (
  COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()),
  $2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)
RETURNING` + memberColumns

	out, err := scanMember(dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, q,
		m.ID,
		dbcommon.NullIfEmpty(m.NPA),
		m.FullName,
		dbcommon.NullIfEmpty(m.Email),
		m.Phone,
		m.Gender,
		m.Province,
		m.Branch,
		m.City,
		m.Status,
		m.Role,
		m.PhotoPath,
		dbcommon.NullIfEmpty(m.FirebaseUID),
		m.CreatedAt.UTC(),
	))
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return memdom.Member{}, memdom.ErrConflict
		}
		return memdom.Member{}, err
	}
	return out, nil
}

// ========================================
// Update (patch)
// ========================================
func (r *MemberRepositoryPG) Update(ctx context.Context, id string, patch memdom.MemberPatch) (memdom.Member, error) {
	sets, args := buildMemberSet(patch)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, strings.TrimSpace(id))
	q := fmt.Sprintf(`
UPDATE members SET %s
WHERE id::text = $%d
RETURNING%s`, strings.Join(sets, ", "), len(args), memberColumns)

	out, err := scanMember(dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return memdom.Member{}, memdom.ErrNotFound
		}
		if dbcommon.IsUniqueViolation(err) {
			return memdom.Member{}, memdom.ErrConflict
		}
		return memdom.Member{}, err
	}
	return out, nil
}

// Delete removes the row. Soft deletion is an Update with DeletedAt.
func (r *MemberRepositoryPG) Delete(ctx context.Context, id string) error {
	res, err := dbcommon.GetRunner(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM members WHERE id::text = $1`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return memdom.ErrNotFound
	}
	return nil
}

// ========================================
// Helpers
// ========================================
func scanMember(s dbcommon.RowScanner) (memdom.Member, error) {
	var (
		m                                       memdom.Member
		npa, email, phone, gender, prov, branch sql.NullString
		city, status, role, photo, uid          sql.NullString
		updatedBy, deletedBy                    sql.NullString
		createdAt, updatedAt, deletedAt         sql.NullTime
	)
	if err := s.Scan(
		&m.ID,
		&npa,
		&m.FullName,
		&email,
		&phone,
		&gender,
		&prov,
		&branch,
		&city,
		&status,
		&role,
		&photo,
		&uid,
		&createdAt,
		&updatedAt,
		&updatedBy,
		&deletedAt,
		&deletedBy,
	); err != nil {
		return memdom.Member{}, err
	}
	m.NPA = npa.String
	m.Email = email.String
	m.Phone = phone.String
	m.Gender = gender.String
	m.Province = prov.String
	m.Branch = branch.String
	m.City = city.String
	m.Status = status.String
	m.Role = role.String
	m.PhotoPath = photo.String
	m.FirebaseUID = uid.String
	if createdAt.Valid {
		m.CreatedAt = createdAt.Time.UTC()
	}
	m.UpdatedAt = dbcommon.FromNullTime(updatedAt)
	m.UpdatedBy = dbcommon.FromNullString(updatedBy)
	m.DeletedAt = dbcommon.FromNullTime(deletedAt)
	m.DeletedBy = dbcommon.FromNullString(deletedBy)
	return m, nil
}

// buildMemberWhere translates a member filter into WHERE conditions.
// Text dimensions compare case-insensitively, like Filter.Match.
func buildMemberWhere(f memdom.Filter) ([]string, []any) {
	where := []string{}
	args := []any{}

	if sq := strings.TrimSpace(f.SearchQuery); sq != "" {
		dbcommon.AppendCond(&where, &args,
			"(full_name ILIKE $%[1]d OR npa ILIKE $%[1]d OR email ILIKE $%[1]d)",
			"%"+sq+"%")
	}
	for _, c := range []struct{ col, val string }{
		{"province", f.Province},
		{"branch", f.Branch},
		{"city", f.City},
		{"status", f.Status},
		{"gender", f.Gender},
		{"role", f.Role},
	} {
		if v := strings.TrimSpace(c.val); v != "" {
			dbcommon.AppendCond(&where, &args, "LOWER("+c.col+") = LOWER($%d)", v)
		}
	}
	if !f.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	return where, args
}

// buildMemberSet builds the SET list for the non-nil patch fields.
func buildMemberSet(p memdom.MemberPatch) ([]string, []any) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	text := func(col string, v *string) {
		if v != nil {
			add(col, *v)
		}
	}
	unique := func(col string, v *string) {
		if v != nil {
			add(col, dbcommon.NullIfEmpty(*v))
		}
	}

	unique("npa", p.NPA)
	text("full_name", p.FullName)
	unique("email", p.Email)
	text("phone", p.Phone)
	text("gender", p.Gender)
	text("province", p.Province)
	text("branch", p.Branch)
	text("city", p.City)
	text("status", p.Status)
	text("role", p.Role)
	text("photo_path", p.PhotoPath)
	unique("firebase_uid", p.FirebaseUID)
	if p.UpdatedAt != nil {
		add("updated_at", dbcommon.ToDBTime(p.UpdatedAt))
	}
	if p.UpdatedBy != nil {
		add("updated_by", dbcommon.ToDBText(p.UpdatedBy))
	}
	if p.DeletedAt != nil {
		add("deleted_at", dbcommon.ToDBTime(p.DeletedAt))
	}
	if p.DeletedBy != nil {
		add("deleted_by", dbcommon.ToDBText(p.DeletedBy))
	}
	return sets, args
}
