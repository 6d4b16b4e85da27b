// internal/domain/member/entity.go
package member

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Argy1/pdpi-member-sub002/internal/domain/province"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	GenderMale   = "L"
	GenderFemale = "P"
)

// Member is a directory entry.
type Member struct {
	ID        string `json:"id" firestore:"id"`
	NPA       string `json:"npa,omitempty" firestore:"npa"` // association membership number
	FullName  string `json:"fullName" firestore:"fullName"`
	Email     string `json:"email,omitempty" firestore:"email"`
	Phone     string `json:"phone,omitempty" firestore:"phone"`
	Gender    string `json:"gender,omitempty" firestore:"gender"` // "L" | "P"
	Province  string `json:"province,omitempty" firestore:"province"`
	Branch    string `json:"branch,omitempty" firestore:"branch"`
	City      string `json:"city,omitempty" firestore:"city"`
	Status    string `json:"status,omitempty" firestore:"status"` // "active" | "inactive"
	Role      string `json:"role,omitempty" firestore:"role"`
	PhotoPath string `json:"photoPath,omitempty" firestore:"photoPath"`

	FirebaseUID string `json:"firebaseUid,omitempty" firestore:"firebaseUid"`

	CreatedAt time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" firestore:"updatedAt"`
	UpdatedBy *string    `json:"updatedBy,omitempty" firestore:"updatedBy"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" firestore:"deletedAt"`
	DeletedBy *string    `json:"deletedBy,omitempty" firestore:"deletedBy"`
}

var (
	ErrInvalidID        = errors.New("member: invalid id")
	ErrInvalidName      = errors.New("member: invalid fullName")
	ErrInvalidEmail     = errors.New("member: invalid email")
	ErrInvalidGender    = errors.New("member: invalid gender")
	ErrInvalidStatus    = errors.New("member: invalid status")
	ErrInvalidRole      = errors.New("member: invalid role")
	ErrInvalidCreatedAt = errors.New("member: invalid createdAt")
	ErrInvalidUpdatedAt = errors.New("member: invalid updatedAt")
	ErrInvalidDeletedAt = errors.New("member: invalid deletedAt")
	ErrNotFound         = errors.New("member: not found")
	ErrConflict         = errors.New("member: conflict")
	ErrForbidden        = errors.New("member: forbidden")
)

// New constructs a Member with validation. Use empty strings for optional fields.
func New(id, fullName string, createdAt time.Time, opts ...func(*Member)) (Member, error) {
	m := Member{
		ID:        strings.TrimSpace(id),
		FullName:  strings.TrimSpace(fullName),
		Status:    StatusActive,
		Role:      role.Member.String(),
		CreatedAt: createdAt,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.Normalize()
	if err := m.Validate(); err != nil {
		return Member{}, err
	}
	return m, nil
}

/* ---------- Option helpers ---------- */

func WithNPA(npa string) func(*Member) {
	return func(m *Member) { m.NPA = npa }
}

func WithEmail(email string) func(*Member) {
	return func(m *Member) { m.Email = email }
}

func WithPhone(phone string) func(*Member) {
	return func(m *Member) { m.Phone = phone }
}

func WithGender(g string) func(*Member) {
	return func(m *Member) { m.Gender = g }
}

func WithLocation(provinceName, branch, city string) func(*Member) {
	return func(m *Member) {
		m.Province, m.Branch, m.City = provinceName, branch, city
	}
}

func WithStatus(status string) func(*Member) {
	return func(m *Member) { m.Status = status }
}

func WithRole(r role.Role) func(*Member) {
	return func(m *Member) { m.Role = r.String() }
}

func WithFirebaseUID(uid string) func(*Member) {
	return func(m *Member) { m.FirebaseUID = strings.TrimSpace(uid) }
}

/* ------------------------------ Mutators ------------------------------ */

// Normalize trims free text, canonicalises the province and upper-cases gender.
func (m *Member) Normalize() {
	m.NPA = strings.TrimSpace(m.NPA)
	m.FullName = strings.Join(strings.Fields(m.FullName), " ")
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	m.Phone = strings.TrimSpace(m.Phone)
	m.Gender = strings.ToUpper(strings.TrimSpace(m.Gender))
	m.Province = province.MustNormalize(m.Province)
	m.Branch = strings.Join(strings.Fields(m.Branch), " ")
	m.City = strings.Join(strings.Fields(m.City), " ")
	m.Status = strings.ToLower(strings.TrimSpace(m.Status))
	if r, err := role.Parse(m.Role); err == nil {
		m.Role = r.String()
	}
}

// RoleValue returns the parsed role; unknown tags map to role.Unknown.
func (m Member) RoleValue() role.Role {
	return role.MustParse(m.Role)
}

func (m Member) IsDeleted() bool { return m.DeletedAt != nil }

func (m *Member) TouchUpdated(now time.Time, by string) error {
	if now.IsZero() {
		return ErrInvalidUpdatedAt
	}
	t := now.UTC()
	m.UpdatedAt = &t
	if by = strings.TrimSpace(by); by != "" {
		m.UpdatedBy = &by
	}
	return nil
}

func (m *Member) MarkDeleted(now time.Time, by string) error {
	if now.IsZero() || now.Before(m.CreatedAt) {
		return ErrInvalidDeletedAt
	}
	t := now.UTC()
	m.DeletedAt = &t
	if by = strings.TrimSpace(by); by != "" {
		m.DeletedBy = &by
	}
	return nil
}

/* --------------------- Validation --------------------- */

func (m Member) Validate() error {
	if m.ID == "" {
		return ErrInvalidID
	}
	if m.FullName == "" {
		return ErrInvalidName
	}
	if m.Email != "" && !emailRe.MatchString(m.Email) {
		return ErrInvalidEmail
	}
	switch m.Gender {
	case "", GenderMale, GenderFemale:
	default:
		return ErrInvalidGender
	}
	switch m.Status {
	case StatusActive, StatusInactive:
	default:
		return ErrInvalidStatus
	}
	if !role.MustParse(m.Role).Valid() {
		return ErrInvalidRole
	}
	if m.CreatedAt.IsZero() {
		return ErrInvalidCreatedAt
	}
	if m.UpdatedAt != nil && m.UpdatedAt.Before(m.CreatedAt) {
		return ErrInvalidUpdatedAt
	}
	if m.DeletedAt != nil && m.DeletedAt.Before(m.CreatedAt) {
		return ErrInvalidDeletedAt
	}
	return nil
}

// MemberPatch represents partial updates for Member.
// nil fields are ignored by repositories.
type MemberPatch struct {
	NPA       *string
	FullName  *string
	Email     *string
	Phone     *string
	Gender    *string
	Province  *string
	Branch    *string
	City      *string
	Status    *string
	Role      *string
	PhotoPath *string

	FirebaseUID *string

	UpdatedAt *time.Time
	UpdatedBy *string
	DeletedAt *time.Time
	DeletedBy *string
}

// Apply copies non-nil patch fields onto m.
func (p MemberPatch) Apply(m *Member) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&m.NPA, p.NPA)
	set(&m.FullName, p.FullName)
	set(&m.Email, p.Email)
	set(&m.Phone, p.Phone)
	set(&m.Gender, p.Gender)
	set(&m.Province, p.Province)
	set(&m.Branch, p.Branch)
	set(&m.City, p.City)
	set(&m.Status, p.Status)
	set(&m.Role, p.Role)
	set(&m.PhotoPath, p.PhotoPath)
	set(&m.FirebaseUID, p.FirebaseUID)
	if p.UpdatedAt != nil {
		m.UpdatedAt = p.UpdatedAt
	}
	if p.UpdatedBy != nil {
		m.UpdatedBy = p.UpdatedBy
	}
	if p.DeletedAt != nil {
		m.DeletedAt = p.DeletedAt
	}
	if p.DeletedBy != nil {
		m.DeletedBy = p.DeletedBy
	}
	m.Normalize()
}

// Resolve returns p with every set field replaced by the value it has on m,
// where m is the member after Apply (and therefore normalised).
func (p MemberPatch) Resolve(m Member) MemberPatch {
	pick := func(set *string, v string) *string {
		if set == nil {
			return nil
		}
		return &v
	}
	p.NPA = pick(p.NPA, m.NPA)
	p.FullName = pick(p.FullName, m.FullName)
	p.Email = pick(p.Email, m.Email)
	p.Phone = pick(p.Phone, m.Phone)
	p.Gender = pick(p.Gender, m.Gender)
	p.Province = pick(p.Province, m.Province)
	p.Branch = pick(p.Branch, m.Branch)
	p.City = pick(p.City, m.City)
	p.Status = pick(p.Status, m.Status)
	p.Role = pick(p.Role, m.Role)
	p.PhotoPath = pick(p.PhotoPath, m.PhotoPath)
	p.FirebaseUID = pick(p.FirebaseUID, m.FirebaseUID)
	return p
}

// DDL reference (for schema alignment with migrations)
const MembersTableDDL = `
CREATE TABLE IF NOT EXISTS members (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  npa TEXT UNIQUE,
  full_name TEXT NOT NULL,
  email TEXT UNIQUE,
  phone TEXT,
  gender TEXT,
  province TEXT,
  branch TEXT,
  city TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  role TEXT NOT NULL DEFAULT 'anggota',
  photo_path TEXT,
  firebase_uid TEXT UNIQUE,

  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ,
  updated_by TEXT,
  deleted_at TIMESTAMPTZ,
  deleted_by TEXT
);
CREATE INDEX IF NOT EXISTS members_province_idx ON members (province);
CREATE INDEX IF NOT EXISTS members_branch_idx ON members (branch);
`
