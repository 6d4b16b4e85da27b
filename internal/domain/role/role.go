// internal/domain/role/role.go
package role

import (
	"errors"
	"strings"
)

// Role is the closed set of directory roles.
type Role string

const (
	// Unknown is the zero value: no profile, or a profile with an unrecognised role.
	Unknown      Role = ""
	CentralAdmin Role = "admin_pusat"
	BranchAdmin  Role = "admin_cabang"
	Member       Role = "anggota"
)

var ErrInvalidRole = errors.New("role: invalid role")

// All returns every assignable role.
func All() []Role {
	return []Role{CentralAdmin, BranchAdmin, Member}
}

// Parse maps a stored tag to a Role. Legacy tags from the old console are accepted.
func Parse(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin_pusat", "pusat", "superadmin":
		return CentralAdmin, nil
	case "admin_cabang", "cabang", "admin":
		return BranchAdmin, nil
	case "anggota", "member", "user", "":
		// empty role on an existing profile means a plain member
		return Member, nil
	default:
		return Unknown, ErrInvalidRole
	}
}

// MustParse is Parse that falls back to Unknown.
func MustParse(s string) Role {
	r, err := Parse(s)
	if err != nil {
		return Unknown
	}
	return r
}

func (r Role) Valid() bool {
	switch r {
	case CentralAdmin, BranchAdmin, Member:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether r administers at least one branch.
func (r Role) IsAdmin() bool {
	return r == CentralAdmin || r == BranchAdmin
}

// Home is the landing page after login.
func (r Role) Home() string {
	switch r {
	case CentralAdmin, BranchAdmin:
		return "/dashboard"
	case Member:
		return "/profile"
	default:
		return "/"
	}
}

// Fallback is where a guard sends r after denying access.
func (r Role) Fallback() string {
	return r.Home()
}

// Capability decides whether a role may pass a guard.
type Capability func(Role) bool

// AnyAdmin permits admin_pusat and admin_cabang.
func AnyAdmin(r Role) bool { return r.IsAdmin() }

// CentralAdminOnly permits admin_pusat exactly.
func CentralAdminOnly(r Role) bool { return r == CentralAdmin }

// AnyMember permits every valid role.
func AnyMember(r Role) bool { return r.Valid() }
