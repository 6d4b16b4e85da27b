package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin_pusat", CentralAdmin},
		{" ADMIN_PUSAT ", CentralAdmin},
		{"admin_cabang", BranchAdmin},
		{"cabang", BranchAdmin},
		{"anggota", Member},
		{"", Member},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	got, err := Parse("root")
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Equal(t, Unknown, got)
	assert.Equal(t, Unknown, MustParse("root"))
}

func TestCapabilities(t *testing.T) {
	assert.True(t, AnyAdmin(CentralAdmin))
	assert.True(t, AnyAdmin(BranchAdmin))
	assert.False(t, AnyAdmin(Member))
	assert.False(t, AnyAdmin(Unknown))

	assert.True(t, CentralAdminOnly(CentralAdmin))
	assert.False(t, CentralAdminOnly(BranchAdmin))
	assert.False(t, CentralAdminOnly(Member))

	assert.True(t, AnyMember(Member))
	assert.False(t, AnyMember(Unknown))
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "/dashboard", BranchAdmin.Fallback())
	assert.Equal(t, "/profile", Member.Fallback())
	assert.Equal(t, "/", Unknown.Fallback())
}
