package member

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Argy1/pdpi-member-sub002/internal/domain/role"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

var created = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNew_NormalizesFields(t *testing.T) {
	m, err := New("m-1", "  Siti   Rahma ", created,
		WithEmail(" Siti@Example.COM "),
		WithGender("p"),
		WithLocation("jabar", " Bandung ", "Bandung"),
	)
	require.NoError(t, err)

	assert.Equal(t, "Siti Rahma", m.FullName)
	assert.Equal(t, "siti@example.com", m.Email)
	assert.Equal(t, GenderFemale, m.Gender)
	assert.Equal(t, "Jawa Barat", m.Province)
	assert.Equal(t, "Bandung", m.Branch)
	assert.Equal(t, StatusActive, m.Status)
	assert.Equal(t, role.Member, m.RoleValue())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		id   string
		full string
		opts []func(*Member)
		want error
	}{
		{"missing id", "", "A", nil, ErrInvalidID},
		{"missing name", "m", "", nil, ErrInvalidName},
		{"bad email", "m", "A", []func(*Member){WithEmail("nope")}, ErrInvalidEmail},
		{"bad gender", "m", "A", []func(*Member){WithGender("X")}, ErrInvalidGender},
		{"bad status", "m", "A", []func(*Member){WithStatus("gone")}, ErrInvalidStatus},
		{"bad role", "m", "A", []func(*Member){func(m *Member) { m.Role = "root" }}, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.id, tt.full, created, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPatchApply(t *testing.T) {
	m, err := New("m-1", "Budi", created)
	require.NoError(t, err)

	prov := "jatim"
	status := "INACTIVE"
	MemberPatch{Province: &prov, Status: &status}.Apply(&m)

	assert.Equal(t, "Jawa Timur", m.Province)
	assert.Equal(t, StatusInactive, m.Status)
	assert.Equal(t, "Budi", m.FullName)
}

func TestMarkDeleted(t *testing.T) {
	m, err := New("m-1", "Budi", created)
	require.NoError(t, err)

	assert.ErrorIs(t, m.MarkDeleted(created.Add(-time.Hour), "x"), ErrInvalidDeletedAt)
	require.NoError(t, m.MarkDeleted(created.Add(time.Hour), "admin-1"))
	assert.True(t, m.IsDeleted())
	require.NotNil(t, m.DeletedBy)
	assert.Equal(t, "admin-1", *m.DeletedBy)
}

func TestFilterMatch(t *testing.T) {
	m, err := New("m-1", "Siti Rahma", created,
		WithNPA("12345"),
		WithGender("P"),
		WithLocation("Jawa Barat", "Bandung", "Cimahi"),
	)
	require.NoError(t, err)

	assert.True(t, Filter{}.Match(m))
	assert.True(t, Filter{SearchQuery: "rahma"}.Match(m))
	assert.True(t, Filter{SearchQuery: "123"}.Match(m))
	assert.True(t, Filter{Province: "jawa barat", Gender: "P"}.Match(m))
	assert.False(t, Filter{Gender: "L"}.Match(m))
	assert.False(t, Filter{Branch: "Bogor"}.Match(m))

	require.NoError(t, m.MarkDeleted(created.Add(time.Hour), ""))
	assert.False(t, Filter{}.Match(m))
	assert.True(t, Filter{IncludeDeleted: true}.Match(m))
}

func TestFilterFromParams(t *testing.T) {
	f := FilterFromParams(stats.FilterParams{Province: "JABAR", Gender: "l", Status: " Active "})
	assert.Equal(t, "Jawa Barat", f.Province)
	assert.Equal(t, GenderMale, f.Gender)
	assert.Equal(t, StatusActive, f.Status)
}

func TestFormatDisplayName(t *testing.T) {
	assert.Equal(t, "Siti Rahma (123)", FormatDisplayName(" Siti  Rahma", "123"))
	assert.Equal(t, "Siti", FormatDisplayName("Siti", ""))
	assert.Equal(t, "123", FormatDisplayName("", "123"))
}
