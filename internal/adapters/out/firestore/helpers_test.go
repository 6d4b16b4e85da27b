package firestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/Argy1/pdpi-member-sub002/internal/domain/common"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	paydom "github.com/Argy1/pdpi-member-sub002/internal/domain/payment"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

func strp(s string) *string { return &s }

func TestMemberUpdates_OnlySetFields(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	ups := memberUpdates(memdom.MemberPatch{
		FullName:  strp("Siti"),
		Province:  strp("Jawa Barat"),
		UpdatedAt: &at,
		UpdatedBy: strp("admin-1"),
	})
	assert.Equal(t, []firestore.Update{
		{Path: "fullName", Value: "Siti"},
		{Path: "province", Value: "Jawa Barat"},
		{Path: "updatedAt", Value: at.UTC()},
		{Path: "updatedBy", Value: "admin-1"},
	}, ups)

	assert.Empty(t, memberUpdates(memdom.MemberPatch{}))
}

func TestSortMembers(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, name string, joined time.Time) memdom.Member {
		return memdom.Member{ID: id, FullName: name, CreatedAt: joined}
	}
	ids := func(ms []memdom.Member) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.ID
		}
		return out
	}
	base := func() []memdom.Member {
		return []memdom.Member{
			mk("b", "budi", t0.Add(time.Hour)),
			mk("a", "Andi", t0),
			mk("c", "citra", t0.Add(2*time.Hour)),
			mk("d", "andi", t0),
		}
	}

	ms := base()
	sortMembers(ms, common.Sort{Column: string(memdom.SortByName), Order: common.SortAsc})
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids(ms))

	ms = base()
	sortMembers(ms, common.Sort{Column: string(memdom.SortByJoinedAt), Order: common.SortAsc})
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids(ms))

	ms = base()
	sortMembers(ms, common.Sort{})
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids(ms))
}

func TestStatsAccumulation(t *testing.T) {
	members := []memdom.Member{
		{Gender: memdom.GenderMale, Status: memdom.StatusActive, Province: "Bali"},
		{Gender: memdom.GenderFemale, Status: memdom.StatusActive, Province: "DKI Jakarta"},
		{Gender: memdom.GenderFemale, Status: memdom.StatusInactive, Province: "DKI Jakarta"},
		{Province: ""},
	}
	var s statsdom.Summary
	counts := regionCounter{}
	for _, m := range members {
		addToSummary(&s, m)
		counts.add(m)
	}

	assert.Equal(t, statsdom.Summary{Total: 4, Male: 1, Female: 2, Active: 2, Inactive: 1}, s)
	assert.Equal(t, []statsdom.RegionStat{
		{Province: "DKI Jakarta", Count: 2},
		{Province: "Bali", Count: 1},
		{Province: statsdom.UnknownProvince, Count: 1},
	}, counts.stats())
}

func TestRegionCounter_EmptyIsNonNil(t *testing.T) {
	out := regionCounter{}.stats()
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestInBranch_LooksUpEachMemberOnce(t *testing.T) {
	branches := map[string]string{"m-1": "Bandung", "m-2": "Bogor"}
	calls := 0
	keep := inBranch(context.Background(), "bandung", func(_ context.Context, id string) (string, error) {
		calls++
		return branches[id], nil
	})

	for _, tc := range []struct {
		member string
		want   bool
	}{
		{"m-1", true},
		{"m-2", false},
		{"m-1", true},
		{"m-3", false},
	} {
		ok, err := keep(paydom.Payment{MemberID: tc.member})
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, tc.member)
	}
	assert.Equal(t, 3, calls)
}

func TestInBranch_LookupError(t *testing.T) {
	boom := errors.New("unavailable")
	keep := inBranch(context.Background(), "Bandung", func(context.Context, string) (string, error) {
		return "", boom
	})
	_, err := keep(paydom.Payment{MemberID: "m-1"})
	assert.ErrorIs(t, err, boom)
}
