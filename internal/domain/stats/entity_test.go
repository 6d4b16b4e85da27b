package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterParams_Normalized(t *testing.T) {
	p := FilterParams{Query: "  budi ", Province: "jabar", Status: "ACTIVE", Gender: "l"}.Normalized()
	assert.Equal(t, FilterParams{Query: "budi", Province: "Jawa Barat", Status: "active", Gender: "L"}, p)
	assert.False(t, p.IsZero())
	assert.True(t, FilterParams{}.Normalized().IsZero())
}

func TestFilterParams_KeyDistinguishesFields(t *testing.T) {
	a := FilterParams{Province: "Bali"}
	b := FilterParams{City: "Bali"}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), FilterParams{Province: "BALI"}.Key())
}

func TestSortRegions(t *testing.T) {
	rs := []RegionStat{{"Bali", 2}, {"Aceh", 5}, {"Papua", 2}}
	SortRegions(rs)
	assert.Equal(t, []RegionStat{{"Aceh", 5}, {"Bali", 2}, {"Papua", 2}}, rs)
}

func TestRemoteError(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := error(&RemoteError{Op: OpRegions, Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "stats: regions: dial tcp: timeout", err.Error())
	assert.Equal(t, "stats: summary failed", (&RemoteError{Op: OpSummary}).Error())
}

func TestFreshRead(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsFreshRead(ctx))
	assert.True(t, IsFreshRead(WithFreshRead(ctx)))
}
