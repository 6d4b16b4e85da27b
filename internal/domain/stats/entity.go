// internal/domain/stats/entity.go
package stats

import (
	"sort"
	"strings"

	"github.com/Argy1/pdpi-member-sub002/internal/domain/province"
)

// FilterParams is the set of optional filter dimensions applied to a
// statistics query. It is a comparable value: two params are equal when every
// field is equal, and an empty field means "no filter on that dimension".
type FilterParams struct {
	Query    string `json:"q,omitempty"`
	Province string `json:"province,omitempty"`
	Branch   string `json:"branch,omitempty"`
	City     string `json:"city,omitempty"`
	Status   string `json:"status,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// Normalized trims every field and canonicalises the province name.
func (p FilterParams) Normalized() FilterParams {
	return FilterParams{
		Query:    strings.TrimSpace(p.Query),
		Province: province.MustNormalize(p.Province),
		Branch:   strings.TrimSpace(p.Branch),
		City:     strings.TrimSpace(p.City),
		Status:   strings.ToLower(strings.TrimSpace(p.Status)),
		Gender:   strings.ToUpper(strings.TrimSpace(p.Gender)),
	}
}

// IsZero reports whether no dimension is filtered.
func (p FilterParams) IsZero() bool {
	return p == FilterParams{}
}

// Key is a stable cache key for p.
func (p FilterParams) Key() string {
	var b strings.Builder
	for _, kv := range [...][2]string{
		{"q", p.Query},
		{"province", p.Province},
		{"branch", p.Branch},
		{"city", p.City},
		{"status", p.Status},
		{"gender", p.Gender},
	} {
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(strings.ToLower(kv[1]))
		b.WriteByte(';')
	}
	return b.String()
}

// Summary is an aggregate snapshot for one FilterParams value. It is replaced
// wholesale on every successful fetch.
type Summary struct {
	Total    int `json:"total"`
	Male     int `json:"male"`
	Female   int `json:"female"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// UnknownProvince labels members without a province in region stats.
const UnknownProvince = "Unknown"

// RegionStat is the member count of one province. Sequences of RegionStat keep
// the order returned by the source.
type RegionStat struct {
	Province string `json:"province"`
	Count    int    `json:"count"`
}

// SortRegions orders region stats the way every Source reports them:
// largest count first, ties by province name.
func SortRegions(rs []RegionStat) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Count != rs[j].Count {
			return rs[i].Count > rs[j].Count
		}
		return rs[i].Province < rs[j].Province
	})
}
