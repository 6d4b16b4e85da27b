// internal/adapters/out/firestore/stats_repository_fs.go
package firestore

import (
	"context"

	"cloud.google.com/go/firestore"

	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

// StatsRepositoryFS aggregates member documents client-side.
type StatsRepositoryFS struct {
	members *MemberRepositoryFS
}

func NewStatsRepositoryFS(client *firestore.Client) *StatsRepositoryFS {
	return &StatsRepositoryFS{members: NewMemberRepositoryFS(client)}
}

var _ statsdom.Source = (*StatsRepositoryFS)(nil)

// statsFields are the only fields Filter.Match and the aggregates read.
var statsFields = []string{
	"fullName", "npa", "email", "gender", "province", "branch", "city", "status", "role", "deletedAt",
}

func (r *StatsRepositoryFS) query() firestore.Query {
	return r.members.col().Select(statsFields...)
}

func (r *StatsRepositoryFS) Summary(ctx context.Context, p statsdom.FilterParams) (statsdom.Summary, error) {
	var s statsdom.Summary
	err := r.members.scan(ctx, r.query(), memdom.FilterFromParams(p), func(m memdom.Member) {
		addToSummary(&s, m)
	})
	if err != nil {
		return statsdom.Summary{}, &statsdom.RemoteError{Op: statsdom.OpSummary, Err: err}
	}
	return s, nil
}

func (r *StatsRepositoryFS) RegionStats(ctx context.Context, p statsdom.FilterParams) ([]statsdom.RegionStat, error) {
	counts := regionCounter{}
	err := r.members.scan(ctx, r.query(), memdom.FilterFromParams(p), counts.add)
	if err != nil {
		return nil, &statsdom.RemoteError{Op: statsdom.OpRegions, Err: err}
	}
	return counts.stats(), nil
}

func addToSummary(s *statsdom.Summary, m memdom.Member) {
	s.Total++
	switch m.Gender {
	case memdom.GenderMale:
		s.Male++
	case memdom.GenderFemale:
		s.Female++
	}
	switch m.Status {
	case memdom.StatusActive:
		s.Active++
	case memdom.StatusInactive:
		s.Inactive++
	}
}

type regionCounter map[string]int

func (c regionCounter) add(m memdom.Member) {
	p := m.Province
	if p == "" {
		p = statsdom.UnknownProvince
	}
	c[p]++
}

func (c regionCounter) stats() []statsdom.RegionStat {
	out := make([]statsdom.RegionStat, 0, len(c))
	for p, n := range c {
		out = append(out, statsdom.RegionStat{Province: p, Count: n})
	}
	statsdom.SortRegions(out)
	return out
}
