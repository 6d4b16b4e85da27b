package db

import (
	"context"
	"database/sql"

	dbcommon "github.com/Argy1/pdpi-member-sub002/internal/adapters/out/db/common"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	statsdom "github.com/Argy1/pdpi-member-sub002/internal/domain/stats"
)

// StatsRepositoryPG computes directory statistics with SQL aggregates.
type StatsRepositoryPG struct {
	DB *sql.DB
}

func NewStatsRepositoryPG(db *sql.DB) *StatsRepositoryPG {
	return &StatsRepositoryPG{DB: db}
}

var _ statsdom.Source = (*StatsRepositoryPG)(nil)

func (r *StatsRepositoryPG) Summary(ctx context.Context, p statsdom.FilterParams) (statsdom.Summary, error) {
	where, args := buildMemberWhere(memdom.FilterFromParams(p))
	q := `
SELECT
  COUNT(*),
  COUNT(*) FILTER (WHERE gender = 'L'),
  COUNT(*) FILTER (WHERE gender = 'P'),
  COUNT(*) FILTER (WHERE status = 'active'),
  COUNT(*) FILTER (WHERE status = 'inactive')
FROM members
` + dbcommon.WhereSQL(where)

	var s statsdom.Summary
	err := dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, q, args...).Scan(
		&s.Total, &s.Male, &s.Female, &s.Active, &s.Inactive,
	)
	if err != nil {
		return statsdom.Summary{}, &statsdom.RemoteError{Op: statsdom.OpSummary, Err: err}
	}
	return s, nil
}

// RegionStats groups by province, largest first; ties by name.
func (r *StatsRepositoryPG) RegionStats(ctx context.Context, p statsdom.FilterParams) ([]statsdom.RegionStat, error) {
	where, args := buildMemberWhere(memdom.FilterFromParams(p))
	q := `
SELECT COALESCE(NULLIF(province, ''), '` + statsdom.UnknownProvince + `') AS prov, COUNT(*)
FROM members
` + dbcommon.WhereSQL(where) + `
GROUP BY prov
ORDER BY COUNT(*) DESC, prov ASC`

	rows, err := dbcommon.GetRunner(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &statsdom.RemoteError{Op: statsdom.OpRegions, Err: err}
	}
	defer rows.Close()

	out := []statsdom.RegionStat{}
	for rows.Next() {
		var rs statsdom.RegionStat
		if err := rows.Scan(&rs.Province, &rs.Count); err != nil {
			return nil, &statsdom.RemoteError{Op: statsdom.OpRegions, Err: err}
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, &statsdom.RemoteError{Op: statsdom.OpRegions, Err: err}
	}
	return out, nil
}
