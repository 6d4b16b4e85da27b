package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	common "github.com/Argy1/pdpi-member-sub002/internal/domain/common"
	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/migration"
	"github.com/Argy1/pdpi-member-sub002/internal/domain/province"
)

const migrationPageSize = 200

// MigrationResult reports one migration run.
type MigrationResult struct {
	Name           string `json:"name"`
	AlreadyApplied bool   `json:"alreadyApplied"`
	Scanned        int    `json:"scanned"`
	Changed        int    `json:"changed"`
	DryRun         bool   `json:"dryRun"`
}

type MigrationUsecase struct {
	members memdom.Repository
	markers migration.MarkerRepository
	log     *zap.Logger
	now     func() time.Time
}

func NewMigrationUsecase(members memdom.Repository, markers migration.MarkerRepository, log *zap.Logger) *MigrationUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &MigrationUsecase{members: members, markers: markers, log: log.Named("migration"), now: time.Now}
}

// NormalizeProvinces rewrites every member province to its canonical name,
// once. A dry run reports what would change and records no marker.
func (u *MigrationUsecase) NormalizeProvinces(ctx context.Context, dryRun bool) (MigrationResult, error) {
	res := MigrationResult{Name: migration.NormalizeProvinces, DryRun: dryRun}

	if _, found, err := u.markers.Get(ctx, res.Name); err != nil {
		return res, err
	} else if found {
		res.AlreadyApplied = true
		return res, nil
	}

	by := "migration:" + res.Name
	for page := 1; ; page++ {
		pr, err := u.members.List(ctx,
			memdom.Filter{IncludeDeleted: true},
			common.Sort{Column: string(memdom.SortByNPA), Order: common.SortAsc},
			common.Page{Number: page, PerPage: migrationPageSize},
		)
		if err != nil {
			return res, err
		}
		for _, m := range pr.Items {
			res.Scanned++
			canonical, ok := province.Normalize(m.Province)
			if !ok || canonical == m.Province {
				continue
			}
			res.Changed++
			u.log.Debug("province normalised",
				zap.String("member_id", m.ID),
				zap.String("from", m.Province),
				zap.String("to", canonical),
			)
			if dryRun {
				continue
			}
			now := u.now().UTC()
			if _, err := u.members.Update(ctx, m.ID, memdom.MemberPatch{
				Province:  &canonical,
				UpdatedAt: &now,
				UpdatedBy: &by,
			}); err != nil {
				return res, err
			}
		}
		if len(pr.Items) == 0 || page >= pr.TotalPages {
			break
		}
	}

	if dryRun {
		return res, nil
	}
	err := u.markers.Put(ctx, migration.Marker{Name: res.Name, AppliedAt: u.now().UTC(), Affected: res.Changed})
	if errors.Is(err, migration.ErrAlreadyApplied) {
		// a concurrent run finished first; our writes were idempotent
		res.AlreadyApplied = true
		return res, nil
	}
	if err != nil {
		return res, err
	}
	u.log.Info("migration applied",
		zap.String("name", res.Name),
		zap.Int("scanned", res.Scanned),
		zap.Int("changed", res.Changed),
	)
	return res, nil
}
