package repo

import (
	"context"
	"database/sql"

	"github.com/buildingassets/buildingchat/internal/model"
	"github.com/buildingassets/buildingchat/internal/pkg/dbutil"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
)

type OrganizationRepo struct {
	db *sql.DB
}

func NewOrganizationRepo(db *sql.DB) *OrganizationRepo {
	return &OrganizationRepo{db: db}
}

func (r *OrganizationRepo) GetByID(ctx context.Context, orgID int64) (*model.Organization, error) {
	sqlStr, args := dbutil.Finalize(
		"SELECT id, org_name, admin_email, address FROM organizations WHERE id=?",
		[]interface{}{orgID},
	)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var o model.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.AdminEmail, &o.Address); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Metrics aggregates the portfolio: building count, summed floor area
// and average construction year.
func (r *OrganizationRepo) Metrics(ctx context.Context, orgID int64) (*model.OrgMetrics, error) {
	sqlStr, args := dbutil.Finalize(
		"SELECT COUNT(*), SUM(gross_floor_area), AVG(year_built) FROM buildings WHERE org_id=?",
		[]interface{}{orgID},
	)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var m model.OrgMetrics
	if err := row.Scan(&m.TotalBuildings, &m.TotalArea, &m.AvgYearBuilt); err != nil {
		return nil, err
	}
	return &m, nil
}
