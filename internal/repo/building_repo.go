package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"

	"github.com/buildingassets/buildingchat/internal/model"
	"github.com/buildingassets/buildingchat/internal/pkg/dbutil"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
)

type BuildingRepo struct {
	db *sql.DB
}

func NewBuildingRepo(db *sql.DB) *BuildingRepo {
	return &BuildingRepo{db: db}
}

func (r *BuildingRepo) GetByID(ctx context.Context, orgID, buildingID int64) (*model.Building, error) {
	sqlStr, args := dbutil.Finalize(
		"SELECT id, org_id, building_name, address, building_type, gross_floor_area, year_built, admin_email, manager_emails FROM buildings WHERE id=? AND org_id=?",
		[]interface{}{buildingID, orgID},
	)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var b model.Building
	if err := row.Scan(&b.ID, &b.OrgID, &b.Name, &b.Address, &b.BuildingType, &b.GrossFloorArea, &b.YearBuilt, &b.AdminEmail, pq.Array(&b.ManagerEmails)); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BuildingRepo) ListByOrg(ctx context.Context, orgID int64) ([]model.Building, error) {
	sqlStr, args := dbutil.Finalize(
		"SELECT id, org_id, building_name, address, building_type, gross_floor_area, year_built, admin_email, manager_emails FROM buildings WHERE org_id=? ORDER BY building_name",
		[]interface{}{orgID},
	)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Building
	for rows.Next() {
		var b model.Building
		if err := rows.Scan(&b.ID, &b.OrgID, &b.Name, &b.Address, &b.BuildingType, &b.GrossFloorArea, &b.YearBuilt, &b.AdminEmail, pq.Array(&b.ManagerEmails)); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BuildingRepo) ListMeasures(ctx context.Context, orgID, buildingID int64, limit int) ([]model.Measure, error) {
	sqlStr, args, err := builder.BuildSelect("measures", map[string]interface{}{
		"building_id": buildingID,
		"org_id":      orgID,
		"_orderby":    "created_at desc",
		"_limit":      []uint{uint(limit)},
	}, []string{"id", "building_id", "org_id", "measure_name", "status", "created_at"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Measure
	for rows.Next() {
		var m model.Measure
		if err := rows.Scan(&m.ID, &m.BuildingID, &m.OrgID, &m.MeasureName, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *BuildingRepo) ListEnergyReadings(ctx context.Context, orgID, buildingID int64, limit int) ([]model.EnergyReading, error) {
	sqlStr, args, err := builder.BuildSelect("energy_readings", map[string]interface{}{
		"building_id": buildingID,
		"org_id":      orgID,
		"_orderby":    "start_date desc",
		"_limit":      []uint{uint(limit)},
	}, []string{"id", "building_id", "org_id", "start_date", "usage_quantity", "usage_units"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.EnergyReading
	for rows.Next() {
		var e model.EnergyReading
		if err := rows.Scan(&e.ID, &e.BuildingID, &e.OrgID, &e.StartDate, &e.UsageQuantity, &e.UsageUnits); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *BuildingRepo) ListBills(ctx context.Context, orgID, buildingID int64, limit int) ([]model.Bill, error) {
	sqlStr, args, err := builder.BuildSelect("bills", map[string]interface{}{
		"building_id": buildingID,
		"org_id":      orgID,
		"_orderby":    "bill_date desc",
		"_limit":      []uint{uint(limit)},
	}, []string{"id", "building_id", "org_id", "bill_date", "bill_type", "amount"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Bill
	for rows.Next() {
		var b model.Bill
		if err := rows.Scan(&b.ID, &b.BuildingID, &b.OrgID, &b.BillDate, &b.BillType, &b.Amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
