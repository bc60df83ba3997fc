package model

import "database/sql"

type Building struct {
	ID             int64           `json:"id"`
	OrgID          int64           `json:"org_id"`
	Name           string          `json:"building_name"`
	Address        sql.NullString  `json:"address"`
	BuildingType   sql.NullString  `json:"building_type"`
	GrossFloorArea sql.NullFloat64 `json:"gross_floor_area"`
	YearBuilt      sql.NullInt64   `json:"year_built"`
	AdminEmail     sql.NullString  `json:"admin_email"`
	ManagerEmails  []string        `json:"manager_emails"`
}

type Organization struct {
	ID         int64          `json:"id"`
	Name       string         `json:"org_name"`
	AdminEmail string         `json:"admin_email"`
	Address    sql.NullString `json:"address"`
}

type Measure struct {
	ID          int64  `json:"id"`
	BuildingID  int64  `json:"building_id"`
	OrgID       int64  `json:"org_id"`
	MeasureName string `json:"measure_name"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
}

type EnergyReading struct {
	ID            int64           `json:"id"`
	BuildingID    int64           `json:"building_id"`
	OrgID         int64           `json:"org_id"`
	StartDate     string          `json:"start_date"`
	UsageQuantity sql.NullFloat64 `json:"usage_quantity"`
	UsageUnits    sql.NullString  `json:"usage_units"`
}

type Bill struct {
	ID         int64           `json:"id"`
	BuildingID int64           `json:"building_id"`
	OrgID      int64           `json:"org_id"`
	BillDate   string          `json:"bill_date"`
	BillType   string          `json:"bill_type"`
	Amount     sql.NullFloat64 `json:"amount"`
}

// OrgMetrics is the portfolio aggregate over an organization's buildings.
type OrgMetrics struct {
	TotalBuildings int64           `json:"total_buildings"`
	TotalArea      sql.NullFloat64 `json:"total_area"`
	AvgYearBuilt   sql.NullFloat64 `json:"avg_year_built"`
}
