package domain

import "database/sql"

// Vector a dispatchable resource from the resourcesoff feed, keyed on its
// resource code and linked to at most one vehicle.
type Vector struct {
	ResourceCode     string         `db:"resource_code"`
	VehicleID        sql.NullInt64  `db:"vehicle_id"`
	Name             string         `db:"name"`
	Abbreviation     string         `db:"abbreviation"`
	ServiceCode      sql.NullString `db:"service_code"`
	ResourceTypeCode sql.NullString `db:"resource_type_code"`
	StatusCode       sql.NullString `db:"status_code"`
}
