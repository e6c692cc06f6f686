package domain

import (
	"database/sql"
	"time"
)

// Vehicle a fleet vehicle mirrored from the fireplan charroi API.
type Vehicle struct {
	ID          int64          `db:"id"`
	Number      string         `db:"number"`
	NumLetter   string         `db:"num_letter"`
	NumValue    int            `db:"num_value"`
	Plate       string         `db:"plate"`
	Utilisation string         `db:"utilisation"`
	Chassis     string         `db:"chassis"`
	Status      sql.NullString `db:"status"`
	SyncedAt    time.Time      `db:"synced_at"`
}

func (v *Vehicle) ToJSON() map[string]any {
	m := map[string]any{
		"id":          v.ID,
		"number":      v.Number,
		"num_letter":  v.NumLetter,
		"num_value":   v.NumValue,
		"plate":       v.Plate,
		"utilisation": v.Utilisation,
		"chassis":     v.Chassis,
		"synced_at":   v.SyncedAt.Format(time.RFC3339),
	}
	if v.Status.Valid {
		m["status"] = v.Status.String
	}
	return m
}
