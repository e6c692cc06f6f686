package domain

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Radio a physical radio unit, identified by its TEI.
type Radio struct {
	TEI        int64          `db:"tei"`
	FireplanID sql.NullInt64  `db:"fireplan_id"`
	ModelID    sql.NullInt64  `db:"model_id"`
	ModelName  sql.NullString `db:"model_name"` // joined from radio_models

	// Resolved by the query (LEFT JOIN subscriptions), not by probing related rows.
	Active bool           `db:"active"`
	ISSI   sql.NullInt64  `db:"issi"`
	Alias  sql.NullString `db:"alias"`
}

// TEIString returns the canonical 14-digit display form.
func (r *Radio) TEIString() string {
	return fmt.Sprintf("%014d", r.TEI)
}

func (r *Radio) ToJSON() map[string]any {
	m := map[string]any{
		"tei":     r.TEI,
		"tei_str": r.TEIString(),
		"active":  r.Active,
	}
	if r.FireplanID.Valid {
		m["fireplan_id"] = r.FireplanID.Int64
	}
	if r.ModelID.Valid {
		m["model_id"] = r.ModelID.Int64
	}
	if r.ModelName.Valid {
		m["model"] = r.ModelName.String
	}
	if r.ISSI.Valid {
		m["issi"] = r.ISSI.Int64
	}
	if r.Alias.Valid {
		m["alias"] = r.Alias.String
	}
	return m
}

// RadioModel a hardware model, matched against TEI ranges.
type RadioModel struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	IsAtex bool   `db:"is_atex"`
}

// TEIRange a disjoint numeric range mapping TEIs to a RadioModel.
type TEIRange struct {
	ID      int64 `db:"id"`
	ModelID int64 `db:"model_id"`
	MinTEI  int64 `db:"min_tei"`
	MaxTEI  int64 `db:"max_tei"`
}

// NormalizeTEI parses a raw TEI value from an external feed.
// Exports pad the 14-digit TEI to 15 digits with a trailing zero; that
// padding digit is dropped. Anything non-numeric is rejected.
func NormalizeTEI(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty TEI")
	}
	if len(s) == 15 {
		if s[len(s)-1] != '0' {
			return 0, fmt.Errorf("15-digit TEI %q does not end in 0", raw)
		}
		s = s[:len(s)-1]
	}
	tei, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid TEI %q", raw)
	}
	return tei, nil
}
