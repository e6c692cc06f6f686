package domain

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// ISSI a subscriber identity number.
// Customer and discipline are re-derived from their range tables on every
// write; both stay null when no range matches.
type ISSI struct {
	Number       int64          `db:"number"`
	Alias        sql.NullString `db:"alias"`
	CustomerID   sql.NullInt64  `db:"customer_id"`
	DisciplineID sql.NullInt64  `db:"discipline_id"`

	CustomerName   sql.NullString `db:"customer_name"`
	DisciplineName sql.NullString `db:"discipline_name"`
}

func (i *ISSI) String() string {
	if i.Alias.Valid && i.Alias.String != "" {
		return fmt.Sprintf("%d (%s)", i.Number, i.Alias.String)
	}
	return strconv.FormatInt(i.Number, 10)
}

func (i *ISSI) ToJSON() map[string]any {
	m := map[string]any{
		"number": i.Number,
	}
	if i.Alias.Valid {
		m["alias"] = i.Alias.String
	}
	if i.CustomerID.Valid {
		m["customer_id"] = i.CustomerID.Int64
	}
	if i.CustomerName.Valid {
		m["customer"] = i.CustomerName.String
	}
	if i.DisciplineID.Valid {
		m["discipline_id"] = i.DisciplineID.Int64
	}
	if i.DisciplineName.Valid {
		m["discipline"] = i.DisciplineName.String
	}
	return m
}

// Customer owning organization of an ISSI block. Owner customers are the
// ones whose subscriptions the feed reconciliation is authoritative for.
type Customer struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Owner bool   `db:"owner"`
}

// Discipline operational discipline of an ISSI block.
type Discipline struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// ISSICustomerRange disjoint range mapping ISSIs to a Customer.
type ISSICustomerRange struct {
	ID         int64 `db:"id"`
	CustomerID int64 `db:"customer_id"`
	MinISSI    int64 `db:"min_issi"`
	MaxISSI    int64 `db:"max_issi"`
}

// ISSIDisciplineRange disjoint range mapping ISSIs to a Discipline.
type ISSIDisciplineRange struct {
	ID           int64 `db:"id"`
	DisciplineID int64 `db:"discipline_id"`
	MinISSI      int64 `db:"min_issi"`
	MaxISSI      int64 `db:"max_issi"`
}

// ParseISSI parses a raw ISSI value from an external feed.
func ParseISSI(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty ISSI")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ISSI %q", raw)
	}
	return n, nil
}
