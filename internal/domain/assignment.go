package domain

import (
	"database/sql"
	"time"
)

// AssignmentReason why a radio occupies an endpoint.
type AssignmentReason string

const (
	ReasonPrimary   AssignmentReason = "primary"
	ReasonTemporary AssignmentReason = "temporary"
	ReasonStorage   AssignmentReason = "storage"
	ReasonRepair    AssignmentReason = "repair"
)

// ValidReason reports whether r is a known reason code.
func ValidReason(r AssignmentReason) bool {
	switch r {
	case ReasonPrimary, ReasonTemporary, ReasonStorage, ReasonRepair:
		return true
	}
	return false
}

// Assignment a historical interval record of a radio occupying an endpoint.
// EndAt null means the assignment is currently open. Rows are never deleted;
// they are the audit trail.
type Assignment struct {
	ID          string           `db:"id"`
	RadioTEI    int64            `db:"radio_tei"`
	EndpointID  int64            `db:"endpoint_id"`
	StartAt     time.Time        `db:"start_at"`
	EndAt       sql.NullTime     `db:"end_at"`
	Reason      AssignmentReason `db:"reason"`
	TicketID    sql.NullString   `db:"ticket_id"`
	ReplacesTEI sql.NullInt64    `db:"replaces_tei"`
	Note        string           `db:"note"`
}

// Open reports whether the assignment interval is still open.
func (a *Assignment) Open() bool {
	return !a.EndAt.Valid
}

func (a *Assignment) ToJSON() map[string]any {
	m := map[string]any{
		"id":          a.ID,
		"tei":         a.RadioTEI,
		"endpoint_id": a.EndpointID,
		"start_at":    a.StartAt.Format(time.RFC3339),
		"reason":      string(a.Reason),
		"open":        a.Open(),
	}
	if a.EndAt.Valid {
		m["end_at"] = a.EndAt.Time.Format(time.RFC3339)
	}
	if a.TicketID.Valid {
		m["ticket_id"] = a.TicketID.String
	}
	if a.ReplacesTEI.Valid {
		m["replaces_tei"] = a.ReplacesTEI.Int64
	}
	if a.Note != "" {
		m["note"] = a.Note
	}
	return m
}
