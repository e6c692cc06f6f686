package domain

import (
	"database/sql"
	"time"
)

// TicketStatus lifecycle state of a request ticket. New tickets start at
// TicketStatusOpen; there is no mutable "default status" row.
type TicketStatus string

const (
	TicketStatusOpen                TicketStatus = "OPEN"
	TicketStatusInProgress          TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingVerification TicketStatus = "WAITING_VERIFICATION"
	TicketStatusClosed              TicketStatus = "CLOSED"
)

// ticketTransitions allowed status moves. CLOSED is terminal.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:                {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusInProgress:          {TicketStatusWaitingVerification, TicketStatusClosed},
	TicketStatusWaitingVerification: {TicketStatusClosed},
}

// CanTransition reports whether from → to is an allowed status move.
func CanTransition(from, to TicketStatus) bool {
	for _, s := range ticketTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RequestType kind of provisioning request carried by a ticket.
type RequestType string

const (
	RequestVTEI       RequestType = "VTEI"         // swap hardware, keep identity
	RequestVISSI      RequestType = "VISSI"        // swap identity, keep hardware
	RequestActivation RequestType = "ACTIVATION"   // bind a free ISSI to a free radio
	RequestVISSIVTEI  RequestType = "VISSI & VTEI" // swap both
)

// Ticket a provisioning request towards the identity backend.
type Ticket struct {
	ID                string         `db:"id"`
	RequestType       RequestType    `db:"request_type"`
	Status            TicketStatus   `db:"status"`
	Title             string         `db:"title"`
	Description       string         `db:"description"`
	RadioTEI          sql.NullInt64  `db:"radio_tei"`     // new radio
	OldRadioTEI       sql.NullInt64  `db:"old_radio_tei"` // radio being replaced
	OldISSI           sql.NullInt64  `db:"old_issi"`
	NewISSI           sql.NullInt64  `db:"new_issi"`
	ExternalReference sql.NullString `db:"external_reference"`
	CreatedBy         sql.NullString `db:"created_by"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (t *Ticket) ToJSON() map[string]any {
	m := map[string]any{
		"id":           t.ID,
		"request_type": string(t.RequestType),
		"status":       string(t.Status),
		"title":        t.Title,
		"description":  t.Description,
		"created_at":   t.CreatedAt.Format(time.RFC3339),
		"updated_at":   t.UpdatedAt.Format(time.RFC3339),
	}
	if t.RadioTEI.Valid {
		m["tei"] = t.RadioTEI.Int64
	}
	if t.OldRadioTEI.Valid {
		m["old_tei"] = t.OldRadioTEI.Int64
	}
	if t.OldISSI.Valid {
		m["old_issi"] = t.OldISSI.Int64
	}
	if t.NewISSI.Valid {
		m["new_issi"] = t.NewISSI.Int64
	}
	if t.ExternalReference.Valid {
		m["external_reference"] = t.ExternalReference.String
	}
	if t.CreatedBy.Valid {
		m["created_by"] = t.CreatedBy.String
	}
	return m
}

// TicketLog an immutable audit entry for a status transition.
type TicketLog struct {
	ID           string         `db:"id"`
	TicketID     string         `db:"ticket_id"`
	Timestamp    time.Time      `db:"timestamp"`
	Actor        sql.NullString `db:"actor"`
	StatusBefore TicketStatus   `db:"status_before"`
	StatusAfter  TicketStatus   `db:"status_after"`
	Note         string         `db:"note"`
}

func (l *TicketLog) ToJSON() map[string]any {
	m := map[string]any{
		"id":            l.ID,
		"ticket_id":     l.TicketID,
		"timestamp":     l.Timestamp.Format(time.RFC3339),
		"status_before": string(l.StatusBefore),
		"status_after":  string(l.StatusAfter),
		"note":          l.Note,
	}
	if l.Actor.Valid {
		m["actor"] = l.Actor.String
	}
	return m
}
