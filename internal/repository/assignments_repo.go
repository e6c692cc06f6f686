package repository

import (
	"context"
	"database/sql"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// AssignParams one placement of a radio on an endpoint.
type AssignParams struct {
	RadioTEI    int64
	EndpointID  int64
	Reason      domain.AssignmentReason
	TicketID    sql.NullString
	ReplacesTEI sql.NullInt64
	Note        string
}

// AssignmentsRepo the append-only assignment ledger. Rows are closed, never
// deleted.
type AssignmentsRepo interface {
	// Assign places the radio on the endpoint in one transaction: the
	// radio's open assignment anywhere is closed (a move), and for
	// single-occupancy endpoints the endpoint's open assignment is closed
	// as well. The new assignment starts open.
	Assign(ctx context.Context, p AssignParams) (*domain.Assignment, error)

	// Close sets the end timestamp. No-op when already closed.
	Close(ctx context.Context, id string) error

	// CurrentOccupant returns the radio on the most recent open assignment
	// for the endpoint, ErrNotFound when the endpoint is empty.
	CurrentOccupant(ctx context.Context, endpointID int64) (*domain.Assignment, error)

	// OpenByRadio returns the radio's open assignment, ErrNotFound when the
	// radio is unplaced.
	OpenByRadio(ctx context.Context, tei int64) (*domain.Assignment, error)

	// History lists assignments for an endpoint, newest first.
	History(ctx context.Context, endpointID int64, limit int) ([]*domain.Assignment, error)
}
