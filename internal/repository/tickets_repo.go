package repository

import (
	"context"
	"database/sql"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// TicketFilters list-endpoint filters.
type TicketFilters struct {
	Status      domain.TicketStatus
	OpenOnly    bool // everything except CLOSED
	RequestType domain.RequestType
}

// TicketsRepo request tickets and their append-only transition log.
type TicketsRepo interface {
	Create(ctx context.Context, t *domain.Ticket) error
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filters TicketFilters, page, size int) ([]*domain.Ticket, int, error)

	// SetExternalReference records the backend ticket number once the
	// request has been submitted there.
	SetExternalReference(ctx context.Context, id, ref string) error

	// Transition moves the ticket's status pointer and appends the log
	// entry in one transaction. ErrInvalidTransition when the move is not
	// allowed from the ticket's current status.
	Transition(ctx context.Context, id string, to domain.TicketStatus, actor sql.NullString, note string) (*domain.TicketLog, error)

	// Logs lists the ticket's transition history, oldest first.
	Logs(ctx context.Context, ticketID string) ([]*domain.TicketLog, error)

	// FindOpenConflict returns a non-closed ticket referencing any of the
	// given radios or ISSIs, ErrNotFound when there is none. One open
	// request per radio/identity at a time.
	FindOpenConflict(ctx context.Context, teis []int64, issis []int64) (*domain.Ticket, error)
}
