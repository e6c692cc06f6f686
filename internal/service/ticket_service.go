package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
)

// ConflictError a manual operation collides with the current mapping state
// or with another open request. Surfaced to the user as a validation
// message, never retried.
type ConflictError struct {
	Message  string
	TicketID string // set when the conflict is an open request
}

func (e *ConflictError) Error() string { return e.Message }

// TicketService provisioning request workflow towards the identity backend.
// Every status move appends an immutable log entry; CLOSED is terminal.
type TicketService struct {
	tickets repository.TicketsRepo
	subs    repository.SubscriptionsRepo
	logger  *zap.Logger
}

func NewTicketService(tickets repository.TicketsRepo, subs repository.SubscriptionsRepo, logger *zap.Logger) *TicketService {
	return &TicketService{tickets: tickets, subs: subs, logger: logger}
}

// CreateRequestInput a new provisioning request.
type CreateRequestInput struct {
	RequestType domain.RequestType
	RadioTEI    int64 // the new radio
	OldRadioTEI int64
	OldISSI     int64
	NewISSI     int64
	Description string
	CreatedBy   string
}

// CreateRequest validates and opens a request ticket. At most one open
// request may touch a given radio or ISSI.
func (s *TicketService) CreateRequest(ctx context.Context, in CreateRequestInput) (*domain.Ticket, error) {
	t := &domain.Ticket{
		RequestType: in.RequestType,
		Status:      domain.TicketStatusOpen,
		Description: in.Description,
	}
	if in.CreatedBy != "" {
		t.CreatedBy = sql.NullString{String: in.CreatedBy, Valid: true}
	}

	switch in.RequestType {
	case domain.RequestVTEI:
		if in.OldRadioTEI == 0 || in.RadioTEI == 0 {
			return nil, &ConflictError{Message: "both an old and a new radio need to be selected"}
		}
		oldSub, err := s.subs.GetByTEI(ctx, in.OldRadioTEI)
		if err == repository.ErrNotFound {
			return nil, &ConflictError{Message: "the radio selected as old radio has no subscription"}
		}
		if err != nil {
			return nil, err
		}
		if _, err := s.subs.GetByTEI(ctx, in.RadioTEI); err == nil {
			return nil, &ConflictError{Message: "the radio selected as new radio already has a subscription"}
		} else if err != repository.ErrNotFound {
			return nil, err
		}
		t.OldRadioTEI = sql.NullInt64{Int64: in.OldRadioTEI, Valid: true}
		t.RadioTEI = sql.NullInt64{Int64: in.RadioTEI, Valid: true}
		// identity stays put on a hardware swap
		t.OldISSI = sql.NullInt64{Int64: oldSub.ISSINumber, Valid: true}
		t.NewISSI = sql.NullInt64{Int64: oldSub.ISSINumber, Valid: true}
		t.Title = fmt.Sprintf("VTEI – from %014d to %014d", in.OldRadioTEI, in.RadioTEI)

	case domain.RequestVISSI:
		if in.RadioTEI == 0 || in.OldISSI == 0 || in.NewISSI == 0 {
			return nil, &ConflictError{Message: "ISSI old, ISSI new and radio must be set for VISSI"}
		}
		t.RadioTEI = sql.NullInt64{Int64: in.RadioTEI, Valid: true}
		t.OldISSI = sql.NullInt64{Int64: in.OldISSI, Valid: true}
		t.NewISSI = sql.NullInt64{Int64: in.NewISSI, Valid: true}
		t.Title = fmt.Sprintf("VISSI – from %d to %d on %014d", in.OldISSI, in.NewISSI, in.RadioTEI)

	case domain.RequestVISSIVTEI:
		if in.OldRadioTEI == 0 || in.RadioTEI == 0 || in.OldISSI == 0 || in.NewISSI == 0 {
			return nil, &ConflictError{Message: "all radio and ISSI fields must be set for VISSI & VTEI"}
		}
		if _, err := s.subs.GetByTEI(ctx, in.OldRadioTEI); err == repository.ErrNotFound {
			return nil, &ConflictError{Message: "the radio selected as old radio has no subscription"}
		} else if err != nil {
			return nil, err
		}
		if _, err := s.subs.GetByTEI(ctx, in.RadioTEI); err == nil {
			return nil, &ConflictError{Message: "the radio selected as new radio already has a subscription"}
		} else if err != repository.ErrNotFound {
			return nil, err
		}
		t.OldRadioTEI = sql.NullInt64{Int64: in.OldRadioTEI, Valid: true}
		t.RadioTEI = sql.NullInt64{Int64: in.RadioTEI, Valid: true}
		t.OldISSI = sql.NullInt64{Int64: in.OldISSI, Valid: true}
		t.NewISSI = sql.NullInt64{Int64: in.NewISSI, Valid: true}
		t.Title = fmt.Sprintf("VISSI & VTEI – from %d / %014d to %d / %014d",
			in.OldISSI, in.OldRadioTEI, in.NewISSI, in.RadioTEI)

	case domain.RequestActivation:
		if in.RadioTEI == 0 {
			return nil, &ConflictError{Message: "a radio needs to be selected"}
		}
		if in.NewISSI == 0 {
			return nil, &ConflictError{Message: "an ISSI needs to be provided"}
		}
		if _, err := s.subs.GetByTEI(ctx, in.RadioTEI); err == nil {
			return nil, &ConflictError{Message: "the selected radio already has a subscription"}
		} else if err != repository.ErrNotFound {
			return nil, err
		}
		if sub, err := s.subs.GetByISSI(ctx, in.NewISSI); err == nil {
			return nil, &ConflictError{Message: fmt.Sprintf("ISSI %d is already activated on radio %014d", in.NewISSI, sub.RadioTEI)}
		} else if err != repository.ErrNotFound {
			return nil, err
		}
		t.RadioTEI = sql.NullInt64{Int64: in.RadioTEI, Valid: true}
		t.NewISSI = sql.NullInt64{Int64: in.NewISSI, Valid: true}
		t.Title = fmt.Sprintf("ACTIVATION – ISSI %d on %014d", in.NewISSI, in.RadioTEI)

	default:
		return nil, fmt.Errorf("unknown request type %q", in.RequestType)
	}

	teis := []int64{}
	issis := []int64{}
	for _, v := range []sql.NullInt64{t.RadioTEI, t.OldRadioTEI} {
		if v.Valid {
			teis = append(teis, v.Int64)
		}
	}
	for _, v := range []sql.NullInt64{t.OldISSI, t.NewISSI} {
		if v.Valid {
			issis = append(issis, v.Int64)
		}
	}
	// The conflict check and the insert are separate statements: two
	// concurrent creates touching the same radio can both pass it. No
	// unique constraint backs this check.
	if conflict, err := s.tickets.FindOpenConflict(ctx, teis, issis); err == nil {
		return nil, &ConflictError{
			Message:  fmt.Sprintf("there is already an open request for one of the radios or ISSIs: #%s", conflict.ID),
			TicketID: conflict.ID,
		}
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("request created",
		zap.String("ticket_id", t.ID),
		zap.String("request_type", string(t.RequestType)),
	)
	return t, nil
}

// Submit records the backend ticket number and starts execution.
func (s *TicketService) Submit(ctx context.Context, id, externalRef, actor, note string) (*domain.TicketLog, error) {
	if externalRef == "" {
		return nil, &ConflictError{Message: "no backend ticket number given"}
	}
	if err := s.tickets.SetExternalReference(ctx, id, externalRef); err != nil {
		return nil, err
	}
	if note == "" {
		note = "Execution started"
	}
	return s.transition(ctx, id, domain.TicketStatusInProgress, actor, note)
}

// MarkWaitingVerification the backend processed the request; awaiting a
// radio check in the field.
func (s *TicketService) MarkWaitingVerification(ctx context.Context, id, actor, note string) (*domain.TicketLog, error) {
	if note == "" {
		note = "Waiting for verification"
	}
	return s.transition(ctx, id, domain.TicketStatusWaitingVerification, actor, note)
}

// MarkVerified closes the request and applies the subscription change it
// described. Activation requests only close: the subscription itself
// arrives with the next feed reconciliation.
func (s *TicketService) MarkVerified(ctx context.Context, id, actor, note string) (*domain.TicketLog, error) {
	t, err := s.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch t.RequestType {
	case domain.RequestVTEI:
		if t.OldRadioTEI.Valid && t.RadioTEI.Valid {
			sub, err := s.subs.GetByTEI(ctx, t.OldRadioTEI.Int64)
			if err != nil {
				return nil, fmt.Errorf("failed to load subscription of old radio: %w", err)
			}
			if err := s.subs.Rebind(ctx, sub.ID, t.RadioTEI.Int64, sub.ISSINumber); err != nil {
				return nil, fmt.Errorf("failed to move subscription to new radio: %w", err)
			}
		}
	case domain.RequestVISSI:
		if t.RadioTEI.Valid && t.NewISSI.Valid {
			sub, err := s.subs.GetByTEI(ctx, t.RadioTEI.Int64)
			if err != nil {
				return nil, fmt.Errorf("failed to load subscription of radio: %w", err)
			}
			if err := s.subs.Rebind(ctx, sub.ID, sub.RadioTEI, t.NewISSI.Int64); err != nil {
				return nil, fmt.Errorf("failed to move subscription to new ISSI: %w", err)
			}
		}
	case domain.RequestVISSIVTEI:
		if t.OldRadioTEI.Valid && t.RadioTEI.Valid && t.NewISSI.Valid {
			sub, err := s.subs.GetByTEI(ctx, t.OldRadioTEI.Int64)
			if err != nil {
				return nil, fmt.Errorf("failed to load subscription of old radio: %w", err)
			}
			if err := s.subs.Rebind(ctx, sub.ID, t.RadioTEI.Int64, t.NewISSI.Int64); err != nil {
				return nil, fmt.Errorf("failed to move subscription to new radio and ISSI: %w", err)
			}
		}
	}

	if note == "" {
		note = "Request verified and closed"
	}
	return s.transition(ctx, id, domain.TicketStatusClosed, actor, note)
}

// Refuse closes the request without applying anything. A reason is
// mandatory.
func (s *TicketService) Refuse(ctx context.Context, id, actor, note string) (*domain.TicketLog, error) {
	if note == "" {
		return nil, &ConflictError{Message: "a reason is required to refuse a request"}
	}
	return s.transition(ctx, id, domain.TicketStatusClosed, actor, note)
}

func (s *TicketService) transition(ctx context.Context, id string, to domain.TicketStatus, actor, note string) (*domain.TicketLog, error) {
	var actorVal sql.NullString
	if actor != "" {
		actorVal = sql.NullString{String: actor, Valid: true}
	}
	log, err := s.tickets.Transition(ctx, id, to, actorVal, note)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, &ConflictError{Message: err.Error()}
		}
		return nil, err
	}
	s.logger.Info("request status changed",
		zap.String("ticket_id", id),
		zap.String("from", string(log.StatusBefore)),
		zap.String("to", string(log.StatusAfter)),
	)
	return log, nil
}

func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.Get(ctx, id)
}

func (s *TicketService) Logs(ctx context.Context, id string) ([]*domain.TicketLog, error) {
	return s.tickets.Logs(ctx, id)
}

func (s *TicketService) List(ctx context.Context, filters repository.TicketFilters, page, size int) ([]*domain.Ticket, int, error) {
	return s.tickets.List(ctx, filters, page, size)
}
