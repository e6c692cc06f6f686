package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
)

// AssignmentService the assignment ledger: which radio sits in which slot,
// with full history. Placement is always a move; a radio never holds two
// open assignments.
type AssignmentService struct {
	assignments repository.AssignmentsRepo
	endpoints   repository.EndpointsRepo
	logger      *zap.Logger
}

func NewAssignmentService(assignments repository.AssignmentsRepo, endpoints repository.EndpointsRepo, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{assignments: assignments, endpoints: endpoints, logger: logger}
}

// AssignInput one placement request.
type AssignInput struct {
	RadioTEI    int64
	EndpointID  int64
	Reason      domain.AssignmentReason
	TicketID    string
	ReplacesTEI int64
	Note        string
}

// Assign places a radio on an endpoint. Any open assignment of the radio is
// closed in the same transaction (a move), and a single-occupancy endpoint
// is vacated first.
func (s *AssignmentService) Assign(ctx context.Context, in AssignInput) (*domain.Assignment, error) {
	if in.Reason == "" {
		in.Reason = domain.ReasonPrimary
	}
	if !domain.ValidReason(in.Reason) {
		return nil, fmt.Errorf("unknown assignment reason %q", in.Reason)
	}

	p := repository.AssignParams{
		RadioTEI:   in.RadioTEI,
		EndpointID: in.EndpointID,
		Reason:     in.Reason,
		Note:       in.Note,
	}
	if in.TicketID != "" {
		p.TicketID = sql.NullString{String: in.TicketID, Valid: true}
	}
	if in.ReplacesTEI != 0 {
		p.ReplacesTEI = sql.NullInt64{Int64: in.ReplacesTEI, Valid: true}
	}

	a, err := s.assignments.Assign(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info("radio assigned",
		zap.Int64("tei", a.RadioTEI),
		zap.Int64("endpoint_id", a.EndpointID),
		zap.String("reason", string(a.Reason)),
	)
	return a, nil
}

// Close ends an assignment interval. Already-closed assignments are a no-op.
func (s *AssignmentService) Close(ctx context.Context, id string) error {
	return s.assignments.Close(ctx, id)
}

// CurrentOccupant returns the open assignment on the endpoint, nil when the
// endpoint is empty.
func (s *AssignmentService) CurrentOccupant(ctx context.Context, endpointID int64) (*domain.Assignment, error) {
	a, err := s.assignments.CurrentOccupant(ctx, endpointID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	return a, err
}

// EndpointDetail endpoint metadata plus occupancy and recent history.
type EndpointDetail struct {
	Endpoint *domain.Endpoint
	Current  *domain.Assignment
	History  []*domain.Assignment
}

func (s *AssignmentService) EndpointDetail(ctx context.Context, endpointID int64) (*EndpointDetail, error) {
	ep, err := s.endpoints.GetEndpoint(ctx, endpointID)
	if err != nil {
		return nil, err
	}
	current, err := s.CurrentOccupant(ctx, endpointID)
	if err != nil {
		return nil, err
	}
	history, err := s.assignments.History(ctx, endpointID, 50)
	if err != nil {
		return nil, err
	}
	return &EndpointDetail{Endpoint: ep, Current: current, History: history}, nil
}
