package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// MemoryTicketsRepo in-memory TicketsRepo for tests.
type MemoryTicketsRepo struct {
	mu sync.RWMutex

	tickets map[string]*domain.Ticket
	logs    map[string][]*domain.TicketLog
}

func NewMemoryTicketsRepo() *MemoryTicketsRepo {
	return &MemoryTicketsRepo{
		tickets: map[string]*domain.Ticket{},
		logs:    map[string][]*domain.TicketLog{},
	}
}

func (r *MemoryTicketsRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = domain.TicketStatusOpen
	}
	cp := *t
	r.tickets[t.ID] = &cp
	return nil
}

func (r *MemoryTicketsRepo) Get(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryTicketsRepo) List(_ context.Context, filters TicketFilters, page, size int) ([]*domain.Ticket, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Ticket{}
	for _, t := range r.tickets {
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		if filters.OpenOnly && t.Status == domain.TicketStatusClosed {
			continue
		}
		if filters.RequestType != "" && t.RequestType != filters.RequestType {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r *MemoryTicketsRepo) SetExternalReference(_ context.Context, id, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return ErrNotFound
	}
	t.ExternalReference = sql.NullString{String: ref, Valid: true}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryTicketsRepo) Transition(_ context.Context, id string, to domain.TicketStatus, actor sql.NullString, note string) (*domain.TicketLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !domain.CanTransition(t.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}

	log := &domain.TicketLog{
		ID:           uuid.NewString(),
		TicketID:     id,
		Timestamp:    time.Now().UTC(),
		Actor:        actor,
		StatusBefore: t.Status,
		StatusAfter:  to,
		Note:         note,
	}
	r.logs[id] = append(r.logs[id], log)
	t.Status = to
	t.UpdatedAt = log.Timestamp

	cp := *log
	return &cp, nil
}

func (r *MemoryTicketsRepo) Logs(_ context.Context, ticketID string) ([]*domain.TicketLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.TicketLog{}
	for _, l := range r.logs[ticketID] {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryTicketsRepo) FindOpenConflict(_ context.Context, teis []int64, issis []int64) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := func(t *domain.Ticket) bool {
		for _, tei := range teis {
			if (t.RadioTEI.Valid && t.RadioTEI.Int64 == tei) || (t.OldRadioTEI.Valid && t.OldRadioTEI.Int64 == tei) {
				return true
			}
		}
		for _, issi := range issis {
			if (t.OldISSI.Valid && t.OldISSI.Int64 == issi) || (t.NewISSI.Valid && t.NewISSI.Int64 == issi) {
				return true
			}
		}
		return false
	}

	for _, t := range r.tickets {
		if t.Status != domain.TicketStatusClosed && matches(t) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}
