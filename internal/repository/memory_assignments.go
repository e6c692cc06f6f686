package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// MemoryAssignmentsRepo in-memory AssignmentsRepo for tests. Endpoints are
// seeded directly; the same single-transaction semantics as the postgres
// repo apply under one mutex.
type MemoryAssignmentsRepo struct {
	mu sync.RWMutex

	endpoints   map[int64]*domain.Endpoint
	assignments map[string]*domain.Assignment
}

func NewMemoryAssignmentsRepo() *MemoryAssignmentsRepo {
	return &MemoryAssignmentsRepo{
		endpoints:   map[int64]*domain.Endpoint{},
		assignments: map[string]*domain.Assignment{},
	}
}

// SeedEndpoint registers an endpoint.
func (r *MemoryAssignmentsRepo) SeedEndpoint(id int64, name string, allowsMultiple bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[id] = &domain.Endpoint{ID: id, ContainerID: 1, Name: name, AllowsMultiple: allowsMultiple}
}

func (r *MemoryAssignmentsRepo) Assign(_ context.Context, p AssignParams) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[p.EndpointID]
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	for _, a := range r.assignments {
		if !a.EndAt.Valid && a.RadioTEI == p.RadioTEI {
			a.EndAt = sql.NullTime{Time: now, Valid: true}
		}
	}
	if !ep.AllowsMultiple {
		for _, a := range r.assignments {
			if !a.EndAt.Valid && a.EndpointID == p.EndpointID {
				a.EndAt = sql.NullTime{Time: now, Valid: true}
			}
		}
	}

	a := &domain.Assignment{
		ID:          uuid.NewString(),
		RadioTEI:    p.RadioTEI,
		EndpointID:  p.EndpointID,
		StartAt:     now,
		Reason:      p.Reason,
		TicketID:    p.TicketID,
		ReplacesTEI: p.ReplacesTEI,
		Note:        p.Note,
	}
	r.assignments[a.ID] = a
	cp := *a
	return &cp, nil
}

func (r *MemoryAssignmentsRepo) Close(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assignments[id]
	if !ok {
		return ErrNotFound
	}
	if !a.EndAt.Valid {
		a.EndAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}
	return nil
}

func (r *MemoryAssignmentsRepo) CurrentOccupant(_ context.Context, endpointID int64) (*domain.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.Assignment
	for _, a := range r.assignments {
		if a.EndpointID == endpointID && !a.EndAt.Valid {
			if latest == nil || a.StartAt.After(latest.StartAt) {
				latest = a
			}
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *MemoryAssignmentsRepo) OpenByRadio(_ context.Context, tei int64) (*domain.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.assignments {
		if a.RadioTEI == tei && !a.EndAt.Valid {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryAssignmentsRepo) History(_ context.Context, endpointID int64, limit int) ([]*domain.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Assignment{}
	for _, a := range r.assignments {
		if a.EndpointID == endpointID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// OpenCount test helper: number of open assignments for a radio.
func (r *MemoryAssignmentsRepo) OpenCount(tei int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.assignments {
		if a.RadioTEI == tei && !a.EndAt.Valid {
			n++
		}
	}
	return n
}
