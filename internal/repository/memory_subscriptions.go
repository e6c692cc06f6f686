package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// MemorySubscriptionsRepo in-memory SubscriptionsRepo for tests and local
// runs without a database. Classification uses in-memory range tables;
// ownership/DMO flags are looked up the same way the SQL joins would.
type MemorySubscriptionsRepo struct {
	mu sync.RWMutex

	teiRanges      []domain.TEIRange
	customerRanges []domain.ISSICustomerRange
	ownerCustomers map[int64]bool // customerID -> owner flag

	nextID int64
	subs   map[int64]*domain.Subscription // id -> subscription
	radios map[int64]bool                 // known TEIs
	issis  map[int64]bool                 // known ISSI numbers
}

func NewMemorySubscriptionsRepo() *MemorySubscriptionsRepo {
	return &MemorySubscriptionsRepo{
		ownerCustomers: map[int64]bool{},
		nextID:         1,
		subs:           map[int64]*domain.Subscription{},
		radios:         map[int64]bool{},
		issis:          map[int64]bool{},
	}
}

// SeedTEIRange registers a TEI classification range.
func (r *MemorySubscriptionsRepo) SeedTEIRange(minTEI, maxTEI, modelID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teiRanges = append(r.teiRanges, domain.TEIRange{ModelID: modelID, MinTEI: minTEI, MaxTEI: maxTEI})
}

// SeedCustomerRange registers an ISSI customer range.
func (r *MemorySubscriptionsRepo) SeedCustomerRange(minISSI, maxISSI, customerID int64, owner bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customerRanges = append(r.customerRanges, domain.ISSICustomerRange{CustomerID: customerID, MinISSI: minISSI, MaxISSI: maxISSI})
	r.ownerCustomers[customerID] = owner
}

// SeedSubscription inserts a live subscription directly, bypassing
// classification checks.
func (r *MemorySubscriptionsRepo) SeedSubscription(tei, issi int64, alias string, dmoOnly bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertLocked(tei, issi, alias, dmoOnly)
}

func (r *MemorySubscriptionsRepo) insertLocked(tei, issi int64, alias string, dmoOnly bool) *domain.Subscription {
	s := &domain.Subscription{
		ID:          r.nextID,
		RadioTEI:    tei,
		ISSINumber:  issi,
		AstridAlias: alias,
		Active:      true,
		DMOOnly:     dmoOnly,
		CreatedAt:   sql.NullTime{Time: time.Now().UTC(), Valid: true},
	}
	r.nextID++
	r.subs[s.ID] = s
	r.radios[tei] = true
	r.issis[issi] = true
	return s
}

func (r *MemorySubscriptionsRepo) ownerOf(issi int64) (int64, bool) {
	for _, cr := range r.customerRanges {
		if cr.MinISSI <= issi && issi <= cr.MaxISSI {
			return cr.CustomerID, true
		}
	}
	return 0, false
}

func (r *MemorySubscriptionsRepo) inScope(s *domain.Subscription, scope domain.SubscriptionScope) bool {
	if !scope.IncludeDMOOnly && s.DMOOnly {
		return false
	}
	if scope.OwnersOnly {
		customerID, ok := r.ownerOf(s.ISSINumber)
		if !ok || !r.ownerCustomers[customerID] {
			return false
		}
	}
	return true
}

func (r *MemorySubscriptionsRepo) ListPairs(_ context.Context, scope domain.SubscriptionScope) ([]LivePair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []LivePair{}
	for _, s := range r.subs {
		if r.inScope(s, scope) {
			out = append(out, LivePair{
				Pair:        domain.Pair{TEI: s.RadioTEI, ISSI: s.ISSINumber},
				AstridAlias: s.AstridAlias,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pair.TEI < out[j].Pair.TEI })
	return out, nil
}

func (r *MemorySubscriptionsRepo) classify(tei int64) bool {
	for _, tr := range r.teiRanges {
		if tr.MinTEI <= tei && tei <= tr.MaxTEI {
			return true
		}
	}
	return false
}

func (r *MemorySubscriptionsRepo) ApplyReconciliation(_ context.Context, plan *ReconcilePlan) (*ReconcileOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcome := &ReconcileOutcome{}

	for _, d := range plan.Deletes {
		for id, s := range r.subs {
			if s.RadioTEI == d.TEI && s.ISSINumber == d.ISSI {
				delete(r.subs, id)
				outcome.Deleted++
			}
		}
	}

	for _, c := range plan.Creates {
		for id, s := range r.subs {
			if s.ISSINumber == c.Pair.ISSI {
				delete(r.subs, id)
				outcome.Deleted++
			}
		}
		if !r.radios[c.Pair.TEI] && !r.classify(c.Pair.TEI) {
			outcome.Unclassified = append(outcome.Unclassified, c.Pair)
			continue
		}
		for _, s := range r.subs {
			if s.RadioTEI == c.Pair.TEI {
				return nil, ErrConflict
			}
		}
		r.insertLocked(c.Pair.TEI, c.Pair.ISSI, c.Alias, false)
		outcome.Created++
	}

	for _, u := range plan.AliasUpdates {
		for _, s := range r.subs {
			if s.RadioTEI == u.Pair.TEI && s.ISSINumber == u.Pair.ISSI && s.AstridAlias != u.Alias {
				s.AstridAlias = u.Alias
				outcome.Updated++
			}
		}
	}

	return outcome, nil
}

func (r *MemorySubscriptionsRepo) GetByISSI(_ context.Context, issi int64) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		if s.ISSINumber == issi {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemorySubscriptionsRepo) GetByTEI(_ context.Context, tei int64) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		if s.RadioTEI == tei {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemorySubscriptionsRepo) Create(_ context.Context, tei, issi int64, alias string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.subs {
		if s.RadioTEI == tei || s.ISSINumber == issi {
			return nil, ErrConflict
		}
	}
	if !r.radios[tei] && !r.classify(tei) {
		return nil, ErrNoModelForTEI
	}
	cp := *r.insertLocked(tei, issi, alias, false)
	return &cp, nil
}

func (r *MemorySubscriptionsRepo) Rebind(_ context.Context, id int64, tei, issi int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[id]
	if !ok {
		return ErrNotFound
	}
	for otherID, other := range r.subs {
		if otherID == id {
			continue
		}
		if other.RadioTEI == tei || other.ISSINumber == issi {
			return ErrConflict
		}
	}
	s.RadioTEI = tei
	s.ISSINumber = issi
	r.radios[tei] = true
	r.issis[issi] = true
	return nil
}

func (r *MemorySubscriptionsRepo) List(_ context.Context, filters SubscriptionFilters, page, size int) ([]*domain.Subscription, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Subscription{}
	for _, s := range r.subs {
		if filters.Active != nil && s.Active != *filters.Active {
			continue
		}
		if filters.DMOOnly != nil && s.DMOOnly != *filters.DMOOnly {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISSINumber < out[j].ISSINumber })
	return out, len(out), nil
}
