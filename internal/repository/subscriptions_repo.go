package repository

import (
	"context"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// LivePair a live subscription identity plus its stored alias.
type LivePair struct {
	Pair        domain.Pair
	AstridAlias string
}

// PlannedCreate a subscription to create during reconciliation. Any
// subscription currently holding the ISSI is deleted first, in or out of
// scope: pairs are exclusive on the logical side.
type PlannedCreate struct {
	Pair  domain.Pair
	Alias string
}

// PlannedAliasUpdate an alias-only update for an existing pair.
type PlannedAliasUpdate struct {
	Pair  domain.Pair
	Alias string
}

// ReconcilePlan the full change set of one reconciliation run.
type ReconcilePlan struct {
	Creates      []PlannedCreate
	AliasUpdates []PlannedAliasUpdate
	Deletes      []domain.Pair
}

// Empty reports whether applying the plan would be a no-op.
func (p *ReconcilePlan) Empty() bool {
	return len(p.Creates) == 0 && len(p.AliasUpdates) == 0 && len(p.Deletes) == 0
}

// ReconcileOutcome counts reported back to the upload caller.
type ReconcileOutcome struct {
	Created int
	Updated int
	Deleted int
	// Unclassified pairs whose radio could not be created because no TEI
	// range matched; reported alongside row errors, the rest of the batch
	// still lands.
	Unclassified []domain.Pair
}

// SubscriptionFilters list-endpoint filters.
type SubscriptionFilters struct {
	Search  string // matches TEI, ISSI or alias
	Active  *bool
	DMOOnly *bool
}

// SubscriptionsRepo persistence for the live TEI↔ISSI mapping set.
type SubscriptionsRepo interface {
	// ListPairs loads the live in-scope pairs once, up front.
	ListPairs(ctx context.Context, scope domain.SubscriptionScope) ([]LivePair, error)

	// ApplyReconciliation executes the whole plan in a single transaction:
	// either every insert/update/delete lands, or none does. Creating a pair
	// get-or-creates the radio (classified against TEI ranges) and the ISSI
	// (classified against customer and discipline ranges).
	ApplyReconciliation(ctx context.Context, plan *ReconcilePlan) (*ReconcileOutcome, error)

	// GetByISSI returns the live subscription holding the ISSI, ErrNotFound
	// when it is free.
	GetByISSI(ctx context.Context, issi int64) (*domain.Subscription, error)

	// GetByTEI returns the live subscription of the radio, ErrNotFound when
	// the radio has none.
	GetByTEI(ctx context.Context, tei int64) (*domain.Subscription, error)

	// Create binds a free radio to a free ISSI. ErrConflict when either side
	// is already held (the manual path does not steal, unlike the feed).
	Create(ctx context.Context, tei, issi int64, alias string) (*domain.Subscription, error)

	// Rebind moves an existing subscription to another radio or ISSI, used
	// when a verified VTEI/VISSI request is applied.
	Rebind(ctx context.Context, id int64, tei, issi int64) error

	List(ctx context.Context, filters SubscriptionFilters, page, size int) ([]*domain.Subscription, int, error)
}
