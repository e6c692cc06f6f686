package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/feed"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/store"
)

// ErrSyncInProgress another reconciliation run holds the lock for this scope.
var ErrSyncInProgress = errors.New("a reconciliation run for this scope is already in progress")

// reconcileLockTTL bounds how long a crashed run can block the scope.
const reconcileLockTTL = 10 * time.Minute

// ReconcileResult what the upload endpoint reports back.
type ReconcileResult struct {
	Created      int
	Updated      int
	Deleted      int
	Skipped      int
	RowErrors    []*feed.RowError
	Unclassified []domain.Pair
}

// ReconcileService converges the live subscription set towards an external
// provisioning export. One run is one atomic diff-and-apply; runs for the
// same scope are serialized through an advisory lock.
type ReconcileService struct {
	subs   repository.SubscriptionsRepo
	kv     store.KV
	logger *zap.Logger
}

func NewReconcileService(subs repository.SubscriptionsRepo, kv store.KV, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{subs: subs, kv: kv, logger: logger}
}

// BuildPlan computes the symmetric difference between the existing in-scope
// pairs and the candidate set. Pure; no I/O.
func BuildPlan(existing []repository.LivePair, parsed *feed.ParseResult) *repository.ReconcilePlan {
	plan := &repository.ReconcilePlan{}

	existingAlias := make(map[domain.Pair]string, len(existing))
	for _, lp := range existing {
		existingAlias[lp.Pair] = lp.AstridAlias
	}

	for _, pair := range parsed.Pairs {
		alias := parsed.Aliases[pair]
		stored, exists := existingAlias[pair]
		if !exists {
			plan.Creates = append(plan.Creates, repository.PlannedCreate{Pair: pair, Alias: alias})
			continue
		}
		if stored != alias {
			plan.AliasUpdates = append(plan.AliasUpdates, repository.PlannedAliasUpdate{Pair: pair, Alias: alias})
		}
	}

	for _, lp := range existing {
		if !parsed.Contains(lp.Pair) {
			plan.Deletes = append(plan.Deletes, lp.Pair)
		}
	}

	return plan
}

// Reconcile applies one parsed export against the given scope.
//
// A candidate ISSI already bound to a different radio takes the ISSI over:
// the prior subscription is deleted without any legitimacy check, matching
// the provisioning backend's own behavior. Upstream data errors therefore
// propagate; the export is the source of truth.
func (s *ReconcileService) Reconcile(ctx context.Context, parsed *feed.ParseResult, scope domain.SubscriptionScope) (*ReconcileResult, error) {
	lockKey := "reconcile:lock:" + scope.Key()
	lock, err := store.AcquireLock(ctx, s.kv, lockKey, reconcileLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire reconcile lock: %w", err)
	}
	if lock == nil {
		return nil, ErrSyncInProgress
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			s.logger.Warn("failed to release reconcile lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	existing, err := s.subs.ListPairs(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing subscriptions: %w", err)
	}

	plan := BuildPlan(existing, parsed)

	s.logger.Info("reconciling subscriptions",
		zap.String("scope", scope.Key()),
		zap.Int("existing", len(existing)),
		zap.Int("candidates", len(parsed.Pairs)),
		zap.Int("planned_creates", len(plan.Creates)),
		zap.Int("planned_updates", len(plan.AliasUpdates)),
		zap.Int("planned_deletes", len(plan.Deletes)),
		zap.Int("row_errors", len(parsed.RowErrors)),
	)

	outcome := &repository.ReconcileOutcome{}
	if !plan.Empty() {
		outcome, err = s.subs.ApplyReconciliation(ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("reconciliation aborted: %w", err)
		}
	}

	for _, pair := range outcome.Unclassified {
		s.logger.Warn("no radio model found for TEI, subscription skipped",
			zap.Int64("tei", pair.TEI), zap.Int64("issi", pair.ISSI))
	}

	return &ReconcileResult{
		Created:      outcome.Created,
		Updated:      outcome.Updated,
		Deleted:      outcome.Deleted,
		Skipped:      parsed.Skipped,
		RowErrors:    parsed.RowErrors,
		Unclassified: outcome.Unclassified,
	}, nil
}
