package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/feed"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/store"
)

func parsedFeed(pairs ...domain.Pair) *feed.ParseResult {
	r := &feed.ParseResult{Aliases: map[domain.Pair]string{}}
	for _, p := range pairs {
		r.Pairs = append(r.Pairs, p)
		r.Aliases[p] = ""
	}
	return r
}

func newTestReconciler(t *testing.T) (*ReconcileService, *repository.MemorySubscriptionsRepo, store.KV) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	kv := store.NewRedisKV(client)

	subs := repository.NewMemorySubscriptionsRepo()
	subs.SeedTEIRange(10000000000000, 99999999999999, 1)
	subs.SeedCustomerRange(2000000, 2999999, 1, true)

	return NewReconcileService(subs, kv, zap.NewNop()), subs, kv
}

func TestBuildPlanAliasUpdate(t *testing.T) {
	existing := []repository.LivePair{
		{Pair: domain.Pair{TEI: 1, ISSI: 10}, AstridAlias: "OLD"},
	}
	parsed := &feed.ParseResult{
		Pairs:   []domain.Pair{{TEI: 1, ISSI: 10}},
		Aliases: map[domain.Pair]string{{TEI: 1, ISSI: 10}: "NEW"},
	}

	plan := BuildPlan(existing, parsed)
	assert.Empty(t, plan.Creates)
	assert.Empty(t, plan.Deletes)
	require.Len(t, plan.AliasUpdates, 1)
	assert.Equal(t, "NEW", plan.AliasUpdates[0].Alias)
}

func TestReconcileCreatesNewPair(t *testing.T) {
	svc, subs, _ := newTestReconciler(t)
	ctx := context.Background()

	result, err := svc.Reconcile(ctx, parsedFeed(domain.Pair{TEI: 12345678901234, ISSI: 2090001}), domain.SubscriptionScope{OwnersOnly: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Deleted)

	sub, err := subs.GetByTEI(ctx, 12345678901234)
	require.NoError(t, err)
	assert.Equal(t, int64(2090001), sub.ISSINumber)
}

func TestReconcileDeletesVanishedPair(t *testing.T) {
	svc, subs, _ := newTestReconciler(t)
	ctx := context.Background()

	subs.SeedSubscription(12345678901234, 2090001, "", false)
	subs.SeedSubscription(22345678901234, 2090002, "", false)

	result, err := svc.Reconcile(ctx, parsedFeed(domain.Pair{TEI: 12345678901234, ISSI: 2090001}), domain.SubscriptionScope{OwnersOnly: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	_, err = subs.GetByTEI(ctx, 22345678901234)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReconcileMovesISSIWithinOneRun(t *testing.T) {
	// the feed moves an ISSI to a radio that itself gives up its old ISSI:
	// both old pairs vanish, the new pair lands, all in one run
	svc, subs, _ := newTestReconciler(t)
	ctx := context.Background()

	subs.SeedSubscription(12345678901234, 2090001, "", false)
	subs.SeedSubscription(22345678901234, 2090002, "", false)

	result, err := svc.Reconcile(ctx, parsedFeed(domain.Pair{TEI: 12345678901234, ISSI: 2090002}), domain.SubscriptionScope{OwnersOnly: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Deleted)

	sub, err := subs.GetByTEI(ctx, 12345678901234)
	require.NoError(t, err)
	assert.Equal(t, int64(2090002), sub.ISSINumber)
	_, err = subs.GetByTEI(ctx, 22345678901234)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReconcileIdempotent(t *testing.T) {
	svc, _, _ := newTestReconciler(t)
	ctx := context.Background()
	scope := domain.SubscriptionScope{OwnersOnly: true}
	f := parsedFeed(
		domain.Pair{TEI: 12345678901234, ISSI: 2090001},
		domain.Pair{TEI: 22345678901234, ISSI: 2090002},
	)

	first, err := svc.Reconcile(ctx, f, scope)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := svc.Reconcile(ctx, f, scope)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Zero(t, second.Updated)
	assert.Zero(t, second.Deleted)
}

func TestReconcileLeavesOutOfScopeAlone(t *testing.T) {
	svc, subs, _ := newTestReconciler(t)
	ctx := context.Background()

	// DMO-only subscription is outside the default scope
	subs.SeedSubscription(32345678901234, 2090009, "", true)

	result, err := svc.Reconcile(ctx, parsedFeed(domain.Pair{TEI: 12345678901234, ISSI: 2090001}), domain.SubscriptionScope{OwnersOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	sub, err := subs.GetByTEI(ctx, 32345678901234)
	require.NoError(t, err)
	assert.Equal(t, int64(2090009), sub.ISSINumber)
}

func TestReconcileUnclassifiedTEISkipped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	kv := store.NewRedisKV(client)

	subs := repository.NewMemorySubscriptionsRepo()
	subs.SeedTEIRange(20000000000000, 29999999999999, 1)
	svc := NewReconcileService(subs, kv, zap.NewNop())
	ctx := context.Background()

	result, err := svc.Reconcile(ctx, parsedFeed(
		domain.Pair{TEI: 12345678901234, ISSI: 2090001}, // outside the range
		domain.Pair{TEI: 22345678901234, ISSI: 2090002},
	), domain.SubscriptionScope{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	require.Len(t, result.Unclassified, 1)
	assert.Equal(t, int64(12345678901234), result.Unclassified[0].TEI)
}

func TestReconcileHeldLock(t *testing.T) {
	svc, _, kv := newTestReconciler(t)
	ctx := context.Background()
	scope := domain.SubscriptionScope{OwnersOnly: true}

	ok, err := kv.SetNX(ctx, "reconcile:lock:"+scope.Key(), "someone-else", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Reconcile(ctx, parsedFeed(domain.Pair{TEI: 12345678901234, ISSI: 2090001}), scope)
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestReconcileReleasesLock(t *testing.T) {
	svc, _, _ := newTestReconciler(t)
	ctx := context.Background()
	scope := domain.SubscriptionScope{OwnersOnly: true}

	_, err := svc.Reconcile(ctx, parsedFeed(domain.Pair{TEI: 12345678901234, ISSI: 2090001}), scope)
	require.NoError(t, err)

	// lock must be free again for the next run
	_, err = svc.Reconcile(ctx, parsedFeed(domain.Pair{TEI: 12345678901234, ISSI: 2090001}), scope)
	require.NoError(t, err)
}
