package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
)

func newTestAssignmentService(t *testing.T) (*AssignmentService, *repository.MemoryAssignmentsRepo) {
	t.Helper()

	repo := repository.NewMemoryAssignmentsRepo()
	repo.SeedEndpoint(1, "Cabin radio", false)
	repo.SeedEndpoint(2, "Dashboard radio", false)
	repo.SeedEndpoint(3, "Spare drawer", true)

	return NewAssignmentService(repo, nil, zap.NewNop()), repo
}

func TestAssignMovesRadio(t *testing.T) {
	svc, repo := newTestAssignmentService(t)
	ctx := context.Background()

	first, err := svc.Assign(ctx, AssignInput{RadioTEI: 100, EndpointID: 1})
	require.NoError(t, err)
	assert.True(t, first.Open())

	// placing the same radio elsewhere closes the first interval
	second, err := svc.Assign(ctx, AssignInput{RadioTEI: 100, EndpointID: 2})
	require.NoError(t, err)
	assert.True(t, second.Open())

	assert.Equal(t, 1, repo.OpenCount(100))

	open, err := repo.OpenByRadio(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), open.EndpointID)
}

func TestAssignEvictsSingleOccupancyEndpoint(t *testing.T) {
	svc, repo := newTestAssignmentService(t)
	ctx := context.Background()

	_, err := svc.Assign(ctx, AssignInput{RadioTEI: 100, EndpointID: 1})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, AssignInput{RadioTEI: 200, EndpointID: 1})
	require.NoError(t, err)

	current, err := svc.CurrentOccupant(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, int64(200), current.RadioTEI)

	// the evicted radio holds no open assignment anywhere
	assert.Equal(t, 0, repo.OpenCount(100))
}

func TestAssignMultiOccupancyEndpoint(t *testing.T) {
	svc, repo := newTestAssignmentService(t)
	ctx := context.Background()

	_, err := svc.Assign(ctx, AssignInput{RadioTEI: 100, EndpointID: 3, Reason: domain.ReasonStorage})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, AssignInput{RadioTEI: 200, EndpointID: 3, Reason: domain.ReasonStorage})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.OpenCount(100))
	assert.Equal(t, 1, repo.OpenCount(200))
}

func TestAssignDefaultsAndValidatesReason(t *testing.T) {
	svc, _ := newTestAssignmentService(t)
	ctx := context.Background()

	a, err := svc.Assign(ctx, AssignInput{RadioTEI: 100, EndpointID: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonPrimary, a.Reason)

	_, err = svc.Assign(ctx, AssignInput{RadioTEI: 200, EndpointID: 1, Reason: "vacation"})
	require.Error(t, err)
}

func TestAssignUnknownEndpoint(t *testing.T) {
	svc, _ := newTestAssignmentService(t)

	_, err := svc.Assign(context.Background(), AssignInput{RadioTEI: 100, EndpointID: 99})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCloseIsIdempotent(t *testing.T) {
	svc, repo := newTestAssignmentService(t)
	ctx := context.Background()

	a, err := svc.Assign(ctx, AssignInput{RadioTEI: 100, EndpointID: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctx, a.ID))
	require.NoError(t, svc.Close(ctx, a.ID))
	assert.Equal(t, 0, repo.OpenCount(100))

	assert.ErrorIs(t, svc.Close(ctx, "no-such-id"), repository.ErrNotFound)
}

func TestCurrentOccupantEmptyEndpoint(t *testing.T) {
	svc, _ := newTestAssignmentService(t)

	current, err := svc.CurrentOccupant(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestReplacementSwap(t *testing.T) {
	// a broken radio swaps out for a spare: the spare takes the slot and
	// records what it replaces, the broken one moves to the repair drawer
	svc, repo := newTestAssignmentService(t)
	ctx := context.Background()

	_, err := svc.Assign(ctx, AssignInput{RadioTEI: 100, EndpointID: 1})
	require.NoError(t, err)

	spare, err := svc.Assign(ctx, AssignInput{
		RadioTEI:    200,
		EndpointID:  1,
		Reason:      domain.ReasonTemporary,
		ReplacesTEI: 100,
	})
	require.NoError(t, err)
	require.True(t, spare.ReplacesTEI.Valid)
	assert.Equal(t, int64(100), spare.ReplacesTEI.Int64)

	_, err = svc.Assign(ctx, AssignInput{RadioTEI: 100, EndpointID: 3, Reason: domain.ReasonRepair})
	require.NoError(t, err)

	current, err := svc.CurrentOccupant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), current.RadioTEI)
	assert.Equal(t, 1, repo.OpenCount(100))
}
