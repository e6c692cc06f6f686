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

func newTestTicketService(t *testing.T) (*TicketService, *repository.MemorySubscriptionsRepo) {
	t.Helper()

	subs := repository.NewMemorySubscriptionsRepo()
	subs.SeedTEIRange(10000000000000, 99999999999999, 1)

	return NewTicketService(repository.NewMemoryTicketsRepo(), subs, zap.NewNop()), subs
}

func TestCreateVTEIRequest(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "PUMP 01", false)

	ticket, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.True(t, ticket.OldISSI.Valid)
	assert.Equal(t, int64(2090001), ticket.OldISSI.Int64)
	assert.Equal(t, ticket.OldISSI, ticket.NewISSI)
}

func TestCreateVTEIRequestValidations(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)
	subs.SeedSubscription(22222222222222, 2090002, "", false)

	var conflict *ConflictError

	// old radio without subscription
	_, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVTEI,
		OldRadioTEI: 33333333333333,
		RadioTEI:    44444444444444,
	})
	require.ErrorAs(t, err, &conflict)

	// new radio already bound
	_, err = svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
	})
	require.ErrorAs(t, err, &conflict)
}

func TestCreateActivationRequestValidations(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)

	var conflict *ConflictError

	// radio already has a subscription
	_, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestActivation,
		RadioTEI:    11111111111111,
		NewISSI:     2090009,
	})
	require.ErrorAs(t, err, &conflict)

	// ISSI already activated elsewhere
	_, err = svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestActivation,
		RadioTEI:    22222222222222,
		NewISSI:     2090001,
	})
	require.ErrorAs(t, err, &conflict)

	// both sides free
	ticket, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestActivation,
		RadioTEI:    22222222222222,
		NewISSI:     2090009,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestActivation, ticket.RequestType)
}

func TestCreateRequestOpenConflict(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)

	first, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
	})
	require.NoError(t, err)

	// a second request touching the same old radio is refused
	var conflict *ConflictError
	_, err = svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    33333333333333,
	})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.TicketID)
}

func TestVTEIWorkflowAppliesRebind(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)

	ticket, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, ticket.ID, "ASTRID-4711", "dispatcher", "")
	require.NoError(t, err)
	_, err = svc.MarkWaitingVerification(ctx, ticket.ID, "dispatcher", "")
	require.NoError(t, err)
	log, err := svc.MarkVerified(ctx, ticket.ID, "dispatcher", "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, log.StatusAfter)

	// the subscription moved to the new radio, identity unchanged
	sub, err := subs.GetByTEI(ctx, 22222222222222)
	require.NoError(t, err)
	assert.Equal(t, int64(2090001), sub.ISSINumber)
	_, err = subs.GetByTEI(ctx, 11111111111111)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	logs, err := svc.Logs(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestVISSIWorkflowAppliesRebind(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)

	ticket, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVISSI,
		RadioTEI:    11111111111111,
		OldISSI:     2090001,
		NewISSI:     2090005,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, ticket.ID, "ASTRID-4712", "", "")
	require.NoError(t, err)
	_, err = svc.MarkWaitingVerification(ctx, ticket.ID, "", "")
	require.NoError(t, err)
	_, err = svc.MarkVerified(ctx, ticket.ID, "", "")
	require.NoError(t, err)

	sub, err := subs.GetByTEI(ctx, 11111111111111)
	require.NoError(t, err)
	assert.Equal(t, int64(2090005), sub.ISSINumber)
}

func TestCreateVISSIVTEIRequestValidations(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)

	var conflict *ConflictError

	// all four identifiers are mandatory
	_, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVISSIVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
		OldISSI:     2090001,
	})
	require.ErrorAs(t, err, &conflict)

	// old radio without a subscription
	_, err = svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVISSIVTEI,
		OldRadioTEI: 33333333333333,
		RadioTEI:    22222222222222,
		OldISSI:     2090001,
		NewISSI:     2090005,
	})
	require.ErrorAs(t, err, &conflict)

	ticket, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVISSIVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
		OldISSI:     2090001,
		NewISSI:     2090005,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestVISSIVTEI, ticket.RequestType)
	assert.Equal(t, "VISSI & VTEI – from 2090001 / 11111111111111 to 2090005 / 22222222222222", ticket.Title)
}

func TestVISSIVTEIWorkflowRebindsBoth(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)

	ticket, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVISSIVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
		OldISSI:     2090001,
		NewISSI:     2090005,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, ticket.ID, "ASTRID-4713", "", "")
	require.NoError(t, err)
	_, err = svc.MarkWaitingVerification(ctx, ticket.ID, "", "")
	require.NoError(t, err)
	log, err := svc.MarkVerified(ctx, ticket.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, log.StatusAfter)

	// the subscription moved to the new radio and the new identity
	sub, err := subs.GetByTEI(ctx, 22222222222222)
	require.NoError(t, err)
	assert.Equal(t, int64(2090005), sub.ISSINumber)
	_, err = subs.GetByTEI(ctx, 11111111111111)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmitRequiresExternalReference(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)
	ticket, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
	})
	require.NoError(t, err)

	var conflict *ConflictError
	_, err = svc.Submit(ctx, ticket.ID, "", "", "")
	require.ErrorAs(t, err, &conflict)
}

func TestRefuseRequiresNote(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)
	ticket, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
	})
	require.NoError(t, err)

	var conflict *ConflictError
	_, err = svc.Refuse(ctx, ticket.ID, "chief", "")
	require.ErrorAs(t, err, &conflict)

	log, err := svc.Refuse(ctx, ticket.ID, "chief", "wrong radio selected")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, log.StatusAfter)

	// the subscription did not move
	sub, err := subs.GetByTEI(ctx, 11111111111111)
	require.NoError(t, err)
	assert.Equal(t, int64(2090001), sub.ISSINumber)
}

func TestClosedTicketIsTerminal(t *testing.T) {
	svc, subs := newTestTicketService(t)
	ctx := context.Background()

	subs.SeedSubscription(11111111111111, 2090001, "", false)
	ticket, err := svc.CreateRequest(ctx, CreateRequestInput{
		RequestType: domain.RequestVTEI,
		OldRadioTEI: 11111111111111,
		RadioTEI:    22222222222222,
	})
	require.NoError(t, err)

	_, err = svc.Refuse(ctx, ticket.ID, "chief", "duplicate")
	require.NoError(t, err)

	var conflict *ConflictError
	_, err = svc.Submit(ctx, ticket.ID, "ASTRID-1", "", "")
	require.ErrorAs(t, err, &conflict)
}
