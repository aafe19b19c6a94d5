package services

import (
	"context"
	"testing"

	. "roomledger/internal/models"
	"roomledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuditService(f *fixture) *AuditService {
	return NewAuditService(f.db, f.repos, NewSnapshotResolver(f.db, f.repos))
}

func staffActor() ActorMeta {
	return ActorMeta{
		Actor:     "manager.lee",
		Role:      "manager",
		IPAddress: "10.0.0.5",
		UserAgent: "test-client/1.0",
	}
}

func listEntries(t *testing.T, f *fixture, filter repositories.AuditFilter) []*AuditLog {
	t.Helper()

	entries, err := f.repos.Audit.List(context.Background(), f.db.SQL, filter)
	require.NoError(t, err)
	return entries
}

func TestRecord_SuccessCapturesBeforeAndAfterSnapshots(t *testing.T) {
	f := newFixture(t, ContractPending)
	audit := newAuditService(f)
	lifecycle := NewContractLifecycleService(f.repos, f.tx)

	op := staffActor().Op(ActionContractSign, TargetContract, f.contract.ID, "upload signed contract")
	err := audit.Record(context.Background(), op, func(ctx context.Context) (any, error) {
		return lifecycle.UploadSigned(ctx, f.contract.ID, "/documents/signed.pdf")
	})
	require.NoError(t, err)

	entries := listEntries(t, f, repositories.AuditFilter{
		TargetType: TargetContract,
		TargetID:   f.contract.ID,
	})
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, ActionContractSign, entry.Action)
	assert.Equal(t, AuditSuccess, entry.Status)
	assert.Equal(t, "manager.lee", entry.Actor)
	assert.Equal(t, "manager", entry.ActorRole)
	assert.Equal(t, "10.0.0.5", entry.IPAddress)
	assert.Nil(t, entry.ErrorMessage)

	assert.Contains(t, string(entry.OldValue), string(ContractPending))
	assert.Contains(t, string(entry.NewValue), string(ContractSignedPendingDeposit))
}

func TestRecord_FailureAppendsFailedVariantWithError(t *testing.T) {
	f := newFixture(t, ContractPending)
	audit := newAuditService(f)
	lifecycle := NewContractLifecycleService(f.repos, f.tx)

	// Deposit confirmation from PENDING is an invalid transition.
	op := staffActor().Op(ActionContractConfirmDeposit, TargetContract, f.contract.ID, "confirm deposit")
	err := audit.Record(context.Background(), op, func(ctx context.Context) (any, error) {
		return lifecycle.ConfirmDeposit(ctx, f.contract.ID, DepositPayment{Method: DepositCash})
	})
	require.ErrorIs(t, err, ErrInvalidTransition)

	entries := listEntries(t, f, repositories.AuditFilter{
		TargetType: TargetContract,
		TargetID:   f.contract.ID,
	})
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, ActionContractConfirmDeposit.Failed(), entry.Action)
	assert.Equal(t, AuditFailure, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.NotEmpty(t, *entry.ErrorMessage)

	// Failed attempts are queryable by their failed action variant.
	filtered := listEntries(t, f, repositories.AuditFilter{
		Action: ActionContractConfirmDeposit.Failed(),
	})
	require.Len(t, filtered, 1)
	assert.Equal(t, entry.ID, filtered[0].ID)
}

func TestRecord_FailureOnMissingTargetStillAppendsEntry(t *testing.T) {
	f := newFixture(t, ContractActive)
	audit := newAuditService(f)
	lifecycle := NewContractLifecycleService(f.repos, f.tx)

	// The operation fails before any entity exists, so fn hands back a nil
	// contract pointer alongside the error. The failure entry must still land.
	missing := uuid.New()
	op := staffActor().Op(ActionContractEnd, TargetContract, missing, "end contract")

	var err error
	require.NotPanics(t, func() {
		err = audit.Record(context.Background(), op, func(ctx context.Context) (any, error) {
			return lifecycle.End(ctx, missing)
		})
	})
	require.Error(t, err)

	entries := listEntries(t, f, repositories.AuditFilter{
		TargetType: TargetContract,
		TargetID:   missing,
	})
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, ActionContractEnd.Failed(), entry.Action)
	assert.Equal(t, AuditFailure, entry.Status)
	require.NotNil(t, entry.ErrorMessage)
	assert.Empty(t, entry.NewValue)
}

func TestRecord_CreateFillsTargetIDFromResult(t *testing.T) {
	f := newFixture(t, ContractActive)
	audit := newAuditService(f)
	checkout := newCheckoutService(f)

	var request *CheckoutRequest
	op := staffActor().Op(ActionCheckoutSubmit, TargetCheckoutRequest, uuid.Nil, "submit checkout request")
	err := audit.Record(context.Background(), op, func(ctx context.Context) (any, error) {
		var err error
		request, err = checkout.SubmitRequest(ctx, f.contract.ID, "moving out")
		return request, err
	})
	require.NoError(t, err)

	entries := listEntries(t, f, repositories.AuditFilter{
		TargetType: TargetCheckoutRequest,
		TargetID:   request.ID,
	})
	require.Len(t, entries, 1)
	assert.Equal(t, AuditSuccess, entries[0].Status)
	assert.NotEmpty(t, entries[0].NewValue)
}

func TestRecord_BlankActorDefaultsToSystem(t *testing.T) {
	f := newFixture(t, ContractPending)
	audit := newAuditService(f)
	lifecycle := NewContractLifecycleService(f.repos, f.tx)

	op := AuditOp{
		Action:     ActionContractSign,
		TargetType: TargetContract,
		TargetID:   f.contract.ID,
	}
	err := audit.Record(context.Background(), op, func(ctx context.Context) (any, error) {
		return lifecycle.UploadSigned(ctx, f.contract.ID, "/documents/signed.pdf")
	})
	require.NoError(t, err)

	entries := listEntries(t, f, repositories.AuditFilter{Actor: "system"})
	require.Len(t, entries, 1)
}

func TestAuditTrail_ListPagedOrdersNewestFirst(t *testing.T) {
	f := newFixture(t, ContractPending)
	audit := newAuditService(f)
	lifecycle := NewContractLifecycleService(f.repos, f.tx)
	ctx := context.Background()

	sign := staffActor().Op(ActionContractSign, TargetContract, f.contract.ID, "upload signed contract")
	require.NoError(t, audit.Record(ctx, sign, func(ctx context.Context) (any, error) {
		return lifecycle.UploadSigned(ctx, f.contract.ID, "/documents/signed.pdf")
	}))

	deposit := staffActor().Op(ActionContractConfirmDeposit, TargetContract, f.contract.ID, "confirm deposit")
	require.NoError(t, audit.Record(ctx, deposit, func(ctx context.Context) (any, error) {
		return lifecycle.ConfirmDeposit(ctx, f.contract.ID, DepositPayment{Method: DepositCash})
	}))

	entries, total, err := f.repos.Audit.ListPaged(ctx, f.db.SQL,
		repositories.AuditFilter{TargetType: TargetContract, TargetID: f.contract.ID}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionContractConfirmDeposit, entries[0].Action)
	assert.Equal(t, ActionContractSign, entries[1].Action)
}
