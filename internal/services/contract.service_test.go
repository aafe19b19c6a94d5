package services

import (
	"context"
	"testing"
	"time"

	. "roomledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLifecycleService(f *fixture) *ContractLifecycleService {
	return NewContractLifecycleService(f.repos, f.tx)
}

func TestCreateContract_SnapshotsBranchAndRoom(t *testing.T) {
	f := newFixture(t, ContractPending)
	lifecycle := newLifecycleService(f)

	room2 := &Room{BranchID: f.branch.ID, Number: "202", Price: decimal.NewFromInt(600), Status: RoomAvailable}
	require.NoError(t, f.db.SQL.Create(room2).Error)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	contract, err := lifecycle.Create(context.Background(), NewContract{
		TenantID:      f.tenant.ID,
		RoomID:        room2.ID,
		StartDate:     start,
		EndDate:       start.AddDate(1, 0, 0),
		DepositAmount: decimal.NewFromInt(600),
	})
	require.NoError(t, err)

	assert.Equal(t, ContractPending, contract.Status)
	assert.Equal(t, "Downtown", contract.BranchName)
	assert.Equal(t, "202", contract.RoomNumber)

	// Renaming the room later must not rewrite the contract's snapshot.
	require.NoError(t, f.db.SQL.Model(room2).Update("number", "202B").Error)
	reloaded, err := f.repos.Contract.GetByID(context.Background(), f.db.SQL, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, "202", reloaded.RoomNumber)
}

func TestConfirmDeposit_RequiresSignedContract(t *testing.T) {
	f := newFixture(t, ContractPending)
	lifecycle := newLifecycleService(f)

	_, err := lifecycle.ConfirmDeposit(context.Background(), f.contract.ID, DepositPayment{
		Method: DepositCash,
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	contract := f.reloadContract(t)
	assert.Equal(t, ContractPending, contract.Status)
	assert.Nil(t, contract.DepositPaidAt)
}

func TestContractLifecycle_HappyPath(t *testing.T) {
	f := newFixture(t, ContractPending)
	lifecycle := newLifecycleService(f)
	ctx := context.Background()

	signed, err := lifecycle.UploadSigned(ctx, f.contract.ID, "/documents/contracts/signed.pdf")
	require.NoError(t, err)
	assert.Equal(t, ContractSignedPendingDeposit, signed.Status)

	active, err := lifecycle.ConfirmDeposit(ctx, f.contract.ID, DepositPayment{
		Method:    DepositBankTransfer,
		Reference: "TXN-42",
	})
	require.NoError(t, err)
	assert.Equal(t, ContractActive, active.Status)
	require.NotNil(t, active.DepositPaidAt)
	require.NotNil(t, active.DepositReceiptURL)
	assert.Equal(t, DepositBankTransfer, *active.DepositMethod)

	assert.Equal(t, RoomOccupied, f.reloadRoom(t).Status)

	ended, err := lifecycle.End(ctx, f.contract.ID)
	require.NoError(t, err)
	assert.Equal(t, ContractEnded, ended.Status)
	assert.Equal(t, RoomAvailable, f.reloadRoom(t).Status)
}

func TestConfirmDeposit_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t, ContractSignedPendingDeposit)
	lifecycle := newLifecycleService(f)

	zero := decimal.Zero
	_, err := lifecycle.ConfirmDeposit(context.Background(), f.contract.ID, DepositPayment{
		Method: DepositCash,
		Amount: &zero,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancel_OnlyBeforeActive(t *testing.T) {
	f := newFixture(t, ContractSignedPendingDeposit)
	lifecycle := newLifecycleService(f)

	cancelled, err := lifecycle.Cancel(context.Background(), f.contract.ID)
	require.NoError(t, err)
	assert.Equal(t, ContractCancelled, cancelled.Status)
	assert.Equal(t, RoomAvailable, f.reloadRoom(t).Status)

	// Terminal states cannot be cancelled again.
	_, err = lifecycle.Cancel(context.Background(), f.contract.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel_RejectsActiveContract(t *testing.T) {
	f := newFixture(t, ContractActive)
	lifecycle := newLifecycleService(f)

	_, err := lifecycle.Cancel(context.Background(), f.contract.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdatePending_RejectedAfterSigning(t *testing.T) {
	f := newFixture(t, ContractSignedPendingDeposit)
	lifecycle := newLifecycleService(f)

	newEnd := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	_, err := lifecycle.UpdatePending(context.Background(), f.contract.ID, ContractUpdate{EndDate: &newEnd})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAttachService_MeteredStartsWithInitialReading(t *testing.T) {
	f := newFixture(t, ContractActive)
	lifecycle := newLifecycleService(f)

	electricity := f.catalogItem(t, "Electricity", "kWh", 0.25, true)

	initial := 5000
	service, err := lifecycle.AttachService(context.Background(),
		f.contract.ID, electricity.ID, 1, &initial, f.contract.StartDate)
	require.NoError(t, err)

	require.NotNil(t, service.PreviousReading)
	require.NotNil(t, service.CurrentReading)
	assert.Equal(t, 5000, *service.PreviousReading)
	assert.Equal(t, 5000, *service.CurrentReading)
}

func TestAttachService_RejectsInactiveContract(t *testing.T) {
	f := newFixture(t, ContractPending)
	lifecycle := newLifecycleService(f)

	internet := f.catalogItem(t, "Internet", "month", 12.00, false)
	_, err := lifecycle.AttachService(context.Background(),
		f.contract.ID, internet.ID, 1, nil, f.contract.StartDate)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecordReading_ShiftsCurrentToPrevious(t *testing.T) {
	f := newFixture(t, ContractActive)
	lifecycle := newLifecycleService(f)

	electricity := f.catalogItem(t, "Electricity", "kWh", 0.25, true)
	service := f.attachMetered(t, electricity, 1000, 1200)

	updated, err := lifecycle.RecordReading(context.Background(), service.ID, 1450)
	require.NoError(t, err)

	assert.Equal(t, 1200, *updated.PreviousReading)
	assert.Equal(t, 1450, *updated.CurrentReading)
}

func TestRecordReading_RejectsFlatService(t *testing.T) {
	f := newFixture(t, ContractActive)
	lifecycle := newLifecycleService(f)

	internet := f.catalogItem(t, "Internet", "month", 12.00, false)
	service := f.attachFlat(t, internet, 1)

	_, err := lifecycle.RecordReading(context.Background(), service.ID, 100)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancelService_EndDatesAtMonthEnd(t *testing.T) {
	f := newFixture(t, ContractActive)
	lifecycle := newLifecycleService(f)

	internet := f.catalogItem(t, "Internet", "month", 12.00, false)
	service := f.attachFlat(t, internet, 1)

	cancelled, err := lifecycle.CancelService(context.Background(), service.ID)
	require.NoError(t, err)
	require.NotNil(t, cancelled.EndDate)
	assert.Equal(t, EndOfMonth(time.Now().UTC()), *cancelled.EndDate)

	_, err = lifecycle.CancelService(context.Background(), service.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestEndOfMonth(t *testing.T) {
	assert.Equal(t,
		time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		EndOfMonth(time.Date(2025, 2, 10, 15, 30, 0, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		EndOfMonth(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		EndOfMonth(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)))
}
