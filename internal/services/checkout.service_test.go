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

func newCheckoutService(f *fixture) *CheckoutService {
	lifecycle := NewContractLifecycleService(f.repos, f.tx)
	billing := newBillingService(f)
	service := NewCheckoutService(f.db, f.repos, f.tx, lifecycle, billing)
	service.now = func() time.Time {
		return time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	}
	return service
}

func TestSubmitRequest_RequiresActiveContract(t *testing.T) {
	f := newFixture(t, ContractPending)
	checkout := newCheckoutService(f)

	_, err := checkout.SubmitRequest(context.Background(), f.contract.ID, "moving out")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApproveRequest_OpensDraftDamageReport(t *testing.T) {
	f := newFixture(t, ContractActive)
	checkout := newCheckoutService(f)
	ctx := context.Background()

	request, err := checkout.SubmitRequest(ctx, f.contract.ID, "moving out")
	require.NoError(t, err)
	assert.Equal(t, CheckoutPending, request.Status)

	approved, report, err := checkout.ApproveRequest(ctx, request.ID, "inspector.kim")
	require.NoError(t, err)
	assert.Equal(t, CheckoutApproved, approved.Status)
	require.NotNil(t, report)
	assert.Equal(t, DamageDraft, report.Status)
	assert.Equal(t, f.contract.ID, report.ContractID)
	assert.Equal(t, "inspector.kim", report.InspectedBy)

	// Approval is terminal.
	_, _, err = checkout.ApproveRequest(ctx, request.ID, "inspector.kim")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = checkout.RejectRequest(ctx, request.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDamageReportWorkflow_SettlementAndFinalize(t *testing.T) {
	f := newFixture(t, ContractActive)
	checkout := newCheckoutService(f)
	ctx := context.Background()

	request, err := checkout.SubmitRequest(ctx, f.contract.ID, "lease over")
	require.NoError(t, err)
	_, report, err := checkout.ApproveRequest(ctx, request.ID, "inspector.kim")
	require.NoError(t, err)

	// Settlement before approval must fail.
	_, err = checkout.CreateSettlementInvoice(ctx, report.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	description := "Scratched floor, broken lamp"
	report, err = checkout.UpdateDraft(ctx, report.ID, DamageReportUpdate{
		Description: &description,
		Items: []DamageItem{
			{Item: "Floor", Description: "deep scratches", Cost: decimal.NewFromInt(120)},
			{Item: "Lamp", Cost: decimal.NewFromInt(30)},
		},
	})
	require.NoError(t, err)
	assert.True(t, report.TotalCost.Equal(decimal.NewFromInt(150)))

	_, err = checkout.AddImage(ctx, report.ID, "/uploads/floor-1.jpg", "Floor", "scratch closeup")
	require.NoError(t, err)

	report, err = checkout.SubmitReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, DamageSubmitted, report.Status)

	// Submitted reports are frozen.
	_, err = checkout.UpdateDraft(ctx, report.ID, DamageReportUpdate{Description: &description})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	report, err = checkout.ApproveReport(ctx, report.ID, "manager.lee", "confirmed on site")
	require.NoError(t, err)
	assert.Equal(t, DamageApproved, report.Status)
	require.NotNil(t, report.ApprovedBy)
	assert.Equal(t, "manager.lee", *report.ApprovedBy)

	invoice, err := checkout.CreateSettlementInvoice(ctx, report.ID)
	require.NoError(t, err)
	assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(150)))
	assert.False(t, invoice.Periodic())

	reloaded, err := f.repos.Damage.GetByID(ctx, f.db.SQL, report.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.SettlementInvoiceID)
	assert.Equal(t, invoice.ID, *reloaded.SettlementInvoiceID)

	// A report settles exactly once.
	_, err = checkout.CreateSettlementInvoice(ctx, report.ID)
	assert.ErrorIs(t, err, ErrConflict)

	contract, err := checkout.FinalizeCheckout(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, ContractEnded, contract.Status)
	assert.Equal(t, RoomAvailable, f.reloadRoom(t).Status)
}

func TestCreateSettlementInvoice_ZeroCostStillInvoices(t *testing.T) {
	f := newFixture(t, ContractActive)
	checkout := newCheckoutService(f)
	ctx := context.Background()

	request, err := checkout.SubmitRequest(ctx, f.contract.ID, "no damage")
	require.NoError(t, err)
	_, report, err := checkout.ApproveRequest(ctx, request.ID, "inspector.kim")
	require.NoError(t, err)

	report, err = checkout.SubmitReport(ctx, report.ID)
	require.NoError(t, err)
	report, err = checkout.ApproveReport(ctx, report.ID, "manager.lee", "clean handover")
	require.NoError(t, err)

	invoice, err := checkout.CreateSettlementInvoice(ctx, report.ID)
	require.NoError(t, err)
	assert.True(t, invoice.Amount.IsZero())
}

func TestCreateSettlementInvoice_FailureLeavesNoInvoice(t *testing.T) {
	f := newFixture(t, ContractActive)
	checkout := newCheckoutService(f)
	ctx := context.Background()

	request, err := checkout.SubmitRequest(ctx, f.contract.ID, "moving out")
	require.NoError(t, err)
	_, report, err := checkout.ApproveRequest(ctx, request.ID, "inspector.kim")
	require.NoError(t, err)
	_, err = checkout.SubmitReport(ctx, report.ID)
	require.NoError(t, err)
	_, err = checkout.ApproveReport(ctx, report.ID, "manager.lee", "confirmed")
	require.NoError(t, err)

	// Pull the contract out from under the settlement. Invoice creation and
	// the report back-link run as one unit, so the failure must leave neither.
	require.NoError(t, f.db.SQL.Delete(&Contract{}, "id = ?", f.contract.ID).Error)

	_, err = checkout.CreateSettlementInvoice(ctx, report.ID)
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.SQL.Model(&Invoice{}).Count(&count).Error)
	assert.Zero(t, count)

	reloaded, err := f.repos.Damage.GetByID(ctx, f.db.SQL, report.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.SettlementInvoiceID)
}

func TestRejectReport_AllowsNoSettlement(t *testing.T) {
	f := newFixture(t, ContractActive)
	checkout := newCheckoutService(f)
	ctx := context.Background()

	request, err := checkout.SubmitRequest(ctx, f.contract.ID, "dispute")
	require.NoError(t, err)
	_, report, err := checkout.ApproveRequest(ctx, request.ID, "inspector.kim")
	require.NoError(t, err)

	_, err = checkout.SubmitReport(ctx, report.ID)
	require.NoError(t, err)
	rejected, err := checkout.RejectReport(ctx, report.ID, "manager.lee", "costs not substantiated")
	require.NoError(t, err)
	assert.Equal(t, DamageRejected, rejected.Status)

	_, err = checkout.CreateSettlementInvoice(ctx, report.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFinalizeCheckout_RequiresApprovedRequest(t *testing.T) {
	f := newFixture(t, ContractActive)
	checkout := newCheckoutService(f)
	ctx := context.Background()

	request, err := checkout.SubmitRequest(ctx, f.contract.ID, "changed mind")
	require.NoError(t, err)

	_, err = checkout.FinalizeCheckout(ctx, request.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = checkout.RejectRequest(ctx, request.ID)
	require.NoError(t, err)

	_, err = checkout.FinalizeCheckout(ctx, request.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ContractActive, f.reloadContract(t).Status)
}

func TestUpdateDraft_RejectsNegativeItemCost(t *testing.T) {
	f := newFixture(t, ContractActive)
	checkout := newCheckoutService(f)
	ctx := context.Background()

	request, err := checkout.SubmitRequest(ctx, f.contract.ID, "moving")
	require.NoError(t, err)
	_, report, err := checkout.ApproveRequest(ctx, request.ID, "inspector.kim")
	require.NoError(t, err)

	_, err = checkout.UpdateDraft(ctx, report.ID, DamageReportUpdate{
		Items: []DamageItem{{Item: "Door", Cost: decimal.NewFromInt(-5)}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}
