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

func newBillingService(f *fixture) *BillingService {
	service := NewBillingService(f.db, f.repos, f.tx, NewNotificationService(testConfig(), nil))
	service.now = func() time.Time {
		return time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)
	}
	return service
}

func TestGenerateMonthly_ChargesRentFlatAndMeteredLines(t *testing.T) {
	f := newFixture(t, ContractActive)
	billing := newBillingService(f)

	internet := f.catalogItem(t, "Internet", "month", 12.00, false)
	electricity := f.catalogItem(t, "Electricity", "kWh", 0.25, true)
	f.attachFlat(t, internet, 2)
	f.attachMetered(t, electricity, 1000, 1200)

	result, err := billing.GenerateMonthly(context.Background(), 2025, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Eligible)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Failures)

	var invoice Invoice
	require.NoError(t, f.db.SQL.Preload("Details").First(&invoice, "contract_id = ?", f.contract.ID).Error)

	require.Len(t, invoice.Details, 3)
	// Rent 500 + internet 2x12 + electricity 200x0.25 = 574
	assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(574)),
		"expected 574, got %s", invoice.Amount)
	assert.Equal(t, InvoiceUnpaid, invoice.Status)
	require.NotNil(t, invoice.BillingYear)
	assert.Equal(t, 2025, *invoice.BillingYear)
	assert.Equal(t, 2, *invoice.BillingMonth)

	// Rent is always the first line.
	assert.Equal(t, 0, invoice.Details[0].Position)
	assert.True(t, invoice.Details[0].Amount.Equal(decimal.NewFromInt(500)))
}

func TestGenerateMonthly_SecondRunSkipsBilledContracts(t *testing.T) {
	f := newFixture(t, ContractActive)
	billing := newBillingService(f)

	first, err := billing.GenerateMonthly(context.Background(), 2025, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := billing.GenerateMonthly(context.Background(), 2025, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)
	assert.Empty(t, second.Failures)

	var count int64
	require.NoError(t, f.db.SQL.Model(&Invoice{}).Where("contract_id = ?", f.contract.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGenerateMonthly_BackwardsMeterFailsOnlyThatContract(t *testing.T) {
	f := newFixture(t, ContractActive)
	billing := newBillingService(f)

	electricity := f.catalogItem(t, "Electricity", "kWh", 0.25, true)
	f.attachMetered(t, electricity, 1200, 1000)

	// A second, healthy contract in the same run.
	room2 := &Room{BranchID: f.branch.ID, Number: "102", Price: decimal.NewFromInt(450), Status: RoomOccupied}
	require.NoError(t, f.db.SQL.Create(room2).Error)
	contract2 := &Contract{
		TenantID:      f.tenant.ID,
		RoomID:        room2.ID,
		BranchName:    f.branch.Name,
		RoomNumber:    room2.Number,
		StartDate:     f.contract.StartDate,
		EndDate:       f.contract.EndDate,
		DepositAmount: room2.Price,
		Status:        ContractActive,
	}
	require.NoError(t, f.db.SQL.Create(contract2).Error)

	result, err := billing.GenerateMonthly(context.Background(), 2025, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Eligible)
	assert.Equal(t, 1, result.Created)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, f.contract.ID, result.Failures[0].ContractID)
	assert.Contains(t, result.Failures[0].Reason, "went backwards")

	// The failed contract got no invoice, not a partial one.
	var count int64
	require.NoError(t, f.db.SQL.Model(&Invoice{}).Where("contract_id = ?", f.contract.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestGenerateMonthly_MissingReadingFailsContract(t *testing.T) {
	f := newFixture(t, ContractActive)
	billing := newBillingService(f)

	water := f.catalogItem(t, "Water", "m3", 1.80, true)
	service := &ContractService{
		ContractID:    f.contract.ID,
		CatalogItemID: water.ID,
		Quantity:      1,
		StartDate:     f.contract.StartDate,
	}
	require.NoError(t, f.db.SQL.Create(service).Error)

	result, err := billing.GenerateMonthly(context.Background(), 2025, 2, nil)
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Reason, "missing meter reading")
}

func TestGenerateMonthly_EndedServiceNotBilled(t *testing.T) {
	f := newFixture(t, ContractActive)
	billing := newBillingService(f)

	internet := f.catalogItem(t, "Internet", "month", 12.00, false)
	service := f.attachFlat(t, internet, 1)

	ended := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.SQL.Model(service).Update("end_date", ended).Error)

	_, err := billing.GenerateMonthly(context.Background(), 2025, 2, nil)
	require.NoError(t, err)

	var invoice Invoice
	require.NoError(t, f.db.SQL.Preload("Details").First(&invoice, "contract_id = ?", f.contract.ID).Error)
	require.Len(t, invoice.Details, 1)
	assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(500)))
}

func TestPreview_PersistsNothing(t *testing.T) {
	f := newFixture(t, ContractActive)
	billing := newBillingService(f)

	previews, err := billing.Preview(context.Background(), 2025, 2)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.True(t, previews[0].Total.Equal(decimal.NewFromInt(500)))

	var count int64
	require.NoError(t, f.db.SQL.Model(&Invoice{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreateOneOff_BypassesPeriodUniqueness(t *testing.T) {
	f := newFixture(t, ContractActive)
	billing := newBillingService(f)

	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	first, err := billing.CreateOneOff(context.Background(), f.contract.ID, decimal.NewFromInt(80), due, "Broken window")
	require.NoError(t, err)
	assert.False(t, first.Periodic())

	second, err := billing.CreateOneOff(context.Background(), f.contract.ID, decimal.NewFromInt(40), due, "Lost key")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestMarkPaid_OnlyFromUnpaid(t *testing.T) {
	f := newFixture(t, ContractActive)
	billing := newBillingService(f)

	invoice, err := billing.CreateOneOff(context.Background(), f.contract.ID,
		decimal.NewFromInt(50), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "Fee")
	require.NoError(t, err)

	paid, err := billing.MarkPaid(context.Background(), invoice.ID, true, "RCPT-1")
	require.NoError(t, err)
	assert.Equal(t, InvoicePaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.DirectPayment)

	_, err = billing.MarkPaid(context.Background(), invoice.ID, true, "RCPT-2")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSweepOverdue_MarksPastDueAndIsIdempotent(t *testing.T) {
	f := newFixture(t, ContractActive)
	billing := newBillingService(f)

	pastDue, err := billing.CreateOneOff(context.Background(), f.contract.ID,
		decimal.NewFromInt(100), time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), "Old charge")
	require.NoError(t, err)

	futureDue, err := billing.CreateOneOff(context.Background(), f.contract.ID,
		decimal.NewFromInt(100), time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), "New charge")
	require.NoError(t, err)

	result, err := billing.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)

	reloaded, err := f.repos.Invoice.GetByID(context.Background(), f.db.SQL, pastDue.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceOverdue, reloaded.Status)

	untouched, err := f.repos.Invoice.GetByID(context.Background(), f.db.SQL, futureDue.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceUnpaid, untouched.Status)

	again, err := billing.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Marked)
}

func TestGenerateForContract_RejectsInactiveContract(t *testing.T) {
	f := newFixture(t, ContractPending)
	billing := newBillingService(f)

	_, err := billing.GenerateForContract(context.Background(), f.contract.ID, 2025, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
