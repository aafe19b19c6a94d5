package services

import (
	"context"
	"fmt"
	"time"

	"roomledger/internal/database"
	"roomledger/internal/logger"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultDueDays = 7

// errDuplicatePeriod marks the benign "invoice already exists for this
// period" outcome so the batch can count it as skipped rather than failed.
var errDuplicatePeriod = fmt.Errorf("invoice already exists for billing period")

type BillingFailure struct {
	ContractID uuid.UUID `json:"contractId"`
	Reason     string    `json:"reason"`
}

// BillingRunResult is the itemized outcome of one batch generation run.
type BillingRunResult struct {
	Year     int              `json:"year"`
	Month    int              `json:"month"`
	Eligible int              `json:"eligible"`
	Created  int              `json:"created"`
	Skipped  int              `json:"skipped"`
	Failures []BillingFailure `json:"failures,omitempty"`
}

// ContractPreview is one contract's row in a dry-run: either the computed
// lines and total, or the reason it would fail.
type ContractPreview struct {
	ContractID uuid.UUID       `json:"contractId"`
	RoomNumber string          `json:"roomNumber"`
	Lines      []InvoiceDetail `json:"lines,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Error      string          `json:"error,omitempty"`
}

type OverdueSweepResult struct {
	Examined int `json:"examined"`
	Marked   int `json:"marked"`
}

// BillingService generates monthly invoices from active contracts and their
// service ledger, idempotently per billing period, plus one-off invoices
// that bypass the period uniqueness entirely.
type BillingService struct {
	db           database.DB
	repos        repositories.Repository
	transaction  *TransactionService
	notification *NotificationService
	now          func() time.Time
	log          logger.Logger
}

func NewBillingService(
	db database.DB,
	repos repositories.Repository,
	transaction *TransactionService,
	notification *NotificationService,
) *BillingService {
	return &BillingService{
		db:           db,
		repos:        repos,
		transaction:  transaction,
		notification: notification,
		now:          time.Now,
		log:          logger.New("billingService"),
	}
}

// GenerateMonthly creates the billing-period invoice for every ACTIVE
// contract. Per-contract failures are recorded and never abort the run;
// contracts already billed for the period are counted as skipped.
func (s *BillingService) GenerateMonthly(ctx context.Context, year, month int, dueDate *time.Time) (BillingRunResult, error) {
	log := s.log.Function("GenerateMonthly")

	result := BillingRunResult{Year: year, Month: month}

	if err := validatePeriod(year, month); err != nil {
		return result, log.Err("invalid billing period", err, "year", year, "month", month)
	}

	contracts, err := s.repos.Contract.GetActive(ctx, s.db.SQLWithContext(ctx))
	if err != nil {
		return result, err
	}

	result.Eligible = len(contracts)

	for _, contract := range contracts {
		err := s.generateOne(ctx, contract, year, month, dueDate)
		switch {
		case err == nil:
			result.Created++
		case err == errDuplicatePeriod:
			result.Skipped++
		default:
			result.Failures = append(result.Failures, BillingFailure{
				ContractID: contract.ID,
				Reason:     err.Error(),
			})
			log.Er("invoice generation failed for contract", err, "contractId", contract.ID)
		}
	}

	log.Info("Monthly billing run complete",
		"year", year, "month", month,
		"eligible", result.Eligible,
		"created", result.Created,
		"skipped", result.Skipped,
		"failed", len(result.Failures),
	)

	return result, nil
}

// GenerateForContract is the on-demand single-contract variant, same rules
// as the batch run.
func (s *BillingService) GenerateForContract(ctx context.Context, contractID uuid.UUID, year, month int, dueDate *time.Time) (*Invoice, error) {
	log := s.log.Function("GenerateForContract")

	if err := validatePeriod(year, month); err != nil {
		return nil, log.Err("invalid billing period", err, "year", year, "month", month)
	}

	contract, err := s.repos.Contract.GetByID(ctx, s.db.SQLWithContext(ctx), contractID)
	if err != nil {
		return nil, err
	}

	if contract.Status != ContractActive {
		return nil, log.ErrorWithType(ErrInvalidTransition,
			"contract is not active",
			"contractId", contractID, "status", contract.Status)
	}

	var invoice *Invoice
	err = s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		invoice, err = s.createPeriodInvoice(ctx, tx, contract, year, month, dueDate)
		return err
	})
	if err == errDuplicatePeriod {
		return nil, log.ErrorWithType(ErrConflict,
			"invoice already exists for period",
			"contractId", contractID, "year", year, "month", month)
	}
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func (s *BillingService) generateOne(ctx context.Context, contract *Contract, year, month int, dueDate *time.Time) error {
	return s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		_, err := s.createPeriodInvoice(ctx, tx, contract, year, month, dueDate)
		return err
	})
}

func (s *BillingService) createPeriodInvoice(
	ctx context.Context,
	tx *gorm.DB,
	contract *Contract,
	year, month int,
	dueDate *time.Time,
) (*Invoice, error) {
	// Fast-path idempotency check; the unique index remains the
	// authoritative guard under concurrent runs.
	exists, err := s.repos.Invoice.ExistsForPeriod(ctx, tx, contract.ID, year, month)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errDuplicatePeriod
	}

	lines, total, err := s.computeCharges(ctx, tx, contract, year, month)
	if err != nil {
		return nil, err
	}

	due := s.now().UTC().AddDate(0, 0, DefaultDueDays)
	if dueDate != nil {
		due = *dueDate
	}

	invoice := &Invoice{
		ContractID:   contract.ID,
		Amount:       total,
		DueDate:      due,
		BillingYear:  &year,
		BillingMonth: &month,
		Status:       InvoiceUnpaid,
		Details:      lines,
	}

	if err := s.repos.Invoice.Create(ctx, tx, invoice); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, errDuplicatePeriod
		}
		return nil, err
	}

	return invoice, nil
}

// computeCharges builds the detail lines for one contract and period: the
// base rent from the room's current price, then one line per service active
// in the window.
func (s *BillingService) computeCharges(
	ctx context.Context,
	tx *gorm.DB,
	contract *Contract,
	year, month int,
) ([]InvoiceDetail, decimal.Decimal, error) {
	if contract.Room == nil {
		return nil, decimal.Zero, fmt.Errorf("contract %s has no room loaded", contract.ID)
	}

	periodStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := EndOfMonth(periodStart)

	lines := []InvoiceDetail{
		NewInvoiceDetail(
			fmt.Sprintf("Room %s rent %04d-%02d", contract.RoomNumber, year, month),
			contract.Room.Price,
			decimal.NewFromInt(1),
			0,
		),
	}

	services, err := s.repos.ContractService.GetActiveForPeriod(ctx, tx, contract.ID, periodStart, periodEnd)
	if err != nil {
		return nil, decimal.Zero, err
	}

	for i, service := range services {
		line, err := serviceCharge(service, i+1)
		if err != nil {
			return nil, decimal.Zero, err
		}
		lines = append(lines, line)
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}

	return lines, total, nil
}

func serviceCharge(service *ContractService, position int) (InvoiceDetail, error) {
	if service.CatalogItem == nil {
		return InvoiceDetail{}, fmt.Errorf("service %s has no catalog item loaded", service.ID)
	}

	item := service.CatalogItem

	if !item.Metered {
		return NewInvoiceDetail(
			fmt.Sprintf("%s x%d", item.Name, service.Quantity),
			item.UnitPrice,
			decimal.NewFromInt(int64(service.Quantity)),
			position,
		), nil
	}

	if service.PreviousReading == nil || service.CurrentReading == nil {
		return InvoiceDetail{}, fmt.Errorf("missing meter reading for %s on service %s", item.Name, service.ID)
	}

	delta := *service.CurrentReading - *service.PreviousReading
	if delta < 0 {
		// A reset or rolled-back meter must never bill zero or negative
		// usage silently; the contract is flagged instead.
		return InvoiceDetail{}, fmt.Errorf(
			"meter reading for %s went backwards on service %s: previous=%d current=%d",
			item.Name, service.ID, *service.PreviousReading, *service.CurrentReading,
		)
	}

	return NewInvoiceDetail(
		fmt.Sprintf("%s %d %s", item.Name, delta, item.Unit),
		item.UnitPrice,
		decimal.NewFromInt(int64(delta)),
		position,
	), nil
}

// Preview computes the same amounts as GenerateMonthly without persisting
// anything, for staff review before committing a batch run.
func (s *BillingService) Preview(ctx context.Context, year, month int) ([]ContractPreview, error) {
	log := s.log.Function("Preview")

	if err := validatePeriod(year, month); err != nil {
		return nil, log.Err("invalid billing period", err, "year", year, "month", month)
	}

	tx := s.db.SQLWithContext(ctx)

	contracts, err := s.repos.Contract.GetActive(ctx, tx)
	if err != nil {
		return nil, err
	}

	previews := make([]ContractPreview, 0, len(contracts))
	for _, contract := range contracts {
		preview := ContractPreview{
			ContractID: contract.ID,
			RoomNumber: contract.RoomNumber,
		}

		lines, total, err := s.computeCharges(ctx, tx, contract, year, month)
		if err != nil {
			preview.Error = err.Error()
		} else {
			preview.Lines = lines
			preview.Total = total
		}

		previews = append(previews, preview)
	}

	return previews, nil
}

// CreateOneOff creates an invoice outside any billing period, e.g. a
// maintenance-fault or damage settlement. The contract row is locked for the
// read-modify-write so concurrent settlements serialize.
func (s *BillingService) CreateOneOff(
	ctx context.Context,
	contractID uuid.UUID,
	amount decimal.Decimal,
	dueDate time.Time,
	note string,
) (*Invoice, error) {
	log := s.log.Function("CreateOneOff")

	if amount.IsNegative() {
		return nil, log.ErrorWithType(ErrValidation, "one-off amount cannot be negative", "amount", amount)
	}

	var invoice *Invoice
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		invoice, err = s.createOneOff(ctx, tx, contractID, amount, dueDate, note)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("One-off invoice created", "invoiceId", invoice.ID, "contractId", contractID, "amount", amount)
	return invoice, nil
}

// createOneOff builds the invoice inside the caller's transaction so callers
// can link it to their own rows atomically. The contract row is locked for
// the read-modify-write.
func (s *BillingService) createOneOff(
	ctx context.Context,
	tx *gorm.DB,
	contractID uuid.UUID,
	amount decimal.Decimal,
	dueDate time.Time,
	note string,
) (*Invoice, error) {
	contract, err := s.repos.Contract.GetByIDForUpdate(ctx, tx, contractID)
	if err != nil {
		return nil, err
	}

	invoice := &Invoice{
		ContractID: contract.ID,
		Amount:     amount,
		DueDate:    dueDate,
		Status:     InvoiceUnpaid,
		Details: []InvoiceDetail{
			NewInvoiceDetail(note, amount, decimal.NewFromInt(1), 0),
		},
	}

	if err := s.repos.Invoice.Create(ctx, tx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// MarkPaid settles an UNPAID invoice, capturing when and how it was paid.
func (s *BillingService) MarkPaid(ctx context.Context, invoiceID uuid.UUID, direct bool, reference string) (*Invoice, error) {
	log := s.log.Function("MarkPaid")

	var invoice *Invoice
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		invoice, err = s.repos.Invoice.GetByID(ctx, tx, invoiceID)
		if err != nil {
			return err
		}

		if invoice.Status != InvoiceUnpaid {
			return log.ErrorWithType(ErrInvalidTransition,
				"invoice is not unpaid",
				"invoiceId", invoiceID, "status", invoice.Status)
		}

		now := s.now().UTC()
		invoice.Status = InvoicePaid
		invoice.PaidAt = &now
		invoice.DirectPayment = direct
		if reference != "" {
			invoice.PaymentReference = &reference
		}

		return s.repos.Invoice.Save(ctx, tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Invoice paid", "invoiceId", invoiceID, "direct", direct)
	return invoice, nil
}

// SweepOverdue marks UNPAID invoices past their due date as OVERDUE and
// fires a reminder for each. The guarded update makes re-runs no-ops, and a
// lost reminder never fails the sweep.
func (s *BillingService) SweepOverdue(ctx context.Context) (OverdueSweepResult, error) {
	log := s.log.Function("SweepOverdue")

	result := OverdueSweepResult{}

	candidates, err := s.repos.Invoice.GetOverdueCandidates(ctx, s.db.SQLWithContext(ctx), s.now().UTC())
	if err != nil {
		return result, err
	}

	result.Examined = len(candidates)

	for _, invoice := range candidates {
		err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
			return s.repos.Invoice.MarkOverdue(ctx, tx, invoice.ID)
		})
		if err != nil {
			log.Er("failed to mark invoice overdue", err, "invoiceId", invoice.ID)
			continue
		}

		result.Marked++
		s.notification.SendInvoiceOverdue(ctx, invoice)
	}

	log.Info("Overdue sweep complete", "examined", result.Examined, "marked", result.Marked)
	return result, nil
}

func validatePeriod(year, month int) error {
	if year < 2000 || year > 2200 {
		return fmt.Errorf("year %d out of range", year)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range", month)
	}
	return nil
}
