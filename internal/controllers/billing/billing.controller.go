package billingController

import (
	"context"
	"time"

	"roomledger/internal/database"
	"roomledger/internal/logger"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"
	"roomledger/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillingController struct {
	invoiceRepo repositories.InvoiceRepository
	billing     *services.BillingService
	audit       *services.AuditService
	db          database.DB
	log         logger.Logger
}

type BillingControllerInterface interface {
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error)
	GenerateMonthly(ctx context.Context, actor services.ActorMeta, year, month int, dueDate *time.Time) (services.BillingRunResult, error)
	GenerateForContract(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID, year, month int, dueDate *time.Time) (*Invoice, error)
	Preview(ctx context.Context, year, month int) ([]services.ContractPreview, error)
	CreateOneOff(ctx context.Context, actor services.ActorMeta, input OneOffInvoiceRequest) (*Invoice, error)
	MarkPaid(ctx context.Context, actor services.ActorMeta, invoiceID uuid.UUID, direct bool, reference string) (*Invoice, error)
	SweepOverdue(ctx context.Context) (services.OverdueSweepResult, error)
}

type OneOffInvoiceRequest struct {
	ContractID uuid.UUID       `json:"contractId"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"dueDate"`
	Note       string          `json:"note"`
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) BillingControllerInterface {
	return &BillingController{
		invoiceRepo: repos.Invoice,
		billing:     services.Billing,
		audit:       services.Audit,
		db:          db,
		log:         logger.New("billingController"),
	}
}

func (c *BillingController) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error) {
	return c.invoiceRepo.GetByID(ctx, c.db.SQLWithContext(ctx), invoiceID)
}

// GenerateMonthly runs the batch. Per-contract failures land inside the run
// result, so the audit entry records the whole run's outcome under a nil
// target.
func (c *BillingController) GenerateMonthly(
	ctx context.Context,
	actor services.ActorMeta,
	year, month int,
	dueDate *time.Time,
) (services.BillingRunResult, error) {
	var result services.BillingRunResult
	err := c.audit.Record(ctx,
		actor.Op(ActionInvoiceGenerate, TargetInvoice, uuid.Nil, "monthly invoice generation"),
		func(ctx context.Context) (any, error) {
			var err error
			result, err = c.billing.GenerateMonthly(ctx, year, month, dueDate)
			return nil, err
		})
	return result, err
}

func (c *BillingController) GenerateForContract(
	ctx context.Context,
	actor services.ActorMeta,
	contractID uuid.UUID,
	year, month int,
	dueDate *time.Time,
) (*Invoice, error) {
	var invoice *Invoice
	err := c.audit.Record(ctx,
		actor.Op(ActionInvoiceGenerate, TargetInvoice, uuid.Nil, "generate invoice for contract"),
		func(ctx context.Context) (any, error) {
			var err error
			invoice, err = c.billing.GenerateForContract(ctx, contractID, year, month, dueDate)
			return invoice, err
		})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func (c *BillingController) Preview(ctx context.Context, year, month int) ([]services.ContractPreview, error) {
	return c.billing.Preview(ctx, year, month)
}

func (c *BillingController) CreateOneOff(
	ctx context.Context,
	actor services.ActorMeta,
	input OneOffInvoiceRequest,
) (*Invoice, error) {
	log := c.log.Function("CreateOneOff")

	if input.ContractID == uuid.Nil {
		return nil, log.ErrMsg("contractId is required")
	}
	if input.Note == "" {
		return nil, log.ErrMsg("a description of the charge is required")
	}
	if input.DueDate.IsZero() {
		input.DueDate = time.Now().UTC().AddDate(0, 0, services.DefaultDueDays)
	}

	var invoice *Invoice
	err := c.audit.Record(ctx,
		actor.Op(ActionInvoiceCreateOneOff, TargetInvoice, uuid.Nil, "create one-off invoice"),
		func(ctx context.Context) (any, error) {
			var err error
			invoice, err = c.billing.CreateOneOff(ctx, input.ContractID, input.Amount, input.DueDate, input.Note)
			return invoice, err
		})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func (c *BillingController) MarkPaid(
	ctx context.Context,
	actor services.ActorMeta,
	invoiceID uuid.UUID,
	direct bool,
	reference string,
) (*Invoice, error) {
	var invoice *Invoice
	err := c.audit.Record(ctx,
		actor.Op(ActionInvoiceMarkPaid, TargetInvoice, invoiceID, "mark invoice paid"),
		func(ctx context.Context) (any, error) {
			var err error
			invoice, err = c.billing.MarkPaid(ctx, invoiceID, direct, reference)
			return invoice, err
		})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func (c *BillingController) SweepOverdue(ctx context.Context) (services.OverdueSweepResult, error) {
	return c.billing.SweepOverdue(ctx)
}
