package repositories

import (
	"context"
	"time"

	"roomledger/internal/logger"
	. "roomledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, tx *gorm.DB, invoice *Invoice) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Invoice, error)
	ExistsForPeriod(ctx context.Context, tx *gorm.DB, contractID uuid.UUID, year, month int) (bool, error)
	Save(ctx context.Context, tx *gorm.DB, invoice *Invoice) error
	GetOverdueCandidates(ctx context.Context, tx *gorm.DB, asOf time.Time) ([]*Invoice, error)
	MarkOverdue(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type invoiceRepository struct{}

func NewInvoiceRepository() InvoiceRepository {
	return &invoiceRepository{}
}

func (r *invoiceRepository) Create(ctx context.Context, tx *gorm.DB, invoice *Invoice) error {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(invoice).Error; err != nil {
		// Duplicate periodic invoices surface here as gorm.ErrDuplicatedKey;
		// the billing engine treats that as a benign skip, so no error log.
		if err == gorm.ErrDuplicatedKey {
			return err
		}
		return log.Err("failed to create invoice", err, "contractId", invoice.ContractID)
	}

	log.Info("Invoice created", "id", invoice.ID, "contractId", invoice.ContractID, "amount", invoice.Amount)
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Invoice, error) {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("GetByID")

	var invoice Invoice
	if err := tx.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&invoice, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get invoice", err, "invoiceId", id)
	}

	return &invoice, nil
}

// ExistsForPeriod is the fast-path idempotency check; the unique index on
// (contract_id, billing_year, billing_month) is the authoritative guard.
func (r *invoiceRepository) ExistsForPeriod(
	ctx context.Context,
	tx *gorm.DB,
	contractID uuid.UUID,
	year, month int,
) (bool, error) {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("ExistsForPeriod")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&Invoice{}).
		Where("contract_id = ? AND billing_year = ? AND billing_month = ?", contractID, year, month).
		Count(&count).Error; err != nil {
		return false, log.Err("failed to check invoice period", err, "contractId", contractID)
	}

	return count > 0, nil
}

func (r *invoiceRepository) Save(ctx context.Context, tx *gorm.DB, invoice *Invoice) error {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("Save")

	if err := tx.WithContext(ctx).
		Omit("Details", "Contract").
		Save(invoice).Error; err != nil {
		return log.Err("failed to save invoice", err, "invoiceId", invoice.ID)
	}

	return nil
}

func (r *invoiceRepository) GetOverdueCandidates(ctx context.Context, tx *gorm.DB, asOf time.Time) ([]*Invoice, error) {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("GetOverdueCandidates")

	var invoices []*Invoice
	if err := tx.WithContext(ctx).
		Preload("Contract").
		Preload("Contract.Tenant").
		Where("status = ?", InvoiceUnpaid).
		Where("due_date < ?", asOf).
		Find(&invoices).Error; err != nil {
		return nil, log.Err("failed to get overdue candidates", err)
	}

	return invoices, nil
}

func (r *invoiceRepository) MarkOverdue(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("MarkOverdue")

	// Guarded update keeps the sweep idempotent: an invoice already OVERDUE
	// or paid in the meantime is left alone.
	result := tx.WithContext(ctx).
		Model(&Invoice{}).
		Where("id = ? AND status = ?", id, InvoiceUnpaid).
		Update("status", InvoiceOverdue)
	if result.Error != nil {
		return log.Err("failed to mark invoice overdue", result.Error, "invoiceId", id)
	}

	return nil
}
