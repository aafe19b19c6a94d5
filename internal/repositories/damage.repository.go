package repositories

import (
	"context"

	"roomledger/internal/logger"
	. "roomledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DamageRepository interface {
	Create(ctx context.Context, tx *gorm.DB, report *DamageReport) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*DamageReport, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*DamageReport, error)
	GetByCheckoutRequest(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) (*DamageReport, error)
	Save(ctx context.Context, tx *gorm.DB, report *DamageReport) error
	AddImage(ctx context.Context, tx *gorm.DB, image *DamageImage) error
}

type damageRepository struct{}

func NewDamageRepository() DamageRepository {
	return &damageRepository{}
}

func (r *damageRepository) Create(ctx context.Context, tx *gorm.DB, report *DamageReport) error {
	log := logger.NewWithContext(ctx, "damageRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(report).Error; err != nil {
		// The unique index on checkout_request_id enforces the 1:1 with the
		// request; a duplicate create surfaces as gorm.ErrDuplicatedKey.
		if err == gorm.ErrDuplicatedKey {
			return err
		}
		return log.Err("failed to create damage report", err, "requestId", report.CheckoutRequestID)
	}

	log.Info("Damage report created", "id", report.ID, "requestId", report.CheckoutRequestID)
	return nil
}

func (r *damageRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*DamageReport, error) {
	log := logger.NewWithContext(ctx, "damageRepository").Function("GetByID")

	var report DamageReport
	if err := tx.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&report, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get damage report", err, "reportId", id)
	}

	return &report, nil
}

// GetByIDForUpdate takes a row lock on the report for the duration of the
// surrounding transaction.
func (r *damageRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*DamageReport, error) {
	log := logger.NewWithContext(ctx, "damageRepository").Function("GetByIDForUpdate")

	query := tx.WithContext(ctx)
	// sqlite has no row locks; the clause would be a syntax error there.
	if tx.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var report DamageReport
	if err := query.First(&report, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to lock damage report", err, "reportId", id)
	}

	return &report, nil
}

func (r *damageRepository) GetByCheckoutRequest(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) (*DamageReport, error) {
	log := logger.NewWithContext(ctx, "damageRepository").Function("GetByCheckoutRequest")

	var report DamageReport
	if err := tx.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&report, "checkout_request_id = ?", requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get damage report by request", err, "requestId", requestID)
	}

	return &report, nil
}

func (r *damageRepository) Save(ctx context.Context, tx *gorm.DB, report *DamageReport) error {
	log := logger.NewWithContext(ctx, "damageRepository").Function("Save")

	if err := tx.WithContext(ctx).
		Omit("Images").
		Save(report).Error; err != nil {
		return log.Err("failed to save damage report", err, "reportId", report.ID)
	}

	return nil
}

func (r *damageRepository) AddImage(ctx context.Context, tx *gorm.DB, image *DamageImage) error {
	log := logger.NewWithContext(ctx, "damageRepository").Function("AddImage")

	if err := tx.WithContext(ctx).Create(image).Error; err != nil {
		return log.Err("failed to add damage image", err, "reportId", image.ReportID)
	}

	return nil
}
