package repositories

import (
	"context"

	"roomledger/internal/logger"
	. "roomledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckoutRepository interface {
	Create(ctx context.Context, tx *gorm.DB, request *CheckoutRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*CheckoutRequest, error)
	Save(ctx context.Context, tx *gorm.DB, request *CheckoutRequest) error
}

type checkoutRepository struct{}

func NewCheckoutRepository() CheckoutRepository {
	return &checkoutRepository{}
}

func (r *checkoutRepository) Create(ctx context.Context, tx *gorm.DB, request *CheckoutRequest) error {
	log := logger.NewWithContext(ctx, "checkoutRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(request).Error; err != nil {
		return log.Err("failed to create checkout request", err, "contractId", request.ContractID)
	}

	log.Info("Checkout request created", "id", request.ID, "contractId", request.ContractID)
	return nil
}

func (r *checkoutRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*CheckoutRequest, error) {
	log := logger.NewWithContext(ctx, "checkoutRepository").Function("GetByID")

	var request CheckoutRequest
	if err := tx.WithContext(ctx).
		Preload("Contract").
		First(&request, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get checkout request", err, "requestId", id)
	}

	return &request, nil
}

func (r *checkoutRepository) Save(ctx context.Context, tx *gorm.DB, request *CheckoutRequest) error {
	log := logger.NewWithContext(ctx, "checkoutRepository").Function("Save")

	if err := tx.WithContext(ctx).
		Omit("Contract").
		Save(request).Error; err != nil {
		return log.Err("failed to save checkout request", err, "requestId", request.ID)
	}

	return nil
}
