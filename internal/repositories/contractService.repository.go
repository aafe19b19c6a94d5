package repositories

import (
	"context"
	"time"

	"roomledger/internal/logger"
	. "roomledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContractServiceRepository interface {
	Create(ctx context.Context, tx *gorm.DB, service *ContractService) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ContractService, error)
	GetCatalogItem(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ServiceCatalogItem, error)
	GetActiveForPeriod(ctx context.Context, tx *gorm.DB, contractID uuid.UUID, periodStart, periodEnd time.Time) ([]*ContractService, error)
	Save(ctx context.Context, tx *gorm.DB, service *ContractService) error
}

type contractServiceRepository struct{}

func NewContractServiceRepository() ContractServiceRepository {
	return &contractServiceRepository{}
}

func (r *contractServiceRepository) Create(ctx context.Context, tx *gorm.DB, service *ContractService) error {
	log := logger.NewWithContext(ctx, "contractServiceRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(service).Error; err != nil {
		return log.Err("failed to create contract service", err, "contractId", service.ContractID)
	}

	log.Info("Contract service created", "id", service.ID, "contractId", service.ContractID)
	return nil
}

func (r *contractServiceRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ContractService, error) {
	log := logger.NewWithContext(ctx, "contractServiceRepository").Function("GetByID")

	var service ContractService
	if err := tx.WithContext(ctx).
		Preload("CatalogItem").
		First(&service, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get contract service", err, "serviceId", id)
	}

	return &service, nil
}

func (r *contractServiceRepository) GetCatalogItem(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ServiceCatalogItem, error) {
	log := logger.NewWithContext(ctx, "contractServiceRepository").Function("GetCatalogItem")

	var item ServiceCatalogItem
	if err := tx.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get catalog item", err, "catalogItemId", id)
	}

	return &item, nil
}

// GetActiveForPeriod returns the services that were active at any point in
// the billing window: started on or before its end, and either open-ended or
// ending on or after its start.
func (r *contractServiceRepository) GetActiveForPeriod(
	ctx context.Context,
	tx *gorm.DB,
	contractID uuid.UUID,
	periodStart, periodEnd time.Time,
) ([]*ContractService, error) {
	log := logger.NewWithContext(ctx, "contractServiceRepository").Function("GetActiveForPeriod")

	var services []*ContractService
	if err := tx.WithContext(ctx).
		Preload("CatalogItem").
		Where("contract_id = ?", contractID).
		Where("start_date <= ?", periodEnd).
		Where("end_date IS NULL OR end_date >= ?", periodStart).
		Order("created_at ASC").
		Find(&services).Error; err != nil {
		return nil, log.Err("failed to get active services", err, "contractId", contractID)
	}

	return services, nil
}

func (r *contractServiceRepository) Save(ctx context.Context, tx *gorm.DB, service *ContractService) error {
	log := logger.NewWithContext(ctx, "contractServiceRepository").Function("Save")

	if err := tx.WithContext(ctx).
		Omit("CatalogItem").
		Save(service).Error; err != nil {
		return log.Err("failed to save contract service", err, "serviceId", service.ID)
	}

	return nil
}
