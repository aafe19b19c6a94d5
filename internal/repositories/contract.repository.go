package repositories

import (
	"context"
	"time"

	"roomledger/internal/constants"
	"roomledger/internal/database"
	"roomledger/internal/logger"
	. "roomledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContractRepository interface {
	Create(ctx context.Context, tx *gorm.DB, contract *Contract) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error)
	GetActive(ctx context.Context, tx *gorm.DB) ([]*Contract, error)
	GetEndingOn(ctx context.Context, tx *gorm.DB, date time.Time) ([]*Contract, error)
	Save(ctx context.Context, tx *gorm.DB, contract *Contract) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	SetEndReminderSent(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type contractRepository struct {
	cache database.CacheClient
}

func NewContractRepository(cache database.CacheClient) ContractRepository {
	return &contractRepository{
		cache: cache,
	}
}

func (r *contractRepository) Create(ctx context.Context, tx *gorm.DB, contract *Contract) error {
	log := logger.NewWithContext(ctx, "contractRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(contract).Error; err != nil {
		return log.Err("failed to create contract", err, "roomId", contract.RoomID)
	}

	log.Info("Contract created", "id", contract.ID, "room", contract.RoomNumber)
	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error) {
	log := logger.NewWithContext(ctx, "contractRepository").Function("GetByID")

	var cached Contract
	found, err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.ContractCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get contract from cache", "contractId", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	var contract Contract
	if err := tx.WithContext(ctx).
		Preload("Tenant").
		Preload("Room").
		Preload("Services").
		Preload("Services.CatalogItem").
		First(&contract, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get contract", err, "contractId", id)
	}

	if err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.ContractCachePrefix).
		WithStruct(contract).
		WithTTL(constants.ContractCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to set contract in cache", "contractId", id, "error", err)
	}

	return &contract, nil
}

// GetByIDForUpdate takes a row lock on the contract for the duration of the
// surrounding transaction. Always reads through the database, never the cache.
func (r *contractRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error) {
	log := logger.NewWithContext(ctx, "contractRepository").Function("GetByIDForUpdate")

	query := tx.WithContext(ctx)
	// sqlite has no row locks; the clause would be a syntax error there.
	if tx.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var contract Contract
	if err := query.First(&contract, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to lock contract", err, "contractId", id)
	}

	return &contract, nil
}

func (r *contractRepository) GetActive(ctx context.Context, tx *gorm.DB) ([]*Contract, error) {
	log := logger.NewWithContext(ctx, "contractRepository").Function("GetActive")

	var contracts []*Contract
	if err := tx.WithContext(ctx).
		Preload("Tenant").
		Preload("Room").
		Preload("Services").
		Preload("Services.CatalogItem").
		Where("status = ?", ContractActive).
		Order("created_at ASC").
		Find(&contracts).Error; err != nil {
		return nil, log.Err("failed to get active contracts", err)
	}

	return contracts, nil
}

// GetEndingOn returns ACTIVE contracts whose end date falls on the given day
// and whose end reminder has not been sent yet.
func (r *contractRepository) GetEndingOn(ctx context.Context, tx *gorm.DB, date time.Time) ([]*Contract, error) {
	log := logger.NewWithContext(ctx, "contractRepository").Function("GetEndingOn")

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var contracts []*Contract
	if err := tx.WithContext(ctx).
		Preload("Tenant").
		Where("status = ?", ContractActive).
		Where("end_reminder_sent = ?", false).
		Where("end_date >= ? AND end_date < ?", dayStart, dayEnd).
		Find(&contracts).Error; err != nil {
		return nil, log.Err("failed to get contracts ending on date", err, "date", dayStart)
	}

	return contracts, nil
}

func (r *contractRepository) Save(ctx context.Context, tx *gorm.DB, contract *Contract) error {
	log := logger.NewWithContext(ctx, "contractRepository").Function("Save")

	if err := tx.WithContext(ctx).
		Omit("Tenant", "Room", "Services").
		Save(contract).Error; err != nil {
		return log.Err("failed to save contract", err, "contractId", contract.ID)
	}

	r.clearContractCache(ctx, contract.ID)

	return nil
}

func (r *contractRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := logger.NewWithContext(ctx, "contractRepository").Function("Delete")

	result := tx.WithContext(ctx).Delete(&Contract{}, "id = ?", id)
	if result.Error != nil {
		return log.Err("failed to delete contract", result.Error, "contractId", id)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.clearContractCache(ctx, id)

	log.Info("Contract deleted", "contractId", id)
	return nil
}

func (r *contractRepository) SetEndReminderSent(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := logger.NewWithContext(ctx, "contractRepository").Function("SetEndReminderSent")

	if err := tx.WithContext(ctx).
		Model(&Contract{}).
		Where("id = ?", id).
		Update("end_reminder_sent", true).Error; err != nil {
		return log.Err("failed to set end reminder flag", err, "contractId", id)
	}

	r.clearContractCache(ctx, id)

	return nil
}

func (r *contractRepository) clearContractCache(ctx context.Context, id uuid.UUID) {
	log := logger.NewWithContext(ctx, "contractRepository").Function("clearContractCache")

	if err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.ContractCachePrefix).
		Delete(); err != nil {
		log.Warn("failed to clear contract cache", "contractId", id, "error", err)
	}
}
