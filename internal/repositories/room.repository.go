package repositories

import (
	"context"

	"roomledger/internal/logger"
	. "roomledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Room, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status RoomStatus) error
}

type roomRepository struct{}

func NewRoomRepository() RoomRepository {
	return &roomRepository{}
}

func (r *roomRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Room, error) {
	log := logger.NewWithContext(ctx, "roomRepository").Function("GetByID")

	var room Room
	if err := tx.WithContext(ctx).
		Preload("Branch").
		First(&room, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, log.Err("failed to get room", err, "roomId", id)
	}

	return &room, nil
}

func (r *roomRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status RoomStatus) error {
	log := logger.NewWithContext(ctx, "roomRepository").Function("UpdateStatus")

	result := tx.WithContext(ctx).
		Model(&Room{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return log.Err("failed to update room status", result.Error, "roomId", id, "status", status)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	log.Info("Room status updated", "roomId", id, "status", status)
	return nil
}
