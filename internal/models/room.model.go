package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomMaintenance RoomStatus = "MAINTENANCE"
)

type Room struct {
	BaseUUIDModel
	BranchID uuid.UUID       `gorm:"type:uuid;not null;index:idx_rooms_branch"     json:"branchId"`
	Number   string          `gorm:"type:text;not null;index:idx_rooms_number"     json:"number"`
	Price    decimal.Decimal `gorm:"type:decimal(14,2);not null"                   json:"price"`
	Status   RoomStatus      `gorm:"type:text;default:'AVAILABLE';not null;index"  json:"status"`

	Branch *Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if err := r.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if r.BranchID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if r.Number == "" {
		return gorm.ErrInvalidValue
	}
	if r.Status == "" {
		r.Status = RoomAvailable
	}
	return nil
}

func (r *Room) AuditSummary() map[string]any {
	return map[string]any{
		"id":     r.ID,
		"number": r.Number,
		"price":  r.Price,
		"status": r.Status,
	}
}
