package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckoutStatus string

const (
	CheckoutPending  CheckoutStatus = "PENDING"
	CheckoutApproved CheckoutStatus = "APPROVED"
	CheckoutRejected CheckoutStatus = "REJECTED"
)

// CheckoutRequest is a tenant-initiated move-out request. Approval and
// rejection are terminal.
type CheckoutRequest struct {
	BaseUUIDModel
	ContractID uuid.UUID      `gorm:"type:uuid;not null;index"                    json:"contractId"`
	TenantID   uuid.UUID      `gorm:"type:uuid;not null;index"                    json:"tenantId"`
	Status     CheckoutStatus `gorm:"type:text;default:'PENDING';not null;index"  json:"status"`
	Reason     string         `gorm:"type:text"                                   json:"reason"`

	Contract *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
}

func (cr *CheckoutRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if err := cr.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if cr.ContractID == uuid.Nil || cr.TenantID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if cr.Status == "" {
		cr.Status = CheckoutPending
	}
	return nil
}

// Terminal reports whether the request has been decided.
func (cr *CheckoutRequest) Terminal() bool {
	return cr.Status == CheckoutApproved || cr.Status == CheckoutRejected
}

func (cr *CheckoutRequest) AuditSummary() map[string]any {
	return map[string]any{
		"id":         cr.ID,
		"contractId": cr.ContractID,
		"tenantId":   cr.TenantID,
		"status":     cr.Status,
	}
}
