package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractPending              ContractStatus = "PENDING"
	ContractSignedPendingDeposit ContractStatus = "SIGNED_PENDING_DEPOSIT"
	ContractActive               ContractStatus = "ACTIVE"
	ContractEnded                ContractStatus = "ENDED"
	ContractCancelled            ContractStatus = "CANCELLED"
)

type DepositMethod string

const (
	DepositCash         DepositMethod = "CASH"
	DepositBankTransfer DepositMethod = "BANK_TRANSFER"
)

type Contract struct {
	BaseUUIDModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_contracts_tenant" json:"tenantId"`
	RoomID   uuid.UUID `gorm:"type:uuid;not null;index:idx_contracts_room"   json:"roomId"`

	// Branch/room identity captured at creation, immune to later renames.
	BranchName string `gorm:"type:text;not null" json:"branchName"`
	RoomNumber string `gorm:"type:text;not null" json:"roomNumber"`

	StartDate time.Time `gorm:"type:date;not null" json:"startDate"`
	EndDate   time.Time `gorm:"type:date;not null" json:"endDate"`

	DepositAmount     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"depositAmount"`
	DepositMethod     *DepositMethod  `gorm:"type:text"                   json:"depositMethod,omitempty"`
	DepositPaidAt     *time.Time      `gorm:"type:timestamp"              json:"depositPaidAt,omitempty"`
	DepositReference  *string         `gorm:"type:text"                   json:"depositReference,omitempty"`
	DepositReceiptURL *string         `gorm:"type:text"                   json:"depositReceiptUrl,omitempty"`

	DocumentURL       *string `gorm:"type:text" json:"documentUrl,omitempty"`
	SignedDocumentURL *string `gorm:"type:text" json:"signedDocumentUrl,omitempty"`

	EndReminderSent bool           `gorm:"default:false;not null"                       json:"endReminderSent"`
	Status          ContractStatus `gorm:"type:text;default:'PENDING';not null;index"   json:"status"`

	Tenant   *Tenant           `gorm:"foreignKey:TenantID"   json:"tenant,omitempty"`
	Room     *Room             `gorm:"foreignKey:RoomID"     json:"room,omitempty"`
	Services []ContractService `gorm:"foreignKey:ContractID" json:"services,omitempty"`
}

func (c *Contract) BeforeCreate(tx *gorm.DB) (err error) {
	if err := c.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if c.TenantID == uuid.Nil || c.RoomID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return gorm.ErrInvalidValue
	}
	if c.Status == "" {
		c.Status = ContractPending
	}
	return nil
}

// Cancellable reports whether the contract may still be cancelled.
func (c *Contract) Cancellable() bool {
	return c.Status == ContractPending || c.Status == ContractSignedPendingDeposit
}

func (c *Contract) AuditSummary() map[string]any {
	return map[string]any{
		"id":         c.ID,
		"status":     c.Status,
		"branchName": c.BranchName,
		"roomNumber": c.RoomNumber,
		"tenantId":   c.TenantID,
		"deposit":    c.DepositAmount,
		"services":   summarizeCollection("ContractService", len(c.Services)),
	}
}
