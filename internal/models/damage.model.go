package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DamageReportStatus string

const (
	DamageDraft     DamageReportStatus = "DRAFT"
	DamageSubmitted DamageReportStatus = "SUBMITTED"
	DamageApproved  DamageReportStatus = "APPROVED"
	DamageRejected  DamageReportStatus = "REJECTED"
)

// DamageItem is one line of the structured damage breakdown.
type DamageItem struct {
	Item        string          `json:"item"`
	Description string          `json:"description,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
}

// DamageReport is the staff assessment of room condition at move-out,
// exactly one per checkout request.
type DamageReport struct {
	BaseUUIDModel
	CheckoutRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"checkoutRequestId"`
	ContractID        uuid.UUID `gorm:"type:uuid;not null;index"       json:"contractId"`
	InspectedBy       string    `gorm:"type:text;not null"             json:"inspectedBy"`

	Description string                          `gorm:"type:text"                   json:"description"`
	Items       datatypes.JSONSlice[DamageItem] `gorm:"type:json"                   json:"items"`
	TotalCost   decimal.Decimal                 `gorm:"type:decimal(14,2);not null" json:"totalCost"`

	SettlementInvoiceID *uuid.UUID `gorm:"type:uuid" json:"settlementInvoiceId,omitempty"`

	Status       DamageReportStatus `gorm:"type:text;default:'DRAFT';not null;index" json:"status"`
	ApprovedBy   *string            `gorm:"type:text"                                json:"approvedBy,omitempty"`
	ApproverNote *string            `gorm:"type:text"                                json:"approverNote,omitempty"`
	ApprovedAt   *time.Time         `gorm:"type:timestamp"                           json:"approvedAt,omitempty"`

	Images []DamageImage `gorm:"foreignKey:ReportID" json:"images,omitempty"`
}

func (dr *DamageReport) BeforeCreate(tx *gorm.DB) (err error) {
	if err := dr.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if dr.CheckoutRequestID == uuid.Nil || dr.ContractID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if dr.Status == "" {
		dr.Status = DamageDraft
	}
	return nil
}

// Terminal reports whether the review decision has been made.
func (dr *DamageReport) Terminal() bool {
	return dr.Status == DamageApproved || dr.Status == DamageRejected
}

func (dr *DamageReport) AuditSummary() map[string]any {
	return map[string]any{
		"id":         dr.ID,
		"contractId": dr.ContractID,
		"status":     dr.Status,
		"totalCost":  dr.TotalCost,
		"items":      summarizeCollection("DamageItem", len(dr.Items)),
		"images":     summarizeCollection("DamageImage", len(dr.Images)),
	}
}

type DamageImage struct {
	BaseUUIDModel
	ReportID    uuid.UUID `gorm:"type:uuid;not null;index" json:"reportId"`
	ItemRef     string    `gorm:"type:text"                json:"itemRef"`
	ImageURL    string    `gorm:"type:text;not null"       json:"imageUrl"`
	Description string    `gorm:"type:text"                json:"description"`
	Position    int       `gorm:"default:0;not null"       json:"position"`
}

func (di *DamageImage) BeforeCreate(tx *gorm.DB) (err error) {
	if err := di.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if di.ReportID == uuid.Nil || di.ImageURL == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
