package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ServiceCatalogItem struct {
	BaseUUIDModel
	Name      string          `gorm:"type:text;not null;uniqueIndex"  json:"name"`
	Unit      string          `gorm:"type:text;not null"              json:"unit"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(14,2);not null"     json:"unitPrice"`
	Metered   bool            `gorm:"default:false;not null"          json:"metered"`
}

func (s *ServiceCatalogItem) BeforeCreate(tx *gorm.DB) (err error) {
	if err := s.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if s.Name == "" || s.Unit == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}

// ContractService is one recurring charge attached to a contract, either a
// flat quantity (internet, cleaning) or meter-reading based (electricity,
// water). Cancelled services are end-dated, never deleted.
type ContractService struct {
	BaseUUIDModel
	ContractID    uuid.UUID `gorm:"type:uuid;not null;index:idx_contract_services_contract" json:"contractId"`
	CatalogItemID uuid.UUID `gorm:"type:uuid;not null"                                      json:"catalogItemId"`

	Quantity        int  `gorm:"default:1;not null" json:"quantity"`
	PreviousReading *int `gorm:"type:integer"       json:"previousReading,omitempty"`
	CurrentReading  *int `gorm:"type:integer"       json:"currentReading,omitempty"`

	StartDate time.Time  `gorm:"type:date;not null" json:"startDate"`
	EndDate   *time.Time `gorm:"type:date"          json:"endDate,omitempty"`

	CatalogItem *ServiceCatalogItem `gorm:"foreignKey:CatalogItemID" json:"catalogItem,omitempty"`
}

func (cs *ContractService) BeforeCreate(tx *gorm.DB) (err error) {
	if err := cs.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if cs.ContractID == uuid.Nil || cs.CatalogItemID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if cs.Quantity <= 0 {
		cs.Quantity = 1
	}
	return nil
}

func (cs *ContractService) AuditSummary() map[string]any {
	summary := map[string]any{
		"id":         cs.ID,
		"contractId": cs.ContractID,
		"quantity":   cs.Quantity,
	}
	if cs.CatalogItem != nil {
		summary["service"] = cs.CatalogItem.Name
	}
	if cs.CurrentReading != nil {
		summary["currentReading"] = *cs.CurrentReading
	}
	return summary
}
