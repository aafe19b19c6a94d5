package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceUnpaid  InvoiceStatus = "UNPAID"
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceOverdue InvoiceStatus = "OVERDUE"
)

// Invoice is one bill against a contract. Periodic invoices carry a
// (billingYear, billingMonth) pair which is unique per contract; one-off
// invoices (deposit receipts, damage settlements) leave the pair null and
// are exempt from that uniqueness.
type Invoice struct {
	BaseUUIDModel
	ContractID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoices_contract_period" json:"contractId"`

	Amount  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	DueDate time.Time       `gorm:"type:date;not null;index"    json:"dueDate"`

	BillingYear  *int `gorm:"uniqueIndex:idx_invoices_contract_period" json:"billingYear,omitempty"`
	BillingMonth *int `gorm:"uniqueIndex:idx_invoices_contract_period" json:"billingMonth,omitempty"`

	PaidAt           *time.Time    `gorm:"type:timestamp"                              json:"paidAt,omitempty"`
	DirectPayment    bool          `gorm:"default:false;not null"                      json:"directPayment"`
	PaymentReference *string       `gorm:"type:text"                                   json:"paymentReference,omitempty"`
	Status           InvoiceStatus `gorm:"type:text;default:'UNPAID';not null;index"   json:"status"`

	Details  []InvoiceDetail `gorm:"foreignKey:InvoiceID" json:"details,omitempty"`
	Contract *Contract       `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if err := i.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if i.ContractID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if i.Status == "" {
		i.Status = InvoiceUnpaid
	}
	// The billing period is a pair; half a key is a bug somewhere upstream.
	if (i.BillingYear == nil) != (i.BillingMonth == nil) {
		return gorm.ErrInvalidValue
	}
	return nil
}

// Periodic reports whether the invoice belongs to a monthly billing cycle.
func (i *Invoice) Periodic() bool {
	return i.BillingYear != nil && i.BillingMonth != nil
}

func (i *Invoice) AuditSummary() map[string]any {
	summary := map[string]any{
		"id":         i.ID,
		"contractId": i.ContractID,
		"amount":     i.Amount,
		"status":     i.Status,
		"details":    summarizeCollection("InvoiceDetail", len(i.Details)),
	}
	if i.Periodic() {
		summary["billingYear"] = *i.BillingYear
		summary["billingMonth"] = *i.BillingMonth
	}
	return summary
}

type InvoiceDetail struct {
	BaseUUIDModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"     json:"invoiceId"`
	Description string          `gorm:"type:text;not null"           json:"description"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null"  json:"unitPrice"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null"  json:"quantity"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null"  json:"amount"`
	Position    int             `gorm:"default:0;not null"           json:"position"`
}

func (d *InvoiceDetail) BeforeCreate(tx *gorm.DB) (err error) {
	if err := d.BaseUUIDModel.BeforeCreate(tx); err != nil {
		return err
	}
	if d.Description == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}

// NewInvoiceDetail computes the line amount from unit price and quantity.
func NewInvoiceDetail(description string, unitPrice decimal.Decimal, quantity decimal.Decimal, position int) InvoiceDetail {
	return InvoiceDetail{
		Description: description,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Amount:      unitPrice.Mul(quantity),
		Position:    position,
	}
}
