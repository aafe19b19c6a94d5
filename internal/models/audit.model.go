package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditAction string

const (
	ActionContractCreate         AuditAction = "CONTRACT_CREATE"
	ActionContractUpdate         AuditAction = "CONTRACT_UPDATE"
	ActionContractDelete         AuditAction = "CONTRACT_DELETE"
	ActionContractSign           AuditAction = "CONTRACT_SIGN"
	ActionContractConfirmDeposit AuditAction = "CONTRACT_CONFIRM_DEPOSIT"
	ActionContractCancel         AuditAction = "CONTRACT_CANCEL"
	ActionContractEnd            AuditAction = "CONTRACT_END"

	ActionServiceAttach  AuditAction = "SERVICE_ATTACH"
	ActionServiceReading AuditAction = "SERVICE_READING"
	ActionServiceCancel  AuditAction = "SERVICE_CANCEL"

	ActionInvoiceGenerate     AuditAction = "INVOICE_GENERATE"
	ActionInvoiceCreateOneOff AuditAction = "INVOICE_CREATE_ONEOFF"
	ActionInvoiceMarkPaid     AuditAction = "INVOICE_MARK_PAID"

	ActionCheckoutSubmit  AuditAction = "CHECKOUT_SUBMIT"
	ActionCheckoutApprove AuditAction = "CHECKOUT_APPROVE"
	ActionCheckoutReject  AuditAction = "CHECKOUT_REJECT"

	ActionDamageUpdate  AuditAction = "DAMAGE_UPDATE"
	ActionDamageSubmit  AuditAction = "DAMAGE_SUBMIT"
	ActionDamageApprove AuditAction = "DAMAGE_APPROVE"
	ActionDamageReject  AuditAction = "DAMAGE_REJECT"
	ActionDamageSettle  AuditAction = "DAMAGE_SETTLE"
)

// failedVariants maps an action to the kind recorded when the wrapped
// operation fails. Actions without an entry are recorded under their own
// kind with a FAILURE status.
var failedVariants = map[AuditAction]AuditAction{
	ActionContractSign:           "CONTRACT_SIGN_FAILED",
	ActionContractConfirmDeposit: "CONTRACT_CONFIRM_DEPOSIT_FAILED",
	ActionContractCancel:         "CONTRACT_CANCEL_FAILED",
	ActionContractEnd:            "CONTRACT_END_FAILED",
	ActionInvoiceCreateOneOff:    "INVOICE_CREATE_ONEOFF_FAILED",
	ActionInvoiceMarkPaid:        "INVOICE_MARK_PAID_FAILED",
	ActionCheckoutApprove:        "CHECKOUT_APPROVE_FAILED",
	ActionDamageApprove:          "DAMAGE_APPROVE_FAILED",
	ActionDamageSettle:           "DAMAGE_SETTLE_FAILED",
}

// Failed returns the failure variant of the action, or the action itself
// when no variant is defined.
func (a AuditAction) Failed() AuditAction {
	if failed, ok := failedVariants[a]; ok {
		return failed
	}
	return a
}

type TargetType string

const (
	TargetContract        TargetType = "CONTRACT"
	TargetRoom            TargetType = "ROOM"
	TargetInvoice         TargetType = "INVOICE"
	TargetContractService TargetType = "CONTRACT_SERVICE"
	TargetCheckoutRequest TargetType = "CHECKOUT_REQUEST"
	TargetDamageReport    TargetType = "DAMAGE_REPORT"
)

type AuditStatus string

const (
	AuditSuccess AuditStatus = "SUCCESS"
	AuditFailure AuditStatus = "FAILURE"
)

// Summarizable is implemented by entities that can render a bounded,
// cycle-safe summary of themselves for the audit trail. Summaries never
// enumerate child collections.
type Summarizable interface {
	AuditSummary() map[string]any
}

func summarizeCollection(typeName string, count int) string {
	return fmt.Sprintf("[%d %s]", count, typeName)
}

// AuditLog is a write-once record of one state-changing action. Rows are
// never updated or deleted, so it does not embed the soft-delete base.
type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                           json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_audit_logs_created_at" json:"createdAt"`

	Actor     string      `gorm:"type:text;not null;index:idx_audit_logs_actor"  json:"actor"`
	ActorRole string      `gorm:"type:text"                                      json:"actorRole"`
	Action    AuditAction `gorm:"type:text;not null;index:idx_audit_logs_action" json:"action"`

	TargetType TargetType `gorm:"type:text;not null;index:idx_audit_logs_target"           json:"targetType"`
	TargetID   uuid.UUID  `gorm:"type:uuid;index:idx_audit_logs_target,priority:2"         json:"targetId"`

	Description string         `gorm:"type:text"  json:"description"`
	OldValue    datatypes.JSON `gorm:"type:json"  json:"oldValue,omitempty"`
	NewValue    datatypes.JSON `gorm:"type:json"  json:"newValue,omitempty"`

	IPAddress string     `gorm:"type:text" json:"ipAddress"`
	UserAgent string     `gorm:"type:text" json:"userAgent"`
	BranchID  *uuid.UUID `gorm:"type:uuid;index" json:"branchId,omitempty"`

	Status       AuditStatus `gorm:"type:text;not null" json:"status"`
	ErrorMessage *string     `gorm:"type:text"          json:"errorMessage,omitempty"`
}

func (al *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if al.ID == uuid.Nil {
		if al.ID, err = uuid.NewV7(); err != nil {
			return err
		}
	}
	if al.Actor == "" || al.Action == "" || al.TargetType == "" {
		return gorm.ErrInvalidValue
	}
	if al.Status == "" {
		al.Status = AuditSuccess
	}
	return nil
}
