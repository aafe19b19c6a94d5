package services

import (
	"context"
	"time"

	"roomledger/internal/database"
	"roomledger/internal/logger"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const SettlementDueDays = 7

type DamageReportUpdate struct {
	Description *string
	Items       []DamageItem
	InspectedBy *string
}

// CheckoutService runs the move-out workflow: tenant request, staff
// decision, damage assessment, settlement invoice, and finally ending the
// contract through the lifecycle service.
type CheckoutService struct {
	db          database.DB
	repos       repositories.Repository
	transaction *TransactionService
	lifecycle   *ContractLifecycleService
	billing     *BillingService
	now         func() time.Time
	log         logger.Logger
}

func NewCheckoutService(
	db database.DB,
	repos repositories.Repository,
	transaction *TransactionService,
	lifecycle *ContractLifecycleService,
	billing *BillingService,
) *CheckoutService {
	return &CheckoutService{
		db:          db,
		repos:       repos,
		transaction: transaction,
		lifecycle:   lifecycle,
		billing:     billing,
		now:         time.Now,
		log:         logger.New("checkoutService"),
	}
}

// SubmitRequest opens a checkout request against an active contract.
func (s *CheckoutService) SubmitRequest(ctx context.Context, contractID uuid.UUID, reason string) (*CheckoutRequest, error) {
	log := s.log.Function("SubmitRequest")

	var request *CheckoutRequest
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		contract, err := s.repos.Contract.GetByID(ctx, tx, contractID)
		if err != nil {
			return err
		}

		if contract.Status != ContractActive {
			return log.ErrorWithType(ErrInvalidTransition,
				"checkout requires an active contract",
				"contractId", contractID, "status", contract.Status)
		}

		request = &CheckoutRequest{
			ContractID: contract.ID,
			TenantID:   contract.TenantID,
			Status:     CheckoutPending,
			Reason:     reason,
		}

		return s.repos.Checkout.Create(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Checkout request submitted", "requestId", request.ID, "contractId", contractID)
	return request, nil
}

// ApproveRequest decides a pending request and opens the draft damage
// report for the inspection, in one transaction.
func (s *CheckoutService) ApproveRequest(ctx context.Context, requestID uuid.UUID, inspectedBy string) (*CheckoutRequest, *DamageReport, error) {
	log := s.log.Function("ApproveRequest")

	var request *CheckoutRequest
	var report *DamageReport
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		request, err = s.repos.Checkout.GetByID(ctx, tx, requestID)
		if err != nil {
			return err
		}

		if request.Terminal() {
			return log.ErrorWithType(ErrInvalidTransition,
				"checkout request already decided",
				"requestId", requestID, "status", request.Status)
		}

		request.Status = CheckoutApproved
		if err := s.repos.Checkout.Save(ctx, tx, request); err != nil {
			return err
		}

		report = &DamageReport{
			CheckoutRequestID: request.ID,
			ContractID:        request.ContractID,
			InspectedBy:       inspectedBy,
			TotalCost:         decimal.Zero,
			Status:            DamageDraft,
		}
		if err := s.repos.Damage.Create(ctx, tx, report); err != nil {
			// The 1:1 index means a report already exists; reuse it.
			if err == gorm.ErrDuplicatedKey {
				report, err = s.repos.Damage.GetByCheckoutRequest(ctx, tx, request.ID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info("Checkout request approved", "requestId", requestID, "reportId", report.ID)
	return request, report, nil
}

// RejectRequest declines a pending request; the contract stays active.
func (s *CheckoutService) RejectRequest(ctx context.Context, requestID uuid.UUID) (*CheckoutRequest, error) {
	log := s.log.Function("RejectRequest")

	var request *CheckoutRequest
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		request, err = s.repos.Checkout.GetByID(ctx, tx, requestID)
		if err != nil {
			return err
		}

		if request.Terminal() {
			return log.ErrorWithType(ErrInvalidTransition,
				"checkout request already decided",
				"requestId", requestID, "status", request.Status)
		}

		request.Status = CheckoutRejected
		return s.repos.Checkout.Save(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Checkout request rejected", "requestId", requestID)
	return request, nil
}

// UpdateDraft revises a draft report's findings. Total cost is always
// recomputed from the item lines.
func (s *CheckoutService) UpdateDraft(ctx context.Context, reportID uuid.UUID, update DamageReportUpdate) (*DamageReport, error) {
	log := s.log.Function("UpdateDraft")

	var report *DamageReport
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		report, err = s.repos.Damage.GetByID(ctx, tx, reportID)
		if err != nil {
			return err
		}

		if report.Status != DamageDraft {
			return log.ErrorWithType(ErrInvalidTransition,
				"damage report is not editable",
				"reportId", reportID, "status", report.Status)
		}

		if update.Description != nil {
			report.Description = *update.Description
		}
		if update.InspectedBy != nil {
			report.InspectedBy = *update.InspectedBy
		}
		if update.Items != nil {
			report.Items = update.Items
			total := decimal.Zero
			for _, item := range update.Items {
				if item.Cost.IsNegative() {
					return log.ErrorWithType(ErrValidation,
						"damage item cost cannot be negative",
						"reportId", reportID, "item", item.Item)
				}
				total = total.Add(item.Cost)
			}
			report.TotalCost = total
		}

		return s.repos.Damage.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// AddImage attaches evidence to a draft report.
func (s *CheckoutService) AddImage(ctx context.Context, reportID uuid.UUID, imageURL, itemRef, description string) (*DamageImage, error) {
	log := s.log.Function("AddImage")

	var image *DamageImage
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		report, err := s.repos.Damage.GetByID(ctx, tx, reportID)
		if err != nil {
			return err
		}

		if report.Status != DamageDraft {
			return log.ErrorWithType(ErrInvalidTransition,
				"damage report is not editable",
				"reportId", reportID, "status", report.Status)
		}

		image = &DamageImage{
			ReportID:    report.ID,
			ItemRef:     itemRef,
			ImageURL:    imageURL,
			Description: description,
			Position:    len(report.Images),
		}

		return s.repos.Damage.AddImage(ctx, tx, image)
	})
	if err != nil {
		return nil, err
	}

	return image, nil
}

// SubmitReport hands a draft over for review, freezing its contents.
func (s *CheckoutService) SubmitReport(ctx context.Context, reportID uuid.UUID) (*DamageReport, error) {
	log := s.log.Function("SubmitReport")

	var report *DamageReport
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		report, err = s.repos.Damage.GetByID(ctx, tx, reportID)
		if err != nil {
			return err
		}

		if report.Status != DamageDraft {
			return log.ErrorWithType(ErrInvalidTransition,
				"damage report is not a draft",
				"reportId", reportID, "status", report.Status)
		}

		report.Status = DamageSubmitted
		return s.repos.Damage.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Damage report submitted", "reportId", reportID, "totalCost", report.TotalCost)
	return report, nil
}

// ApproveReport accepts a submitted assessment, recording who decided.
func (s *CheckoutService) ApproveReport(ctx context.Context, reportID uuid.UUID, approvedBy, note string) (*DamageReport, error) {
	return s.decideReport(ctx, reportID, DamageApproved, approvedBy, note)
}

// RejectReport sends a submitted assessment back with the reviewer's note.
func (s *CheckoutService) RejectReport(ctx context.Context, reportID uuid.UUID, approvedBy, note string) (*DamageReport, error) {
	return s.decideReport(ctx, reportID, DamageRejected, approvedBy, note)
}

func (s *CheckoutService) decideReport(
	ctx context.Context,
	reportID uuid.UUID,
	decision DamageReportStatus,
	approvedBy, note string,
) (*DamageReport, error) {
	log := s.log.Function("decideReport")

	var report *DamageReport
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		report, err = s.repos.Damage.GetByID(ctx, tx, reportID)
		if err != nil {
			return err
		}

		if report.Status != DamageSubmitted {
			return log.ErrorWithType(ErrInvalidTransition,
				"damage report is not awaiting review",
				"reportId", reportID, "status", report.Status)
		}

		now := s.now().UTC()
		report.Status = decision
		report.ApprovedBy = &approvedBy
		report.ApprovedAt = &now
		if note != "" {
			report.ApproverNote = &note
		}

		return s.repos.Damage.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Damage report decided", "reportId", reportID, "decision", decision)
	return report, nil
}

// CreateSettlementInvoice bills the approved damage total as a one-off
// invoice and links it back to the report. A zero-cost assessment still
// produces an invoice so the settlement leaves a record. Each report
// settles at most once.
func (s *CheckoutService) CreateSettlementInvoice(ctx context.Context, reportID uuid.UUID) (*Invoice, error) {
	log := s.log.Function("CreateSettlementInvoice")

	// Everything happens under one transaction with the report row locked, so
	// concurrent settlements serialize and the invoice never exists without
	// its back-link.
	var invoice *Invoice
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		report, err := s.repos.Damage.GetByIDForUpdate(ctx, tx, reportID)
		if err != nil {
			return err
		}

		if report.Status != DamageApproved {
			return log.ErrorWithType(ErrInvalidTransition,
				"damage report is not approved",
				"reportId", reportID, "status", report.Status)
		}
		if report.SettlementInvoiceID != nil {
			return log.ErrorWithType(ErrConflict,
				"damage report already settled",
				"reportId", reportID, "invoiceId", *report.SettlementInvoiceID)
		}

		invoice, err = s.billing.createOneOff(
			ctx,
			tx,
			report.ContractID,
			report.TotalCost,
			s.now().UTC().AddDate(0, 0, SettlementDueDays),
			"Damage settlement",
		)
		if err != nil {
			return err
		}

		report.SettlementInvoiceID = &invoice.ID
		return s.repos.Damage.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Settlement invoice created", "reportId", reportID, "invoiceId", invoice.ID, "amount", invoice.Amount)
	return invoice, nil
}

// FinalizeCheckout ends the contract behind an approved request, releasing
// the room.
func (s *CheckoutService) FinalizeCheckout(ctx context.Context, requestID uuid.UUID) (*Contract, error) {
	log := s.log.Function("FinalizeCheckout")

	request, err := s.repos.Checkout.GetByID(ctx, s.db.SQLWithContext(ctx), requestID)
	if err != nil {
		return nil, err
	}

	if request.Status != CheckoutApproved {
		return nil, log.ErrorWithType(ErrInvalidTransition,
			"checkout request is not approved",
			"requestId", requestID, "status", request.Status)
	}

	contract, err := s.lifecycle.End(ctx, request.ContractID)
	if err != nil {
		return nil, err
	}

	log.Info("Checkout finalized", "requestId", requestID, "contractId", contract.ID)
	return contract, nil
}
