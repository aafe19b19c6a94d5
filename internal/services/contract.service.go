package services

import (
	"context"
	"fmt"
	"time"

	"roomledger/internal/logger"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractLifecycleService owns the contract state machine:
//
//	PENDING -> SIGNED_PENDING_DEPOSIT -> ACTIVE -> ENDED
//
// with CANCELLED reachable from the two pre-ACTIVE states. Contracts are
// mutated only through these transitions and are never physically deleted
// once ACTIVE or later.
type ContractLifecycleService struct {
	repos       repositories.Repository
	transaction *TransactionService
	log         logger.Logger
}

func NewContractLifecycleService(repos repositories.Repository, transaction *TransactionService) *ContractLifecycleService {
	return &ContractLifecycleService{
		repos:       repos,
		transaction: transaction,
		log:         logger.New("contractLifecycleService"),
	}
}

type NewContract struct {
	TenantID      uuid.UUID
	RoomID        uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	DepositAmount decimal.Decimal
	DocumentURL   *string
}

// Create opens a PENDING contract and captures the branch/room identity as
// it is today, so later room renames do not rewrite history.
func (s *ContractLifecycleService) Create(ctx context.Context, input NewContract) (*Contract, error) {
	log := s.log.Function("Create")

	var contract *Contract
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		room, err := s.repos.Room.GetByID(ctx, tx, input.RoomID)
		if err != nil {
			return log.Err("room not found", err, "roomId", input.RoomID)
		}

		branchName := ""
		if room.Branch != nil {
			branchName = room.Branch.Name
		}

		contract = &Contract{
			TenantID:      input.TenantID,
			RoomID:        input.RoomID,
			BranchName:    branchName,
			RoomNumber:    room.Number,
			StartDate:     input.StartDate,
			EndDate:       input.EndDate,
			DepositAmount: input.DepositAmount,
			DocumentURL:   input.DocumentURL,
			Status:        ContractPending,
		}

		return s.repos.Contract.Create(ctx, tx, contract)
	})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

type ContractUpdate struct {
	TenantID      *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	DepositAmount *decimal.Decimal
}

// UpdatePending edits tenant/dates/deposit, permitted only while PENDING.
func (s *ContractLifecycleService) UpdatePending(ctx context.Context, contractID uuid.UUID, update ContractUpdate) (*Contract, error) {
	log := s.log.Function("UpdatePending")

	var contract *Contract
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		contract, err = s.repos.Contract.GetByID(ctx, tx, contractID)
		if err != nil {
			return err
		}

		if contract.Status != ContractPending {
			return log.ErrorWithType(ErrInvalidTransition,
				"only pending contracts can be edited",
				"contractId", contractID, "status", contract.Status)
		}

		if update.TenantID != nil {
			contract.TenantID = *update.TenantID
		}
		if update.StartDate != nil {
			contract.StartDate = *update.StartDate
		}
		if update.EndDate != nil {
			contract.EndDate = *update.EndDate
		}
		if update.DepositAmount != nil {
			contract.DepositAmount = *update.DepositAmount
		}

		return s.repos.Contract.Save(ctx, tx, contract)
	})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

// DeletePending removes a contract that never got signed. Contracts in any
// later state stay on record forever.
func (s *ContractLifecycleService) DeletePending(ctx context.Context, contractID uuid.UUID) error {
	log := s.log.Function("DeletePending")

	return s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		contract, err := s.repos.Contract.GetByID(ctx, tx, contractID)
		if err != nil {
			return err
		}

		if contract.Status != ContractPending {
			return log.ErrorWithType(ErrInvalidTransition,
				"only pending contracts can be deleted",
				"contractId", contractID, "status", contract.Status)
		}

		return s.repos.Contract.Delete(ctx, tx, contractID)
	})
}

// UploadSigned records the signed document and moves the contract to
// SIGNED_PENDING_DEPOSIT.
func (s *ContractLifecycleService) UploadSigned(ctx context.Context, contractID uuid.UUID, signedURL string) (*Contract, error) {
	log := s.log.Function("UploadSigned")

	var contract *Contract
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		contract, err = s.repos.Contract.GetByID(ctx, tx, contractID)
		if err != nil {
			return err
		}

		if contract.Status != ContractPending {
			return log.ErrorWithType(ErrInvalidTransition,
				"contract is not pending signature",
				"contractId", contractID, "status", contract.Status)
		}

		contract.SignedDocumentURL = &signedURL
		contract.Status = ContractSignedPendingDeposit

		return s.repos.Contract.Save(ctx, tx, contract)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Contract signed", "contractId", contractID)
	return contract, nil
}

type DepositPayment struct {
	Method    DepositMethod
	Amount    *decimal.Decimal // defaults to the contract's deposit amount
	Reference string
}

// ConfirmDeposit records the deposit payment and activates the contract.
// The room is marked occupied and a deposit receipt document link is issued.
func (s *ContractLifecycleService) ConfirmDeposit(ctx context.Context, contractID uuid.UUID, payment DepositPayment) (*Contract, error) {
	log := s.log.Function("ConfirmDeposit")

	if payment.Method != DepositCash && payment.Method != DepositBankTransfer {
		return nil, log.ErrorWithType(ErrValidation, "unknown deposit method", "method", payment.Method)
	}

	var contract *Contract
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		contract, err = s.repos.Contract.GetByID(ctx, tx, contractID)
		if err != nil {
			return err
		}

		if contract.Status != ContractSignedPendingDeposit {
			return log.ErrorWithType(ErrInvalidTransition,
				"contract is not awaiting deposit",
				"contractId", contractID, "status", contract.Status)
		}

		amount := contract.DepositAmount
		if payment.Amount != nil {
			amount = *payment.Amount
		}
		if !amount.IsPositive() {
			return log.ErrorWithType(ErrValidation,
				"deposit amount must be positive",
				"contractId", contractID, "amount", amount)
		}

		now := time.Now().UTC()
		receiptURL := fmt.Sprintf("/documents/receipts/deposit-%s.pdf", contract.ID)

		contract.DepositAmount = amount
		contract.DepositMethod = &payment.Method
		contract.DepositPaidAt = &now
		if payment.Reference != "" {
			contract.DepositReference = &payment.Reference
		}
		contract.DepositReceiptURL = &receiptURL
		contract.Status = ContractActive

		if err := s.repos.Contract.Save(ctx, tx, contract); err != nil {
			return err
		}

		return s.repos.Room.UpdateStatus(ctx, tx, contract.RoomID, RoomOccupied)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Deposit confirmed, contract active", "contractId", contractID)
	return contract, nil
}

// Cancel aborts a contract that has not gone ACTIVE yet and releases the room.
func (s *ContractLifecycleService) Cancel(ctx context.Context, contractID uuid.UUID) (*Contract, error) {
	log := s.log.Function("Cancel")

	var contract *Contract
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		contract, err = s.repos.Contract.GetByID(ctx, tx, contractID)
		if err != nil {
			return err
		}

		if !contract.Cancellable() {
			return log.ErrorWithType(ErrInvalidTransition,
				"contract can no longer be cancelled",
				"contractId", contractID, "status", contract.Status)
		}

		contract.Status = ContractCancelled
		if err := s.repos.Contract.Save(ctx, tx, contract); err != nil {
			return err
		}

		return s.repos.Room.UpdateStatus(ctx, tx, contract.RoomID, RoomAvailable)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Contract cancelled", "contractId", contractID)
	return contract, nil
}

// End terminates an ACTIVE contract and releases the room, either on staff
// action or when the checkout workflow finalizes a move-out.
func (s *ContractLifecycleService) End(ctx context.Context, contractID uuid.UUID) (*Contract, error) {
	log := s.log.Function("End")

	var contract *Contract
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		contract, err = s.repos.Contract.GetByID(ctx, tx, contractID)
		if err != nil {
			return err
		}

		if contract.Status != ContractActive {
			return log.ErrorWithType(ErrInvalidTransition,
				"only active contracts can be ended",
				"contractId", contractID, "status", contract.Status)
		}

		contract.Status = ContractEnded
		if err := s.repos.Contract.Save(ctx, tx, contract); err != nil {
			return err
		}

		return s.repos.Room.UpdateStatus(ctx, tx, contract.RoomID, RoomAvailable)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Contract ended", "contractId", contractID)
	return contract, nil
}

// AttachService adds a recurring or metered charge to an active contract.
func (s *ContractLifecycleService) AttachService(
	ctx context.Context,
	contractID, catalogItemID uuid.UUID,
	quantity int,
	initialReading *int,
	startDate time.Time,
) (*ContractService, error) {
	log := s.log.Function("AttachService")

	var service *ContractService
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		contract, err := s.repos.Contract.GetByID(ctx, tx, contractID)
		if err != nil {
			return err
		}
		if contract.Status != ContractActive {
			return log.ErrorWithType(ErrInvalidTransition,
				"services can only be attached to active contracts",
				"contractId", contractID, "status", contract.Status)
		}

		item, err := s.repos.ContractService.GetCatalogItem(ctx, tx, catalogItemID)
		if err != nil {
			return err
		}

		service = &ContractService{
			ContractID:    contractID,
			CatalogItemID: catalogItemID,
			Quantity:      quantity,
			StartDate:     startDate,
		}
		if item.Metered {
			reading := 0
			if initialReading != nil {
				reading = *initialReading
			}
			service.PreviousReading = &reading
			service.CurrentReading = &reading
		}

		return s.repos.ContractService.Create(ctx, tx, service)
	})
	if err != nil {
		return nil, err
	}

	return service, nil
}

// RecordReading stores a new meter reading, shifting the old current reading
// into the previous slot.
func (s *ContractLifecycleService) RecordReading(ctx context.Context, serviceID uuid.UUID, reading int) (*ContractService, error) {
	log := s.log.Function("RecordReading")

	var service *ContractService
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		service, err = s.repos.ContractService.GetByID(ctx, tx, serviceID)
		if err != nil {
			return err
		}

		if service.CatalogItem == nil || !service.CatalogItem.Metered {
			return log.ErrorWithType(ErrValidation,
				"readings only apply to metered services",
				"serviceId", serviceID)
		}

		service.PreviousReading = service.CurrentReading
		service.CurrentReading = &reading

		return s.repos.ContractService.Save(ctx, tx, service)
	})
	if err != nil {
		return nil, err
	}

	return service, nil
}

// CancelService end-dates the charge at the end of the current billing
// month. The row is kept so past invoices stay explainable.
func (s *ContractLifecycleService) CancelService(ctx context.Context, serviceID uuid.UUID) (*ContractService, error) {
	log := s.log.Function("CancelService")

	var service *ContractService
	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		service, err = s.repos.ContractService.GetByID(ctx, tx, serviceID)
		if err != nil {
			return err
		}

		if service.EndDate != nil {
			return log.ErrorWithType(ErrConflict,
				"service already cancelled",
				"serviceId", serviceID, "endDate", *service.EndDate)
		}

		endOfMonth := EndOfMonth(time.Now().UTC())
		service.EndDate = &endOfMonth

		return s.repos.ContractService.Save(ctx, tx, service)
	})
	if err != nil {
		return nil, err
	}

	return service, nil
}

// EndOfMonth returns the last day of t's month at midnight UTC.
func EndOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}
