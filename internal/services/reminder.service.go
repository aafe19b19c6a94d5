package services

import (
	"context"
	"time"

	"roomledger/internal/database"
	"roomledger/internal/logger"
	"roomledger/internal/repositories"

	"gorm.io/gorm"
)

// ContractEndLeadDays is how far ahead of the contract end date the
// reminder fires.
const ContractEndLeadDays = 37

type ReminderRunResult struct {
	Candidates int `json:"candidates"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}

// ReminderService sends the one-time contract end reminder. The sent flag
// is only persisted after a successful send, so a delivery failure gets
// retried by the next daily run.
type ReminderService struct {
	db           database.DB
	repos        repositories.Repository
	transaction  *TransactionService
	notification *NotificationService
	now          func() time.Time
	log          logger.Logger
}

func NewReminderService(
	db database.DB,
	repos repositories.Repository,
	transaction *TransactionService,
	notification *NotificationService,
) *ReminderService {
	return &ReminderService{
		db:           db,
		repos:        repos,
		transaction:  transaction,
		notification: notification,
		now:          time.Now,
		log:          logger.New("reminderService"),
	}
}

// SendContractEndReminders notifies tenants whose active contract ends
// exactly ContractEndLeadDays from now and has not been reminded yet.
func (s *ReminderService) SendContractEndReminders(ctx context.Context) (ReminderRunResult, error) {
	log := s.log.Function("SendContractEndReminders")

	result := ReminderRunResult{}
	target := s.now().UTC().AddDate(0, 0, ContractEndLeadDays)

	contracts, err := s.repos.Contract.GetEndingOn(ctx, s.db.SQLWithContext(ctx), target)
	if err != nil {
		return result, err
	}

	result.Candidates = len(contracts)

	for _, contract := range contracts {
		if err := s.notification.SendContractEndReminder(ctx, contract); err != nil {
			result.Failed++
			log.Er("contract end reminder failed", err, "contractId", contract.ID)
			continue
		}

		err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
			return s.repos.Contract.SetEndReminderSent(ctx, tx, contract.ID)
		})
		if err != nil {
			result.Failed++
			log.Er("failed to mark reminder sent", err, "contractId", contract.ID)
			continue
		}

		result.Sent++
	}

	log.Info("Contract end reminder run complete",
		"candidates", result.Candidates, "sent", result.Sent, "failed", result.Failed)
	return result, nil
}
