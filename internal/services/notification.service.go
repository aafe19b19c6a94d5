package services

import (
	"context"
	"fmt"

	"roomledger/config"
	"roomledger/internal/logger"
	. "roomledger/internal/models"
)

// Channel delivers a message to a recipient. Delivery mechanics (SMTP, SMS,
// push) live behind this interface; the default implementation just logs.
type Channel interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

type logChannel struct {
	log logger.Logger
}

func (c *logChannel) Send(ctx context.Context, recipient, subject, body string) error {
	c.log.Info("notification sent", "recipient", recipient, "subject", subject)
	return nil
}

type NotificationService struct {
	channel Channel
	sender  string
	log     logger.Logger
}

func NewNotificationService(config config.Config, channel Channel) *NotificationService {
	log := logger.New("notificationService")

	if channel == nil {
		channel = &logChannel{log: log}
	}

	return &NotificationService{
		channel: channel,
		sender:  config.NotificationSender,
		log:     log,
	}
}

// SendContractEndReminder notifies the tenant that the contract ends soon.
// Channel failures are returned so the sweep can keep the reminder flag
// unset and retry on a later run.
func (s *NotificationService) SendContractEndReminder(ctx context.Context, contract *Contract) error {
	log := s.log.Function("SendContractEndReminder")

	if contract.Tenant == nil || contract.Tenant.Email == "" {
		return log.Error("contract has no tenant email", "contractId", contract.ID)
	}

	subject := "Your rental contract is ending soon"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour contract for room %s (%s) ends on %s. Please contact the branch office to renew or arrange your move-out.",
		contract.Tenant.FullName,
		contract.RoomNumber,
		contract.BranchName,
		contract.EndDate.Format("2006-01-02"),
	)

	if err := s.channel.Send(ctx, contract.Tenant.Email, subject, body); err != nil {
		return log.Err("failed to send contract end reminder", err, "contractId", contract.ID)
	}

	return nil
}

// SendInvoiceOverdue notifies the tenant of an overdue invoice. Failures are
// logged and swallowed: the overdue sweep already marked the invoice, and a
// lost reminder must not fail the sweep.
func (s *NotificationService) SendInvoiceOverdue(ctx context.Context, invoice *Invoice) {
	log := s.log.Function("SendInvoiceOverdue")

	if invoice.Contract == nil || invoice.Contract.Tenant == nil || invoice.Contract.Tenant.Email == "" {
		log.Warn("invoice has no tenant email", "invoiceId", invoice.ID)
		return
	}

	subject := "Invoice overdue"
	body := fmt.Sprintf(
		"Hi %s,\n\nInvoice %s for room %s (amount %s) was due on %s and is now overdue. Please settle it as soon as possible.",
		invoice.Contract.Tenant.FullName,
		invoice.ID,
		invoice.Contract.RoomNumber,
		invoice.Amount.StringFixed(0),
		invoice.DueDate.Format("2006-01-02"),
	)

	if err := s.channel.Send(ctx, invoice.Contract.Tenant.Email, subject, body); err != nil {
		log.Er("failed to send overdue reminder", err, "invoiceId", invoice.ID)
	}
}
