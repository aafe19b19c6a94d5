package services

import (
	"roomledger/config"
	"roomledger/internal/database"
	"roomledger/internal/repositories"
)

type Service struct {
	Transaction  *TransactionService
	Scheduler    *SchedulerService
	Snapshot     *SnapshotResolver
	Audit        *AuditService
	Notification *NotificationService
	Payment      *PaymentService
	Contract     *ContractLifecycleService
	Billing      *BillingService
	Checkout     *CheckoutService
	Reminder     *ReminderService
}

func New(db database.DB, config config.Config) (Service, error) {
	transactionService := NewTransactionService(db)
	repos := repositories.New(db)

	schedulerService := NewSchedulerService()
	snapshotResolver := NewSnapshotResolver(db, repos)
	auditService := NewAuditService(db, repos, snapshotResolver)
	notificationService := NewNotificationService(config, nil)
	paymentService := NewPaymentService(config)
	contractService := NewContractLifecycleService(repos, transactionService)
	billingService := NewBillingService(db, repos, transactionService, notificationService)
	checkoutService := NewCheckoutService(db, repos, transactionService, contractService, billingService)
	reminderService := NewReminderService(db, repos, transactionService, notificationService)

	return Service{
		Transaction:  transactionService,
		Scheduler:    schedulerService,
		Snapshot:     snapshotResolver,
		Audit:        auditService,
		Notification: notificationService,
		Payment:      paymentService,
		Contract:     contractService,
		Billing:      billingService,
		Checkout:     checkoutService,
		Reminder:     reminderService,
	}, nil
}
