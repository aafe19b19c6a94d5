package jobs

import (
	"roomledger/config"
	"roomledger/internal/repositories"
	"roomledger/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	Daily        = services.Daily
	DailyLate    = services.DailyLate
	MonthlyFirst = services.MonthlyFirst
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	services services.Service,
	repos repositories.Repository,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")
	log.Info("Registering jobs")

	monthlyBillingJob := NewMonthlyBillingJob(services.Billing, MonthlyFirst)
	if err := schedulerService.AddJob(monthlyBillingJob); err != nil {
		return log.Err("failed to register monthly billing job", err)
	}
	log.Info("Registered monthly billing job", "schedule", "monthly")

	contractReminderJob := NewContractReminderJob(services.Reminder, Daily)
	if err := schedulerService.AddJob(contractReminderJob); err != nil {
		return log.Err("failed to register contract reminder job", err)
	}
	log.Info("Registered contract reminder job", "schedule", "daily")

	overdueInvoiceJob := NewOverdueInvoiceJob(services.Billing, DailyLate)
	if err := schedulerService.AddJob(overdueInvoiceJob); err != nil {
		return log.Err("failed to register overdue invoice job", err)
	}
	log.Info("Registered overdue invoice job", "schedule", "daily")

	return nil
}
