package jobs

import (
	"context"
	"time"

	"roomledger/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// MonthlyBillingJob generates invoices for the month that just ended. It
// runs on the 1st, so the billing period is the previous calendar month.
type MonthlyBillingJob struct {
	billing  *services.BillingService
	log      logger.Logger
	schedule services.Schedule
}

func NewMonthlyBillingJob(billing *services.BillingService, schedule services.Schedule) *MonthlyBillingJob {
	return &MonthlyBillingJob{
		billing:  billing,
		log:      logger.New("monthlyBillingJob"),
		schedule: schedule,
	}
}

func (j *MonthlyBillingJob) Name() string {
	return "MonthlyInvoiceGeneration"
}

func (j *MonthlyBillingJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	previous := time.Now().UTC().AddDate(0, -1, 0)
	year, month := previous.Year(), int(previous.Month())

	result, err := j.billing.GenerateMonthly(ctx, year, month, nil)
	if err != nil {
		return log.Err("monthly invoice generation failed", err, "year", year, "month", month)
	}

	log.Info("Monthly invoice generation finished",
		"year", year, "month", month,
		"created", result.Created,
		"skipped", result.Skipped,
		"failed", len(result.Failures),
	)
	return nil
}

func (j *MonthlyBillingJob) Schedule() services.Schedule {
	return j.schedule
}
