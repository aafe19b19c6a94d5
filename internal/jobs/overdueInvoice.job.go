package jobs

import (
	"context"

	"roomledger/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// OverdueInvoiceJob marks unpaid invoices past their due date as overdue.
// Scheduled after the reminder sweep so both daily passes see the same day.
type OverdueInvoiceJob struct {
	billing  *services.BillingService
	log      logger.Logger
	schedule services.Schedule
}

func NewOverdueInvoiceJob(billing *services.BillingService, schedule services.Schedule) *OverdueInvoiceJob {
	return &OverdueInvoiceJob{
		billing:  billing,
		log:      logger.New("overdueInvoiceJob"),
		schedule: schedule,
	}
}

func (j *OverdueInvoiceJob) Name() string {
	return "DailyOverdueInvoiceSweep"
}

func (j *OverdueInvoiceJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	result, err := j.billing.SweepOverdue(ctx)
	if err != nil {
		return log.Err("overdue invoice sweep failed", err)
	}

	log.Info("Overdue invoice sweep finished", "examined", result.Examined, "marked", result.Marked)
	return nil
}

func (j *OverdueInvoiceJob) Schedule() services.Schedule {
	return j.schedule
}
