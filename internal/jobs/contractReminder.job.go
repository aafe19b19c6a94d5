package jobs

import (
	"context"

	"roomledger/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// ContractReminderJob runs the daily contract end reminder sweep.
type ContractReminderJob struct {
	reminder *services.ReminderService
	log      logger.Logger
	schedule services.Schedule
}

func NewContractReminderJob(reminder *services.ReminderService, schedule services.Schedule) *ContractReminderJob {
	return &ContractReminderJob{
		reminder: reminder,
		log:      logger.New("contractReminderJob"),
		schedule: schedule,
	}
}

func (j *ContractReminderJob) Name() string {
	return "DailyContractEndReminder"
}

func (j *ContractReminderJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	result, err := j.reminder.SendContractEndReminders(ctx)
	if err != nil {
		return log.Err("contract end reminder sweep failed", err)
	}

	log.Info("Contract end reminder sweep finished",
		"candidates", result.Candidates, "sent", result.Sent, "failed", result.Failed)
	return nil
}

func (j *ContractReminderJob) Schedule() services.Schedule {
	return j.schedule
}
