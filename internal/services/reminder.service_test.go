package services

import (
	"context"
	"errors"
	"testing"
	"time"

	. "roomledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	sent []string
	fail bool
}

func (c *recordingChannel) Send(ctx context.Context, recipient, subject, body string) error {
	if c.fail {
		return errors.New("channel unavailable")
	}
	c.sent = append(c.sent, recipient)
	return nil
}

func newReminderService(f *fixture, channel Channel) *ReminderService {
	service := NewReminderService(f.db, f.repos, f.tx, NewNotificationService(testConfig(), channel))
	service.now = func() time.Time {
		return time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)
	}
	return service
}

func setContractEnd(t *testing.T, f *fixture, end time.Time) {
	t.Helper()
	require.NoError(t, f.db.SQL.Model(f.contract).Update("end_date", end).Error)
}

func TestSendContractEndReminders_FiresOnceAtLeadTime(t *testing.T) {
	f := newFixture(t, ContractActive)
	channel := &recordingChannel{}
	reminder := newReminderService(f, channel)

	// now + 37 days
	setContractEnd(t, f, time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC))

	result, err := reminder.SendContractEndReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Candidates)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, channel.sent, 1)
	assert.Equal(t, f.tenant.Email, channel.sent[0])
	assert.True(t, f.reloadContract(t).EndReminderSent)

	// The second daily run finds nothing left to send.
	again, err := reminder.SendContractEndReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Candidates)
	assert.Len(t, channel.sent, 1)
}

func TestSendContractEndReminders_IgnoresOtherDates(t *testing.T) {
	f := newFixture(t, ContractActive)
	channel := &recordingChannel{}
	reminder := newReminderService(f, channel)

	setContractEnd(t, f, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC))

	result, err := reminder.SendContractEndReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Candidates)
	assert.Empty(t, channel.sent)
}

func TestSendContractEndReminders_DeliveryFailureRetriesNextRun(t *testing.T) {
	f := newFixture(t, ContractActive)
	channel := &recordingChannel{fail: true}
	reminder := newReminderService(f, channel)

	setContractEnd(t, f, time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC))

	result, err := reminder.SendContractEndReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Sent)
	assert.False(t, f.reloadContract(t).EndReminderSent)

	// Channel recovers; the next run picks the contract up again.
	channel.fail = false
	again, err := reminder.SendContractEndReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, again.Sent)
	assert.True(t, f.reloadContract(t).EndReminderSent)
}
