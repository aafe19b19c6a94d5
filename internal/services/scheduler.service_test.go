package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingJob struct {
	name string
	ran  chan context.Context
}

func (j *recordingJob) Name() string       { return j.name }
func (j *recordingJob) Schedule() Schedule { return Daily }

func (j *recordingJob) Execute(ctx context.Context) error {
	j.ran <- ctx
	return nil
}

func TestTriggerJobByName_RunsDetachedFromCaller(t *testing.T) {
	scheduler := NewSchedulerService()
	job := &recordingJob{name: "NightlySweep", ran: make(chan context.Context, 1)}
	require.NoError(t, scheduler.AddJob(job))

	require.NoError(t, scheduler.TriggerJobByName(job.name))

	select {
	case ctx := <-job.ran:
		// The manual run gets the scheduler's own lifecycle context, not one
		// tied to whoever triggered it.
		assert.NoError(t, ctx.Err())
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
	case <-time.After(2 * time.Second):
		t.Fatal("triggered job never ran")
	}
}

func TestTriggerJobByName_UnknownJob(t *testing.T) {
	scheduler := NewSchedulerService()

	err := scheduler.TriggerJobByName("NoSuchJob")
	assert.Error(t, err)
}

func TestGetJobCount(t *testing.T) {
	scheduler := NewSchedulerService()
	assert.Equal(t, 0, scheduler.GetJobCount())

	job := &recordingJob{name: "NightlySweep", ran: make(chan context.Context, 1)}
	require.NoError(t, scheduler.AddJob(job))
	assert.Equal(t, 1, scheduler.GetJobCount())
}
