package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	runs     atomic.Int64
	fail     bool
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.fail {
		return errors.New("job failed")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"}))
	s.retryDelay = time.Millisecond
	return s
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "cleanup", schedule: "@daily"}))
	err := s.AddJob(&fakeJob{name: "cleanup", schedule: "@hourly"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.AddJob(&fakeJob{name: "broken", schedule: "not a cron expr"}))
}

func TestRunJobRecordsHistory(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "cleanup", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	history, err := s.GetJobHistory("cleanup")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
	assert.Equal(t, int64(1), job.runs.Load())
}

func TestRunJobRetriesOnFailure(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "flaky", schedule: "@daily", fail: true}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Equal(t, "job failed", history.Results[0].Error)
	// initial attempt plus maxRetries
	assert.Equal(t, int64(4), job.runs.Load())
	assert.Zero(t, history.GetSuccessRate())
}

func TestRunJobUnknownName(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("missing"))
}
