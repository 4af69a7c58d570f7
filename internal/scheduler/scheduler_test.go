package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolrent-backend/internal/config"
	"toolrent-backend/internal/jobs"
	"toolrent-backend/internal/policy"
	"toolrent-backend/internal/repository/memory"
)

func TestNewScheduler(t *testing.T) {
	store := memory.NewStore()
	cfg := &config.Config{Scheduler: config.SchedulerConfig{SyncToolAvailability: "0 5 0 * * *"}}

	s, err := NewScheduler(jobs.NewJobRunner(store, store, nil, policy.Default(), cfg), time.UTC)
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	require.Len(t, s.Next(), 1)
	next := s.Next()[0].UTC()
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 5, next.Minute())
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	store := memory.NewStore()
	cfg := &config.Config{Scheduler: config.SchedulerConfig{SyncToolAvailability: "not a cron spec"}}

	_, err := NewScheduler(jobs.NewJobRunner(store, store, nil, policy.Default(), cfg), time.UTC)
	assert.Error(t, err)
}
