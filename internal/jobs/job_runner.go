package jobs

import (
	"toolrent-backend/internal/config"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/metrics"
	"toolrent-backend/internal/policy"
	"toolrent-backend/internal/repository"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store  repository.Transactor
	tools  repository.ToolCatalog
	clock  policy.Clock
	policy policy.Policy
	config *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Transactor, tools repository.ToolCatalog, clock policy.Clock, p policy.Policy, cfg *config.Config) *JobRunner {
	if clock == nil {
		clock = policy.SystemClock{}
	}
	return &JobRunner{
		store:  store,
		tools:  tools,
		clock:  clock,
		policy: p,
		config: cfg,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) {
	outcome := "panic"
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
		metrics.JobRuns.WithLabelValues(jobName, outcome).Inc()
	}()

	logger.Info("Starting job", "job", jobName)
	err := jobFunc()
	outcome = metrics.Outcome(err)
	if err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return
	}
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.SyncToolAvailability()
}
