package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"toolrent-backend/internal/app"
	"toolrent-backend/internal/config"
	"toolrent-backend/internal/jobs"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/policy"
	"toolrent-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'sync-tool-availability', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Toolrent Cronjob Runner...", "log_level", cfg.Log.Level)

	backend, err := app.OpenBackend(cfg)
	if err != nil {
		logger.Error("Failed to open storage", "error", err)
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer backend.Close()

	p, err := cfg.BookingPolicy()
	if err != nil {
		log.Fatalf("Invalid booking policy: %v", err)
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(backend.Tx, backend.Tools, policy.SystemClock{}, p, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner, p.Location)
	if err != nil {
		logger.Error("Failed to initialize scheduler", "error", err)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "sync-tool-availability":
		jobRunner.SyncToolAvailability()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - sync-tool-availability\n")
		fmt.Printf("  - all-nightly\n")
		os.Exit(1)
	}
}
