package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"

	"complians/internal/config"
	"complians/internal/models"
)

// SchedulerService owns the background jobs: the nightly aggregate
// verification sweep and dismissed-alert retention cleanup
type SchedulerService struct {
	scheduler  gocron.Scheduler
	cfg        *config.Config
	directory  *DirectoryService
	aggregator *AggregatorService
	alerts     *AlertService
}

// NewSchedulerService validates the configured cron expressions and builds
// the scheduler. Jobs do not run until Start is called.
func NewSchedulerService(cfg *config.Config, directory *DirectoryService, aggregator *AggregatorService, alerts *AlertService) (*SchedulerService, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cfg.VerifySweepCron); err != nil {
		return nil, fmt.Errorf("invalid VERIFY_SWEEP_CRON %q: %w", cfg.VerifySweepCron, err)
	}
	if _, err := parser.Parse(cfg.AlertCleanupCron); err != nil {
		return nil, fmt.Errorf("invalid ALERT_CLEANUP_CRON %q: %w", cfg.AlertCleanupCron, err)
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &SchedulerService{
		scheduler:  scheduler,
		cfg:        cfg,
		directory:  directory,
		aggregator: aggregator,
		alerts:     alerts,
	}, nil
}

// Start registers the jobs and begins the scheduler
func (s *SchedulerService) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.CronJob(s.cfg.VerifySweepCron, false),
		gocron.NewTask(s.runVerifySweep),
		gocron.WithName("aggregate-verify-sweep"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule verify sweep: %w", err)
	}

	_, err = s.scheduler.NewJob(
		gocron.CronJob(s.cfg.AlertCleanupCron, false),
		gocron.NewTask(s.runAlertCleanup),
		gocron.WithName("alert-retention-cleanup"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule alert cleanup: %w", err)
	}

	s.scheduler.Start()
	log.Printf("✅ Scheduler started (verify sweep: %s, alert cleanup: %s)", s.cfg.VerifySweepCron, s.cfg.AlertCleanupCron)
	return nil
}

// Shutdown stops the scheduler and waits for running jobs
func (s *SchedulerService) Shutdown() error {
	return s.scheduler.Shutdown()
}

// runVerifySweep recomputes every stored aggregate from its records and
// repairs any snapshot that drifted
func (s *SchedulerService) runVerifySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	workers, err := s.directory.AllWorkerIDs(ctx)
	if err != nil {
		log.Printf("❌ [SWEEP] Failed to list workers: %v", err)
		return
	}

	checked, repaired := 0, 0
	for workerID, tenantID := range workers {
		checked++
		err := s.aggregator.Verify(ctx, tenantID, workerID)
		if err == nil {
			continue
		}

		var inconsistency *models.AggregationInconsistency
		if !errors.As(err, &inconsistency) {
			log.Printf("❌ [SWEEP] Verify failed for worker %s: %v", workerID, err)
			continue
		}

		GetMetrics().ObserveInconsistency()
		log.Printf("⚠️ [SWEEP] Aggregate drift for worker %s: %s", workerID, inconsistency.Detail)
		if err := s.aggregator.Repair(ctx, tenantID, workerID); err != nil {
			log.Printf("❌ [SWEEP] Repair failed for worker %s: %v", workerID, err)
			continue
		}
		repaired++
	}

	log.Printf("✅ [SWEEP] Verification sweep complete (checked: %d, repaired: %d)", checked, repaired)
}

// runAlertCleanup deletes dismissed alerts past the retention window
func (s *SchedulerService) runAlertCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.AlertRetentionDays)
	deleted, err := s.alerts.DeleteDismissedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("❌ [CLEANUP] Alert cleanup failed: %v", err)
		return
	}
	log.Printf("✅ [CLEANUP] Deleted %d dismissed alerts older than %s", deleted, cutoff.Format("2006-01-02"))
}
