package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron       *cron.Cron
	networkSvc *NetworkService
	reloadSpec string
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewCronService creates a new CronService.
// reloadSpec uses six fields (second minute hour day month weekday); empty disables the reload job.
func NewCronService(networkSvc *NetworkService, reloadSpec string, logger *logrus.Logger) *CronService {
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:       c,
		networkSvc: networkSvc,
		reloadSpec: reloadSpec,
		timeout:    2 * time.Minute,
		logger:     logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	if s.reloadSpec == "" {
		s.logger.Info("Scheduled network reload disabled")
		return nil
	}

	// "0 0 3 * * *" = At 3:00 AM every day
	_, err := s.cron.AddFunc(s.reloadSpec, s.reloadNetworkJob)
	if err != nil {
		return fmt.Errorf("failed to schedule network reload job: %w", err)
	}
	s.logger.WithField("schedule", s.reloadSpec).Info("Scheduled: network reload")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// reloadNetworkJob rebuilds the network snapshot from the schedule store
func (s *CronService) reloadNetworkJob() {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	status, err := s.networkSvc.Reload(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Network reload failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"version":  status.Version,
		"stops":    status.StopCount,
		"duration": time.Since(startTime).String(),
	}).Info("[CRON] Network reloaded")
}

// RunReloadNow runs the reload job immediately
func (s *CronService) RunReloadNow() {
	s.logger.Info("[MANUAL] Running network reload now")
	s.reloadNetworkJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
