package services

import (
	"context"
	"sync"
	"time"

	"github.com/maxaizer/jobalert/internal/logger"
	"github.com/maxaizer/jobalert/internal/metrics"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

var ErrRunInProgress = errors.New("a run is already in progress")

type pipelineRunner interface {
	Run(ctx context.Context) (*RunReport, error)
}

type summaryNotifier interface {
	NotifySummary(ctx context.Context, newJobs int) error
}

// Scheduler triggers pipeline runs on cron specs. At most one run executes at
// a time; triggers arriving during a run are dropped.
type Scheduler struct {
	pipeline pipelineRunner
	notifier summaryNotifier
	cron     *cron.Cron
	running  sync.Mutex
}

func NewScheduler(pipeline pipelineRunner, notifier summaryNotifier) *Scheduler {
	return &Scheduler{
		pipeline: pipeline,
		notifier: notifier,
		cron:     cron.New(),
	}
}

// RunOnce runs the pipeline and, when new jobs were stored, sends the summary.
func (s *Scheduler) RunOnce(ctx context.Context) (*RunReport, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	startTime := time.Now()
	log.Infof("running job scan at %v", startTime)

	report, err := s.pipeline.Run(ctx)

	executionTime := time.Since(startTime)
	metrics.RunDuration.Observe(executionTime.Seconds())
	log.Infof("job scan ended after %v", executionTime)

	if err != nil {
		return report, err
	}

	if len(report.NewJobs) > 0 {
		if err = s.notifier.NotifySummary(ctx, len(report.NewJobs)); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeMail).Errorf("failed to send summary: %v", err)
		}
	}

	return report, nil
}

// Start registers the specs and starts the cron loop. Runs triggered by cron
// use ctx, so cancelling it aborts an in-flight run.
func (s *Scheduler) Start(ctx context.Context, specs []string) error {
	for _, spec := range specs {
		if _, err := s.cron.AddFunc(spec, func() { s.scheduledRun(ctx) }); err != nil {
			return errors.Wrapf(err, "invalid schedule %q", spec)
		}
	}

	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		log.Infof("next scheduled scan at %v", entry.Next)
	}
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) scheduledRun(ctx context.Context) {
	_, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		log.Info("previous scan still running, skipping trigger")
	case errors.Is(err, context.Canceled):
		log.Info("scan cancelled")
	case err != nil:
		log.Errorf("scan failed: %v", err)
	}
}
