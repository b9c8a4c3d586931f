package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookfinder/internal/tasks"
)

const (
	JobCleanupLookups = "cleanup_lookups"
	JobPruneSessions  = "prune_sessions"
)

// Enqueuer hands maintenance jobs to the background queue.
type Enqueuer interface {
	EnqueueLookupCleanup(retentionDays int) (string, error)
	EnqueueSessionPrune(idleMinutes int) (string, error)
}

// Config holds the schedules and parameters of the maintenance jobs.
// An empty schedule disables its job.
type Config struct {
	CleanupSchedule string
	RetentionDays   int
	PruneSchedule   string
	SessionIdle     time.Duration
}

// MaintenanceScheduler runs periodic housekeeping: trimming the lookup log and
// dropping idle search sessions. Jobs go through the task queue when one is
// configured and run inline otherwise.
type MaintenanceScheduler struct {
	cfg     Config
	queue   Enqueuer
	cleaner tasks.LookupEventCleaner
	pruner  tasks.SessionPruner

	cron       *cron.Cron
	mu         sync.RWMutex
	entries    map[string]cron.EntryID
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a scheduler. queue may be nil.
func NewMaintenanceScheduler(cfg Config, queue Enqueuer, cleaner tasks.LookupEventCleaner, pruner tasks.SessionPruner) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cfg:     cfg,
		queue:   queue,
		cleaner: cleaner,
		pruner:  pruner,
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers the configured jobs and starts the cron loop. The scheduler
// stops when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	jobs := []struct {
		name     string
		schedule string
	}{
		{JobCleanupLookups, s.cfg.CleanupSchedule},
		{JobPruneSessions, s.cfg.PruneSchedule},
	}

	for _, job := range jobs {
		if job.schedule == "" {
			logrus.WithField("job", job.name).Info("Maintenance job disabled")
			continue
		}
		if err := ValidateCronSchedule(job.schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.schedule, job.name, err)
		}

		name := job.name
		id, err := s.cron.AddFunc(job.schedule, func() {
			if err := s.RunNow(name); err != nil {
				logrus.WithError(err).WithField("job", name).Error("Maintenance job failed")
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		s.entries[name] = id

		next, _ := GetNextRunTime(job.schedule, time.Now())
		logrus.WithFields(logrus.Fields{
			"job":      name,
			"schedule": GetCronDescription(job.schedule),
			"next_run": next.Format(time.RFC3339),
		}).Info("Maintenance job scheduled")
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for running jobs and stops the scheduler.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	logrus.Info("Maintenance scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the next fire time of every scheduled job.
func (s *MaintenanceScheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := make(map[string]time.Time, len(s.entries))
	if !s.isRunning {
		return next
	}
	for name, id := range s.entries {
		next[name] = s.cron.Entry(id).Next
	}
	return next
}

// RunNow triggers job immediately.
func (s *MaintenanceScheduler) RunNow(job string) error {
	idleMinutes := int(s.cfg.SessionIdle / time.Minute)

	if s.queue != nil {
		var id string
		var err error
		switch job {
		case JobCleanupLookups:
			id, err = s.queue.EnqueueLookupCleanup(s.cfg.RetentionDays)
		case JobPruneSessions:
			id, err = s.queue.EnqueueSessionPrune(idleMinutes)
		default:
			return fmt.Errorf("unknown job: %s", job)
		}
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", job, err)
		}
		logrus.WithFields(logrus.Fields{"job": job, "task_id": id}).Debug("Maintenance job enqueued")
		return nil
	}

	ctx := context.Background()
	switch job {
	case JobCleanupLookups:
		return tasks.CleanupLookupEventsProcessor(s.cleaner)(ctx, tasks.CleanupLookupEventsTask{RetentionDays: s.cfg.RetentionDays})
	case JobPruneSessions:
		return tasks.PruneSearchSessionsProcessor(s.pruner)(ctx, tasks.PruneSearchSessionsTask{IdleMinutes: idleMinutes})
	default:
		return fmt.Errorf("unknown job: %s", job)
	}
}
