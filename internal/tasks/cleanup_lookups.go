package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

const (
	CleanupLookupEventsQueue = "cleanup_lookup_events"

	defaultLookupRetentionDays = 30
)

// LookupEventCleaner provides the ability to delete old lookup events.
type LookupEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupLookupEventsTask removes lookup events older than the retention period.
type CleanupLookupEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for lookup cleanup tasks.
func (t CleanupLookupEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        CleanupLookupEventsQueue,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupLookupEventsProcessor creates a processor function for CleanupLookupEventsTask.
func CleanupLookupEventsProcessor(cleaner LookupEventCleaner) backlite.QueueProcessor[CleanupLookupEventsTask] {
	return func(ctx context.Context, task CleanupLookupEventsTask) error {
		if cleaner == nil {
			return fmt.Errorf("lookup event cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = defaultLookupRetentionDays
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := cleaner.DeleteOldEvents(retention)
		if err != nil {
			return fmt.Errorf("cleanup lookup events: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"deleted":        deleted,
			"retention_days": retentionDays,
		}).Info("Cleaned up lookup events")
		return nil
	}
}

// NewCleanupLookupEventsQueue creates a backlite queue for lookup cleanup tasks.
func NewCleanupLookupEventsQueue(cleaner LookupEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupLookupEventsProcessor(cleaner))
}
