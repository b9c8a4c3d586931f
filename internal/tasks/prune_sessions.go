package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

const (
	PruneSearchSessionsQueue = "prune_search_sessions"

	defaultSessionIdleMinutes = 30
)

// SessionPruner drops search sessions that have been idle too long.
type SessionPruner interface {
	Prune(idle time.Duration) int
}

// PruneSearchSessionsTask evicts in-memory search sessions idle longer than
// IdleMinutes. Evicted sessions are gone; the next request starts afresh.
type PruneSearchSessionsTask struct {
	IdleMinutes int `json:"idle_minutes"`
}

func (t PruneSearchSessionsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        PruneSearchSessionsQueue,
		MaxAttempts: 1,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   time.Hour,
			OnlyFailed: true,
		},
	}
}

func PruneSearchSessionsProcessor(pruner SessionPruner) backlite.QueueProcessor[PruneSearchSessionsTask] {
	return func(ctx context.Context, task PruneSearchSessionsTask) error {
		if pruner == nil {
			return fmt.Errorf("session pruner not configured")
		}

		idle := task.IdleMinutes
		if idle <= 0 {
			idle = defaultSessionIdleMinutes
		}

		removed := pruner.Prune(time.Duration(idle) * time.Minute)
		logrus.WithFields(logrus.Fields{
			"removed":      removed,
			"idle_minutes": idle,
		}).Debug("Pruned idle search sessions")
		return nil
	}
}

func NewPruneSearchSessionsQueue(pruner SessionPruner) backlite.Queue {
	return backlite.NewQueue(PruneSearchSessionsProcessor(pruner))
}
