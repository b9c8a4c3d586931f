package tasks

import (
	"fmt"

	"github.com/mikestefanello/backlite"
)

// TypeInfo describes a task type that can be triggered on demand.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// Types lists the task types known to the queue.
func Types() []TypeInfo {
	return []TypeInfo{
		{
			Type:        CleanupLookupEventsQueue,
			Description: "Delete lookup log entries older than the retention period",
			Queue:       CleanupLookupEventsQueue,
		},
		{
			Type:        PruneSearchSessionsQueue,
			Description: "Drop search sessions that have been idle too long",
			Queue:       PruneSearchSessionsQueue,
		},
	}
}

// Defaults supplies the parameters used when a task is built without explicit
// values.
type Defaults struct {
	LookupRetentionDays int
	SessionIdleMinutes  int
}

// NewTask builds the task for taskType.
func NewTask(taskType string, d Defaults) (backlite.Task, error) {
	switch taskType {
	case CleanupLookupEventsQueue:
		return CleanupLookupEventsTask{RetentionDays: d.LookupRetentionDays}, nil
	case PruneSearchSessionsQueue:
		return PruneSearchSessionsTask{IdleMinutes: d.SessionIdleMinutes}, nil
	default:
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}
}
