package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

// Client runs the maintenance queues (lookup log cleanup and search session
// pruning) on backlite, backed by a sqlite file next to the main database.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int
	running  atomic.Bool
}

// TasksDBPath returns the queue database path for mainDBPath:
// "data/bookfinder.db" becomes "data/bookfinder-tasks.db".
func TasksDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

// NewClient opens the queue database and registers both maintenance queues.
func NewClient(mainDBPath string, cfg Config, cleaner LookupEventCleaner, pruner SessionPruner) (*Client, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}

	db, err := sql.Open("sqlite3", TasksDBPath(mainDBPath)+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	// Workers plus status reads from the HTTP API
	db.SetMaxOpenConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &logrusLogger{entry: logrus.WithField("component", "tasks")},
	})
	if err == nil {
		err = bl.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up task queue: %w", err)
	}

	bl.Register(NewCleanupLookupEventsQueue(cleaner))
	bl.Register(NewPruneSearchSessionsQueue(pruner))

	return &Client{backlite: bl, db: db, workers: cfg.Workers}, nil
}

// Start runs the workers until Stop is called. It returns immediately; a
// second call is ignored.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	logrus.WithField("workers", c.workers).Info("Task queue started")
	c.backlite.Start(ctx)
}

// Stop waits for running tasks until ctx expires and reports whether they
// all finished.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.Load() {
		return true
	}
	ok := c.backlite.Stop(ctx)
	if ok {
		logrus.Info("Task queue stopped")
	} else {
		logrus.Warn("Task queue stopped before all tasks finished")
	}
	return ok
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Enqueue adds task and returns its id.
func (c *Client) Enqueue(task backlite.Task) (string, error) {
	ids, err := c.backlite.Add(task).Save()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("task was not enqueued")
	}
	return ids[0], nil
}

// EnqueueLookupCleanup schedules deletion of lookup events older than
// retentionDays.
func (c *Client) EnqueueLookupCleanup(retentionDays int) (string, error) {
	return c.Enqueue(CleanupLookupEventsTask{RetentionDays: retentionDays})
}

// EnqueueSessionPrune schedules eviction of search sessions idle for longer
// than idleMinutes.
func (c *Client) EnqueueSessionPrune(idleMinutes int) (string, error) {
	return c.Enqueue(PruneSearchSessionsTask{IdleMinutes: idleMinutes})
}

// Status reports where a task is in its lifecycle.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.backlite.Status(ctx, taskID)
}

// logrusLogger routes backlite's log lines through logrus.
type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Info(message string, params ...any) {
	l.entry.WithFields(pairs(params)).Info(message)
}

func (l *logrusLogger) Error(message string, params ...any) {
	l.entry.WithFields(pairs(params)).Error(message)
}

// pairs turns backlite's alternating key/value params into logrus fields.
func pairs(params []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(params); i += 2 {
		fields[fmt.Sprint(params[i])] = params[i+1]
	}
	return fields
}
