package audit

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookfinder/internal/database/lookups"
	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/logger"
	"github.com/mrlokans/bookfinder/internal/search"
)

// Store persists lookup events.
type Store interface {
	LogEvent(event *entities.LookupEvent) error
	GetEvents(limit, offset int) ([]entities.LookupEvent, int64, error)
	GetStats() (*lookups.Stats, error)
	DeleteOldEvents(olderThan time.Time) (int64, error)
}

var _ Store = (*lookups.Repository)(nil)

// Service records upstream lookups made on behalf of search sessions.
// The log is write-only from the search path; nothing reads it back to
// answer a query.
type Service struct {
	repo Store
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Log records a lookup event synchronously.
func (s *Service) Log(event *entities.LookupEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records a lookup event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.LookupEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			logrus.WithError(err).WithField("kind", event.Kind).Warn("Failed to log lookup event")
		}
	}()
}

// Wait blocks until all pending LogAsync writes have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// SessionHook returns a lookup hook that records every page fetched by the
// search session identified by sessionID.
func (s *Service) SessionHook(sessionID string) search.LookupFunc {
	return func(ctx context.Context, l search.Lookup) {
		kind := entities.LookupKindSearch
		if l.Offset > 0 {
			kind = entities.LookupKindLoadMore
		}

		event := &entities.LookupEvent{
			SessionID:   sessionID,
			Kind:        kind,
			Query:       truncate(l.Query, 500),
			Offset:      l.Offset,
			ResultCount: l.ResultCount,
			Total:       l.Total,
			Status:      entities.LookupStatusSuccess,
			DurationMs:  l.Duration.Milliseconds(),
		}
		if l.Err != nil {
			event.Status = entities.LookupStatusFailed
			event.ErrorMsg = truncate(l.Err.Error(), 500)
		}

		logger.For(ctx).WithFields(logrus.Fields{
			"session": sessionID,
			"kind":    kind,
			"offset":  l.Offset,
			"stale":   l.Stale,
		}).Debug("Lookup recorded")

		s.LogAsync(event)
	}
}

// LogDetail records a detail lookup for workKey.
func (s *Service) LogDetail(sessionID, workKey string, duration time.Duration, err error) {
	event := &entities.LookupEvent{
		SessionID:  sessionID,
		Kind:       entities.LookupKindDetail,
		Query:      truncate(workKey, 500),
		Status:     entities.LookupStatusSuccess,
		DurationMs: duration.Milliseconds(),
	}
	if err != nil {
		event.Status = entities.LookupStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	} else {
		event.ResultCount = 1
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated lookup events.
func (s *Service) GetEvents(limit, offset int) ([]entities.LookupEvent, int64, error) {
	return s.repo.GetEvents(limit, offset)
}

func (s *Service) GetStats() (*lookups.Stats, error) {
	return s.repo.GetStats()
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to at most maxLen bytes without splitting a
// multi-byte character.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
