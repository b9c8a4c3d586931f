package lookups

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookfinder/internal/entities"
)

// Stats summarizes the lookup log.
type Stats struct {
	Total         int64                         `json:"total"`
	Failed        int64                         `json:"failed"`
	ByKind        map[entities.LookupKind]int64 `json:"by_kind"`
	AvgDurationMs float64                       `json:"avg_duration_ms"`
	Last24h       int64                         `json:"last_24h"`
}

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// LogEvent saves a lookup event.
func (r *Repository) LogEvent(event *entities.LookupEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now()
	}
	return r.db.Create(event).Error
}

// GetEvents retrieves paginated lookup events, most recent first.
func (r *Repository) GetEvents(limit, offset int) ([]entities.LookupEvent, int64, error) {
	var events []entities.LookupEvent
	var total int64

	query := r.db.Model(&entities.LookupEvent{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// GetEventsBySession retrieves the lookups of one search session, oldest first.
func (r *Repository) GetEventsBySession(sessionID string) ([]entities.LookupEvent, error) {
	var events []entities.LookupEvent
	err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Order("id ASC").Find(&events).Error
	return events, err
}

func (r *Repository) GetStats() (*Stats, error) {
	stats := &Stats{ByKind: make(map[entities.LookupKind]int64)}

	if err := r.db.Model(&entities.LookupEvent{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entities.LookupEvent{}).
		Where("status = ?", entities.LookupStatusFailed).
		Count(&stats.Failed).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&entities.LookupEvent{}).
		Where("created_at > ?", r.now().Add(-24*time.Hour)).
		Count(&stats.Last24h).Error; err != nil {
		return nil, err
	}

	var kinds []struct {
		Kind  entities.LookupKind
		Count int64
	}
	if err := r.db.Model(&entities.LookupEvent{}).
		Select("kind, COUNT(*) AS count").
		Group("kind").
		Scan(&kinds).Error; err != nil {
		return nil, err
	}
	for _, k := range kinds {
		stats.ByKind[k.Kind] = k.Count
	}

	if stats.Total > 0 {
		var avg struct{ Avg float64 }
		if err := r.db.Model(&entities.LookupEvent{}).
			Select("AVG(duration_ms) AS avg").
			Scan(&avg).Error; err != nil {
			return nil, err
		}
		stats.AvgDurationMs = avg.Avg
	}

	return stats, nil
}

// DeleteOldEvents removes lookup events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.LookupEvent{})
	return result.RowsAffected, result.Error
}
