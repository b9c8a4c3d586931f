package entities

import "time"

type LookupKind string

const (
	LookupKindSearch   LookupKind = "search"
	LookupKindLoadMore LookupKind = "load_more"
	LookupKindDetail   LookupKind = "detail"
)

type LookupStatus string

const (
	LookupStatusSuccess LookupStatus = "success"
	LookupStatusFailed  LookupStatus = "failed"
)

// LookupEvent records one upstream lookup made on behalf of a search session.
type LookupEvent struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	SessionID   string       `gorm:"index;size:64" json:"session_id"`
	Kind        LookupKind   `gorm:"index;size:20" json:"kind"`
	Query       string       `gorm:"size:500" json:"query"` // search query or work key
	Offset      int          `json:"offset"`
	ResultCount int          `json:"result_count"`
	Total       int          `json:"total"`
	Status      LookupStatus `gorm:"size:20" json:"status"`
	ErrorMsg    string       `gorm:"size:500" json:"error_msg,omitempty"`
	DurationMs  int64        `json:"duration_ms"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
}

func (LookupEvent) TableName() string {
	return "lookup_events"
}
