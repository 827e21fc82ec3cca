package model

import "time"

// DefaultStaleAfterMinutes applies when a section has no configured threshold.
const DefaultStaleAfterMinutes = 10

// SyncState is the persisted per-section sync metadata.
// A nil LastSync means the section has never been synced.
type SyncState struct {
	Section           Section    `json:"section"`
	LastSync          *time.Time `json:"last_sync"`
	StaleAfterMinutes int        `json:"stale_after_minutes"`
	ETag              string     `json:"etag,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
	RetryCount        int        `json:"retry_count"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Threshold returns the configured staleness threshold or the default.
func (s *SyncState) Threshold() int {
	if s == nil || s.StaleAfterMinutes <= 0 {
		return DefaultStaleAfterMinutes
	}
	return s.StaleAfterMinutes
}

// Direction selects which side a reconciliation writes to.
type Direction string

const (
	DocumentToStore Direction = "document_to_store"
	StoreToDocument Direction = "store_to_document"
	Bidirectional   Direction = "bidirectional"
)

// ParseDirection maps an empty value to Bidirectional and rejects unknown values.
func ParseDirection(v string) (Direction, error) {
	switch Direction(v) {
	case "":
		return Bidirectional, nil
	case DocumentToStore, StoreToDocument, Bidirectional:
		return Direction(v), nil
	}
	return "", &ValidationError{Field: "direction", Msg: "direction must be one of document_to_store, store_to_document, bidirectional"}
}

// ConflictResolution decides which side wins when a record differs from
// its document entity and was also changed in the store since the last sync.
type ConflictResolution string

const (
	PreferDocument ConflictResolution = "prefer_document"
	PreferStore    ConflictResolution = "prefer_store"
	// ResolveManually keeps the store version and reports the conflict as an error.
	ResolveManually ConflictResolution = "manual"
)

// ParseConflictResolution maps an empty value to PreferDocument.
func ParseConflictResolution(v string) (ConflictResolution, error) {
	switch ConflictResolution(v) {
	case "":
		return PreferDocument, nil
	case PreferDocument, PreferStore, ResolveManually:
		return ConflictResolution(v), nil
	}
	return "", &ValidationError{Field: "conflict_resolution", Msg: "conflict_resolution must be one of prefer_document, prefer_store, manual"}
}

// Conflict resolutions recorded on a Conflict.
const (
	KeptDocument = "kept_document"
	KeptStore    = "kept_store"
)

// Conflict is a record edited on both sides since the last sync.
type Conflict struct {
	EntityType EntityType `json:"entity_type"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Line       int        `json:"line"`
	Fields     []string   `json:"fields"`
	Resolution string     `json:"resolution"`
	Reason     string     `json:"reason"`
}

// Counts tallies the mutations applied for one entity type.
type Counts struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
	Conflicts int `json:"conflicts"`
}

// SyncResult describes one reconciliation of a section.
// Success is false only when the section failed as a whole; per-record
// failures are listed in Errors.
type SyncResult struct {
	Section    Section               `json:"section"`
	Direction  Direction             `json:"direction"`
	Success    bool                  `json:"success"`
	DryRun     bool                  `json:"dry_run,omitempty"`
	DurationMS int64                 `json:"duration_ms"`
	Counts     map[EntityType]Counts `json:"counts"`
	Created    []string              `json:"created"`
	Updated    []string              `json:"updated"`
	Conflicts  []Conflict            `json:"conflicts"`
	Errors     []string              `json:"errors"`
	Timestamp  time.Time             `json:"timestamp"`
}

// AllResult aggregates a reconciliation over every section.
type AllResult struct {
	Success    bool                    `json:"success"`
	DurationMS int64                   `json:"duration_ms"`
	Results    map[Section]*SyncResult `json:"results"`
	Errors     []string                `json:"errors"`
	Timestamp  time.Time               `json:"timestamp"`
}

// StalenessCheck is derived from a SyncState and the current time.
type StalenessCheck struct {
	Section           Section    `json:"section"`
	IsStale           bool       `json:"is_stale"`
	LastSync          *time.Time `json:"last_sync"`
	StaleAfterMinutes int        `json:"stale_after_minutes"`
	MinutesSinceSync  *int       `json:"minutes_since_sync"`
}

// Indicator is the display projection of a StalenessCheck.
type Indicator struct {
	Text          string `json:"text"`
	Color         string `json:"color"`
	Icon          string `json:"icon"`
	ShouldRefresh bool   `json:"should_refresh"`
}
