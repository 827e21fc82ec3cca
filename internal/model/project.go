package model

import (
	"strings"
	"time"
)

// ProjectStatus is the Kanban column a project lives in.
type ProjectStatus string

const (
	StatusBacklog    ProjectStatus = "backlog"
	StatusInProgress ProjectStatus = "in_progress"
	StatusDone       ProjectStatus = "done"
	StatusArchived   ProjectStatus = "archived"
)

// ProjectPriority orders projects inside a column.
type ProjectPriority string

const (
	PriorityHigh   ProjectPriority = "high"
	PriorityMedium ProjectPriority = "medium"
	PriorityLow    ProjectPriority = "low"
)

// MaxTitleLength is the longest title accepted for any synced record.
const MaxTitleLength = 200

// Project is a tracked piece of work shown on the board.
// Metadata carries free-form annotations (started, target completion, ...) that
// round-trip through the projects document.
type Project struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      ProjectStatus     `json:"status"`
	Priority    ProjectPriority   `json:"priority"`
	SortOrder   int               `json:"sort_order"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusBacklog, StatusInProgress, StatusDone, StatusArchived:
		return true
	}
	return false
}

// Valid reports whether p is a known priority.
func (p ProjectPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank returns 0 for high, 1 for medium and 2 for low.
func (p ProjectPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// ValidateTitle checks the title invariant shared by every synced record.
func ValidateTitle(title string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return &ValidationError{Field: "title", Msg: "title cannot be empty"}
	}
	if len([]rune(t)) > MaxTitleLength {
		return &ValidationError{Field: "title", Msg: "title must be at most 200 characters"}
	}
	return nil
}
