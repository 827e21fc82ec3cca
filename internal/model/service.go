package model

import "time"

// ServiceStatus is the health of a connected third-party service.
type ServiceStatus string

const (
	ServiceOnline    ServiceStatus = "online"
	ServiceAttention ServiceStatus = "attention"
	ServiceOffline   ServiceStatus = "offline"
)

// DefaultCheckIntervalMinutes is used when a service document omits the interval.
const DefaultCheckIntervalMinutes = 60

// Service is a connected third-party integration (calendar, backups, ...).
type Service struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	DisplayName          string        `json:"display_name"`
	Status               ServiceStatus `json:"status"`
	CheckIntervalMinutes int           `json:"check_interval_minutes"`
	Notes                string        `json:"notes,omitempty"`
	LastCheck            *time.Time    `json:"last_check,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`

	// Metadata holds document annotations with no dedicated column.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Valid reports whether s is a known service status.
func (s ServiceStatus) Valid() bool {
	switch s {
	case ServiceOnline, ServiceAttention, ServiceOffline:
		return true
	}
	return false
}
