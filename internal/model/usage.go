package model

import (
	"math"
	"time"
)

// Default usage thresholds in percent of the limit.
const (
	DefaultWarningPercent = 70
	DefaultDangerPercent  = 90
)

// UsageMetric is a quota counter displayed as a usage bar.
type UsageMetric struct {
	ID             string    `json:"id"`
	Category       string    `json:"category"`
	DisplayName    string    `json:"display_name"`
	CurrentValue   int64     `json:"current_value"`
	LimitValue     int64     `json:"limit_value"`
	Period         string    `json:"period"`
	Unit           string    `json:"unit"`
	Notes          string    `json:"notes,omitempty"`
	WarningPercent int       `json:"warning_percent"`
	DangerPercent  int       `json:"danger_percent"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// ProgressPercent is current/limit rounded to a whole percent and capped at 100.
func (u UsageMetric) ProgressPercent() int {
	if u.LimitValue <= 0 {
		return 0
	}
	p := int(math.Round(float64(u.CurrentValue) / float64(u.LimitValue) * 100))
	if p > 100 {
		return 100
	}
	return p
}

// Level classifies the metric as normal, warning or danger.
func (u UsageMetric) Level() string {
	warn, danger := u.WarningPercent, u.DangerPercent
	if warn <= 0 {
		warn = DefaultWarningPercent
	}
	if danger <= 0 {
		danger = DefaultDangerPercent
	}
	p := u.ProgressPercent()
	switch {
	case p >= danger:
		return "danger"
	case p >= warn:
		return "warning"
	default:
		return "normal"
	}
}
