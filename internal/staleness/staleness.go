// Package staleness derives per-section freshness from sync metadata.
package staleness

import (
	"fmt"
	"time"

	"nexus/internal/model"
)

// Display colors and icons used by the dashboard.
const (
	ColorSuccess = "#10b981"
	ColorWarning = "#f59e0b"
	ColorAlert   = "#ef4444"

	IconCheck   = "✓"
	IconClock   = "⏱️"
	IconWarning = "⚠️"
)

const absoluteAfterMinutes = 30 * 24 * 60

// Check computes the staleness of section at now. state may be nil when the
// section has never been synced.
func Check(section model.Section, state *model.SyncState, now time.Time) model.StalenessCheck {
	c := model.StalenessCheck{
		Section:           section,
		IsStale:           true,
		StaleAfterMinutes: state.Threshold(),
	}
	if state == nil || state.LastSync == nil {
		return c
	}
	last := *state.LastSync
	minutes := int(now.Sub(last) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	c.LastSync = &last
	c.MinutesSinceSync = &minutes
	c.IsStale = minutes >= c.StaleAfterMinutes
	return c
}

// Overdue reports whether a stale section has gone more than twice its
// threshold without a sync.
func Overdue(c model.StalenessCheck) bool {
	return c.MinutesSinceSync != nil && *c.MinutesSinceSync > 2*c.StaleAfterMinutes
}

// Classify maps a check to one of four display tiers.
func Classify(c model.StalenessCheck) model.Indicator {
	if c.LastSync == nil || c.MinutesSinceSync == nil {
		return model.Indicator{Text: "Never synced", Color: ColorAlert, Icon: IconWarning, ShouldRefresh: true}
	}
	text := RelativeText(*c.MinutesSinceSync, *c.LastSync)
	switch {
	case !c.IsStale:
		return model.Indicator{Text: text, Color: ColorSuccess, Icon: IconCheck}
	case Overdue(c):
		return model.Indicator{Text: text, Color: ColorAlert, Icon: IconWarning, ShouldRefresh: true}
	default:
		return model.Indicator{Text: text, Color: ColorWarning, Icon: IconClock, ShouldRefresh: true}
	}
}

// RelativeText formats elapsed minutes compactly ("5m ago", "3h ago", "2d ago").
// Beyond 30 days the absolute date of lastSync is used instead.
func RelativeText(minutes int, lastSync time.Time) string {
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%dh ago", minutes/60)
	case minutes <= absoluteAfterMinutes:
		return fmt.Sprintf("%dd ago", minutes/(24*60))
	default:
		return lastSync.Format("2006-01-02")
	}
}

// Message is the long-form text used by the per-section health endpoint.
func Message(c model.StalenessCheck) string {
	if c.LastSync == nil || c.MinutesSinceSync == nil {
		return "Never synced"
	}
	m := *c.MinutesSinceSync
	if m < 1 {
		return "Just now"
	}
	if m < 60 {
		return plural(m, "minute") + " ago"
	}
	h := m / 60
	if h < 24 {
		return plural(h, "hour") + " ago"
	}
	return plural(h/24, "day") + " ago"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
