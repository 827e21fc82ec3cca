package staleness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/internal/model"
)

var base = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func stateAt(last time.Time, threshold int) *model.SyncState {
	return &model.SyncState{Section: model.SectionProjects, LastSync: &last, StaleAfterMinutes: threshold}
}

func TestCheck_NeverSynced(t *testing.T) {
	for _, st := range []*model.SyncState{nil, {Section: model.SectionProjects, StaleAfterMinutes: 30}} {
		c := Check(model.SectionProjects, st, base)
		assert.True(t, c.IsStale)
		assert.Nil(t, c.LastSync)
		assert.Nil(t, c.MinutesSinceSync)
	}
	assert.Equal(t, model.DefaultStaleAfterMinutes, Check(model.SectionProjects, nil, base).StaleAfterMinutes)
}

func TestCheck_FloorsMinutes(t *testing.T) {
	c := Check(model.SectionProjects, stateAt(base.Add(-9*time.Minute-59*time.Second), 10), base)
	require.NotNil(t, c.MinutesSinceSync)
	assert.Equal(t, 9, *c.MinutesSinceSync)
	assert.False(t, c.IsStale)

	c = Check(model.SectionProjects, stateAt(base.Add(-10*time.Minute), 10), base)
	assert.Equal(t, 10, *c.MinutesSinceSync)
	assert.True(t, c.IsStale, "stale exactly at the threshold")
}

func TestCheck_ClockSkewClampsToZero(t *testing.T) {
	c := Check(model.SectionProjects, stateAt(base.Add(5*time.Minute), 10), base)
	assert.Equal(t, 0, *c.MinutesSinceSync)
	assert.False(t, c.IsStale)
}

func TestCheck_DefaultThreshold(t *testing.T) {
	c := Check(model.SectionServices, stateAt(base.Add(-11*time.Minute), 0), base)
	assert.Equal(t, 10, c.StaleAfterMinutes)
	assert.True(t, c.IsStale)
}

func TestCheck_Monotonic(t *testing.T) {
	st := stateAt(base, 15)
	prevMinutes := -1
	flipped := false
	for s := 0; s <= 60*60; s += 7 {
		c := Check(model.SectionProjects, st, base.Add(time.Duration(s)*time.Second))
		require.GreaterOrEqual(t, *c.MinutesSinceSync, prevMinutes)
		prevMinutes = *c.MinutesSinceSync
		if flipped {
			require.True(t, c.IsStale, "isStale must not flap back at %ds", s)
		}
		if c.IsStale {
			flipped = true
			assert.GreaterOrEqual(t, *c.MinutesSinceSync, 15)
		}
	}
	assert.True(t, flipped)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		check model.StalenessCheck
		want  model.Indicator
	}{
		{
			name:  "never synced",
			check: Check(model.SectionProjects, nil, base),
			want:  model.Indicator{Text: "Never synced", Color: ColorAlert, Icon: IconWarning, ShouldRefresh: true},
		},
		{
			name:  "fresh",
			check: Check(model.SectionProjects, stateAt(base.Add(-3*time.Minute), 10), base),
			want:  model.Indicator{Text: "3m ago", Color: ColorSuccess, Icon: IconCheck},
		},
		{
			name:  "stale beyond twice the threshold",
			check: Check(model.SectionProjects, stateAt(base.Add(-25*time.Minute), 10), base),
			want:  model.Indicator{Text: "25m ago", Color: ColorAlert, Icon: IconWarning, ShouldRefresh: true},
		},
		{
			name:  "stale at exactly twice the threshold",
			check: Check(model.SectionProjects, stateAt(base.Add(-20*time.Minute), 10), base),
			want:  model.Indicator{Text: "20m ago", Color: ColorWarning, Icon: IconClock, ShouldRefresh: true},
		},
		{
			name:  "stale",
			check: Check(model.SectionProjects, stateAt(base.Add(-2*time.Hour), 90), base),
			want:  model.Indicator{Text: "2h ago", Color: ColorWarning, Icon: IconClock, ShouldRefresh: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.check))
		})
	}
}

func TestRelativeText(t *testing.T) {
	last := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "Just now", RelativeText(0, last))
	assert.Equal(t, "59m ago", RelativeText(59, last))
	assert.Equal(t, "1h ago", RelativeText(60, last))
	assert.Equal(t, "23h ago", RelativeText(24*60-1, last))
	assert.Equal(t, "3d ago", RelativeText(3*24*60, last))
	assert.Equal(t, "30d ago", RelativeText(30*24*60, last))
	assert.Equal(t, "2026-08-01", RelativeText(30*24*60+1, last))
}

func TestMessage(t *testing.T) {
	msg := func(d time.Duration) string {
		return Message(Check(model.SectionProjects, stateAt(base.Add(-d), 10), base))
	}
	assert.Equal(t, "Never synced", Message(Check(model.SectionProjects, nil, base)))
	assert.Equal(t, "Just now", msg(30*time.Second))
	assert.Equal(t, "1 minute ago", msg(time.Minute))
	assert.Equal(t, "5 minutes ago", msg(5*time.Minute))
	assert.Equal(t, "1 hour ago", msg(90*time.Minute))
	assert.Equal(t, "2 days ago", msg(50*time.Hour))
}
