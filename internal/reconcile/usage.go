package reconcile

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"time"

	"nexus/internal/document"
	"nexus/internal/model"
)

type usageCodec struct{}

func (usageCodec) entityType() model.EntityType { return model.EntityUsage }
func (usageCodec) idPrefix() string { return "usage" }
func (usageCodec) id(u *model.UsageMetric) string { return u.ID }
func (usageCodec) title(u *model.UsageMetric) string { return u.DisplayName }
func (usageCodec) updatedAt(u *model.UsageMetric) time.Time { return u.UpdatedAt }

func (usageCodec) preamble() []string {
	return []string{"# Usage Limits", ""}
}

func (usageCodec) create(e document.Entity, id string, now time.Time) (*model.UsageMetric, error) {
	title, err := checkTitle(e)
	if err != nil {
		return nil, err
	}
	u := &model.UsageMetric{
		ID:             id,
		Category:       slug(title),
		DisplayName:    title,
		Notes:          e.Body,
		Metadata:       extraAttrs(e, usageKeys),
		WarningPercent: model.DefaultWarningPercent,
		DangerPercent:  model.DefaultDangerPercent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := applyUsageAttrs(u, e); err != nil {
		return nil, err
	}
	return u, nil
}

func (usageCodec) merge(cur model.UsageMetric, e document.Entity, now time.Time) (model.UsageMetric, []string, error) {
	title, err := checkTitle(e)
	if err != nil {
		return cur, nil, err
	}
	next := cur
	next.DisplayName = title
	next.Notes = e.Body
	next.Metadata = extraAttrs(e, usageKeys)
	if err := applyUsageAttrs(&next, e); err != nil {
		return cur, nil, err
	}
	var diff changes
	diff.check("display_name", next.DisplayName != cur.DisplayName)
	diff.check("category", next.Category != cur.Category)
	diff.check("current_value", next.CurrentValue != cur.CurrentValue)
	diff.check("limit_value", next.LimitValue != cur.LimitValue)
	diff.check("period", next.Period != cur.Period)
	diff.check("unit", next.Unit != cur.Unit)
	diff.check("notes", next.Notes != cur.Notes)
	diff.check("warning_percent", next.WarningPercent != cur.WarningPercent)
	diff.check("danger_percent", next.DangerPercent != cur.DangerPercent)
	diff.check("metadata", !maps.Equal(next.Metadata, cur.Metadata))
	if len(diff) > 0 {
		next.UpdatedAt = now
	}
	return next, diff, nil
}

// applyUsageAttrs copies present annotations onto u. "progress" is derived
// and ignored on the way in.
func applyUsageAttrs(u *model.UsageMetric, e document.Entity) error {
	if v := e.Attr("category"); v != "" {
		u.Category = v
	}
	if v := e.Attr("period"); v != "" {
		u.Period = v
	}
	if v := e.Attr("unit"); v != "" {
		u.Unit = v
	}
	if v := e.Attr("current"); v != "" {
		n, err := parseCount("current", v)
		if err != nil {
			return err
		}
		u.CurrentValue = n
	}
	if v := e.Attr("limit"); v != "" {
		n, err := parseCount("limit", v)
		if err != nil {
			return err
		}
		u.LimitValue = n
	}
	if v := e.Attr("warning_percent"); v != "" {
		n, err := parsePercent("warning_percent", v)
		if err != nil {
			return err
		}
		u.WarningPercent = n
	}
	if v := e.Attr("danger_percent"); v != "" {
		n, err := parsePercent("danger_percent", v)
		if err != nil {
			return err
		}
		u.DangerPercent = n
	}
	if u.WarningPercent > u.DangerPercent {
		return &model.ValidationError{Field: "warning_percent", Msg: "must not exceed danger_percent"}
	}
	return nil
}

func (usageCodec) layout(recs []model.UsageMetric) []document.Entity {
	sorted := append([]model.UsageMetric(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayName != sorted[j].DisplayName {
			return sorted[i].DisplayName < sorted[j].DisplayName
		}
		return sorted[i].ID < sorted[j].ID
	})
	out := make([]document.Entity, 0, len(sorted))
	for _, u := range sorted {
		attrs := metadataAttrs(u.Metadata, 9)
		attrs["id"] = u.ID
		attrs["category"] = oneLine(u.Category)
		attrs["current"] = strconv.FormatInt(u.CurrentValue, 10)
		attrs["limit"] = strconv.FormatInt(u.LimitValue, 10)
		attrs["period"] = oneLine(u.Period)
		attrs["unit"] = oneLine(u.Unit)
		attrs["warning_percent"] = strconv.Itoa(u.WarningPercent)
		attrs["danger_percent"] = strconv.Itoa(u.DangerPercent)
		attrs["progress"] = fmt.Sprintf("%d%% (%s)", u.ProgressPercent(), u.Level())
		out = append(out, document.Entity{Title: oneLine(u.DisplayName), Body: u.Notes, Attrs: attrs})
	}
	return out
}
