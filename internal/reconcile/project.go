package reconcile

import (
	"maps"
	"sort"
	"strings"
	"time"

	"nexus/internal/document"
	"nexus/internal/model"
)

const (
	groupActive    = "Active Projects"
	groupCompleted = "Completed Projects"
)

var statusLabels = map[model.ProjectStatus]string{
	model.StatusBacklog:    "📅 Backlog",
	model.StatusInProgress: "🔄 In Progress",
	model.StatusDone:       "✅ Complete",
	model.StatusArchived:   "📦 Archived",
}

// ParseStatus reads a status annotation leniently: emoji, labels and raw
// values are all accepted, anything unrecognised is backlog.
func ParseStatus(v string) model.ProjectStatus {
	n := strings.ToLower(strings.TrimSpace(v))
	switch {
	case strings.Contains(n, "progress"), strings.Contains(n, "🔄"):
		return model.StatusInProgress
	case strings.Contains(n, "done"), strings.Contains(n, "complete"), strings.Contains(n, "✅"):
		return model.StatusDone
	case strings.Contains(n, "archive"), strings.Contains(n, "📦"):
		return model.StatusArchived
	default:
		return model.StatusBacklog
	}
}

// ParsePriority maps anything that is not high or low to medium.
func ParsePriority(v string) model.ProjectPriority {
	n := strings.ToLower(v)
	switch {
	case strings.Contains(n, "high"):
		return model.PriorityHigh
	case strings.Contains(n, "low"):
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

type projectCodec struct{}

func (projectCodec) entityType() model.EntityType { return model.EntityProject }
func (projectCodec) idPrefix() string { return "proj" }
func (projectCodec) id(p *model.Project) string { return p.ID }
func (projectCodec) title(p *model.Project) string { return p.Title }
func (projectCodec) updatedAt(p *model.Project) time.Time { return p.UpdatedAt }

func (projectCodec) preamble() []string {
	return []string{
		"# Projects",
		"",
		"> Source of truth for active and planned projects.",
		"> Entries between the sync markers are rewritten on every sync.",
		"",
	}
}

func (c projectCodec) create(e document.Entity, id string, now time.Time) (*model.Project, error) {
	title, err := checkTitle(e)
	if err != nil {
		return nil, err
	}
	p := &model.Project{
		ID:          id,
		Title:       title,
		Description: projectDescription(e.Body),
		Status:      model.StatusBacklog,
		Priority:    model.PriorityMedium,
		Metadata:    extraAttrs(e, projectKeys),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if v := e.Attr("status"); v != "" {
		p.Status = ParseStatus(v)
	}
	if v := e.Attr("priority"); v != "" {
		p.Priority = ParsePriority(v)
	}
	return p, nil
}

func (c projectCodec) merge(cur model.Project, e document.Entity, now time.Time) (model.Project, []string, error) {
	title, err := checkTitle(e)
	if err != nil {
		return cur, nil, err
	}
	next := cur
	next.Title = title
	next.Description = projectDescription(e.Body)
	if v := e.Attr("status"); v != "" {
		next.Status = ParseStatus(v)
	}
	if v := e.Attr("priority"); v != "" {
		next.Priority = ParsePriority(v)
	}
	next.Metadata = extraAttrs(e, projectKeys)

	var diff changes
	diff.check("title", next.Title != cur.Title)
	diff.check("description", next.Description != cur.Description)
	diff.check("status", next.Status != cur.Status)
	diff.check("priority", next.Priority != cur.Priority)
	diff.check("metadata", !maps.Equal(next.Metadata, cur.Metadata))
	if len(diff) > 0 {
		next.UpdatedAt = now
	}
	return next, diff, nil
}

func (c projectCodec) layout(recs []model.Project) []document.Entity {
	var active, completed []model.Project
	for _, p := range recs {
		switch p.Status {
		case model.StatusDone, model.StatusArchived:
			completed = append(completed, p)
		default:
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if ra, rb := activeRank(a.Status), activeRank(b.Status); ra != rb {
			return ra < rb
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Title < b.Title
	})
	sort.SliceStable(completed, func(i, j int) bool {
		a, b := completed[i], completed[j]
		if a.Status != b.Status {
			return a.Status == model.StatusDone
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.Title < b.Title
	})

	out := make([]document.Entity, 0, len(recs))
	for _, p := range active {
		out = append(out, projectEntity(p, groupActive))
	}
	for _, p := range completed {
		out = append(out, projectEntity(p, groupCompleted))
	}
	return out
}

func activeRank(s model.ProjectStatus) int {
	if s == model.StatusInProgress {
		return 0
	}
	return 1
}

func projectEntity(p model.Project, group string) document.Entity {
	attrs := metadataAttrs(p.Metadata, 3)
	attrs["id"] = p.ID
	attrs["status"] = statusLabels[p.Status]
	attrs["priority"] = capitalize(string(p.Priority))
	return document.Entity{Group: group, Title: oneLine(p.Title), Body: p.Description, Attrs: attrs}
}

// projectDescription drops a leading empty "**Description:**" label left
// over from hand-written documents.
func projectDescription(body string) string {
	first, rest, _ := strings.Cut(body, "\n")
	if strings.TrimSpace(first) == "**Description:**" {
		return strings.TrimSpace(rest)
	}
	return body
}
