package reconcile

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
	"time"

	"nexus/internal/document"
	"nexus/internal/model"
)

type serviceCodec struct{}

func (serviceCodec) entityType() model.EntityType { return model.EntityService }
func (serviceCodec) idPrefix() string { return "svc" }
func (serviceCodec) id(s *model.Service) string { return s.ID }
func (serviceCodec) title(s *model.Service) string { return s.DisplayName }
func (serviceCodec) updatedAt(s *model.Service) time.Time { return s.UpdatedAt }

func (serviceCodec) preamble() []string {
	return []string{"# Connected Services", ""}
}

func parseServiceStatus(v string) (model.ServiceStatus, error) {
	n := strings.ToLower(v)
	for _, s := range []model.ServiceStatus{model.ServiceAttention, model.ServiceOffline, model.ServiceOnline} {
		if strings.Contains(n, string(s)) {
			return s, nil
		}
	}
	return "", &model.ValidationError{Field: "status", Msg: fmt.Sprintf("unknown service status %q", v)}
}

func parseInterval(v string) (int, error) {
	n, err := parseCount("check_interval_minutes", strings.TrimSuffix(strings.TrimSpace(v), "m"))
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, &model.ValidationError{Field: "check_interval_minutes", Msg: "must be positive"}
	}
	return int(n), nil
}

func (serviceCodec) create(e document.Entity, id string, now time.Time) (*model.Service, error) {
	title, err := checkTitle(e)
	if err != nil {
		return nil, err
	}
	s := &model.Service{
		ID:                   id,
		Name:                 slug(title),
		DisplayName:          title,
		Status:               model.ServiceOffline,
		CheckIntervalMinutes: model.DefaultCheckIntervalMinutes,
		Notes:                e.Body,
		Metadata:             extraAttrs(e, serviceKeys),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := applyServiceAttrs(s, e); err != nil {
		return nil, err
	}
	return s, nil
}

func (serviceCodec) merge(cur model.Service, e document.Entity, now time.Time) (model.Service, []string, error) {
	title, err := checkTitle(e)
	if err != nil {
		return cur, nil, err
	}
	next := cur
	next.DisplayName = title
	next.Notes = e.Body
	next.Metadata = extraAttrs(e, serviceKeys)
	if err := applyServiceAttrs(&next, e); err != nil {
		return cur, nil, err
	}
	var diff changes
	diff.check("display_name", next.DisplayName != cur.DisplayName)
	diff.check("name", next.Name != cur.Name)
	diff.check("status", next.Status != cur.Status)
	diff.check("check_interval_minutes", next.CheckIntervalMinutes != cur.CheckIntervalMinutes)
	diff.check("notes", next.Notes != cur.Notes)
	diff.check("metadata", !maps.Equal(next.Metadata, cur.Metadata))
	if len(diff) > 0 {
		next.UpdatedAt = now
	}
	return next, diff, nil
}

func applyServiceAttrs(s *model.Service, e document.Entity) error {
	if v := e.Attr("name"); v != "" {
		s.Name = v
	}
	if v := e.Attr("status"); v != "" {
		st, err := parseServiceStatus(v)
		if err != nil {
			return err
		}
		s.Status = st
	}
	if v := e.Attr("check_interval_minutes"); v != "" {
		n, err := parseInterval(v)
		if err != nil {
			return err
		}
		s.CheckIntervalMinutes = n
	}
	return nil
}

func (serviceCodec) layout(recs []model.Service) []document.Entity {
	sorted := append([]model.Service(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayName != sorted[j].DisplayName {
			return sorted[i].DisplayName < sorted[j].DisplayName
		}
		return sorted[i].ID < sorted[j].ID
	})
	out := make([]document.Entity, 0, len(sorted))
	for _, s := range sorted {
		attrs := metadataAttrs(s.Metadata, 5)
		attrs["id"] = s.ID
		attrs["status"] = capitalize(string(s.Status))
		attrs["name"] = oneLine(s.Name)
		attrs["check_interval_minutes"] = strconv.Itoa(s.CheckIntervalMinutes)
		if s.LastCheck != nil {
			attrs["last_check"] = s.LastCheck.UTC().Format(time.RFC3339)
		}
		out = append(out, document.Entity{Title: oneLine(s.DisplayName), Body: s.Notes, Attrs: attrs})
	}
	return out
}
