package reconcile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nexus/internal/document"
	"nexus/internal/model"
)

// codec maps one record type to document entities and back.
type codec[T any] interface {
	entityType() model.EntityType
	idPrefix() string
	id(rec *T) string
	title(rec *T) string
	updatedAt(rec *T) time.Time

	// create builds a new record from e with defaults for missing annotations.
	create(e document.Entity, id string, now time.Time) (*T, error)
	// merge applies the annotations present in e to cur and returns the
	// names of the fields that changed.
	merge(cur T, e document.Entity, now time.Time) (T, []string, error)
	// layout returns the section's entities in document order.
	layout(recs []T) []document.Entity
	// preamble is used when the section has no document yet.
	preamble() []string
}

// Annotations mapped to record fields. Everything else is kept as metadata.
var (
	projectKeys = keySet("id", "status", "priority")
	serviceKeys = keySet("id", "status", "name", "check_interval_minutes", "last_check")
	usageKeys   = keySet("id", "category", "current", "limit", "period", "unit",
		"warning_percent", "danger_percent", "progress")
)

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// extraAttrs returns the annotations of e that are not in known, or nil.
func extraAttrs(e document.Entity, known map[string]bool) map[string]string {
	var out map[string]string
	for k, v := range e.Attrs {
		if known[k] {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}
	return out
}

// metadataAttrs seeds an entity's annotations with record metadata. Field
// annotations set afterwards take precedence.
func metadataAttrs(meta map[string]string, size int) map[string]string {
	attrs := make(map[string]string, len(meta)+size)
	for k, v := range meta {
		attrs[k] = oneLine(v)
	}
	return attrs
}

// changes collects the names of differing fields.
type changes []string

func (c *changes) check(field string, differs bool) {
	if differs {
		*c = append(*c, field)
	}
}

func checkTitle(e document.Entity) (string, error) {
	t := strings.TrimSpace(e.Title)
	if err := model.ValidateTitle(t); err != nil {
		return "", err
	}
	return t, nil
}

// parseCount accepts "1,200", "1_200" and "1200".
func parseCount(field, v string) (int64, error) {
	clean := strings.NewReplacer(",", "", "_", "", " ", "").Replace(v)
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil || n < 0 {
		return 0, &model.ValidationError{Field: field, Msg: fmt.Sprintf("%q is not a non-negative number", v)}
	}
	return n, nil
}

func parsePercent(field, v string) (int, error) {
	n, err := parseCount(field, strings.TrimSuffix(strings.TrimSpace(v), "%"))
	if err != nil {
		return 0, err
	}
	if n > 100 {
		return 0, &model.ValidationError{Field: field, Msg: "must be at most 100"}
	}
	return int(n), nil
}

// slug lowercases s and joins its alphanumeric runs with underscores.
func slug(s string) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			sep = false
			continue
		}
		sep = true
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// oneLine keeps a store value from spilling into the entity body when rendered.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
