// Package document converts section documents to entities and back.
//
// A section document is Markdown with one managed region delimited by
// BeginMarker and EndMarker. Inside that region "## " headings name a group,
// "### " headings start an entity and "**Key:** value" lines annotate the
// current entity. Every other line belongs to the body of the nearest
// preceding entity. Body lines that would read as one of those forms are
// written with a leading backslash, which Parse removes. Text outside the
// region is kept verbatim.
package document

const (
	BeginMarker = "<!-- nexus:sync:begin -->"
	EndMarker   = "<!-- nexus:sync:end -->"
)

// Entity is one document-described record before it is mapped to a store type.
type Entity struct {
	// Line is the 1-based line of the entity heading in the parsed text.
	// It is zero for entities built in memory.
	Line  int
	Group string
	Title string
	Body  string
	Attrs map[string]string
}

// Attr returns the annotation value for key, or "" when absent.
func (e Entity) Attr(key string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[key]
}

// Document is a parsed section document.
type Document struct {
	Preamble []string
	Entities []Entity
	Trailer  []string
}

// WithEntities returns a copy of d whose managed region holds entities.
func (d *Document) WithEntities(entities []Entity) *Document {
	out := &Document{Entities: entities}
	if d != nil {
		out.Preamble = append([]string(nil), d.Preamble...)
		out.Trailer = append([]string(nil), d.Trailer...)
	}
	return out
}
