package document

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// leadingKeys are rendered first, in this order, before the remaining keys
// sorted alphabetically.
var leadingKeys = []string{"id", "status", "priority"}

var acronyms = map[string]string{"id": "ID", "url": "URL", "api": "API"}

// Render writes d back to text. The output always carries the region markers
// so the next Parse finds the same preamble, entities and trailer.
//
// Entities must be ordered so that equal groups are adjacent; the group
// heading is written whenever it changes.
func Render(d *Document) string {
	var b strings.Builder
	for _, l := range d.Preamble {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString(BeginMarker)
	b.WriteByte('\n')

	prevGroup := ""
	for i, e := range d.Entities {
		if e.Group != "" && (i == 0 || e.Group != prevGroup) {
			b.WriteString("\n## ")
			b.WriteString(e.Group)
			b.WriteByte('\n')
		}
		prevGroup = e.Group

		b.WriteString("\n### ")
		b.WriteString(e.Title)
		b.WriteByte('\n')
		for _, k := range orderedKeys(e.Attrs) {
			b.WriteString("**")
			b.WriteString(RenderKey(k))
			b.WriteString(":** ")
			b.WriteString(e.Attrs[k])
			b.WriteByte('\n')
		}
		if e.Body != "" {
			b.WriteByte('\n')
			for _, l := range strings.Split(e.Body, "\n") {
				b.WriteString(escapeLine(l))
				b.WriteByte('\n')
			}
		}
	}

	b.WriteByte('\n')
	b.WriteString(EndMarker)
	b.WriteByte('\n')
	for _, l := range d.Trailer {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderKey turns an attribute key such as "target_completion" into the
// label "Target Completion".
func RenderKey(key string) string {
	caser := cases.Title(language.English)
	words := strings.Split(key, "_")
	for i, w := range words {
		if a, ok := acronyms[w]; ok {
			words[i] = a
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

func orderedKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	seen := make(map[string]bool, len(leadingKeys))
	for _, k := range leadingKeys {
		if v, ok := attrs[k]; ok && v != "" {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if !seen[k] && v != "" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
