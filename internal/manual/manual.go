// Package manual indexes the operations manual document by its "## " sections.
package manual

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Section is one "## " section of the manual.
type Section struct {
	Name    string `json:"name"`
	Anchor  string `json:"anchor"`
	Content string `json:"content"`
}

// Split returns the manual's sections in document order. Text before the
// first "## " heading is not part of any section.
func Split(text string) []Section {
	var (
		out  []Section
		cur  *Section
		body []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Content = strings.TrimSpace(strings.Join(body, "\n"))
		out = append(out, *cur)
		cur, body = nil, nil
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			name := strings.TrimSpace(line[3:])
			cur = &Section{Name: name, Anchor: Anchor(name)}
			continue
		}
		if cur != nil {
			body = append(body, line)
		}
	}
	flush()
	return out
}

// Anchor lowercases name and collapses every run of non-alphanumerics into
// a single '-'.
func Anchor(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

// Entry is a table of contents line.
type Entry struct {
	Name   string `json:"name"`
	Anchor string `json:"anchor"`
}

// TOC lists the section names and anchors.
func TOC(sections []Section) []Entry {
	out := make([]Entry, 0, len(sections))
	for _, s := range sections {
		out = append(out, Entry{Name: s.Name, Anchor: s.Anchor})
	}
	return out
}

// Search returns the sections whose name or content contains query,
// ignoring case. An empty query matches everything.
func Search(sections []Section, query string) []Section {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if q == "" || strings.Contains(fold.String(s.Name), q) || strings.Contains(fold.String(s.Content), q) {
			out = append(out, s)
		}
	}
	return out
}

