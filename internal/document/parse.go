package document

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"nexus/internal/model"
)

var annotationRE = regexp.MustCompile(`^\*\*([A-Za-z0-9][A-Za-z0-9 _-]*):\*\*\s*(.*)$`)

// Parse splits text into preamble, entities and trailer.
//
// Only text that cannot be tokenized into lines (NUL bytes, invalid UTF-8)
// yields a *model.ParseError. Everything else is accepted: unknown lines are
// kept in the body of the nearest preceding entity and malformed annotations
// stay in the body instead of becoming attributes.
func Parse(text string) (*Document, error) {
	lines := splitLines(text)
	for i, l := range lines {
		if strings.ContainsRune(l, 0) {
			return nil, &model.ParseError{Line: i + 1, Msg: "NUL byte in document"}
		}
		if !utf8.ValidString(l) {
			return nil, &model.ParseError{Line: i + 1, Msg: "invalid UTF-8"}
		}
	}

	doc := &Document{}
	start, end := regionBounds(lines)
	doc.Preamble = append(doc.Preamble, lines[:start]...)
	if start == len(lines) {
		return doc, nil
	}
	bodyStart := start
	if isMarker(lines[start], BeginMarker) {
		bodyStart++
	}
	if end < len(lines) {
		doc.Trailer = append(doc.Trailer, lines[end+1:]...)
	}

	var (
		group  string
		cur    *Entity
		body   []string
		orphan []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Body = joinBody(body)
		doc.Entities = append(doc.Entities, *cur)
		cur, body = nil, nil
	}

	for i := bodyStart; i < end; i++ {
		line := lines[i]
		if title, ok := heading(line, "### "); ok {
			flush()
			cur = &Entity{Line: i + 1, Group: group, Title: title, Attrs: map[string]string{}}
			continue
		}
		if g, ok := heading(line, "## "); ok {
			// A group heading does not close the current entity: loose lines
			// after it still belong to the entity above.
			group = g
			continue
		}
		if cur == nil {
			if strings.TrimSpace(line) != "" {
				orphan = append(orphan, line)
			}
			continue
		}
		if key, val, ok := parseAnnotation(line); ok {
			if _, dup := cur.Attrs[key]; !dup {
				cur.Attrs[key] = val
				continue
			}
		}
		body = append(body, unescapeLine(line))
	}
	flush()

	if len(orphan) > 0 {
		doc.Preamble = append(doc.Preamble, orphan...)
	}
	return doc, nil
}

// regionBounds returns the index of the first managed line (or the begin
// marker) and the index of the end marker, or len(lines) when absent.
// Documents without markers are managed from their first "## " or "### "
// heading to the end.
func regionBounds(lines []string) (int, int) {
	for i, l := range lines {
		if isMarker(l, BeginMarker) {
			for j := i + 1; j < len(lines); j++ {
				if isMarker(lines[j], EndMarker) {
					return i, j
				}
			}
			return i, len(lines)
		}
	}
	for i, l := range lines {
		if strings.HasPrefix(l, "## ") || strings.HasPrefix(l, "### ") {
			return i, len(lines)
		}
	}
	return len(lines), len(lines)
}

func isMarker(line, marker string) bool {
	return strings.TrimSpace(line) == marker
}

func heading(line, prefix string) (string, bool) {
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	t := strings.TrimSpace(line[len(prefix):])
	if t == "" {
		return "", false
	}
	return norm.NFC.String(t), true
}

// isSyntax reports whether line, read inside the managed region, would be
// taken as a heading, an annotation or a region marker.
func isSyntax(line string) bool {
	if _, ok := heading(line, "## "); ok {
		return true
	}
	if _, ok := heading(line, "### "); ok {
		return true
	}
	if isMarker(line, BeginMarker) || isMarker(line, EndMarker) {
		return true
	}
	_, _, ok := parseAnnotation(line)
	return ok
}

// escapeLine prefixes a body line with a backslash when it would otherwise
// be read back as syntax. Lines that already start with backslashes before
// such syntax get one more, so unescapeLine is its exact inverse.
func escapeLine(line string) string {
	if isSyntax(strings.TrimLeft(line, `\`)) {
		return `\` + line
	}
	return line
}

func unescapeLine(line string) string {
	if strings.HasPrefix(line, `\`) && isSyntax(strings.TrimLeft(line, `\`)) {
		return line[1:]
	}
	return line
}

func parseAnnotation(line string) (string, string, bool) {
	m := annotationRE.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", false
	}
	key := NormalizeKey(m[1])
	val := strings.TrimSpace(m[2])
	if key == "" || val == "" {
		return "", "", false
	}
	return key, val, true
}

// NormalizeKey maps an annotation label such as "Target Completion" to its
// attribute key "target_completion".
func NormalizeKey(label string) string {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	})
	return strings.Join(fields, "_")
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinBody(lines []string) string {
	first, last := 0, len(lines)
	for first < last && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	for last > first && strings.TrimSpace(lines[last-1]) == "" {
		last--
	}
	return strings.Join(lines[first:last], "\n")
}
