// Package section narrows a Markdown document to a single heading-delimited
// region. The returned text is an exact slice of the input.
package section

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSectionNotFound is matched by errors.Is when no heading carries the
// requested title.
var ErrSectionNotFound = errors.New("section: not found")

// NotFoundError reports the section title that could not be located.
type NotFoundError struct {
	Section string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("section %q not found", e.Section)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrSectionNotFound
}

// Heading is an ATX heading discovered outside fenced code blocks.
type Heading struct {
	Title string
	Level int
	// Line is 1-based.
	Line int
	// Offset is the byte offset where the heading line starts.
	Offset int
}

// Extract returns the region of document that starts at the first heading
// titled name and stops before the next heading of the same or a shallower
// level. Titles match exactly and case-sensitively, surrounding whitespace
// included. Only the empty name returns document unchanged.
func Extract(document, name string) (string, error) {
	if name == "" {
		return document, nil
	}

	headings := Headings(document)
	for i, heading := range headings {
		if heading.Title != name {
			continue
		}
		end := len(document)
		for _, next := range headings[i+1:] {
			if next.Level <= heading.Level {
				end = next.Offset
				break
			}
		}
		return document[heading.Offset:end], nil
	}
	return "", &NotFoundError{Section: name}
}

// Headings lists the document headings in order. Lines inside fenced code
// blocks are never treated as headings.
func Headings(document string) []Heading {
	var headings []Heading
	walkLines(document, func(offset, _, number int, raw string, fenced bool) {
		if fenced {
			return
		}
		if level, title, ok := parseATX(raw); ok {
			headings = append(headings, Heading{
				Title:  title,
				Level:  level,
				Line:   number,
				Offset: offset,
			})
		}
	})
	return headings
}

// FencedRanges returns the [start, end) byte ranges covered by fenced code
// blocks, fence lines included. An unclosed fence runs to the end of the
// document.
func FencedRanges(document string) [][2]int {
	var ranges [][2]int
	walkLines(document, func(offset, end, _ int, _ string, fenced bool) {
		if !fenced {
			return
		}
		if n := len(ranges); n > 0 && ranges[n-1][1] == offset {
			ranges[n-1][1] = end
			return
		}
		ranges = append(ranges, [2]int{offset, end})
	})
	return ranges
}

// walkLines visits every line with its byte span and 1-based number. fenced
// is set for fence delimiters and the lines between them.
func walkLines(document string, visit func(offset, end, number int, raw string, fenced bool)) {
	var (
		current fence
		offset  int
		number  int
	)
	for offset < len(document) {
		next := len(document)
		if idx := strings.IndexByte(document[offset:], '\n'); idx >= 0 {
			next = offset + idx + 1
		}
		raw := strings.TrimRight(document[offset:next], "\r\n")
		number++

		fenced := true
		if current.open() {
			if current.closedBy(raw) {
				current = noFence
			}
		} else if opened, ok := openFence(raw); ok {
			current = opened
		} else {
			fenced = false
		}
		visit(offset, next, number, raw, fenced)
		offset = next
	}
}

func parseATX(line string) (int, string, bool) {
	rest, ok := trimIndent(line)
	if !ok {
		return 0, "", false
	}

	level := 0
	for level < len(rest) && rest[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest = rest[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}

	title := strings.TrimSpace(rest)
	if stripped := strings.TrimRight(title, "#"); stripped != title {
		switch {
		case stripped == "":
			title = ""
		case strings.HasSuffix(stripped, " ") || strings.HasSuffix(stripped, "\t"):
			title = strings.TrimSpace(stripped)
		}
	}
	return level, title, true
}

type fence struct {
	marker byte
	length int
}

var noFence = fence{}

func (f fence) open() bool {
	return f.length > 0
}

func (f fence) closedBy(line string) bool {
	rest, ok := trimIndent(line)
	if !ok {
		return false
	}
	run := countRun(rest, f.marker)
	if run < f.length {
		return false
	}
	return strings.TrimSpace(rest[run:]) == ""
}

func openFence(line string) (fence, bool) {
	rest, ok := trimIndent(line)
	if !ok || rest == "" {
		return noFence, false
	}
	marker := rest[0]
	if marker != '`' && marker != '~' {
		return noFence, false
	}
	run := countRun(rest, marker)
	if run < 3 {
		return noFence, false
	}
	if marker == '`' && strings.IndexByte(rest[run:], '`') >= 0 {
		return noFence, false
	}
	return fence{marker: marker, length: run}, true
}

// trimIndent strips up to three leading spaces. Deeper indentation is an
// indented code block.
func trimIndent(line string) (string, bool) {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	if indent > 3 {
		return "", false
	}
	return line[indent:], true
}

func countRun(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}
