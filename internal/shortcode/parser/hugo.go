package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// PlaceholderFormat is the marker left in place of every extracted shortcode.
const PlaceholderFormat = "<!-- shortcode:%d -->"

// PlaceholderPattern matches markers produced with PlaceholderFormat.
var PlaceholderPattern = regexp.MustCompile(`<!-- shortcode:(\d+) -->`)

var (
	startTagPattern   = regexp.MustCompile(`{{<\s*([^\s/>]+)((?:[^>"` + "`" + `]|"(?:[^"\\]|\\.)*"|` + "`[^`]*`" + `)*?)\s*(/?)>}}`)
	endTagPattern     = regexp.MustCompile(`{{<\s*/\s*([^\s>*]+)\s*>}}`)
	escapedTagPattern = regexp.MustCompile(`(?s){{</\*(.*?)\*/>}}`)
	// looseTagPattern catches malformed start tags (an unterminated quote) so
	// they surface as errors instead of passing through as text.
	looseTagPattern   = regexp.MustCompile(`{{<\s*([^\s/>]+)([^>]*)>}}`)
)

// HugoParser parses Hugo-style shortcodes ({{< name key="value" >}}).
// Escaped calls ({{</* name */>}}) are emitted literally without the comment
// markers.
type HugoParser struct{}

// NewHugoParser creates a parser instance.
func NewHugoParser() *HugoParser {
	return &HugoParser{}
}

// Parse returns the list of parsed shortcodes in the content.
func (p *HugoParser) Parse(content string) ([]interfaces.ParsedShortcode, error) {
	_, shortcodes, err := p.Extract(content)
	return shortcodes, err
}

type tagKind int

const (
	tagStart tagKind = iota
	tagEnd
	tagEscaped
)

// Extract replaces shortcodes with placeholders and returns both the
// transformed content and the extracted invocations. Text outside shortcodes
// is copied byte for byte.
func (p *HugoParser) Extract(content string) (string, []interfaces.ParsedShortcode, error) {
	type stackEntry struct {
		name       string
		startIndex int
		params     map[string]any
	}

	var (
		result     strings.Builder
		shortcodes []interfaces.ParsedShortcode
		stack      []stackEntry
		position   int
	)
	result.Grow(len(content))

	// inner content of an open paired shortcode accumulates in result and is
	// cut back out when the closing tag is seen
	truncate := func(n int) string {
		current := result.String()
		result.Reset()
		result.WriteString(current[:n])
		return current[n:]
	}

	for position < len(content) {
		kind, loc := nextTag(content[position:])
		if loc == nil {
			result.WriteString(content[position:])
			break
		}
		tagStartPos := position + loc[0]
		tagEndPos := position + loc[1]
		result.WriteString(content[position:tagStartPos])
		tag := content[tagStartPos:tagEndPos]

		switch kind {
		case tagEscaped:
			inner := escapedTagPattern.FindStringSubmatch(tag)[1]
			result.WriteString("{{<" + inner + ">}}")

		case tagStart:
			matches := startTagPattern.FindStringSubmatch(tag)
			if matches == nil {
				loose := looseTagPattern.FindStringSubmatch(tag)
				matches = []string{loose[0], loose[1], loose[2], ""}
			}
			name := matches[1]
			params, err := parseParams(strings.TrimSpace(matches[2]))
			if err != nil {
				return "", nil, fmt.Errorf("shortcode %s at position %d: %w", name, tagStartPos, err)
			}

			explicitSelfClose := matches[3] == "/"
			if explicitSelfClose || !hasClosingTag(content[tagEndPos:], name) {
				fmt.Fprintf(&result, PlaceholderFormat, len(shortcodes))
				shortcodes = append(shortcodes, interfaces.ParsedShortcode{
					Name:   name,
					Params: params,
				})
				break
			}
			stack = append(stack, stackEntry{
				name:       name,
				startIndex: result.Len(),
				params:     params,
			})

		case tagEnd:
			name := endTagPattern.FindStringSubmatch(tag)[1]
			if len(stack) == 0 {
				return "", nil, fmt.Errorf("unexpected closing shortcode %s at position %d", name, tagStartPos)
			}
			entry := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if entry.name != name {
				return "", nil, fmt.Errorf("mismatched shortcode end tag %s, expected %s", name, entry.name)
			}

			inner := truncate(entry.startIndex)
			fmt.Fprintf(&result, PlaceholderFormat, len(shortcodes))
			shortcodes = append(shortcodes, interfaces.ParsedShortcode{
				Name:   name,
				Params: entry.params,
				Inner:  inner,
			})
		}
		position = tagEndPos
	}

	if len(stack) > 0 {
		return "", nil, fmt.Errorf("unterminated shortcode %s", stack[len(stack)-1].name)
	}

	return result.String(), shortcodes, nil
}

// nextTag finds the earliest shortcode token in content.
func nextTag(content string) (tagKind, []int) {
	var (
		best     []int
		bestKind tagKind
	)
	candidates := []struct {
		kind    tagKind
		pattern *regexp.Regexp
	}{
		{tagEscaped, escapedTagPattern},
		{tagStart, startTagPattern},
		{tagEnd, endTagPattern},
		{tagStart, looseTagPattern},
	}
	for _, candidate := range candidates {
		loc := candidate.pattern.FindStringIndex(content)
		if loc == nil {
			continue
		}
		if best == nil || loc[0] < best[0] {
			best = loc
			bestKind = candidate.kind
		}
	}
	return bestKind, best
}

func hasClosingTag(remainder, name string) bool {
	for _, match := range endTagPattern.FindAllStringSubmatch(remainder, -1) {
		if match[1] == name {
			return true
		}
	}
	return false
}

// parseParams tokenises key="value" pairs. Values may be bare words, double
// quoted strings with backslash escapes or backtick raw strings. Bare tokens
// without a key are stored positionally as param1, param2, ...
func parseParams(raw string) (map[string]any, error) {
	params := map[string]any{}
	positional := 0

	for i := 0; i < len(raw); {
		if isSpace(raw[i]) {
			i++
			continue
		}

		key := ""
		if raw[i] != '"' && raw[i] != '`' {
			start := i
			for i < len(raw) && !isSpace(raw[i]) && raw[i] != '=' {
				i++
			}
			token := raw[start:i]
			if i >= len(raw) || raw[i] != '=' {
				positional++
				params[fmt.Sprintf("param%d", positional)] = token
				continue
			}
			key = token
			i++
			if key == "" {
				return nil, fmt.Errorf("parameter without name at offset %d", start)
			}
		}

		value, next, err := readValue(raw, i)
		if err != nil {
			return nil, err
		}
		i = next
		if key == "" {
			positional++
			key = fmt.Sprintf("param%d", positional)
		}
		params[key] = value
	}
	return params, nil
}

func readValue(raw string, i int) (string, int, error) {
	if i >= len(raw) {
		return "", i, nil
	}
	switch raw[i] {
	case '"':
		var value strings.Builder
		for j := i + 1; j < len(raw); j++ {
			switch raw[j] {
			case '\\':
				if j+1 < len(raw) {
					j++
					value.WriteByte(raw[j])
				}
			case '"':
				return value.String(), j + 1, nil
			default:
				value.WriteByte(raw[j])
			}
		}
		return "", 0, fmt.Errorf("unterminated quoted value at offset %d", i)
	case '`':
		end := strings.IndexByte(raw[i+1:], '`')
		if end < 0 {
			return "", 0, fmt.Errorf("unterminated raw value at offset %d", i)
		}
		return raw[i+1 : i+1+end], i + end + 2, nil
	default:
		start := i
		for i < len(raw) && !isSpace(raw[i]) {
			i++
		}
		return raw[start:i], i, nil
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
