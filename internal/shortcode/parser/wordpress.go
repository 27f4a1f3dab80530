package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var wpTagPattern = regexp.MustCompile(`\[(\/?)([a-zA-Z0-9_\-]+)((?:[^\]"]|"[^"]*")*)\]`)

// WordPressPreprocessor converts bracket shortcodes ([snippet file="x.md"])
// into Hugo syntax. Only the configured names are converted so ordinary
// Markdown link text is left alone.
type WordPressPreprocessor struct {
	names map[string]struct{}
}

// NewWordPressPreprocessor constructs a preprocessor converting the given
// shortcode names.
func NewWordPressPreprocessor(names ...string) *WordPressPreprocessor {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if trimmed := strings.ToLower(strings.TrimSpace(name)); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return &WordPressPreprocessor{names: set}
}

// Process rewrites bracket shortcodes into Hugo-style equivalents.
func (p *WordPressPreprocessor) Process(content string) string {
	if len(p.names) == 0 || !strings.Contains(content, "[") {
		return content
	}

	return wpTagPattern.ReplaceAllStringFunc(content, func(tag string) string {
		matches := wpTagPattern.FindStringSubmatch(tag)
		name := matches[2]
		if _, ok := p.names[strings.ToLower(name)]; !ok {
			return tag
		}
		if matches[1] == "/" {
			return fmt.Sprintf("{{< /%s >}}", name)
		}

		rawAttr := strings.TrimSpace(matches[3])
		closing := ""
		if strings.HasSuffix(rawAttr, "/") {
			rawAttr = strings.TrimSpace(strings.TrimSuffix(rawAttr, "/"))
			closing = "/"
		}
		if rawAttr != "" {
			rawAttr = " " + rawAttr
		}
		return fmt.Sprintf("{{< %s%s %s>}}", name, rawAttr, closing)
	})
}
