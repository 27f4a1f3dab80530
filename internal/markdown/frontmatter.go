package markdown

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and the Markdown body from source. Pages
// without a front matter block return an empty FrontMatter and the full
// source as body.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return envelopeToFrontMatter(meta), body, nil
}

// SplitFrontMatter returns the leading front matter block exactly as written
// and the remaining body.
func SplitFrontMatter(source []byte) ([]byte, []byte, error) {
	_, header, body, err := SplitPage(source)
	return header, body, err
}

// SplitPage parses the front matter of source and also returns the raw block
// and the body, so callers can rewrite the body and reattach the header.
func SplitPage(source []byte) (interfaces.FrontMatter, []byte, []byte, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return interfaces.FrontMatter{}, nil, nil, err
	}
	if !bytes.HasSuffix(source, body) {
		return fm, nil, source, nil
	}
	return fm, source[:len(source)-len(body)], body, nil
}

// BuildDocument assembles an interfaces.Document from the supplied file path,
// raw content and modification time. BodyHTML is left empty so callers can
// render lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	return &interfaces.Document{
		FilePath:     path,
		FrontMatter:  fm,
		Source:       source,
		Body:         body,
		LastModified: modified,
	}, nil
}

type frontMatterEnvelope struct {
	Title    string         `yaml:"title" toml:"title" json:"title"`
	Snippets *bool          `yaml:"snippets" toml:"snippets" json:"snippets"`
	Custom   map[string]any `yaml:",inline"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) interfaces.FrontMatter {
	custom := make(map[string]any, len(env.Custom))
	for key, value := range env.Custom {
		custom[key] = value
	}
	var snippets *bool
	if env.Snippets != nil {
		value := *env.Snippets
		snippets = &value
	}

	return interfaces.FrontMatter{
		Title:    env.Title,
		Snippets: snippets,
		Custom:   custom,
	}
}
