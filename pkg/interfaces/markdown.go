package interfaces

import "time"

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool

	// Page is the docs-relative path of the page being rendered. When set,
	// relative links to other .md pages point at their built URLs.
	Page string

	// DirectoryURLs selects guide/install/ over guide/install.html for
	// rewritten page links.
	DirectoryURLs bool
}

// Document represents a Markdown page discovered under the docs root.
type Document struct {
	// FilePath is slash separated and relative to the docs root.
	FilePath    string
	FrontMatter FrontMatter
	// Source is the raw file content including front matter.
	Source []byte
	// Body is Source without the front matter block.
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	Checksum     []byte
}

// FrontMatter models the page metadata the snippet pipeline reads. Unknown
// keys are preserved in Custom.
type FrontMatter struct {
	Title string `yaml:"title" json:"title"`
	// Snippets overrides the all_pages policy for a single page when set.
	Snippets *bool          `yaml:"snippets" json:"snippets,omitempty"`
	Custom   map[string]any `yaml:",inline" json:"custom"`
}
