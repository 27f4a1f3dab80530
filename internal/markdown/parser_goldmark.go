package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// GoldmarkParser renders expanded pages to HTML fragments for html builds.
// Engines are built once per distinct option set and shared, so a build of
// many pages with the same options configures goldmark a single time.
type GoldmarkParser struct {
	defaults interfaces.ParseOptions
	engines  sync.Map
}

// NewGoldmarkParser constructs a parser. Without extensions the engine uses
// GFM, linkify and task lists. Raw HTML passes through unless SafeMode is set.
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{defaults: defaults}
}

// Parse renders markdown with the parser defaults.
func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return p.ParseWithOptions(markdown, p.defaults)
}

// ParseWithOptions renders markdown with opts. When opts.Page is set,
// relative links to other .md pages are rewritten to the URLs those pages
// are built to.
func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	engine := p.engine(opts)
	pc := parser.NewContext()
	if opts.Page != "" {
		pc.Set(linkTargetKey, linkTarget{page: opts.Page, directoryURLs: opts.DirectoryURLs})
	}

	var buf bytes.Buffer
	if err := engine.Convert(markdown, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("markdown parse %s: %w", opts.Page, err)
	}
	return buf.Bytes(), nil
}

func (p *GoldmarkParser) engine(opts interfaces.ParseOptions) goldmark.Markdown {
	names := extensionNames(opts.Extensions)
	key := fmt.Sprintf("%s|wraps=%t|safe=%t", strings.Join(names, ","), opts.HardWraps, opts.SafeMode)
	if cached, ok := p.engines.Load(key); ok {
		return cached.(goldmark.Markdown)
	}
	engine, _ := p.engines.LoadOrStore(key, newGoldmarkEngine(names, opts))
	return engine.(goldmark.Markdown)
}

func newGoldmarkEngine(names []string, opts interfaces.ParseOptions) goldmark.Markdown {
	rendererOptions := []renderer.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !opts.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	extenders := make([]goldmark.Extender, 0, len(names))
	for _, name := range names {
		extenders = append(extenders, extensionRegistry[name])
	}

	return goldmark.New(
		goldmark.WithExtensions(extenders...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(pageLinkTransformer{}, 500)),
		),
		goldmark.WithRendererOptions(rendererOptions...),
	)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

var defaultExtensions = []string{"gfm", "linkify", "tasklist"}

// KnownExtension reports whether name maps to a goldmark extension.
func KnownExtension(name string) bool {
	_, ok := extensionRegistry[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// extensionNames normalises requested names into a sorted, de-duplicated
// list of known extensions. Unknown names are dropped.
func extensionNames(requested []string) []string {
	if len(requested) == 0 {
		return defaultExtensions
	}
	seen := map[string]struct{}{}
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := extensionRegistry[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
