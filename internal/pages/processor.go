// Package pages expands snippet calls inside Markdown pages.
package pages

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/internal/markdown"
	"github.com/goliatone/go-snippet/internal/shortcode"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

var ErrResolverRequired = errors.New("pages: snippet resolver is required")

var (
	hugoMarker      = regexp.MustCompile(`\{\{<\s*` + ShortcodeName + `[\s/>]`)
	wordpressMarker = regexp.MustCompile(`\[` + ShortcodeName + `[\s\]/]`)
)

// Page is a Markdown page as read from the docs tree.
type Page struct {
	// Path is slash separated and relative to the docs root.
	Path   string
	Source string
	// Destination overrides the image directory derived from the page URL.
	// The site builder sets it to the directory of the page's output file.
	Destination string
}

// Result describes the outcome of processing a single page.
type Result struct {
	Page        string
	Content     string
	Destination string
	// Skipped is set when the page was returned untouched because of the
	// all_pages policy or a `snippets: false` front matter flag.
	Skipped bool
	Changed bool
}

// Config controls which pages are processed and where their images go.
type Config struct {
	BasePath         string
	AllPages         bool
	UseDirectoryURLs bool
	WordPress        bool
}

// Option customises the processor.
type Option func(*Processor)

// WithLogger overrides the processor logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDefinitions registers additional shortcodes next to snippet.
func WithDefinitions(defs ...interfaces.ShortcodeDefinition) Option {
	return func(p *Processor) {
		p.extra = append(p.extra, defs...)
	}
}

// WithShortcodeOptions forwards options to the underlying shortcode service.
func WithShortcodeOptions(opts ...shortcode.ServiceOption) Option {
	return func(p *Processor) {
		p.serviceOpts = append(p.serviceOpts, opts...)
	}
}

// Processor expands snippet calls in page bodies. Front matter is carried
// through byte for byte.
type Processor struct {
	cfg         Config
	shortcodes  interfaces.ShortcodeService
	logger      interfaces.Logger
	extra       []interfaces.ShortcodeDefinition
	serviceOpts []shortcode.ServiceOption
}

// NewProcessor builds a processor whose snippet shortcode resolves through
// resolver.
func NewProcessor(cfg Config, resolver interfaces.SnippetResolver, opts ...Option) (*Processor, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	p := &Processor{
		cfg:    cfg,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	defs := append([]interfaces.ShortcodeDefinition{SnippetDefinition(resolver)}, p.extra...)
	serviceOpts := append([]shortcode.ServiceOption{
		shortcode.WithLogger(p.logger),
		shortcode.WithWordPressSyntax(cfg.WordPress),
	}, p.serviceOpts...)

	service, err := shortcode.NewDefaultService(defs, serviceOpts...)
	if err != nil {
		return nil, fmt.Errorf("pages: shortcodes: %w", err)
	}
	p.shortcodes = service
	return p, nil
}

// Process returns the page with every snippet call expanded.
func (p *Processor) Process(ctx context.Context, page Page) (string, error) {
	result, err := p.ProcessPage(ctx, page)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// ProcessPage is Process with details about what happened to the page.
func (p *Processor) ProcessPage(ctx context.Context, page Page) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	// Resolver, localizer and shortcode logs pick the page up from ctx.
	ctx = logging.ContextWithFields(ctx, map[string]any{"page": page.Path})
	result := &Result{
		Page:        page.Path,
		Content:     page.Source,
		Destination: page.Destination,
	}
	if result.Destination == "" {
		result.Destination = Destination(p.cfg.BasePath, page.Path, p.cfg.UseDirectoryURLs)
	}
	logger := logging.WithFields(p.logger, map[string]any{
		"page":        page.Path,
		"destination": result.Destination,
	})

	meta, header, body, err := markdown.SplitPage([]byte(page.Source))
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", page.Path, err)
	}

	if p.skip(meta, string(body)) {
		result.Skipped = true
		logger.Debug("pages.skipped")
		return result, nil
	}

	expanded, err := p.shortcodes.Process(ctx, string(body), interfaces.ShortcodeProcessOptions{
		Page:        page.Path,
		Destination: result.Destination,
	})
	if err != nil {
		logging.WithError(logger, err).Error("pages.process_failed")
		return nil, fmt.Errorf("page %s: %w", page.Path, err)
	}

	result.Content = string(header) + expanded
	result.Changed = result.Content != page.Source
	logging.WithFields(logger, map[string]any{
		"changed": result.Changed,
	}).Debug("pages.processed")
	return result, nil
}

// HasSnippetCall reports whether body contains a snippet call in any enabled
// syntax.
func (p *Processor) HasSnippetCall(body string) bool {
	if hugoMarker.MatchString(body) {
		return true
	}
	return p.cfg.WordPress && wordpressMarker.MatchString(body)
}

func (p *Processor) skip(meta interfaces.FrontMatter, body string) bool {
	if meta.Snippets != nil {
		return !*meta.Snippets
	}
	if p.cfg.AllPages {
		return false
	}
	return !p.HasSnippetCall(body)
}
