package snippet

import (
	"context"
	"net/http"
	"strings"

	snippetcmd "github.com/goliatone/go-snippet/internal/commands/snippet"
	"github.com/goliatone/go-snippet/internal/di"
	"github.com/goliatone/go-snippet/internal/generator"
	"github.com/goliatone/go-snippet/internal/pages"
	"github.com/goliatone/go-snippet/internal/remote"
	"github.com/goliatone/go-snippet/internal/section"
	"github.com/goliatone/go-snippet/internal/source"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

var (
	// ErrSourceNotFound matches local snippet files that are missing or unreadable.
	ErrSourceNotFound = source.ErrSourceNotFound
	// ErrSectionNotFound matches a section name absent from the included document.
	ErrSectionNotFound = section.ErrSectionNotFound
	// ErrResourceFetch matches every failed remote fetch.
	ErrResourceFetch = remote.ErrResourceFetch
)

type (
	SnippetRequest = interfaces.SnippetRequest
	Page           = pages.Page
	PageResult     = pages.Result
	BuildOptions   = generator.BuildOptions
	BuildResult    = generator.BuildResult
	Heading        = section.Heading
	HandlerSet     = snippetcmd.HandlerSet
)

// Option customises the services built by New.
type Option = di.Option

// WithLoggerProvider overrides the provider selected by the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

// WithLocalReader overrides how local snippet files are read.
func WithLocalReader(reader interfaces.LocalReader) Option {
	return di.WithLocalReader(reader)
}

// WithRemoteProvider replaces the GitHub provider.
func WithRemoteProvider(provider interfaces.RemoteProvider) Option {
	return di.WithRemoteProvider(provider)
}

// WithHTTPClient sets the client used for GitHub requests.
func WithHTTPClient(client *http.Client) Option {
	return di.WithHTTPClient(client)
}

// WithShortcodes registers extra shortcodes next to snippet.
func WithShortcodes(defs ...interfaces.ShortcodeDefinition) Option {
	return di.WithShortcodeDefinitions(defs...)
}

// WithShortcodeMetrics records render timings and failures per shortcode.
func WithShortcodeMetrics(metrics interfaces.ShortcodeMetrics) Option {
	return di.WithShortcodeMetrics(metrics)
}

// Module is the top level snippet runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a Module from cfg.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Commands returns the go-command handlers bound to this module.
func (m *Module) Commands() *HandlerSet {
	return m.container.Commands()
}

// Resolve returns the text a single snippet call expands to.
func (m *Module) Resolve(ctx context.Context, req SnippetRequest) (string, error) {
	return m.container.Resolver().Resolve(ctx, req)
}

// ProcessPage expands every snippet call in page.
func (m *Module) ProcessPage(ctx context.Context, page Page) (*PageResult, error) {
	return m.container.Processor().ProcessPage(ctx, page)
}

// RenderPage loads path from the docs root and expands it.
func (m *Module) RenderPage(ctx context.Context, path string) (*PageResult, error) {
	doc, err := m.container.MarkdownService().Load(ctx, strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	return m.ProcessPage(ctx, Page{Path: doc.FilePath, Source: string(doc.Source)})
}

// Build runs the site generator.
func (m *Module) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	return m.container.Generator().Build(ctx, opts)
}

// Sections lists the headings of the document req points at. Section and
// SkipHeader are ignored.
func (m *Module) Sections(ctx context.Context, req SnippetRequest) ([]Heading, error) {
	req.Section = ""
	req.SkipHeader = false
	req.Destination = ""
	text, err := m.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return section.Headings(text), nil
}
