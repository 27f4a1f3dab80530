package di

import (
	"fmt"
	"net/http"
	"strings"

	snippetcmd "github.com/goliatone/go-snippet/internal/commands/snippet"
	"github.com/goliatone/go-snippet/internal/generator"
	"github.com/goliatone/go-snippet/internal/images"
	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/internal/logging/console"
	"github.com/goliatone/go-snippet/internal/logging/gologger"
	"github.com/goliatone/go-snippet/internal/markdown"
	"github.com/goliatone/go-snippet/internal/pages"
	"github.com/goliatone/go-snippet/internal/remote"
	"github.com/goliatone/go-snippet/internal/remote/github"
	"github.com/goliatone/go-snippet/internal/runtimeconfig"
	"github.com/goliatone/go-snippet/internal/shortcode"
	"github.com/goliatone/go-snippet/internal/source"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// Container wires the snippet services from a validated runtime config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	reader      interfaces.LocalReader
	remote      interfaces.RemoteProvider
	remoteCache *remote.CachedProvider
	httpClient  *http.Client
	imageWriter images.Writer
	localizer   *images.Localizer
	parser      interfaces.MarkdownParser
	definitions []interfaces.ShortcodeDefinition
	metrics     interfaces.ShortcodeMetrics

	resolver    *source.Resolver
	markdownSvc *markdown.Service
	processor   *pages.Processor
	generator   generator.Service

	registry snippetcmd.CommandRegistry
	commands *snippetcmd.HandlerSet
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by cfg.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithLocalReader overrides the filesystem reader used for local snippets.
func WithLocalReader(reader interfaces.LocalReader) Option {
	return func(c *Container) {
		c.reader = reader
	}
}

// WithRemoteProvider replaces the GitHub provider. The response cache still
// wraps it when enabled.
func WithRemoteProvider(provider interfaces.RemoteProvider) Option {
	return func(c *Container) {
		c.remote = provider
	}
}

// WithHTTPClient sets the client used by the GitHub provider.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithImageWriter overrides the writer shared by the image localizer and the
// generator.
func WithImageWriter(writer images.Writer) Option {
	return func(c *Container) {
		c.imageWriter = writer
	}
}

// WithMarkdownParser overrides the goldmark parser.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		c.parser = parser
	}
}

// WithShortcodeDefinitions registers extra shortcodes next to snippet.
func WithShortcodeDefinitions(defs ...interfaces.ShortcodeDefinition) Option {
	return func(c *Container) {
		c.definitions = append(c.definitions, defs...)
	}
}

// WithShortcodeMetrics records render timings and failures of every
// shortcode, snippet included.
func WithShortcodeMetrics(metrics interfaces.ShortcodeMetrics) Option {
	return func(c *Container) {
		c.metrics = metrics
	}
}

// WithCommandRegistry registers the snippet command handlers with reg.
func WithCommandRegistry(reg snippetcmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// NewContainer validates cfg and builds every service. The first failing
// step aborts construction.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func() error{
		c.configureLoggerProvider,
		c.configureRemote,
		c.configureImages,
		c.configureResolver,
		c.configureMarkdown,
		c.configureProcessor,
		c.configureGenerator,
		c.configureCommands,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	c.logger.Info("container.configured",
		"base_path", cfg.BasePath,
		"remote", c.remoteKind(),
		"remote_cache", c.remoteCache != nil,
		"images", c.localizer != nil,
		"format", cfg.Generator.Format,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider == nil {
		cfg := c.Config.Logging
		switch runtimeconfig.NormalizeProvider(cfg.Provider) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     cfg.Level,
				Format:    cfg.Format,
				AddSource: cfg.AddSource,
				Focus:     cfg.Focus,
				Fields:    map[string]any{"app": "snippet"},
			})
			if err != nil {
				return fmt.Errorf("di: configure logger: %w", err)
			}
			c.loggerProvider = provider
		default:
			level, _ := console.ParseLevel(cfg.Level)
			c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "snippet.di")
	return nil
}

func (c *Container) configureRemote() error {
	cfg := c.Config.Remote
	if c.remote == nil {
		provider, err := github.NewProvider(github.Config{
			Token:      cfg.Token,
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			HTTPClient: c.httpClient,
		}, github.WithLogger(logging.RemoteLogger(c.loggerProvider)))
		if err != nil {
			return fmt.Errorf("di: configure remote: %w", err)
		}
		c.remote = provider
	}
	if cfg.Cache.Enabled {
		c.remoteCache = remote.NewCachedProvider(c.remote, remote.CacheOptions{
			Capacity:           cfg.Cache.Capacity,
			Shards:             cfg.Cache.Shards,
			TTL:                cfg.Cache.TTL,
			EvictionPercentage: cfg.Cache.EvictionPercentage,
		}, remote.WithCacheLogger(logging.RemoteLogger(c.loggerProvider)))
		c.remote = c.remoteCache
	}
	return nil
}

func (c *Container) configureImages() error {
	if c.imageWriter == nil {
		c.imageWriter = images.NewFileWriter()
	}
	if !c.Config.Images.Enabled {
		return nil
	}
	localizer, err := images.NewLocalizer(c.remote,
		images.WithLogger(logging.ImagesLogger(c.loggerProvider)),
		images.WithStrictFetch(c.Config.Images.Strict),
		images.WithWriter(c.imageWriter),
	)
	if err != nil {
		return fmt.Errorf("di: configure images: %w", err)
	}
	c.localizer = localizer
	return nil
}

func (c *Container) configureResolver() error {
	opts := []source.Option{
		source.WithRemoteProvider(c.remote),
		source.WithLogger(logging.SourceLogger(c.loggerProvider)),
	}
	if c.localizer != nil {
		opts = append(opts, source.WithImageLocalizer(c.localizer))
	}
	c.resolver = source.NewResolver(source.Config{
		BasePath: c.Config.BasePath,
		Encoding: c.Config.Encoding,
	}, c.reader, opts...)
	return nil
}

func (c *Container) configureMarkdown() error {
	cfg := c.Config.Markdown
	svc, err := markdown.NewService(markdown.Config{
		BasePath:  c.Config.BasePath,
		Pattern:   cfg.Pattern,
		Exclude:   cfg.Exclude,
		Recursive: cfg.Recursive,
		Parser: interfaces.ParseOptions{
			Extensions: cfg.Parser.Extensions,
			HardWraps:  cfg.Parser.HardWraps,
			SafeMode:   cfg.Parser.SafeMode,
		},
	}, c.parser)
	if err != nil {
		return fmt.Errorf("di: configure markdown: %w", err)
	}
	c.markdownSvc = svc
	return nil
}

func (c *Container) configureProcessor() error {
	opts := []pages.Option{pages.WithLogger(logging.PagesLogger(c.loggerProvider))}
	if len(c.definitions) > 0 {
		opts = append(opts, pages.WithDefinitions(c.definitions...))
	}
	if c.metrics != nil {
		opts = append(opts, pages.WithShortcodeOptions(shortcode.WithMetrics(c.metrics)))
	}
	processor, err := pages.NewProcessor(pages.Config{
		BasePath:         c.Config.BasePath,
		AllPages:         c.Config.AllPages,
		UseDirectoryURLs: c.Config.UseDirectoryURLs,
		WordPress:        c.Config.Shortcodes.WordPress,
	}, c.resolver, opts...)
	if err != nil {
		return fmt.Errorf("di: configure pages: %w", err)
	}
	c.processor = processor
	return nil
}

func (c *Container) configureGenerator() error {
	cfg := c.Config.Generator
	c.generator = generator.NewService(generator.Config{
		BasePath:         c.Config.BasePath,
		OutputDir:        cfg.OutputDir,
		Format:           cfg.Format,
		Workers:          cfg.Workers,
		Pattern:          c.Config.Markdown.Pattern,
		Recursive:        c.Config.Markdown.Recursive,
		UseDirectoryURLs: c.Config.UseDirectoryURLs,
		CleanBuild:       cfg.CleanBuild,
		CopyAssets:       cfg.CopyAssets,
		Sitemap:          cfg.Sitemap,
		BaseURL:          cfg.BaseURL,
	}, generator.Dependencies{
		Documents: c.markdownSvc,
		Processor: c.processor,
		Renderer:  c.markdownSvc,
		Writer:    c.imageWriter,
		Logger:    logging.GeneratorLogger(c.loggerProvider),
	})
	return nil
}

func (c *Container) configureCommands() error {
	set, err := snippetcmd.RegisterSnippetCommands(c.registry, snippetcmd.Services{
		Resolver:  c.resolver,
		Pages:     c.markdownSvc,
		Processor: c.processor,
		Builder:   c.generator,
	}, c.loggerProvider)
	if err != nil {
		return fmt.Errorf("di: register commands: %w", err)
	}
	c.commands = set
	return nil
}

func (c *Container) remoteKind() string {
	if _, ok := unwrapRemote(c.remote).(*github.Provider); ok {
		return "github"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", unwrapRemote(c.remote)), "*")
}

func unwrapRemote(provider interfaces.RemoteProvider) interfaces.RemoteProvider {
	if cached, ok := provider.(*remote.CachedProvider); ok {
		return cached.Next()
	}
	return provider
}

// LoggerProvider returns the provider every module logger derives from.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// RemoteProvider returns the repository provider, cache included.
func (c *Container) RemoteProvider() interfaces.RemoteProvider {
	return c.remote
}

// RemoteCache returns the response cache or nil when caching is disabled.
func (c *Container) RemoteCache() *remote.CachedProvider {
	return c.remoteCache
}

// ImageLocalizer returns nil when image localization is disabled.
func (c *Container) ImageLocalizer() *images.Localizer {
	return c.localizer
}

// Resolver returns the snippet resolver.
func (c *Container) Resolver() *source.Resolver {
	return c.resolver
}

// MarkdownService returns the page loader and preview renderer.
func (c *Container) MarkdownService() *markdown.Service {
	return c.markdownSvc
}

// Processor returns the page processor.
func (c *Container) Processor() *pages.Processor {
	return c.processor
}

// Generator returns the site builder.
func (c *Container) Generator() generator.Service {
	return c.generator
}

// Commands returns the registered command handlers.
func (c *Container) Commands() *snippetcmd.HandlerSet {
	return c.commands
}
