package snippetcmd

import (
	"context"
	"errors"
	"io"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-snippet/internal/commands"
	"github.com/goliatone/go-snippet/internal/generator"
	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/internal/pages"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

const (
	resolveOperation = "snippet.resolve"
	renderOperation  = "snippet.render_page"
	buildOperation   = "snippet.build_site"
)

var (
	// ErrResolverRequired is returned when a resolve handler has no resolver.
	ErrResolverRequired = errors.New("snippet command: resolver is required")
	// ErrPagesRequired is returned when a render handler lacks its page services.
	ErrPagesRequired = errors.New("snippet command: page loader and processor are required")
	// ErrBuilderRequired is returned when a build handler has no generator.
	ErrBuilderRequired = errors.New("snippet command: generator is required")
)

var (
	_ command.Commander[ResolveSnippetCommand] = (*ResolveSnippetHandler)(nil)
	_ command.Commander[RenderPageCommand]     = (*RenderPageHandler)(nil)
	_ command.Commander[BuildSiteCommand]      = (*BuildSiteHandler)(nil)
)

// PageLoader reads a page from the docs root.
type PageLoader interface {
	Load(ctx context.Context, file string) (*interfaces.Document, error)
}

// PageProcessor expands snippet calls in a page.
type PageProcessor interface {
	ProcessPage(ctx context.Context, page pages.Page) (*pages.Result, error)
}

// ResolveSnippetHandler resolves one snippet call through the shared command
// handler foundation.
type ResolveSnippetHandler struct {
	inner *commands.Handler[ResolveSnippetCommand]
}

// NewResolveSnippetHandler creates a handler bound to resolver.
func NewResolveSnippetHandler(resolver interfaces.SnippetResolver, logger interfaces.Logger, opts ...commands.HandlerOption[ResolveSnippetCommand]) *ResolveSnippetHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ResolveSnippetCommand) error {
		if resolver == nil {
			return ErrResolverRequired
		}
		text, err := resolver.Resolve(ctx, interfaces.SnippetRequest{
			File:        msg.File,
			Section:     msg.Section,
			Repository:  msg.Repository,
			Ref:         msg.Ref,
			SkipHeader:  msg.SkipHeader,
			Destination: msg.Destination,
		})
		if err != nil {
			return err
		}
		if err := emit(msg.Output, text); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"bytes": len(text),
		}).Info("snippet.command.resolve.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ResolveSnippetCommand]{
		commands.WithLogger[ResolveSnippetCommand](baseLogger),
		commands.WithOperation[ResolveSnippetCommand](resolveOperation),
		commands.WithErrorClassifier[ResolveSnippetCommand](ClassifyError),
		commands.WithMessageFields(func(msg ResolveSnippetCommand) map[string]any {
			fields := map[string]any{"file": msg.File}
			if msg.Section != "" {
				fields["section"] = msg.Section
			}
			if msg.Repository != "" {
				fields["repository"] = msg.Repository
			}
			if msg.Ref != "" {
				fields["ref"] = msg.Ref
			}
			if msg.SkipHeader {
				fields["skip_header"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ResolveSnippetCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ResolveSnippetHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ResolveSnippetCommand].
func (h *ResolveSnippetHandler) Execute(ctx context.Context, msg ResolveSnippetCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RenderPageHandler expands one page and writes the processed Markdown.
type RenderPageHandler struct {
	inner *commands.Handler[RenderPageCommand]
}

// NewRenderPageHandler creates a handler that loads pages through loader and
// expands them with processor.
func NewRenderPageHandler(loader PageLoader, processor PageProcessor, logger interfaces.Logger, opts ...commands.HandlerOption[RenderPageCommand]) *RenderPageHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg RenderPageCommand) error {
		if loader == nil || processor == nil {
			return ErrPagesRequired
		}
		doc, err := loader.Load(ctx, strings.TrimSpace(msg.Path))
		if err != nil {
			return err
		}
		result, err := processor.ProcessPage(ctx, pages.Page{
			Path:   doc.FilePath,
			Source: string(doc.Source),
		})
		if err != nil {
			return err
		}
		if err := emit(msg.Output, result.Content); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"page":    result.Page,
			"skipped": result.Skipped,
			"changed": result.Changed,
		}).Info("snippet.command.render_page.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[RenderPageCommand]{
		commands.WithLogger[RenderPageCommand](baseLogger),
		commands.WithOperation[RenderPageCommand](renderOperation),
		commands.WithErrorClassifier[RenderPageCommand](ClassifyError),
		commands.WithMessageFields(func(msg RenderPageCommand) map[string]any {
			return map[string]any{"page": msg.Path}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RenderPageCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RenderPageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[RenderPageCommand].
func (h *RenderPageHandler) Execute(ctx context.Context, msg RenderPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildSiteHandler runs the site generator.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler creates a handler bound to builder.
func NewBuildSiteHandler(builder generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if builder == nil {
			return ErrBuilderRequired
		}
		result, err := builder.Build(ctx, generator.BuildOptions{
			Pages:  msg.Pages,
			DryRun: msg.DryRun,
		})
		if result != nil {
			if msg.Report != nil {
				msg.Report(result)
			}
			logging.WithFields(baseLogger, map[string]any{
				"pages_built":     result.PagesBuilt,
				"pages_skipped":   result.PagesSkipped,
				"pages_unchanged": result.PagesUnchanged,
				"assets_built":    result.AssetsBuilt,
				"removed_count":   len(result.Removed),
				"error_count":     len(result.Diagnostics),
				"dry_run":         result.DryRun,
				"duration_ms":     result.Duration.Milliseconds(),
			}).Info("snippet.command.build_site.completed")
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand](buildOperation),
		commands.WithErrorClassifier[BuildSiteCommand](ClassifyError),
		// Builds are bounded by the caller context only.
		commands.WithTimeout[BuildSiteCommand](0),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if len(msg.Pages) > 0 {
				fields["pages"] = len(msg.Pages)
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

func emit(w io.Writer, text string) error {
	if w == nil {
		return nil
	}
	_, err := io.WriteString(w, text)
	return err
}
