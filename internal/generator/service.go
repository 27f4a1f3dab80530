// Package generator builds a processed copy of the docs tree, expanding
// snippet calls on every page and optionally rendering HTML previews.
package generator

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-snippet/internal/images"
	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/internal/markdown"
	"github.com/goliatone/go-snippet/internal/pages"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

var (
	ErrDocumentsRequired = errors.New("generator: document source is required")
	ErrProcessorRequired = errors.New("generator: page processor is required")
	ErrRendererRequired  = errors.New("generator: html renderer is required for html output")
	ErrOutputDirRequired = errors.New("generator: output directory is required")
)

// Service describes the site builder contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
}

// Config captures runtime behaviour toggles for the builder.
type Config struct {
	BasePath         string
	OutputDir        string
	Format           string
	Workers          int
	Pattern          string
	Recursive        bool
	UseDirectoryURLs bool
	// CleanBuild removes outputs recorded by the previous build that the
	// current build no longer produces.
	CleanBuild bool
	CopyAssets bool
	// Sitemap writes sitemap.xml for html builds.
	Sitemap bool
	BaseURL string
	// Template overrides the html page template.
	Template *template.Template
}

// BuildOptions narrows the scope of a build.
type BuildOptions struct {
	// Pages limits the build to the listed page paths, relative to the docs
	// root. Empty means every discovered page.
	Pages  []string
	DryRun bool
}

// RenderedPage describes one page written by a build.
type RenderedPage struct {
	Source       string
	Output       string
	Route        string
	Written      bool
	Skipped      bool
	Changed      bool
	LastModified time.Time
	Duration     time.Duration
}

// RenderDiagnostic records a page that failed to build.
type RenderDiagnostic struct {
	Source string
	Err    error
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt     int
	PagesSkipped   int
	PagesUnchanged int
	AssetsBuilt    int
	AssetsSkipped  int
	Removed        []string
	Duration       time.Duration
	Rendered       []RenderedPage
	Diagnostics    []RenderDiagnostic
	Errors         []error
	DryRun         bool
}

// DocumentSource discovers and loads pages under the docs root.
type DocumentSource interface {
	Discover(ctx context.Context, dir string, opts markdown.LoadParams) ([]string, error)
	Load(ctx context.Context, file string) (*interfaces.Document, error)
}

// PageProcessor expands snippet calls in a page.
type PageProcessor interface {
	ProcessPage(ctx context.Context, page pages.Page) (*pages.Result, error)
}

// Dependencies lists the collaborators required by the builder.
type Dependencies struct {
	Documents DocumentSource
	Processor PageProcessor
	Renderer  HTMLRenderer
	Writer    images.Writer
	Logger    interfaces.Logger
}

// NewService wires a builder with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	cfg.Format = normalizeFormat(cfg.Format)
	return &service{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		now:    time.Now,
	}
}

type service struct {
	cfg    Config
	deps   Dependencies
	logger interfaces.Logger
	now    func() time.Time
}

type renderOutcome struct {
	page       RenderedPage
	manifest   manifestPage
	diagnostic *RenderDiagnostic
}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	start := s.now()
	result := &BuildResult{DryRun: opts.DryRun}
	logger := logging.WithFields(s.logger, map[string]any{
		"operation":  "generator.build",
		"output_dir": s.cfg.OutputDir,
		"format":     s.cfg.Format,
		"dry_run":    opts.DryRun,
	})

	selected, err := s.selectPages(ctx, opts)
	if err != nil {
		logging.WithError(logger, err).Error("generator.discover_failed")
		return nil, err
	}
	logging.WithFields(logger, map[string]any{"pages": len(selected)}).Info("generator.build_started")

	previous, err := loadManifest(s.cfg.OutputDir)
	if err != nil {
		logging.WithError(logger, err).Warn("generator.manifest_unreadable")
		previous = newBuildManifest()
	}
	manifest := newBuildManifest()
	manifest.Format = s.cfg.Format
	manifest.GeneratedAt = start.UTC()

	writer := newArtifactWriter(s.deps.Writer, opts.DryRun)
	if opts.DryRun {
		ctx = images.WithoutWrites(ctx)
	}

	var (
		mu       sync.Mutex
		outcomes []renderOutcome
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.effectiveWorkerCount(len(selected)))
	for _, page := range selected {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			outcome := s.renderPage(groupCtx, writer, page)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].page.Source < outcomes[j].page.Source
	})
	for _, outcome := range outcomes {
		if outcome.diagnostic != nil {
			result.Diagnostics = append(result.Diagnostics, *outcome.diagnostic)
			result.Errors = append(result.Errors, outcome.diagnostic.Err)
			continue
		}
		result.Rendered = append(result.Rendered, outcome.page)
		manifest.setPage(outcome.manifest)
		switch {
		case outcome.page.Skipped:
			result.PagesSkipped++
		case !outcome.page.Written && !opts.DryRun:
			result.PagesUnchanged++
		default:
			result.PagesBuilt++
		}
	}

	if s.cfg.CopyAssets {
		summary, err := s.copyAssets(ctx, writer, manifest)
		if err != nil {
			logging.WithError(logger, err).Error("generator.assets_failed")
			result.Errors = append(result.Errors, err)
		}
		result.AssetsBuilt = summary.built
		result.AssetsSkipped = summary.skipped
	}

	if s.cfg.Sitemap && s.cfg.Format == FormatHTML && len(result.Rendered) > 0 {
		if err := s.writeSitemap(ctx, writer, result.Rendered, start); err != nil {
			logging.WithError(logger, err).Error("generator.sitemap_failed")
			result.Errors = append(result.Errors, err)
		}
	}

	// A partial build must not prune outputs of pages that merely failed.
	if s.cfg.CleanBuild && len(opts.Pages) == 0 && len(result.Errors) == 0 {
		for _, stale := range previous.staleOutputs(manifest) {
			if err := writer.Remove(ctx, stale); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("generator: remove %s: %w", stale, err))
				continue
			}
			result.Removed = append(result.Removed, stale)
		}
	}

	if len(opts.Pages) == 0 {
		if err := s.persistManifest(ctx, writer, manifest); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	result.Duration = time.Since(start)
	logging.WithFields(logger, map[string]any{
		"built":       result.PagesBuilt,
		"skipped":     result.PagesSkipped,
		"unchanged":   result.PagesUnchanged,
		"assets":      result.AssetsBuilt,
		"errors":      len(result.Errors),
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("generator.build_completed")

	if len(result.Errors) > 0 {
		return result, errors.Join(result.Errors...)
	}
	return result, nil
}

func (s *service) renderPage(ctx context.Context, writer artifactWriter, page string) renderOutcome {
	started := time.Now()
	logger := logging.WithFields(s.logger, map[string]any{"page": page})
	fail := func(err error) renderOutcome {
		logging.WithError(logger, err).Error("generator.page_failed")
		return renderOutcome{
			page:       RenderedPage{Source: page},
			diagnostic: &RenderDiagnostic{Source: page, Err: err},
		}
	}

	doc, err := s.deps.Documents.Load(ctx, page)
	if err != nil {
		return fail(err)
	}
	outputRel := outputPath(page, s.cfg.Format, s.cfg.UseDirectoryURLs)
	processed, err := s.deps.Processor.ProcessPage(ctx, pages.Page{
		Path:        doc.FilePath,
		Source:      string(doc.Source),
		Destination: s.imageDestination(outputRel),
	})
	if err != nil {
		return fail(err)
	}

	content := []byte(processed.Content)
	if s.cfg.Format == FormatHTML {
		if content, err = s.renderHTML(ctx, page, content); err != nil {
			return fail(fmt.Errorf("page %s: %w", page, err))
		}
	}

	output := joinOutputPath(s.cfg.OutputDir, outputRel)
	written, err := writer.WriteFile(ctx, writeFileRequest{
		Path:     output,
		Content:  content,
		Category: categoryPage,
	})
	if err != nil {
		return fail(fmt.Errorf("page %s: %w", page, err))
	}

	rendered := RenderedPage{
		Source:       page,
		Output:       output,
		Route:        route(page, s.cfg.UseDirectoryURLs),
		Written:      written,
		Skipped:      processed.Skipped,
		Changed:      processed.Changed,
		LastModified: doc.LastModified,
		Duration:     time.Since(started),
	}
	logging.WithFields(logger, map[string]any{
		"output":      output,
		"written":     written,
		"skipped":     processed.Skipped,
		"duration_ms": rendered.Duration.Milliseconds(),
	}).Debug("generator.page_rendered")

	return renderOutcome{
		page: rendered,
		manifest: manifestPage{
			Source:     page,
			Output:     output,
			Checksum:   computeHash(content),
			Skipped:    processed.Skipped,
			RenderedAt: s.now().UTC(),
		},
	}
}

// imageDestination mirrors the directory of the output file inside the docs
// root, so a rewritten image reference resolves next to the written page once
// assets are copied.
func (s *service) imageDestination(outputRel string) string {
	base := s.cfg.BasePath
	if strings.TrimSpace(base) == "" {
		base = "."
	}
	dir := path.Dir(outputRel)
	if dir == "." {
		return filepath.Clean(base)
	}
	return filepath.Join(base, filepath.FromSlash(dir))
}

func (s *service) selectPages(ctx context.Context, opts BuildOptions) ([]string, error) {
	if len(opts.Pages) > 0 {
		selected := make([]string, 0, len(opts.Pages))
		seen := map[string]struct{}{}
		for _, page := range opts.Pages {
			clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(page)), "/"))
			if clean == "." {
				continue
			}
			if _, ok := seen[clean]; ok {
				continue
			}
			seen[clean] = struct{}{}
			selected = append(selected, clean)
		}
		sort.Strings(selected)
		return selected, nil
	}

	recursive := s.cfg.Recursive
	discovered, err := s.deps.Documents.Discover(ctx, ".", markdown.LoadParams{
		Pattern:   s.cfg.Pattern,
		Recursive: &recursive,
	})
	if err != nil {
		return nil, fmt.Errorf("generator: discover pages: %w", err)
	}

	outputRel := s.outputRelativeToBase()
	selected := discovered[:0]
	for _, page := range discovered {
		if outputRel != "" && (page == outputRel || strings.HasPrefix(page, outputRel+"/")) {
			continue
		}
		selected = append(selected, page)
	}
	return selected, nil
}

// outputRelativeToBase returns the output directory relative to the docs root
// when it sits inside it, so previous outputs are never read back as pages.
func (s *service) outputRelativeToBase() string {
	base, err := filepath.Abs(s.cfg.BasePath)
	if err != nil {
		return ""
	}
	out, err := filepath.Abs(s.cfg.OutputDir)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(base, out)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (s *service) writeSitemap(ctx context.Context, writer artifactWriter, rendered []RenderedPage, fallback time.Time) error {
	content, err := buildSitemap(s.cfg.BaseURL, rendered, fallback)
	if err != nil {
		return fmt.Errorf("generator: build sitemap: %w", err)
	}
	_, err = writer.WriteFile(ctx, writeFileRequest{
		Path:     joinOutputPath(s.cfg.OutputDir, sitemapFileName),
		Content:  content,
		Category: categorySitemap,
	})
	return err
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest) error {
	data, err := manifest.marshal()
	if err != nil {
		return fmt.Errorf("generator: encode manifest: %w", err)
	}
	if _, err := writer.WriteFile(ctx, writeFileRequest{
		Path:     joinOutputPath(s.cfg.OutputDir, manifestFileName),
		Content:  data,
		Category: categoryManifest,
	}); err != nil {
		return fmt.Errorf("generator: write manifest: %w", err)
	}
	return nil
}

func (s *service) validate() error {
	if s.deps.Documents == nil {
		return ErrDocumentsRequired
	}
	if s.deps.Processor == nil {
		return ErrProcessorRequired
	}
	if s.cfg.Format == FormatHTML && s.deps.Renderer == nil {
		return ErrRendererRequired
	}
	if strings.TrimSpace(s.cfg.OutputDir) == "" {
		return ErrOutputDirRequired
	}
	return nil
}

func (s *service) effectiveWorkerCount(pageCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if pageCount > 0 && workers > pageCount {
		return pageCount
	}
	return workers
}
