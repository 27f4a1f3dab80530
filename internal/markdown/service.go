package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// Config controls how the Markdown service discovers and renders files.
type Config struct {
	BasePath  string
	Pattern   string
	Exclude   []string
	Recursive bool
	Parser    interfaces.ParseOptions
}

// Service loads pages from the docs root and renders Markdown previews.
type Service struct {
	cfg    Config
	parser interfaces.MarkdownParser
	loader *Loader
}

// NewService constructs a Markdown service over cfg.BasePath. When parser is
// nil, a goldmark parser with cfg.Parser defaults is created.
func NewService(cfg Config, parser interfaces.MarkdownParser) (*Service, error) {
	filesystem, err := prepareFilesystem(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}

	return &Service{
		cfg:    cfg,
		parser: parser,
		loader: NewLoader(filesystem, LoaderConfig{
			BasePath:  cfg.BasePath,
			Pattern:   cfg.Pattern,
			Exclude:   cfg.Exclude,
			Recursive: cfg.Recursive,
		}),
	}, nil
}

// Load reads a single document relative to the base path.
func (s *Service) Load(ctx context.Context, file string) (*interfaces.Document, error) {
	return s.loader.LoadFile(ctx, file)
}

// LoadDirectory reads every matching document within dir.
func (s *Service) LoadDirectory(ctx context.Context, dir string, opts LoadParams) ([]*interfaces.Document, error) {
	return s.loader.LoadDirectory(ctx, dir, opts)
}

// Discover lists matching page paths within dir.
func (s *Service) Discover(ctx context.Context, dir string, opts LoadParams) ([]string, error) {
	return s.loader.Discover(ctx, dir, opts)
}

// Render parses Markdown bytes into HTML using the configured parser.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.ParseWithOptions(markdown, mergeParseOptions(s.cfg.Parser, opts))
}

// RenderDocument converts the document body into HTML and stores it on doc.
func (s *Service) RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("markdown service: document is nil")
	}
	html, err := s.Render(ctx, doc.Body, opts)
	if err != nil {
		return nil, fmt.Errorf("markdown render document %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = html
	return html, nil
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string(nil), override.Extensions...)
	}
	if override.HardWraps {
		result.HardWraps = true
	}
	if override.SafeMode {
		result.SafeMode = true
	}
	if override.Page != "" {
		result.Page = override.Page
		result.DirectoryURLs = override.DirectoryURLs
	}
	return result
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}
