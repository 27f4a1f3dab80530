// Package source resolves snippet calls into text by reading the local docs
// tree or a remote repository, then narrowing and trimming the result.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-snippet/internal/images"
	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/internal/remote"
	"github.com/goliatone/go-snippet/internal/section"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// ImageLocalizer rewrites relative image references in remote content.
type ImageLocalizer interface {
	Localize(ctx context.Context, req images.Request) (*images.Result, error)
}

// Config controls local lookups.
type Config struct {
	// BasePath is the root for relative local file identifiers.
	BasePath string
	// Encoding decodes local files.
	Encoding string
}

// Option customises the resolver.
type Option func(*Resolver)

// WithRemoteProvider enables repository lookups.
func WithRemoteProvider(provider interfaces.RemoteProvider) Option {
	return func(r *Resolver) {
		r.remote = provider
	}
}

// WithImageLocalizer enables image localization for remote content.
func WithImageLocalizer(localizer ImageLocalizer) Option {
	return func(r *Resolver) {
		r.localizer = localizer
	}
}

// WithLogger overrides the resolver logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver implements interfaces.SnippetResolver.
type Resolver struct {
	cfg       Config
	reader    interfaces.LocalReader
	remote    interfaces.RemoteProvider
	localizer ImageLocalizer
	logger    interfaces.Logger
}

// NewResolver constructs a resolver reading local files through reader. A nil
// reader falls back to FileReader.
func NewResolver(cfg Config, reader interfaces.LocalReader, opts ...Option) *Resolver {
	if reader == nil {
		reader = NewFileReader()
	}
	if strings.TrimSpace(cfg.Encoding) == "" {
		cfg.Encoding = DefaultEncoding
	}
	r := &Resolver{
		cfg:    cfg,
		reader: reader,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve returns the text a snippet call expands to. Remote content is
// localized before the section is extracted and the header is stripped last.
func (r *Resolver) Resolve(ctx context.Context, req interfaces.SnippetRequest) (string, error) {
	req.File = strings.TrimSpace(req.File)
	if req.File == "" {
		return "", ErrFileRequired
	}
	logger := logging.WithSnippetContext(r.logger.WithContext(ctx), req)

	var (
		content string
		err     error
	)
	if strings.TrimSpace(req.Repository) != "" {
		logger.Debug("source.remote")
		content, err = r.fromRemote(ctx, req, logger)
	} else {
		logger.Debug("source.local")
		content, err = r.fromLocal(req)
	}
	if err != nil {
		return "", err
	}

	content, err = section.Extract(content, req.Section)
	if err != nil {
		return "", fmt.Errorf("snippet %s: %w", describe(req), err)
	}

	if req.SkipHeader {
		content = StripFirstLine(content)
	}
	return content, nil
}

func (r *Resolver) fromLocal(req interfaces.SnippetRequest) (string, error) {
	path := r.LocalPath(req.File)
	content, err := r.reader.ReadText(path, r.cfg.Encoding)
	if err != nil {
		return "", &NotFoundError{File: req.File, Path: path, Err: err}
	}
	return content, nil
}

func (r *Resolver) fromRemote(ctx context.Context, req interfaces.SnippetRequest, logger interfaces.Logger) (string, error) {
	if r.remote == nil {
		return "", remote.NewFetchError(req.Repository, req.File, req.Ref, ErrRemoteUnavailable)
	}
	sourcePath := strings.TrimPrefix(req.File, "/")

	content, err := r.remote.FetchText(ctx, req.Repository, sourcePath, req.Ref)
	if err != nil {
		return "", remote.NewFetchError(req.Repository, sourcePath, req.Ref, err)
	}

	if r.localizer == nil {
		return content, nil
	}
	if strings.TrimSpace(req.Destination) == "" {
		logger.Debug("source.images_not_localized", "reason", "no destination")
		return content, nil
	}
	result, err := r.localizer.Localize(ctx, images.Request{
		DestinationRoot: req.Destination,
		SourcePath:      sourcePath,
		Repository:      req.Repository,
		Ref:             req.Ref,
		Content:         content,
	})
	if err != nil {
		return "", fmt.Errorf("snippet %s: localize images: %w", describe(req), err)
	}
	if len(result.Skipped) > 0 {
		logger.Warn("source.images_skipped", "count", len(result.Skipped))
	}
	return result.Content, nil
}

// LocalPath maps a file identifier onto the filesystem. Absolute paths are
// used as is; relative ones are joined to the base path.
func (r *Resolver) LocalPath(file string) string {
	if filepath.IsAbs(file) {
		return filepath.Clean(file)
	}
	return filepath.Join(r.cfg.BasePath, filepath.FromSlash(file))
}

// StripFirstLine removes exactly the first line of text including its line
// terminator. Text without a newline becomes empty.
func StripFirstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[idx+1:]
	}
	return ""
}

// IsNotFound reports whether err is a local source failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSourceNotFound)
}

func describe(req interfaces.SnippetRequest) string {
	if strings.TrimSpace(req.Repository) == "" {
		return req.File
	}
	ref := req.Ref
	if ref == "" {
		ref = "default branch"
	}
	return fmt.Sprintf("%s from %s@%s", req.File, req.Repository, ref)
}

var _ interfaces.SnippetResolver = (*Resolver)(nil)
