// Package images copies images referenced by remote Markdown next to the page
// that includes it and rewrites the references to the local copies.
package images

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/internal/remote"
	"github.com/goliatone/go-snippet/internal/section"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// BinaryFetcher retrieves raw bytes for a repository path at a ref.
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, repository, path, ref string) ([]byte, error)
}

// Request identifies the fetched document and where its images should land.
type Request struct {
	// DestinationRoot is the directory served alongside the including page.
	DestinationRoot string
	// SourcePath is the repository path of the document carrying Content.
	SourcePath string
	Repository string
	Ref        string
	Content    string
}

// Image describes one localized reference.
type Image struct {
	Target      string
	Source      string
	Destination string
	Reference   string
	Written     bool
}

// Skipped describes a reference left untouched because it could not be
// localized.
type Skipped struct {
	Target string
	Source string
	Err    error
}

// Result is the rewritten content plus a report of what happened to each
// relative image reference.
type Result struct {
	Content string
	Images  []Image
	Skipped []Skipped
}

// Option configures a Localizer.
type Option func(*Localizer)

// WithLogger overrides the logger used for skipped images.
func WithLogger(logger interfaces.Logger) Option {
	return func(l *Localizer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithStrictFetch makes the first failed image fetch abort the call.
func WithStrictFetch(strict bool) Option {
	return func(l *Localizer) {
		l.strict = strict
	}
}

// WithWriter overrides the filesystem writer.
func WithWriter(writer Writer) Option {
	return func(l *Localizer) {
		if writer != nil {
			l.writer = writer
		}
	}
}

// Localizer rewrites relative image references in remote content.
type Localizer struct {
	fetcher BinaryFetcher
	writer  Writer
	logger  interfaces.Logger
	strict  bool
}

// NewLocalizer builds a Localizer over fetcher.
func NewLocalizer(fetcher BinaryFetcher, opts ...Option) (*Localizer, error) {
	if fetcher == nil {
		return nil, ErrMissingFetcher
	}
	l := &Localizer{
		fetcher: fetcher,
		writer:  NewFileWriter(),
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

var imagePattern = regexp.MustCompile(`!\[[^\]]*\]\(\s*([^\s)]+)(?:\s+"[^"]*")?\s*\)`)

var imageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".webp": {},
	".bmp": {}, ".ico": {}, ".avif": {}, ".tif": {}, ".tiff": {},
}

type outcome struct {
	reference string
	ok        bool
}

// Localize fetches every relative image referenced by req.Content, writes it
// under req.DestinationRoot and returns the rewritten content. Absolute and
// external targets are never touched.
func (l *Localizer) Localize(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}
	matches := imagePattern.FindAllStringSubmatchIndex(req.Content, -1)
	if len(matches) == 0 {
		result.Content = req.Content
		return result, nil
	}

	logger := logging.WithFields(l.logger.WithContext(ctx), map[string]any{
		"repository":  req.Repository,
		"source_path": req.SourcePath,
	})

	var (
		out       strings.Builder
		last      int
		resolved  = map[string]outcome{}
		claimedBy = map[string]string{}
		base      = path.Dir(strings.TrimPrefix(req.SourcePath, "/"))
		fenced    = section.FencedRanges(req.Content)
	)

	for _, match := range matches {
		if insideAny(fenced, match[0]) {
			continue
		}
		start, end := match[2], match[3]
		target := req.Content[start:end]

		source, ok := relativeImage(base, target)
		if !ok {
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		done, seen := resolved[source]
		if !seen {
			var err error
			done, err = l.localize(ctx, req, target, source, claimedBy, result, logger)
			if err != nil {
				return nil, err
			}
			resolved[source] = done
		}
		if !done.ok {
			continue
		}

		out.WriteString(req.Content[last:start])
		out.WriteString(done.reference)
		last = end
	}
	out.WriteString(req.Content[last:])
	result.Content = out.String()
	return result, nil
}

func (l *Localizer) localize(ctx context.Context, req Request, target, source string, claimedBy map[string]string, result *Result, logger interfaces.Logger) (outcome, error) {
	if source == ".." || strings.HasPrefix(source, "../") {
		logger.Warn("images.outside_root", "target", target)
		result.Skipped = append(result.Skipped, Skipped{Target: target, Source: source, Err: ErrEscapesRoot})
		return outcome{}, nil
	}

	name := path.Base(source)
	if owner, taken := claimedBy[name]; taken && owner != source {
		logger.Warn("images.destination_conflict", "target", target, "claimed_by", owner)
		result.Skipped = append(result.Skipped, Skipped{
			Target: target,
			Source: source,
			Err:    fmt.Errorf("%w: %s", ErrDestinationConflict, name),
		})
		return outcome{}, nil
	}

	data, err := l.fetcher.FetchBinary(ctx, req.Repository, source, req.Ref)
	if err != nil {
		err = remote.NewFetchError(req.Repository, source, req.Ref, err)
		if l.strict || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return outcome{}, err
		}
		logging.WithError(logger, err).Warn("images.fetch_failed", "target", target)
		result.Skipped = append(result.Skipped, Skipped{Target: target, Source: source, Err: err})
		return outcome{}, nil
	}

	destination := filepath.Join(req.DestinationRoot, filepath.FromSlash(name))
	written := false
	if !writesDisabled(ctx) {
		if written, err = l.writer.Write(destination, data); err != nil {
			return outcome{}, err
		}
	}
	claimedBy[name] = source

	reference := (&url.URL{Path: name}).EscapedPath()
	result.Images = append(result.Images, Image{
		Target:      target,
		Source:      source,
		Destination: destination,
		Reference:   reference,
		Written:     written,
	})
	logger.Debug("images.localized", "target", target, "destination", destination, "written", written)
	return outcome{reference: reference, ok: true}, nil
}

func insideAny(ranges [][2]int, offset int) bool {
	for _, r := range ranges {
		if offset >= r[0] && offset < r[1] {
			return true
		}
	}
	return false
}

// relativeImage resolves target against base when it is a relative path to a
// known image type. The returned path is slash separated and cleaned.
func relativeImage(base, target string) (string, bool) {
	if target == "" || strings.HasPrefix(target, "/") || strings.HasPrefix(target, "#") || strings.HasPrefix(target, `\`) {
		return "", false
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" || parsed.Opaque != "" || parsed.Path == "" {
		return "", false
	}
	if _, ok := imageExtensions[strings.ToLower(path.Ext(parsed.Path))]; !ok {
		return "", false
	}
	return path.Join(base, parsed.Path), true
}
