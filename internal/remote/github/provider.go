// Package github fetches snippet sources and images from GitHub repositories.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	gogithub "github.com/google/go-github/v66/github"

	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/internal/remote"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// ErrNotUTF8 marks text fetches whose payload is not valid UTF-8.
var ErrNotUTF8 = errors.New("github: content is not valid utf-8")

// Config carries the credentials and endpoint used to reach the API. The token
// is supplied by the caller; the provider never reads the environment.
type Config struct {
	Token string
	// BaseURL overrides the REST API root, e.g. a GitHub Enterprise endpoint.
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Option customises the provider.
type Option func(*Provider)

// WithLogger overrides the provider logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Provider implements interfaces.RemoteProvider over the repository contents API.
type Provider struct {
	client *gogithub.Client
	http   *http.Client
	logger interfaces.Logger
}

// NewProvider builds a provider from cfg.
func NewProvider(cfg Config, opts ...Option) (*Provider, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client := gogithub.NewClient(httpClient)
	if token := strings.TrimSpace(cfg.Token); token != "" {
		client = client.WithAuthToken(token)
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		parsed, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github: invalid base url %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = parsed
	}

	p := &Provider{
		client: client,
		http:   client.Client(),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// FetchText returns the file at path decoded as UTF-8.
func (p *Provider) FetchText(ctx context.Context, repository, path, ref string) (string, error) {
	data, err := p.FetchBinary(ctx, repository, path, ref)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", remote.NewFetchError(repository, path, ref, ErrNotUTF8)
	}
	return string(data), nil
}

// FetchBinary returns the raw bytes of the file at path.
func (p *Provider) FetchBinary(ctx context.Context, repository, path, ref string) ([]byte, error) {
	owner, name, err := remote.SplitRepository(repository)
	if err != nil {
		return nil, remote.NewFetchError(repository, path, ref, err)
	}
	path = strings.TrimPrefix(strings.TrimSpace(path), "/")

	logger := logging.WithFields(p.logger, map[string]any{
		"repository": repository,
		"path":       path,
		"ref":        ref,
	})

	file, _, resp, err := p.client.Repositories.GetContents(ctx, owner, name, path, &gogithub.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			err = fmt.Errorf("%w: %v", remote.ErrNotFound, err)
		}
		logging.WithError(logger, err).Debug("remote.fetch_failed")
		return nil, remote.NewFetchError(repository, path, ref, err)
	}
	if file == nil {
		return nil, remote.NewFetchError(repository, path, ref, fmt.Errorf("%w: %s is a directory", remote.ErrNotFound, path))
	}

	data, err := p.decode(ctx, file)
	if err != nil {
		logging.WithError(logger, err).Debug("remote.decode_failed")
		return nil, remote.NewFetchError(repository, path, ref, err)
	}
	logger.Debug("remote.fetched", "bytes", len(data))
	return data, nil
}

// decode reads inline content, falling back to the download URL for files the
// contents API does not inline (larger than 1MB).
func (p *Provider) decode(ctx context.Context, file *gogithub.RepositoryContent) ([]byte, error) {
	if file.Content != nil && file.GetEncoding() != "none" {
		content, err := file.GetContent()
		if err != nil {
			return nil, err
		}
		return []byte(content), nil
	}
	if file.GetDownloadURL() == "" {
		return nil, fmt.Errorf("github: no content for %s", file.GetPath())
	}
	return p.download(ctx, file.GetDownloadURL())
}

func (p *Provider) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: download %s", remote.ErrNotFound, rawURL)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("github: download %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var _ interfaces.RemoteProvider = (*Provider)(nil)
