// Package remote holds the remote content provider plumbing: fetch errors,
// the GitHub-backed provider and a caching decorator.
package remote

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-snippet/internal/logging"
	"github.com/goliatone/go-snippet/pkg/interfaces"
	"github.com/viccon/sturdyc"
)

// CacheOptions sizes the in-memory fetch cache.
type CacheOptions struct {
	Capacity           int
	Shards             int
	TTL                time.Duration
	EvictionPercentage int
}

// DefaultCacheOptions returns the sizing used when none is configured.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		Capacity:           1024,
		Shards:             8,
		TTL:                10 * time.Minute,
		EvictionPercentage: 10,
	}
}

func (o CacheOptions) normalized() CacheOptions {
	defaults := DefaultCacheOptions()
	if o.Capacity <= 0 {
		o.Capacity = defaults.Capacity
	}
	if o.Shards <= 0 {
		o.Shards = defaults.Shards
	}
	if o.TTL <= 0 {
		o.TTL = defaults.TTL
	}
	if o.EvictionPercentage <= 0 || o.EvictionPercentage > 100 {
		o.EvictionPercentage = defaults.EvictionPercentage
	}
	return o
}

// CacheOption customises the cached provider.
type CacheOption func(*CachedProvider)

// WithCacheLogger overrides the logger used for cache diagnostics.
func WithCacheLogger(logger interfaces.Logger) CacheOption {
	return func(p *CachedProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// CachedProvider memoises successful fetches of the wrapped provider. Failed
// fetches are never cached. Concurrent requests for the same resource share a
// single upstream call, which runs detached from any one caller's
// cancellation. Each caller still returns as soon as its own context is done.
type CachedProvider struct {
	next   interfaces.RemoteProvider
	text   *sturdyc.Client[string]
	binary *sturdyc.Client[[]byte]
	logger interfaces.Logger
}

// NewCachedProvider decorates next with an in-memory cache.
func NewCachedProvider(next interfaces.RemoteProvider, opts CacheOptions, options ...CacheOption) *CachedProvider {
	opts = opts.normalized()
	p := &CachedProvider{
		next:   next,
		text:   sturdyc.New[string](opts.Capacity, opts.Shards, opts.TTL, opts.EvictionPercentage),
		binary: sturdyc.New[[]byte](opts.Capacity, opts.Shards, opts.TTL, opts.EvictionPercentage),
		logger: logging.NoOp(),
	}
	for _, option := range options {
		if option != nil {
			option(p)
		}
	}
	return p
}

func (p *CachedProvider) FetchText(ctx context.Context, repository, path, ref string) (string, error) {
	key := cacheKey("text", repository, path, ref)
	if cached, ok := p.text.Get(key); ok {
		p.logger.Trace("remote.cache_hit", "key", key)
		return cached, nil
	}
	return awaitShared(ctx, func(shared context.Context) (string, error) {
		return p.text.GetOrFetch(shared, key, func(fetchCtx context.Context) (string, error) {
			p.logger.Trace("remote.cache_miss", "key", key)
			return p.next.FetchText(fetchCtx, repository, path, ref)
		})
	})
}

func (p *CachedProvider) FetchBinary(ctx context.Context, repository, path, ref string) ([]byte, error) {
	key := cacheKey("binary", repository, path, ref)
	if cached, ok := p.binary.Get(key); ok {
		p.logger.Trace("remote.cache_hit", "key", key)
		return cloneBytes(cached), nil
	}
	data, err := awaitShared(ctx, func(shared context.Context) ([]byte, error) {
		return p.binary.GetOrFetch(shared, key, func(fetchCtx context.Context) ([]byte, error) {
			p.logger.Trace("remote.cache_miss", "key", key)
			return p.next.FetchBinary(fetchCtx, repository, path, ref)
		})
	})
	if err != nil {
		return nil, err
	}
	return cloneBytes(data), nil
}

// Next returns the wrapped provider.
func (p *CachedProvider) Next() interfaces.RemoteProvider {
	return p.next
}

// awaitShared runs fetch under a context that keeps ctx values but not its
// cancellation, so the upstream call a cache flight shares is bounded by the
// provider's own timeout. The caller is released as soon as ctx is done.
func awaitShared[T any](ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := fetch(context.WithoutCancel(ctx))
		done <- outcome{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case result := <-done:
		return result.value, result.err
	}
}

// IsNotFound reports whether err describes a missing remote resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func cacheKey(kind, repository, path, ref string) string {
	return strings.Join([]string{
		kind,
		strings.ToLower(strings.TrimSpace(repository)),
		strings.TrimSpace(ref),
		strings.TrimPrefix(strings.TrimSpace(path), "/"),
	}, "|")
}

func cloneBytes(data []byte) []byte {
	if data == nil {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

var _ interfaces.RemoteProvider = (*CachedProvider)(nil)
