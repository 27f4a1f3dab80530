package ditesting

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-snippet/internal/di"
	"github.com/goliatone/go-snippet/internal/remote"
	"github.com/goliatone/go-snippet/internal/runtimeconfig"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// MemoryRemote serves repository files from memory and records every fetch.
type MemoryRemote struct {
	mu      sync.Mutex
	files   map[string][]byte
	fetches []FetchCall
}

// FetchCall captures a single provider invocation.
type FetchCall struct {
	Kind       string
	Repository string
	Path       string
	Ref        string
}

var _ interfaces.RemoteProvider = (*MemoryRemote)(nil)

// NewMemoryRemote constructs an empty in-memory provider.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{files: map[string][]byte{}}
}

// Put stores content for repository, path and ref. An empty ref stands for
// the default branch.
func (m *MemoryRemote) Put(repository, path, ref string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[memoryKey(repository, path, ref)] = append([]byte(nil), content...)
}

// FetchText implements interfaces.RemoteProvider.
func (m *MemoryRemote) FetchText(ctx context.Context, repository, path, ref string) (string, error) {
	data, err := m.fetch(ctx, "text", repository, path, ref)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FetchBinary implements interfaces.RemoteProvider.
func (m *MemoryRemote) FetchBinary(ctx context.Context, repository, path, ref string) ([]byte, error) {
	return m.fetch(ctx, "binary", repository, path, ref)
}

// Fetches returns a copy of the recorded calls.
func (m *MemoryRemote) Fetches() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FetchCall, len(m.fetches))
	copy(out, m.fetches)
	return out
}

func (m *MemoryRemote) fetch(ctx context.Context, kind, repository, path, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, FetchCall{Kind: kind, Repository: repository, Path: path, Ref: ref})
	data, ok := m.files[memoryKey(repository, path, ref)]
	if !ok {
		return nil, remote.NewFetchError(repository, path, ref, remote.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func memoryKey(repository, path, ref string) string {
	return strings.ToLower(repository) + "|" + ref + "|" + strings.TrimPrefix(path, "/")
}

// NewSnippetContainer builds a container whose remote lookups are served by
// a fresh MemoryRemote.
func NewSnippetContainer(cfg runtimeconfig.Config, opts ...di.Option) (*di.Container, *MemoryRemote, error) {
	mem := NewMemoryRemote()
	options := append([]di.Option{di.WithRemoteProvider(mem)}, opts...)
	container, err := di.NewContainer(cfg, options...)
	if err != nil {
		return nil, nil, err
	}
	return container, mem, nil
}
