package images

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-snippet/internal/remote"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

func TestLocalizeLeavesExternalTargetsUntouched(t *testing.T) {
	fetcher := &stubFetcher{}
	localizer := newTestLocalizer(t, fetcher)
	root := filepath.Join(t.TempDir(), "page")

	content := strings.Join([]string{
		"![abs](/img/logo.png)",
		"![remote](https://example.com/logo.png)",
		"![proto](//cdn.example.com/logo.png)",
		"![data](data:image/png;base64,AAAA)",
		"![anchor](#logo.png)",
		"![doc](./notes.md)",
		"[link](./pic.png)",
		"plain text",
	}, "\n")

	result, err := localizer.Localize(context.Background(), Request{
		DestinationRoot: root,
		SourcePath:      "docs/README.md",
		Repository:      "acme/docs",
		Content:         content,
	})
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	if result.Content != content {
		t.Fatalf("expected content unchanged\nwant: %q\ngot:  %q", content, result.Content)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("expected no fetches, got %v", fetcher.calls)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("expected destination root to not exist, stat err: %v", err)
	}
}

func TestLocalizeCopiesRelativeImage(t *testing.T) {
	fetcher := &stubFetcher{files: map[string][]byte{"docs/pic.png": []byte("png-bytes")}}
	localizer := newTestLocalizer(t, fetcher)
	root := filepath.Join(t.TempDir(), "guide", "install")

	result, err := localizer.Localize(context.Background(), Request{
		DestinationRoot: root,
		SourcePath:      "docs/README.md",
		Repository:      "acme/docs",
		Ref:             "v1.2.0",
		Content:         "![img](./pic.png)\ntext",
	})
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	if result.Content != "![img](pic.png)\ntext" {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if len(result.Images) != 1 || !result.Images[0].Written {
		t.Fatalf("expected one written image, got %+v", result.Images)
	}

	data, err := os.ReadFile(filepath.Join(root, "pic.png"))
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected bytes %q", data)
	}
	if got := fetcher.calls[0]; got != "acme/docs:docs/pic.png@v1.2.0" {
		t.Fatalf("unexpected fetch %q", got)
	}
}

func TestLocalizeIsIdempotent(t *testing.T) {
	fetcher := &stubFetcher{files: map[string][]byte{"assets/diagram.svg": []byte("<svg/>")}}
	localizer := newTestLocalizer(t, fetcher)
	root := t.TempDir()
	req := Request{
		DestinationRoot: root,
		SourcePath:      "docs/guide.md",
		Repository:      "acme/docs",
		Content:         "see ![d](../assets/diagram.svg \"Diagram\")",
	}

	first, err := localizer.Localize(context.Background(), req)
	if err != nil {
		t.Fatalf("first localize: %v", err)
	}
	destination := filepath.Join(root, "diagram.svg")
	before, err := os.Stat(destination)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}

	second, err := localizer.Localize(context.Background(), req)
	if err != nil {
		t.Fatalf("second localize: %v", err)
	}
	if first.Content != second.Content {
		t.Fatalf("expected identical output, got %q and %q", first.Content, second.Content)
	}
	if second.Content != "see ![d](diagram.svg \"Diagram\")" {
		t.Fatalf("unexpected content %q", second.Content)
	}
	if second.Images[0].Written {
		t.Fatal("expected second call to leave identical file untouched")
	}
	after, err := os.Stat(destination)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatalf("expected unchanged mod time, got %v then %v", before.ModTime(), after.ModTime())
	}
}

func TestLocalizeFetchesRepeatedTargetOnce(t *testing.T) {
	fetcher := &stubFetcher{files: map[string][]byte{"docs/pic.png": []byte("png")}}
	localizer := newTestLocalizer(t, fetcher)

	result, err := localizer.Localize(context.Background(), Request{
		DestinationRoot: t.TempDir(),
		SourcePath:      "docs/README.md",
		Repository:      "acme/docs",
		Content:         "![a](pic.png) and ![b](./pic.png?raw=true#top)",
	})
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("expected a single fetch, got %v", fetcher.calls)
	}
	if result.Content != "![a](pic.png) and ![b](pic.png)" {
		t.Fatalf("unexpected content %q", result.Content)
	}
}

func TestLocalizeDegradesOnFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{files: map[string][]byte{"docs/ok.png": []byte("ok")}}
	logger := &recordingLogger{}
	localizer := newTestLocalizer(t, fetcher, WithLogger(logger))
	root := t.TempDir()
	content := "![gone](./missing.png)\n![ok](ok.png)\ntext"

	result, err := localizer.Localize(context.Background(), Request{
		DestinationRoot: root,
		SourcePath:      "docs/README.md",
		Repository:      "acme/docs",
		Content:         content,
	})
	if err != nil {
		t.Fatalf("expected degrade, got %v", err)
	}
	if result.Content != "![gone](./missing.png)\n![ok](ok.png)\ntext" {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected one skipped image, got %+v", result.Skipped)
	}
	skipped := result.Skipped[0]
	if !errors.Is(skipped.Err, remote.ErrResourceFetch) {
		t.Fatalf("expected resource fetch error, got %v", skipped.Err)
	}
	var fetchErr *remote.FetchError
	if !errors.As(skipped.Err, &fetchErr) || fetchErr.Path != "docs/missing.png" {
		t.Fatalf("expected fetch error for docs/missing.png, got %#v", skipped.Err)
	}
	if !logger.has("warn", "images.fetch_failed") {
		t.Fatalf("expected fetch warning, got %v", logger.entries)
	}
	if _, err := os.Stat(filepath.Join(root, "missing.png")); !os.IsNotExist(err) {
		t.Fatalf("expected no file for missing image, stat err: %v", err)
	}
}

func TestLocalizeStrictFetchAborts(t *testing.T) {
	fetcher := &stubFetcher{}
	localizer := newTestLocalizer(t, fetcher, WithStrictFetch(true))

	_, err := localizer.Localize(context.Background(), Request{
		DestinationRoot: t.TempDir(),
		SourcePath:      "README.md",
		Repository:      "acme/docs",
		Content:         "![gone](missing.png)",
	})
	if !errors.Is(err, remote.ErrResourceFetch) {
		t.Fatalf("expected resource fetch error, got %v", err)
	}
	if !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("expected wrapped not found cause, got %v", err)
	}
}

func TestLocalizeSkipsTargetsOutsideRoot(t *testing.T) {
	fetcher := &stubFetcher{}
	localizer := newTestLocalizer(t, fetcher)

	result, err := localizer.Localize(context.Background(), Request{
		DestinationRoot: t.TempDir(),
		SourcePath:      "README.md",
		Repository:      "acme/docs",
		Content:         "![up](../secret.png)",
	})
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	if result.Content != "![up](../secret.png)" {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if len(result.Skipped) != 1 || !errors.Is(result.Skipped[0].Err, ErrEscapesRoot) {
		t.Fatalf("expected escape skip, got %+v", result.Skipped)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("expected no fetch, got %v", fetcher.calls)
	}
}

func TestLocalizeRejectsFlattenConflicts(t *testing.T) {
	fetcher := &stubFetcher{files: map[string][]byte{
		"docs/a/logo.png": []byte("a"),
		"docs/b/logo.png": []byte("b"),
	}}
	localizer := newTestLocalizer(t, fetcher)
	root := t.TempDir()

	result, err := localizer.Localize(context.Background(), Request{
		DestinationRoot: root,
		SourcePath:      "docs/README.md",
		Repository:      "acme/docs",
		Content:         "![a](a/logo.png) ![b](b/logo.png)",
	})
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	if result.Content != "![a](logo.png) ![b](b/logo.png)" {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if len(result.Skipped) != 1 || !errors.Is(result.Skipped[0].Err, ErrDestinationConflict) {
		t.Fatalf("expected conflict skip, got %+v", result.Skipped)
	}
	data, _ := os.ReadFile(filepath.Join(root, "logo.png"))
	if string(data) != "a" {
		t.Fatalf("expected first image to win, got %q", data)
	}
}

func TestLocalizeReturnsWriteErrors(t *testing.T) {
	fetcher := &stubFetcher{files: map[string][]byte{"pic.png": []byte("png")}}
	writeErr := errors.New("disk full")
	localizer := newTestLocalizer(t, fetcher, WithWriter(writerFunc(func(string, []byte) (bool, error) {
		return false, writeErr
	})))

	_, err := localizer.Localize(context.Background(), Request{
		DestinationRoot: t.TempDir(),
		SourcePath:      "README.md",
		Repository:      "acme/docs",
		Content:         "![p](pic.png)",
	})
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestNewLocalizerRequiresFetcher(t *testing.T) {
	if _, err := NewLocalizer(nil); !errors.Is(err, ErrMissingFetcher) {
		t.Fatalf("expected ErrMissingFetcher, got %v", err)
	}
}

func TestFileWriterConcurrentWritersProduceSameBytes(t *testing.T) {
	destination := filepath.Join(t.TempDir(), "nested", "pic.png")
	writer := NewFileWriter()
	payload := []byte("identical")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := writer.Write(destination, payload); err != nil {
				t.Errorf("write: %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(destination)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "identical" {
		t.Fatalf("unexpected bytes %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(destination))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, got %d entries", len(entries))
	}
}

func newTestLocalizer(t *testing.T, fetcher BinaryFetcher, opts ...Option) *Localizer {
	t.Helper()
	localizer, err := NewLocalizer(fetcher, opts...)
	if err != nil {
		t.Fatalf("new localizer: %v", err)
	}
	return localizer
}

type stubFetcher struct {
	mu    sync.Mutex
	files map[string][]byte
	calls []string
}

func (s *stubFetcher) FetchBinary(_ context.Context, repository, path, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, repository+":"+path+"@"+ref)
	data, ok := s.files[path]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return data, nil
}

type writerFunc func(string, []byte) (bool, error)

func (f writerFunc) Write(destination string, data []byte) (bool, error) {
	return f(destination, data)
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	entries []logEntry
}

func (r *recordingLogger) Trace(msg string, _ ...any) { r.add("trace", msg) }
func (r *recordingLogger) Debug(msg string, _ ...any) { r.add("debug", msg) }
func (r *recordingLogger) Info(msg string, _ ...any)  { r.add("info", msg) }
func (r *recordingLogger) Warn(msg string, _ ...any)  { r.add("warn", msg) }
func (r *recordingLogger) Error(msg string, _ ...any) { r.add("error", msg) }
func (r *recordingLogger) Fatal(msg string, _ ...any) { r.add("fatal", msg) }

func (r *recordingLogger) WithContext(context.Context) interfaces.Logger { return r }

func (r *recordingLogger) add(level, msg string) {
	r.entries = append(r.entries, logEntry{level: level, msg: msg})
}

func (r *recordingLogger) has(level, msg string) bool {
	for _, entry := range r.entries {
		if entry.level == level && entry.msg == msg {
			return true
		}
	}
	return false
}

func TestLocalizeWithoutWritesStillRewrites(t *testing.T) {
	fetcher := &stubFetcher{files: map[string][]byte{"docs/pic.png": []byte("png-bytes")}}
	localizer := newTestLocalizer(t, fetcher, WithWriter(writerFunc(func(destination string, _ []byte) (bool, error) {
		t.Fatalf("unexpected write to %s", destination)
		return false, nil
	})))
	root := filepath.Join(t.TempDir(), "guide")

	result, err := localizer.Localize(WithoutWrites(context.Background()), Request{
		DestinationRoot: root,
		SourcePath:      "docs/README.md",
		Repository:      "acme/docs",
		Content:         "![img](./pic.png)",
	})
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	if result.Content != "![img](pic.png)" {
		t.Fatalf("expected rewritten reference, got %q", result.Content)
	}
	if len(result.Images) != 1 || result.Images[0].Written {
		t.Fatalf("expected one unwritten image, got %+v", result.Images)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("expected no destination directory, stat err: %v", err)
	}
}

func TestLocalizeIgnoresImagesInFencedCode(t *testing.T) {
	fetcher := &stubFetcher{files: map[string][]byte{
		"docs/pic.png":    []byte("png-bytes"),
		"docs/sample.png": []byte("sample"),
	}}
	localizer := newTestLocalizer(t, fetcher)
	root := filepath.Join(t.TempDir(), "guide")

	content := "![real](./pic.png)\n```markdown\n![x](./sample.png)\n```\n"
	result, err := localizer.Localize(context.Background(), Request{
		DestinationRoot: root,
		SourcePath:      "docs/README.md",
		Repository:      "acme/docs",
		Content:         content,
	})
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	want := "![real](pic.png)\n```markdown\n![x](./sample.png)\n```\n"
	if result.Content != want {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("expected only the prose image fetched, got %v", fetcher.calls)
	}
	if _, err := os.Stat(filepath.Join(root, "sample.png")); !os.IsNotExist(err) {
		t.Fatalf("expected fenced sample not copied, stat err: %v", err)
	}
}
