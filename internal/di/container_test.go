package di_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	snippetcmd "github.com/goliatone/go-snippet/internal/commands/snippet"
	"github.com/goliatone/go-snippet/internal/commands/fixtures"
	"github.com/goliatone/go-snippet/internal/di"
	ditesting "github.com/goliatone/go-snippet/internal/di/testing"
	"github.com/goliatone/go-snippet/internal/generator"
	"github.com/goliatone/go-snippet/internal/pages"
	"github.com/goliatone/go-snippet/internal/remote/github"
	"github.com/goliatone/go-snippet/internal/runtimeconfig"
)

func testConfig(t *testing.T) runtimeconfig.Config {
	t.Helper()
	root := t.TempDir()
	cfg := runtimeconfig.DefaultConfig()
	cfg.BasePath = filepath.Join(root, "docs")
	cfg.Generator.OutputDir = filepath.Join(root, "site")
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		t.Fatalf("mkdir docs: %v", err)
	}
	return cfg
}

func writeDoc(t *testing.T, cfg runtimeconfig.Config, rel, content string) {
	t.Helper()
	full := filepath.Join(cfg.BasePath, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generator.Format = "pdf"
	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrOutputFormatInvalid) {
		t.Fatalf("expected ErrOutputFormatInvalid, got %v", err)
	}
}

func TestNewContainerDefaultsToCachedGitHubProvider(t *testing.T) {
	cfg := testConfig(t)
	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	cache := container.RemoteCache()
	if cache == nil {
		t.Fatal("expected remote cache enabled by default")
	}
	if _, ok := cache.Next().(*github.Provider); !ok {
		t.Fatalf("expected github provider behind the cache, got %T", cache.Next())
	}
	if container.ImageLocalizer() == nil {
		t.Fatal("expected image localizer enabled by default")
	}
	if container.Commands() == nil || container.Commands().Build == nil {
		t.Fatal("expected command handlers wired")
	}
}

func TestNewContainerWithoutCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Remote.Cache.Enabled = false
	cfg.Images.Enabled = false

	container, mem, err := ditesting.NewSnippetContainer(cfg)
	if err != nil {
		t.Fatalf("NewSnippetContainer: %v", err)
	}
	if container.RemoteCache() != nil {
		t.Fatal("expected cache disabled")
	}
	if container.RemoteProvider() != mem {
		t.Fatalf("expected memory provider used directly, got %T", container.RemoteProvider())
	}
	if container.ImageLocalizer() != nil {
		t.Fatal("expected image localizer disabled")
	}
}

func TestContainerProcessesRemoteSnippetWithImages(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg, "guide/install.md", `{{< snippet file="README.md" section="Usage" repository="acme/tool" ref="v1" >}}`)

	container, mem, err := ditesting.NewSnippetContainer(cfg)
	if err != nil {
		t.Fatalf("NewSnippetContainer: %v", err)
	}
	mem.Put("acme/tool", "README.md", "v1", []byte("# Tool\nintro\n## Usage\n![shot](docs/shot.png)\nrun it\n"))
	mem.Put("acme/tool", "docs/shot.png", "v1", []byte("png"))

	doc, err := container.MarkdownService().Load(context.Background(), "guide/install.md")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	result, err := container.Processor().ProcessPage(context.Background(), pages.Page{
		Path:   doc.FilePath,
		Source: string(doc.Source),
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Content != "## Usage\n![shot](shot.png)\nrun it\n" {
		t.Fatalf("unexpected content %q", result.Content)
	}
	image := filepath.Join(cfg.BasePath, "guide", "install", "shot.png")
	if data, err := os.ReadFile(image); err != nil || string(data) != "png" {
		t.Fatalf("expected localized image at %s: %v", image, err)
	}

	// The cache serves the second resolution.
	before := len(mem.Fetches())
	if _, err := container.Processor().ProcessPage(context.Background(), pages.Page{Path: doc.FilePath, Source: string(doc.Source)}); err != nil {
		t.Fatalf("second process: %v", err)
	}
	if after := len(mem.Fetches()); after != before {
		t.Fatalf("expected cached fetches, got %d new calls", after-before)
	}
}

func TestContainerBuildsSiteThroughCommand(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg, "index.md", "# Home\n{{< snippet file=\"partials/note.md\" >}}")
	writeDoc(t, cfg, "partials/note.md", "a note\n")

	reg := fixtures.NewRecordingRegistry()
	container, _, err := ditesting.NewSnippetContainer(cfg, di.WithCommandRegistry(reg))
	if err != nil {
		t.Fatalf("NewSnippetContainer: %v", err)
	}
	if len(reg.Handlers) != 3 {
		t.Fatalf("expected handlers registered, got %d", len(reg.Handlers))
	}

	var report *generator.BuildResult
	err = container.Commands().Build.Execute(context.Background(), snippetcmd.BuildSiteCommand{
		Report: func(r *generator.BuildResult) { report = r },
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report == nil || report.PagesBuilt == 0 {
		t.Fatalf("expected pages built, got %+v", report)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Generator.OutputDir, "index.md"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "a note") {
		t.Fatalf("expected snippet expanded, got %q", data)
	}
}
