package snippet_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-snippet"
	ditesting "github.com/goliatone/go-snippet/internal/di/testing"
	"github.com/goliatone/go-snippet/internal/shortcode"
)

func newModule(t *testing.T, files map[string]string, mutate func(*snippet.Config), opts ...snippet.Option) (*snippet.Module, snippet.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := snippet.DefaultConfig()
	cfg.BasePath = filepath.Join(root, "docs")
	cfg.Generator.OutputDir = filepath.Join(root, "site")
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range files {
		full := filepath.Join(cfg.BasePath, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if mutate != nil {
		mutate(&cfg)
	}
	module, err := snippet.New(cfg, opts...)
	if err != nil {
		t.Fatalf("snippet.New: %v", err)
	}
	return module, cfg
}

func TestModuleResolveLocalSection(t *testing.T) {
	module, _ := newModule(t, map[string]string{
		"shared/setup.md": "# Setup\n## Linux\napt install\n## macOS\nbrew install\n",
	}, nil)

	got, err := module.Resolve(context.Background(), snippet.SnippetRequest{
		File:       "shared/setup.md",
		Section:    "Linux",
		SkipHeader: true,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "apt install\n" {
		t.Fatalf("unexpected snippet %q", got)
	}
}

func TestModuleResolveRemoteThroughProvider(t *testing.T) {
	mem := ditesting.NewMemoryRemote()
	mem.Put("acme/tool", "README.md", "", []byte("# Tool\nremote text\n"))
	module, _ := newModule(t, nil, func(cfg *snippet.Config) {
		cfg.Remote.Cache.Enabled = false
	}, snippet.WithRemoteProvider(mem))

	got, err := module.Resolve(context.Background(), snippet.SnippetRequest{
		File:       "README.md",
		Repository: "acme/tool",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "# Tool\nremote text\n" {
		t.Fatalf("unexpected snippet %q", got)
	}

	_, err = module.Resolve(context.Background(), snippet.SnippetRequest{
		File:       "MISSING.md",
		Repository: "acme/tool",
	})
	if !errors.Is(err, snippet.ErrResourceFetch) {
		t.Fatalf("expected ErrResourceFetch, got %v", err)
	}
}

func TestModuleRenderPageReportsMissingSection(t *testing.T) {
	module, _ := newModule(t, map[string]string{
		"index.md":       "{{< snippet file=\"shared/a.md\" section=\"Nope\" >}}",
		"shared/a.md":    "# A\n",
		"other/plain.md": "plain\n",
	}, nil)

	_, err := module.RenderPage(context.Background(), "index.md")
	if !errors.Is(err, snippet.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "index.md") {
		t.Fatalf("expected page named in error, got %v", err)
	}

	result, err := module.RenderPage(context.Background(), "other/plain.md")
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if result.Content != "plain\n" || result.Changed {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestModuleSectionsListsHeadings(t *testing.T) {
	module, _ := newModule(t, map[string]string{
		"guide.md": "# Guide\n```\n# not a heading\n```\n## Install\n### Extra\n",
	}, nil)

	headings, err := module.Sections(context.Background(), snippet.SnippetRequest{File: "guide.md", Section: "ignored"})
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	var titles []string
	for _, h := range headings {
		titles = append(titles, h.Title)
	}
	if strings.Join(titles, ",") != "Guide,Install,Extra" {
		t.Fatalf("unexpected headings %v", titles)
	}
}

func TestModuleBuildHTML(t *testing.T) {
	module, cfg := newModule(t, map[string]string{
		"index.md":    "---\ntitle: Welcome\n---\n{{< snippet file=\"shared/a.md\" >}}",
		"shared/a.md": "# A\nbody\n",
	}, func(cfg *snippet.Config) {
		cfg.Generator.Format = "html"
	})

	result, err := module.Build(context.Background(), snippet.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.PagesBuilt != 2 {
		t.Fatalf("expected two pages, got %+v", result)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Generator.OutputDir, "index.html"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(data), "<title>Welcome</title>") || !strings.Contains(string(data), "body") {
		t.Fatalf("unexpected html %q", data)
	}
}

func TestLoadConfigFeedsModule(t *testing.T) {
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	configPath := filepath.Join(root, "mkdocs.yml")
	yml := "site_name: demo\nplugins:\n  - search\n  - snippet:\n      base_path: " + docs + "\n      all_pages: false\n"
	if err := os.WriteFile(configPath, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := snippet.LoadConfig(configPath, snippet.WithEnvFiles())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BasePath != docs || cfg.AllPages {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := snippet.New(cfg); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := snippet.DefaultConfig()
	cfg.BasePath = ""
	if _, err := snippet.New(cfg); !errors.Is(err, snippet.ErrBasePathRequired) {
		t.Fatalf("expected ErrBasePathRequired, got %v", err)
	}
}

func TestModuleRecordsShortcodeMetrics(t *testing.T) {
	metrics := shortcode.NewCountingMetrics()
	module, _ := newModule(t, map[string]string{
		"shared/note.md": "# Note\nshared text\n",
	}, nil, snippet.WithShortcodeMetrics(metrics))

	result, err := module.ProcessPage(context.Background(), snippet.Page{
		Path:   "index.md",
		Source: "intro\n{{< snippet file=\"shared/note.md\" header=\"false\" >}}\n",
	})
	if err != nil {
		t.Fatalf("ProcessPage: %v", err)
	}
	if !strings.Contains(result.Content, "shared text") {
		t.Fatalf("expected expanded snippet, got %q", result.Content)
	}
	renders, failures, _ := metrics.Snapshot("snippet")
	if renders != 1 || failures != 0 {
		t.Fatalf("expected one successful render, got renders=%d failures=%d", renders, failures)
	}
}
