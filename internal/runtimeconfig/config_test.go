package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-snippet/internal/runtimeconfig"
)

func TestDefaultConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if cfg.BasePath != "docs" || !cfg.AllPages || cfg.Encoding != "utf-8" {
		t.Fatalf("unexpected snippet defaults: %+v", cfg)
	}
	if !cfg.UseDirectoryURLs {
		t.Fatal("expected directory urls to default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresBasePath(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.BasePath = "  "

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrBasePathRequired) {
		t.Fatalf("expected ErrBasePathRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownEncoding(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Encoding = "klingon-8"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrEncodingUnsupported) {
		t.Fatalf("expected ErrEncodingUnsupported, got %v", err)
	}
}

func TestConfigValidate_AcceptsLatin1(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Encoding = "latin1"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected latin1 to be accepted, got %v", err)
	}
}

func TestConfigValidate_RequiresOutputDir(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Generator.OutputDir = " "

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrOutputDirRequired) {
		t.Fatalf("expected ErrOutputDirRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Generator.Format = "pdf"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrOutputFormatInvalid) {
		t.Fatalf("expected ErrOutputFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownMarkdownExtension(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Parser.Extensions = []string{"gfm", "mermaid"}

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrMarkdownExtensionUnknown) {
		t.Fatalf("expected ErrMarkdownExtensionUnknown, got %v", err)
	}
}

func TestNormalizeFormat(t *testing.T) {
	cases := map[string]string{
		"":         runtimeconfig.FormatMarkdown,
		"Markdown": runtimeconfig.FormatMarkdown,
		" HTML ":   runtimeconfig.FormatHTML,
		"pdf":      "pdf",
	}
	for input, want := range cases {
		if got := runtimeconfig.NormalizeFormat(input); got != want {
			t.Fatalf("NormalizeFormat(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParse_TopLevelBlock(t *testing.T) {
	cfg, err := runtimeconfig.Parse([]byte(`
snippet:
  base_path: documentation
  all_pages: false
  encoding: latin1
  remote:
    timeout: 5s
    cache:
      ttl: 1m
  generator:
    format: html
    workers: 4
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.BasePath != "documentation" || cfg.AllPages || cfg.Encoding != "latin1" {
		t.Fatalf("unexpected snippet block: %+v", cfg)
	}
	if cfg.Remote.Timeout != 5*time.Second || cfg.Remote.Cache.TTL != time.Minute {
		t.Fatalf("expected durations to decode, got %+v", cfg.Remote)
	}
	if cfg.Remote.Cache.Capacity != 1024 {
		t.Fatalf("expected untouched cache fields to keep defaults, got %d", cfg.Remote.Cache.Capacity)
	}
	if cfg.Generator.Format != "html" || cfg.Generator.Workers != 4 || cfg.Generator.OutputDir != "site" {
		t.Fatalf("unexpected generator block: %+v", cfg.Generator)
	}
}

func TestParse_PluginsListAndTopLevelDirectoryURLs(t *testing.T) {
	cfg, err := runtimeconfig.Parse([]byte(`
site_name: Docs
use_directory_urls: false
plugins:
  - search
  - snippet:
      base_path: site-docs
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.BasePath != "site-docs" {
		t.Fatalf("expected plugin block to be read, got %q", cfg.BasePath)
	}
	if cfg.UseDirectoryURLs {
		t.Fatal("expected top-level use_directory_urls to apply")
	}
}

func TestParse_BarePluginEntryKeepsDefaults(t *testing.T) {
	cfg, err := runtimeconfig.Parse([]byte("plugins:\n  - snippet\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.BasePath != "docs" || !cfg.AllPages {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestParse_SchemaViolationsListLocations(t *testing.T) {
	_, err := runtimeconfig.Parse([]byte(`
snippet:
  all_pages: "sometimes"
  unknown_key: 1
`))
	if !errors.Is(err, runtimeconfig.ErrConfigSchema) {
		t.Fatalf("expected ErrConfigSchema, got %v", err)
	}
	var schemaErr *runtimeconfig.SchemaError
	if !errors.As(err, &schemaErr) || len(schemaErr.Issues) == 0 {
		t.Fatalf("expected schema issues, got %v", err)
	}
	if !strings.Contains(err.Error(), "all_pages") {
		t.Fatalf("expected the offending key in the message, got %q", err.Error())
	}
}

func TestParse_RejectsNonObjectBlock(t *testing.T) {
	_, err := runtimeconfig.Parse([]byte("snippet: yes-please\n"))
	if !errors.Is(err, runtimeconfig.ErrConfigSchema) {
		t.Fatalf("expected ErrConfigSchema, got %v", err)
	}
}

func TestApplyEnv_TokenPrecedence(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Remote.Token = "from-file"

	env := map[string]string{"GITHUB_TOKEN": "generic"}
	lookup := func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	if err := runtimeconfig.ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Remote.Token != "generic" {
		t.Fatalf("expected GITHUB_TOKEN to override file token, got %q", cfg.Remote.Token)
	}

	env["SNIPPET_GITHUB_TOKEN"] = "specific"
	if err := runtimeconfig.ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Remote.Token != "specific" {
		t.Fatalf("expected SNIPPET_GITHUB_TOKEN to win, got %q", cfg.Remote.Token)
	}
}

func TestApplyEnv_RejectsInvalidBool(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	lookup := func(key string) (string, bool) {
		if key == "SNIPPET_ALL_PAGES" {
			return "perhaps", true
		}
		return "", false
	}
	if err := runtimeconfig.ApplyEnv(&cfg, lookup); !errors.Is(err, runtimeconfig.ErrEnvInvalid) {
		t.Fatalf("expected ErrEnvInvalid, got %v", err)
	}
}

func TestLoad_FileDotenvAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "mkdocs.yml")
	if err := os.WriteFile(configPath, []byte("snippet:\n  base_path: pages\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("GITHUB_TOKEN=dotenv-token\nSNIPPET_LOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}

	process := map[string]string{"SNIPPET_LOG_LEVEL": "warn"}
	cfg, err := runtimeconfig.Load(configPath,
		runtimeconfig.WithEnvFiles(envPath, filepath.Join(dir, "missing.env")),
		runtimeconfig.WithLookupEnv(func(key string) (string, bool) {
			value, ok := process[key]
			return value, ok
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BasePath != "pages" {
		t.Fatalf("expected file value, got %q", cfg.BasePath)
	}
	if cfg.Remote.Token != "dotenv-token" {
		t.Fatalf("expected dotenv token, got %q", cfg.Remote.Token)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected process environment to beat dotenv, got %q", cfg.Logging.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := runtimeconfig.Load(filepath.Join(t.TempDir(), "nope.yml"), runtimeconfig.WithEnvFiles())
	if !errors.Is(err, runtimeconfig.ErrConfigRead) {
		t.Fatalf("expected ErrConfigRead, got %v", err)
	}
}

func TestLoad_ValidatesResult(t *testing.T) {
	_, err := runtimeconfig.Load("",
		runtimeconfig.WithEnvFiles(),
		runtimeconfig.WithLookupEnv(func(key string) (string, bool) {
			if key == "SNIPPET_FORMAT" {
				return "pdf", true
			}
			return "", false
		}),
	)
	if !errors.Is(err, runtimeconfig.ErrOutputFormatInvalid) {
		t.Fatalf("expected ErrOutputFormatInvalid, got %v", err)
	}
}
