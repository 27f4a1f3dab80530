package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-snippet/internal/markdown"
	"github.com/goliatone/go-snippet/internal/source"
)

var ErrBasePathRequired = errors.New("snippet config: base path is required")
var ErrEncodingUnsupported = errors.New("snippet config: encoding is not supported")

// ErrOutputDirRequired guards the site builder, which needs somewhere to write.
var ErrOutputDirRequired = errors.New("snippet config: output directory is required")
var ErrOutputFormatInvalid = errors.New("snippet config: output format must be md or html")
var ErrWorkersInvalid = errors.New("snippet config: workers must be zero or positive")
var ErrRemoteCacheInvalid = errors.New("snippet config: remote cache settings must be zero or positive")
var ErrRemoteBaseURLInvalid = errors.New("snippet config: remote base url must use http or https")
var ErrMarkdownExtensionUnknown = errors.New("snippet config: markdown extension is unknown")
var ErrLoggingProviderRequired = errors.New("snippet config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("snippet config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("snippet config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("snippet config: logging format is invalid")

const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// Config aggregates every setting read from the `snippet` configuration block.
type Config struct {
	// BasePath is the docs root. Relative snippet files resolve against it and
	// localized images land below it.
	BasePath string `yaml:"base_path"`
	// AllPages processes every page. When false only pages that contain a
	// snippet call are touched.
	AllPages bool   `yaml:"all_pages"`
	Encoding string `yaml:"encoding"`
	// UseDirectoryURLs mirrors the host setting that maps guide/install.md to
	// guide/install/.
	UseDirectoryURLs bool            `yaml:"use_directory_urls"`
	Remote           RemoteConfig    `yaml:"remote"`
	Images           ImagesConfig    `yaml:"images"`
	Shortcodes       ShortcodeConfig `yaml:"shortcodes"`
	Markdown         MarkdownConfig  `yaml:"markdown"`
	Generator        GeneratorConfig `yaml:"generator"`
	Logging          LoggingConfig   `yaml:"logging"`
}

// RemoteConfig configures the hosted repository provider and its cache.
type RemoteConfig struct {
	Token   string            `yaml:"token"`
	BaseURL string            `yaml:"base_url"`
	Timeout time.Duration     `yaml:"timeout"`
	Cache   RemoteCacheConfig `yaml:"cache"`
}

// RemoteCacheConfig mirrors the sturdyc sizing knobs.
type RemoteCacheConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Capacity           int           `yaml:"capacity"`
	Shards             int           `yaml:"shards"`
	TTL                time.Duration `yaml:"ttl"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
}

// ImagesConfig controls image localization.
type ImagesConfig struct {
	Enabled bool `yaml:"enabled"`
	// Strict aborts the include on the first failed image fetch.
	Strict bool `yaml:"strict"`
}

// ShortcodeConfig controls the shortcode front end.
type ShortcodeConfig struct {
	WordPress bool `yaml:"wordpress"`
}

// MarkdownConfig captures discovery and preview rendering options.
type MarkdownConfig struct {
	Pattern   string               `yaml:"pattern"`
	Exclude   []string             `yaml:"exclude"`
	Recursive bool                 `yaml:"recursive"`
	Parser    MarkdownParserConfig `yaml:"parser"`
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string `yaml:"extensions"`
	HardWraps  bool     `yaml:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode"`
}

// GeneratorConfig captures behaviour for the site builder.
type GeneratorConfig struct {
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`
	Workers   int    `yaml:"workers"`
	// CleanBuild removes outputs of pages that no longer exist.
	CleanBuild bool   `yaml:"clean_build"`
	CopyAssets bool   `yaml:"copy_assets"`
	Sitemap    bool   `yaml:"sitemap"`
	BaseURL    string `yaml:"base_url"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns the defaults documented for the snippet block.
func DefaultConfig() Config {
	return Config{
		BasePath:         "docs",
		AllPages:         true,
		Encoding:         source.DefaultEncoding,
		UseDirectoryURLs: true,
		Remote: RemoteConfig{
			Timeout: 30 * time.Second,
			Cache: RemoteCacheConfig{
				Enabled:            true,
				Capacity:           1024,
				Shards:             8,
				TTL:                10 * time.Minute,
				EvictionPercentage: 10,
			},
		},
		Images: ImagesConfig{
			Enabled: true,
		},
		Markdown: MarkdownConfig{
			Pattern:   "*.md",
			Recursive: true,
		},
		Generator: GeneratorConfig{
			OutputDir:  "site",
			Format:     FormatMarkdown,
			CleanBuild: true,
			CopyAssets: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.BasePath) == "" {
		return ErrBasePathRequired
	}
	if err := source.ValidateEncoding(cfg.Encoding); err != nil {
		return fmt.Errorf("%w: %s", ErrEncodingUnsupported, cfg.Encoding)
	}
	if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
		return ErrOutputDirRequired
	}
	if format := NormalizeFormat(cfg.Generator.Format); format != FormatMarkdown && format != FormatHTML {
		return fmt.Errorf("%w: %s", ErrOutputFormatInvalid, cfg.Generator.Format)
	}
	if cfg.Generator.Workers < 0 {
		return ErrWorkersInvalid
	}
	if base := strings.TrimSpace(cfg.Remote.BaseURL); base != "" {
		lower := strings.ToLower(base)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return fmt.Errorf("%w: %s", ErrRemoteBaseURLInvalid, base)
		}
	}
	if cfg.Remote.Timeout < 0 {
		return fmt.Errorf("%w: timeout", ErrRemoteCacheInvalid)
	}
	cache := cfg.Remote.Cache
	if cache.Capacity < 0 || cache.Shards < 0 || cache.TTL < 0 {
		return fmt.Errorf("%w: cache", ErrRemoteCacheInvalid)
	}
	if cache.EvictionPercentage < 0 || cache.EvictionPercentage > 100 {
		return fmt.Errorf("%w: eviction percentage", ErrRemoteCacheInvalid)
	}
	for _, ext := range cfg.Markdown.Parser.Extensions {
		if !markdown.KnownExtension(ext) {
			return fmt.Errorf("%w: %s", ErrMarkdownExtensionUnknown, ext)
		}
	}

	provider := NormalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// NormalizeFormat lowercases the output format and maps aliases.
func NormalizeFormat(format string) string {
	switch value := strings.ToLower(strings.TrimSpace(format)); value {
	case "", "md", "markdown":
		return FormatMarkdown
	case "html", "htm":
		return FormatHTML
	default:
		return value
	}
}

// NormalizeProvider lowercases and trims a logging provider name.
func NormalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
