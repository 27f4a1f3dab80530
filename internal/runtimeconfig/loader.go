package runtimeconfig

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-snippet/internal/validation"
	"github.com/joho/godotenv"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// BlockName is the key of the snippet block, either at the top level of the
// file or as an entry of a `plugins` list.
const BlockName = "snippet"

var ErrConfigRead = errors.New("snippet config: unable to read configuration")
var ErrConfigSchema = errors.New("snippet config: configuration does not match schema")
var ErrEnvInvalid = errors.New("snippet config: environment override is invalid")

//go:embed schema.json
var schemaSource []byte

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

// SchemaIssue is a single schema violation.
type SchemaIssue = validation.Issue

// SchemaError lists every schema violation found in a configuration block.
type SchemaError struct {
	Issues []SchemaIssue
	Cause  error
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", ErrConfigSchema.Error(), e.Cause)
		}
		return ErrConfigSchema.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConfigSchema.Error(), validation.FormatIssues(e.Issues))
}

func (e *SchemaError) Unwrap() error {
	return ErrConfigSchema
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	envFiles  []string
	lookupEnv func(string) (string, bool)
}

// WithEnvFiles sets the dotenv files read before applying overrides. Missing
// files are ignored. Defaults to ".env".
func WithEnvFiles(files ...string) LoadOption {
	return func(o *loadOptions) {
		o.envFiles = append([]string(nil), files...)
	}
}

// WithLookupEnv replaces os.LookupEnv, mostly for tests.
func WithLookupEnv(fn func(string) (string, bool)) LoadOption {
	return func(o *loadOptions) {
		if fn != nil {
			o.lookupEnv = fn
		}
	}
}

// Load builds a Config from defaults, the optional YAML file at path, dotenv
// files and the process environment, in that order of precedence (last wins).
// The result is validated.
func Load(path string, opts ...LoadOption) (Config, error) {
	options := loadOptions{
		envFiles:  []string{".env"},
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigRead, path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	lookup, err := envLookup(options)
	if err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a YAML document holding a snippet block on top of the
// defaults. The block may sit at the top level under `snippet:` or inside a
// `plugins:` list. A top-level use_directory_urls is honoured when the block
// does not set its own.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()

	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigRead, err)
	}
	block, ok, err := findBlock(root)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return cfg, nil
	}
	if _, set := block["use_directory_urls"]; !set {
		if value, isBool := root["use_directory_urls"].(bool); isBool {
			block["use_directory_urls"] = value
		}
	}

	if err := ValidateBlock(block); err != nil {
		return Config{}, err
	}

	encoded, err := yaml.Marshal(block)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigRead, err)
	}
	if err := yaml.Unmarshal(encoded, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigRead, err)
	}
	return cfg, nil
}

// ValidateBlock checks a decoded snippet block against the embedded schema.
func ValidateBlock(block map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := validation.Validate(schema, block); err != nil {
		return &SchemaError{Issues: validation.Issues(err), Cause: err}
	}
	return nil
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaCompiled, schemaErr = validation.Compile("snippet-config.json", schemaSource)
	})
	if schemaErr != nil {
		return nil, fmt.Errorf("snippet config: compile schema: %w", schemaErr)
	}
	return schemaCompiled, nil
}

func findBlock(root map[string]any) (map[string]any, bool, error) {
	if root == nil {
		return nil, false, nil
	}
	if raw, ok := root[BlockName]; ok {
		return asBlock(raw)
	}
	plugins, ok := root["plugins"].([]any)
	if !ok {
		return nil, false, nil
	}
	for _, entry := range plugins {
		switch typed := entry.(type) {
		case string:
			if typed == BlockName {
				return map[string]any{}, true, nil
			}
		case map[string]any:
			if raw, ok := typed[BlockName]; ok {
				return asBlock(raw)
			}
		}
	}
	return nil, false, nil
}

func asBlock(raw any) (map[string]any, bool, error) {
	switch typed := raw.(type) {
	case nil:
		return map[string]any{}, true, nil
	case map[string]any:
		return typed, true, nil
	default:
		return nil, false, &SchemaError{Issues: []SchemaIssue{{
			Location: "#",
			Message:  fmt.Sprintf("expected object, got %T", typed),
		}}}
	}
}

func envLookup(options loadOptions) (func(string) (string, bool), error) {
	values := map[string]string{}
	for _, file := range options.envFiles {
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigRead, file, err)
		}
		read, err := godotenv.Read(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigRead, file, err)
		}
		for key, value := range read {
			if _, seen := values[key]; !seen {
				values[key] = value
			}
		}
	}
	return func(key string) (string, bool) {
		if value, ok := options.lookupEnv(key); ok {
			return value, true
		}
		value, ok := values[key]
		return value, ok
	}, nil
}

// ApplyEnv overlays environment overrides onto cfg. SNIPPET_GITHUB_TOKEN wins
// over GITHUB_TOKEN, which wins over a token set in the file.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if cfg == nil || lookup == nil {
		return nil
	}
	str := func(key string, target *string) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	boolean := func(key string, target *bool) error {
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrEnvInvalid, key, value)
		}
		*target = parsed
		return nil
	}

	str("SNIPPET_BASE_PATH", &cfg.BasePath)
	str("SNIPPET_ENCODING", &cfg.Encoding)
	str("SNIPPET_OUTPUT_DIR", &cfg.Generator.OutputDir)
	str("SNIPPET_FORMAT", &cfg.Generator.Format)
	str("SNIPPET_GITHUB_BASE_URL", &cfg.Remote.BaseURL)
	str("SNIPPET_LOG_PROVIDER", &cfg.Logging.Provider)
	str("SNIPPET_LOG_LEVEL", &cfg.Logging.Level)
	str("SNIPPET_LOG_FORMAT", &cfg.Logging.Format)
	str("GITHUB_TOKEN", &cfg.Remote.Token)
	str("SNIPPET_GITHUB_TOKEN", &cfg.Remote.Token)

	if err := boolean("SNIPPET_ALL_PAGES", &cfg.AllPages); err != nil {
		return err
	}
	if err := boolean("SNIPPET_STRICT_IMAGES", &cfg.Images.Strict); err != nil {
		return err
	}
	if value, ok := lookup("SNIPPET_WORKERS"); ok && strings.TrimSpace(value) != "" {
		workers, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: SNIPPET_WORKERS=%q", ErrEnvInvalid, value)
		}
		cfg.Generator.Workers = workers
	}
	return nil
}
