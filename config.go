package snippet

import "github.com/goliatone/go-snippet/internal/runtimeconfig"

var (
	ErrBasePathRequired         = runtimeconfig.ErrBasePathRequired
	ErrEncodingUnsupported      = runtimeconfig.ErrEncodingUnsupported
	ErrOutputDirRequired        = runtimeconfig.ErrOutputDirRequired
	ErrOutputFormatInvalid      = runtimeconfig.ErrOutputFormatInvalid
	ErrWorkersInvalid           = runtimeconfig.ErrWorkersInvalid
	ErrRemoteCacheInvalid       = runtimeconfig.ErrRemoteCacheInvalid
	ErrRemoteBaseURLInvalid     = runtimeconfig.ErrRemoteBaseURLInvalid
	ErrMarkdownExtensionUnknown = runtimeconfig.ErrMarkdownExtensionUnknown
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
	ErrConfigRead               = runtimeconfig.ErrConfigRead
	ErrConfigSchema             = runtimeconfig.ErrConfigSchema
	ErrEnvInvalid               = runtimeconfig.ErrEnvInvalid
)

type (
	Config               = runtimeconfig.Config
	RemoteConfig         = runtimeconfig.RemoteConfig
	RemoteCacheConfig    = runtimeconfig.RemoteCacheConfig
	ImagesConfig         = runtimeconfig.ImagesConfig
	ShortcodeConfig      = runtimeconfig.ShortcodeConfig
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	GeneratorConfig      = runtimeconfig.GeneratorConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
	LoadOption           = runtimeconfig.LoadOption
	SchemaError          = runtimeconfig.SchemaError
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads the snippet block from a YAML file, applies dotenv and
// process environment overrides and validates the result.
func LoadConfig(path string, opts ...LoadOption) (Config, error) {
	return runtimeconfig.Load(path, opts...)
}

// WithEnvFiles selects the dotenv files consulted by LoadConfig.
func WithEnvFiles(files ...string) LoadOption {
	return runtimeconfig.WithEnvFiles(files...)
}
