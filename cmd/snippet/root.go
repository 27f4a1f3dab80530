package main

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-snippet"
)

const defaultConfigFile = "mkdocs.yml"

type globalOptions struct {
	configPath  string
	envFiles    []string
	basePath    string
	logProvider string
	logLevel    string
	logFormat   string
}

// moduleBuilder is swapped in tests.
var moduleBuilder = func(cfg snippet.Config) (*snippet.Module, error) {
	return snippet.New(cfg)
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "snippet",
		Short:         "Expand snippet calls in Markdown documentation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", defaultConfigFile, "YAML file holding the snippet block")
	flags.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files read before the process environment")
	flags.StringVar(&opts.basePath, "base-path", "", "docs root, overrides the config file")
	flags.StringVar(&opts.logProvider, "log-provider", "", "console or gologger")
	flags.StringVar(&opts.logLevel, "log-level", "", "minimum log level")
	flags.StringVar(&opts.logFormat, "log-format", "", "go-logger output format (console, json, pretty)")

	root.AddCommand(
		newResolveCommand(opts),
		newRenderCommand(opts),
		newBuildCommand(opts),
		newSectionsCommand(opts),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides. A missing
// default config file falls back to the built-in defaults.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (snippet.Config, error) {
	path := strings.TrimSpace(o.configPath)
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := snippet.LoadConfig(path, snippet.WithEnvFiles(o.envFiles...))
	if err != nil {
		return snippet.Config{}, err
	}
	if o.basePath != "" {
		cfg.BasePath = o.basePath
	}
	if o.logProvider != "" {
		cfg.Logging.Provider = o.logProvider
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, nil
}

func (o *globalOptions) module(cmd *cobra.Command, mutate func(*snippet.Config)) (*snippet.Module, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return moduleBuilder(cfg)
}
