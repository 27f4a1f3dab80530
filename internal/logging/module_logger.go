package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

const (
	rootModule      = "snippet"
	sourceModule    = "snippet.source"
	imagesModule    = "snippet.images"
	remoteModule    = "snippet.remote"
	pagesModule     = "snippet.pages"
	generatorModule = "snippet.generator"
)

const (
	fieldSnippetFile       = "snippet_file"
	fieldSnippetSection    = "section"
	fieldSnippetRepository = "repository"
	fieldSnippetRef        = "ref"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// SourceLogger returns the logger namespace reserved for snippet resolution.
func SourceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, sourceModule)
}

// ImagesLogger returns the logger namespace reserved for image localization.
func ImagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, imagesModule)
}

// RemoteLogger returns the logger namespace reserved for remote providers.
func RemoteLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, remoteModule)
}

// PagesLogger returns the logger namespace reserved for page processing.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

// GeneratorLogger returns the logger namespace reserved for site builds.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// WithSnippetContext enriches the logger with the identifiers of a snippet
// call. Empty values are ignored.
func WithSnippetContext(logger interfaces.Logger, req interfaces.SnippetRequest) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(req.File); trimmed != "" {
		fields[fieldSnippetFile] = trimmed
	}
	if trimmed := strings.TrimSpace(req.Section); trimmed != "" {
		fields[fieldSnippetSection] = trimmed
	}
	if trimmed := strings.TrimSpace(req.Repository); trimmed != "" {
		fields[fieldSnippetRepository] = trimmed
	}
	if trimmed := strings.TrimSpace(req.Ref); trimmed != "" {
		fields[fieldSnippetRef] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
