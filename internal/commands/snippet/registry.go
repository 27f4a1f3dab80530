package snippetcmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-snippet/internal/commands"
	"github.com/goliatone/go-snippet/internal/generator"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// Services groups the collaborators the snippet handlers delegate to. Nil
// members produce handlers that fail with a descriptive error.
type Services struct {
	Resolver  interfaces.SnippetResolver
	Pages     PageLoader
	Processor PageProcessor
	Builder   generator.Service
}

// HandlerSet groups the handlers produced by RegisterSnippetCommands.
type HandlerSet struct {
	Resolve *ResolveSnippetHandler
	Render  *RenderPageHandler
	Build   *BuildSiteHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	resolveHandlerOpts []commands.HandlerOption[ResolveSnippetCommand]
	renderHandlerOpts  []commands.HandlerOption[RenderPageCommand]
	buildHandlerOpts   []commands.HandlerOption[BuildSiteCommand]
}

// WithResolveHandlerOptions forwards options to the ResolveSnippetHandler constructor.
func WithResolveHandlerOptions(opts ...commands.HandlerOption[ResolveSnippetCommand]) Option {
	return func(cfg *options) {
		cfg.resolveHandlerOpts = append(cfg.resolveHandlerOpts, opts...)
	}
}

// WithRenderHandlerOptions forwards options to the RenderPageHandler constructor.
func WithRenderHandlerOptions(opts ...commands.HandlerOption[RenderPageCommand]) Option {
	return func(cfg *options) {
		cfg.renderHandlerOpts = append(cfg.renderHandlerOpts, opts...)
	}
}

// WithBuildHandlerOptions forwards options to the BuildSiteHandler constructor.
func WithBuildHandlerOptions(opts ...commands.HandlerOption[BuildSiteCommand]) Option {
	return func(cfg *options) {
		cfg.buildHandlerOpts = append(cfg.buildHandlerOpts, opts...)
	}
}

// RegisterSnippetCommands builds the snippet handlers and registers them with
// reg when it is not nil. The handler set is returned either way so callers
// can dispatch directly.
func RegisterSnippetCommands(reg CommandRegistry, services Services, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "snippet")

	set := &HandlerSet{
		Resolve: NewResolveSnippetHandler(services.Resolver, logger, cfg.resolveHandlerOpts...),
		Render:  NewRenderPageHandler(services.Pages, services.Processor, logger, cfg.renderHandlerOpts...),
		Build:   NewBuildSiteHandler(services.Builder, logger, cfg.buildHandlerOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Resolve, set.Render, set.Build} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// RegisterBuildCron schedules periodic rebuilds through reg. The handler runs
// with a background context.
func RegisterBuildCron(reg CronRegistrar, handler *BuildSiteHandler, cfg command.HandlerConfig, msg BuildSiteCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
