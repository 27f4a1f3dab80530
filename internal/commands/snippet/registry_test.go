package snippetcmd

import (
	"context"
	"errors"
	"testing"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-snippet/internal/commands"
	"github.com/goliatone/go-snippet/internal/commands/fixtures"
	"github.com/goliatone/go-snippet/internal/generator"
)

func TestRegisterSnippetCommandsRegistersHandlers(t *testing.T) {
	reg := fixtures.NewRecordingRegistry()
	set, err := RegisterSnippetCommands(reg, Services{Resolver: &stubResolver{}}, nil)
	if err != nil {
		t.Fatalf("register snippet commands: %v", err)
	}
	if set == nil || set.Resolve == nil || set.Render == nil || set.Build == nil {
		t.Fatalf("expected all handlers, got %#v", set)
	}
	if len(reg.Handlers) != 3 {
		t.Fatalf("expected three handlers registered, got %d", len(reg.Handlers))
	}
	if reg.Handlers[0] != set.Resolve || reg.Handlers[1] != set.Render || reg.Handlers[2] != set.Build {
		t.Fatalf("unexpected registration order %#v", reg.Handlers)
	}
}

func TestRegisterSnippetCommandsHandlerOptionsApplied(t *testing.T) {
	resolveApplied, renderApplied, buildApplied := false, false, false
	_, err := RegisterSnippetCommands(nil, Services{},
		nil,
		WithResolveHandlerOptions(func(*commands.Handler[ResolveSnippetCommand]) { resolveApplied = true }),
		WithRenderHandlerOptions(func(*commands.Handler[RenderPageCommand]) { renderApplied = true }),
		WithBuildHandlerOptions(func(*commands.Handler[BuildSiteCommand]) { buildApplied = true }),
	)
	if err != nil {
		t.Fatalf("register snippet commands: %v", err)
	}
	if !resolveApplied || !renderApplied || !buildApplied {
		t.Fatalf("expected all handler options applied: %v %v %v", resolveApplied, renderApplied, buildApplied)
	}
}

func TestRegisterSnippetCommandsPropagatesRegistryError(t *testing.T) {
	reg := fixtures.NewRecordingRegistry()
	reg.Err = errors.New("registry closed")
	if _, err := RegisterSnippetCommands(reg, Services{}, nil); !errors.Is(err, reg.Err) {
		t.Fatalf("expected registry error, got %v", err)
	}
}

func TestRegisterBuildCronRegistersHandler(t *testing.T) {
	builder := &stubBuilder{result: &generator.BuildResult{}}
	handler := NewBuildSiteHandler(builder, nil)
	recorder := fixtures.NewCronRecorder()

	cfg := command.HandlerConfig{Expression: "@every 10m"}
	if err := RegisterBuildCron(recorder.Registrar(), handler, cfg, BuildSiteCommand{}); err != nil {
		t.Fatalf("register build cron: %v", err)
	}
	if len(recorder.Registrations) != 1 {
		t.Fatalf("expected one cron registration, got %d", len(recorder.Registrations))
	}
	reg := recorder.Registrations[0]
	if reg.Config.Expression != cfg.Expression {
		t.Fatalf("expected cron expression %q, got %q", cfg.Expression, reg.Config.Expression)
	}
	run, ok := reg.Handler.(func() error)
	if !ok {
		t.Fatalf("expected cron handler function, got %T", reg.Handler)
	}
	if err := run(); err != nil {
		t.Fatalf("executing cron handler: %v", err)
	}
	if len(builder.opts) != 1 {
		t.Fatalf("expected build executed, got %d", len(builder.opts))
	}
}

func TestRegisterBuildCronNoOpWithoutRegistrarOrHandler(t *testing.T) {
	recorder := fixtures.NewCronRecorder()
	if err := RegisterBuildCron(recorder.Registrar(), nil, command.HandlerConfig{}, BuildSiteCommand{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := RegisterBuildCron(nil, NewBuildSiteHandler(&stubBuilder{}, nil), command.HandlerConfig{}, BuildSiteCommand{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(recorder.Registrations) != 0 {
		t.Fatalf("expected no registrations, got %d", len(recorder.Registrations))
	}
}

func TestResolveHandlerRejectsCancelledContext(t *testing.T) {
	set, err := RegisterSnippetCommands(nil, Services{Resolver: &stubResolver{text: "x"}}, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := set.Resolve.Execute(ctx, ResolveSnippetCommand{File: "a.md"}); err == nil {
		t.Fatal("expected cancelled context to fail")
	}
}
