package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "snippet.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ImagesLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != imagesModule {
		t.Fatalf("expected module %s, got %v", imagesModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != imagesModule {
		t.Fatalf("expected module field %s, got %v", imagesModule, rec.fields)
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
}

func TestWithSnippetContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}

	WithSnippetContext(rec, interfaces.SnippetRequest{
		File:       "guide.md",
		Repository: " ",
		Ref:        "main",
	})

	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	got := rec.fields[0]
	if got[fieldSnippetFile] != "guide.md" || got[fieldSnippetRef] != "main" {
		t.Fatalf("unexpected fields %v", got)
	}
	if _, ok := got[fieldSnippetRepository]; ok {
		t.Fatalf("blank repository should be dropped, got %v", got)
	}
	if _, ok := got[fieldSnippetSection]; ok {
		t.Fatalf("empty section should be dropped, got %v", got)
	}
}

func TestWithErrorAttachesField(t *testing.T) {
	rec := &recordingLogger{}
	WithError(rec, errors.New("boom"))
	if len(rec.fields) != 1 || rec.fields[0]["error"] == nil {
		t.Fatalf("expected error field, got %v", rec.fields)
	}

	WithError(rec, nil)
	if len(rec.fields) != 1 {
		t.Fatalf("nil error should not add fields")
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"page": "a.md"})
	ctx = ContextWithFields(ctx, map[string]any{"build": "b1"})

	fields := ContextFields(ctx)
	if fields["page"] != "a.md" || fields["build"] != "b1" {
		t.Fatalf("unexpected context fields %v", fields)
	}

	fields["page"] = "mutated"
	if ContextFields(ctx)["page"] != "a.md" {
		t.Fatal("expected ContextFields to return a copy")
	}
}
