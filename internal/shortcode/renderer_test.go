package shortcode

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

func echoDefinition() interfaces.ShortcodeDefinition {
	return interfaces.ShortcodeDefinition{
		Name: "echo",
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "text", Type: interfaces.ShortcodeParamString, Required: true},
				{Name: "upper", Type: interfaces.ShortcodeParamBool, Default: false},
			},
		},
		Handler: func(ctx interfaces.ShortcodeContext, params map[string]any, _ string) (string, error) {
			text := StringParam(params, "text")
			if BoolParam(params, "upper", false) {
				text = strings.ToUpper(text)
			}
			return ctx.Page + ":" + text, nil
		},
	}
}

func TestRenderer_RenderHandler(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(echoDefinition()); err != nil {
		t.Fatalf("register: %v", err)
	}

	renderer := NewRenderer(registry)
	out, err := renderer.Render(interfaces.ShortcodeContext{Page: "index.md"}, "echo", map[string]any{"text": "hi", "upper": "true"}, "")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != "index.md:HI" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderer_UnknownShortcode(t *testing.T) {
	renderer := NewRenderer(NewRegistry())
	if _, err := renderer.Render(interfaces.ShortcodeContext{}, "missing", nil, ""); !errors.Is(err, ErrUnknownShortcode) {
		t.Fatalf("expected ErrUnknownShortcode, got %v", err)
	}
}

func TestRenderer_RejectsInnerContent(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(echoDefinition()); err != nil {
		t.Fatalf("register: %v", err)
	}
	renderer := NewRenderer(registry)
	if _, err := renderer.Render(interfaces.ShortcodeContext{}, "echo", map[string]any{"text": "x"}, "inner"); !errors.Is(err, ErrInnerNotAllowed) {
		t.Fatalf("expected ErrInnerNotAllowed, got %v", err)
	}
}

func TestRenderer_PassesContext(t *testing.T) {
	type ctxKey struct{}
	registry := NewRegistry()
	def := interfaces.ShortcodeDefinition{
		Name: "ctx",
		Handler: func(ctx interfaces.ShortcodeContext, _ map[string]any, _ string) (string, error) {
			value, _ := ctx.Context.Value(ctxKey{}).(string)
			return value + "@" + ctx.Destination, nil
		},
	}
	if err := registry.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	out, err := NewRenderer(registry).Render(interfaces.ShortcodeContext{Context: ctx, Destination: "site/guide"}, "ctx", nil, "")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != "value@site/guide" {
		t.Fatalf("unexpected output %q", out)
	}
}
