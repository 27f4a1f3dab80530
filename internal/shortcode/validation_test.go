package shortcode

import (
	"errors"
	"testing"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

func snippetBinding(t *testing.T) *binding {
	t.Helper()
	b, err := compileDefinition(interfaces.ShortcodeDefinition{
		Name: "snippet",
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "file", Type: interfaces.ShortcodeParamString, Required: true},
				{Name: "section", Type: interfaces.ShortcodeParamString},
				{Name: "header", Type: interfaces.ShortcodeParamBool, Default: true},
				{Name: "ref", Type: interfaces.ShortcodeParamString},
				{Name: "depth", Type: interfaces.ShortcodeParamInt},
			},
			Defaults: map[string]any{"ref": "main"},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return b
}

func TestBindAppliesDefaultsAndCoerces(t *testing.T) {
	b := snippetBinding(t)

	got, err := b.bind(map[string]any{"file": "x.md", "header": "no", "depth": " 2 "})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if StringParam(got, "file") != "x.md" || StringParam(got, "ref") != "main" {
		t.Fatalf("unexpected strings %#v", got)
	}
	if BoolParam(got, "header", true) {
		t.Fatalf("expected header=no to disable the header, got %#v", got)
	}
	if got["depth"] != 2 {
		t.Fatalf("expected depth 2, got %#v", got["depth"])
	}

	got, err = b.bind(map[string]any{"file": "x.md", "ref": "v2"})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if !BoolParam(got, "header", false) || StringParam(got, "ref") != "v2" {
		t.Fatalf("expected explicit ref to beat the default, got %#v", got)
	}
}

func TestBindMissingRequired(t *testing.T) {
	_, err := snippetBinding(t).bind(map[string]any{"section": "A"})
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("expected ErrMissingParameter, got %v", err)
	}
	var paramErr *ParamError
	if !errors.As(err, &paramErr) || paramErr.Shortcode != "snippet" || paramErr.Param != "file" {
		t.Fatalf("expected ParamError for file, got %#v", err)
	}
}

func TestBindSuggestsCloseAttribute(t *testing.T) {
	_, err := snippetBinding(t).bind(map[string]any{"file": "x.md", "sections": "A"})
	if !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
	var paramErr *ParamError
	if !errors.As(err, &paramErr) || paramErr.Suggestion != "section" {
		t.Fatalf("expected suggestion section, got %#v", err)
	}
	want := `snippet: parameter "sections": shortcode: unknown parameter (did you mean "section"?)`
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}

	_, err = snippetBinding(t).bind(map[string]any{"file": "x.md", "language": "go"})
	if !errors.As(err, &paramErr) || paramErr.Suggestion != "" {
		t.Fatalf("expected no suggestion for a distant name, got %#v", err)
	}
}

func TestBindRejectsBadValues(t *testing.T) {
	b := snippetBinding(t)
	if _, err := b.bind(map[string]any{"file": "x.md", "header": "maybe"}); !errors.Is(err, ErrParameterType) {
		t.Fatalf("expected ErrParameterType, got %v", err)
	}

	custom, err := compileDefinition(interfaces.ShortcodeDefinition{
		Name: "snippet",
		Schema: interfaces.ShortcodeSchema{Params: []interfaces.ShortcodeParam{{
			Name: "file",
			Type: interfaces.ShortcodeParamString,
			Validate: func(value any) error {
				if value.(string) == "" {
					return errors.New("file is empty")
				}
				return nil
			},
		}}},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := custom.bind(map[string]any{"file": "a.md"}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := custom.bind(map[string]any{"file": ""}); err == nil {
		t.Fatal("expected custom validation failure")
	}
}

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"section", "section", 0},
		{"sections", "section", 1},
		{"heder", "header", 1},
		{"repo", "repository", 6},
		{"", "ref", 3},
	}
	for _, tc := range cases {
		if got := editDistance(tc.a, tc.b); got != tc.want {
			t.Fatalf("editDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
