package pages

import (
	"errors"
	"strings"

	"github.com/goliatone/go-snippet/internal/shortcode"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// ShortcodeName is the name authors use to call the include.
const ShortcodeName = "snippet"

var errBlankFile = errors.New("file must not be blank")

// SnippetDefinition binds the snippet shortcode to resolver. `header=false`
// drops the first line of the included text and the page destination is
// forwarded so remote images land next to the page.
func SnippetDefinition(resolver interfaces.SnippetResolver) interfaces.ShortcodeDefinition {
	return interfaces.ShortcodeDefinition{
		Name:        ShortcodeName,
		Version:     "1.0.0",
		Description: "Includes a local or remote Markdown file, optionally narrowed to one section",
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "file", Type: interfaces.ShortcodeParamString, Required: true, Validate: notBlank},
				{Name: "section", Type: interfaces.ShortcodeParamString},
				{Name: "header", Type: interfaces.ShortcodeParamBool, Default: true},
				{Name: "repository", Type: interfaces.ShortcodeParamString},
				{Name: "ref", Type: interfaces.ShortcodeParamString},
			},
		},
		Handler: func(ctx interfaces.ShortcodeContext, params map[string]any, _ string) (string, error) {
			req := interfaces.SnippetRequest{
				File:        strings.TrimSpace(shortcode.StringParam(params, "file")),
				Section:     shortcode.StringParam(params, "section"),
				Repository:  strings.TrimSpace(shortcode.StringParam(params, "repository")),
				Ref:         strings.TrimSpace(shortcode.StringParam(params, "ref")),
				SkipHeader:  !shortcode.BoolParam(params, "header", true),
				Destination: ctx.Destination,
			}
			return resolver.Resolve(ctx.Context, req)
		},
	}
}

func notBlank(value any) error {
	if text, ok := value.(string); ok && strings.TrimSpace(text) == "" {
		return errBlankFile
	}
	return nil
}
