package shortcode

import (
	"context"
	"fmt"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// Renderer executes shortcode definitions. Output is returned verbatim; the
// caller splices it into Markdown before the page is parsed.
type Renderer struct {
	registry *Registry
}

// NewRenderer constructs a renderer over the compiled definitions in registry.
func NewRenderer(registry *Registry) *Renderer {
	return &Renderer{registry: registry}
}

// Render resolves the definition, coerces params and runs its handler.
func (r *Renderer) Render(ctx interfaces.ShortcodeContext, shortcode string, params map[string]any, inner string) (string, error) {
	if r.registry == nil {
		return "", ErrServiceNotInitialised
	}
	b, ok := r.registry.lookup(shortcode)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownShortcode, shortcode)
	}
	def := b.def
	if inner != "" && !def.AllowInner {
		return "", fmt.Errorf("%w: %s", ErrInnerNotAllowed, shortcode)
	}
	if def.Handler == nil {
		return "", fmt.Errorf("%w: %s has no handler", ErrInvalidDefinition, shortcode)
	}

	coerced, err := b.bind(params)
	if err != nil {
		return "", err
	}
	if ctx.Context == nil {
		ctx.Context = context.Background()
	}
	return def.Handler(ctx, coerced, inner)
}

// Ensure Renderer implements interfaces.ShortcodeRenderer.
var _ interfaces.ShortcodeRenderer = (*Renderer)(nil)
