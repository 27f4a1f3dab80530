package shortcode

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-snippet/internal/logging"
	parserpkg "github.com/goliatone/go-snippet/internal/shortcode/parser"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// Service orchestrates shortcode parsing and rendering for page sources.
type Service struct {
	registry     interfaces.ShortcodeRegistry
	renderer     interfaces.ShortcodeRenderer
	parser       interfaces.ShortcodeParser
	preprocessor *parserpkg.WordPressPreprocessor
	logger       interfaces.Logger
	metrics      interfaces.ShortcodeMetrics
}

// ServiceOption customises service behaviour.
type ServiceOption func(*Service)

// WithWordPressSyntax enables the bracket syntax ([snippet file="x.md"]) for
// every shortcode registered when Process runs.
func WithWordPressSyntax(enabled bool) ServiceOption {
	return func(s *Service) {
		if !enabled {
			s.preprocessor = nil
			return
		}
		if s.preprocessor == nil {
			s.preprocessor = parserpkg.NewWordPressPreprocessor()
		}
	}
}

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics wires the metrics recorder used for telemetry.
func WithMetrics(metrics interfaces.ShortcodeMetrics) ServiceOption {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithParser overrides the Hugo-style parser used to extract shortcodes.
func WithParser(parser interfaces.ShortcodeParser) ServiceOption {
	return func(s *Service) {
		if parser != nil {
			s.parser = parser
		}
	}
}

// NewService constructs a shortcode service using the supplied registry and renderer.
func NewService(registry interfaces.ShortcodeRegistry, renderer interfaces.ShortcodeRenderer, opts ...ServiceOption) *Service {
	service := &Service{
		registry: registry,
		renderer: renderer,
		parser:   parserpkg.NewHugoParser(),
		logger:   logging.NoOp(),
		metrics:  NoOpMetrics(),
	}

	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Process expands every shortcode found within content. Rendered output is
// spliced in a single pass, so text produced by one shortcode is never
// rescanned.
func (s *Service) Process(ctx context.Context, content string, opts interfaces.ShortcodeProcessOptions) (string, error) {
	if strings.TrimSpace(content) == "" {
		return content, nil
	}
	if s.renderer == nil || s.parser == nil {
		return "", ErrServiceNotInitialised
	}

	logger := logging.WithFields(s.baseLogger(ctx), map[string]any{
		"operation": "shortcode.process",
		"page":      opts.Page,
	})

	material := content
	if s.preprocessor != nil {
		material = s.wordpress().Process(material)
	}

	transformed, parsed, err := s.parser.Extract(material)
	if err != nil {
		logging.WithError(logger, err).Error("shortcode.service.parse_failed")
		return "", err
	}
	if len(parsed) == 0 {
		return transformed, nil
	}

	shortcodeCtx := interfaces.ShortcodeContext{
		Context:     ctx,
		Page:        opts.Page,
		Destination: opts.Destination,
	}
	if shortcodeCtx.Context == nil {
		shortcodeCtx.Context = context.Background()
	}

	rendered := make([]string, len(parsed))
	for idx, sc := range parsed {
		output, err := s.render(shortcodeCtx, logger, sc, idx)
		if err != nil {
			return "", &RenderError{Shortcode: sc.Name, Index: idx, Err: err}
		}
		rendered[idx] = output
	}

	output := parserpkg.PlaceholderPattern.ReplaceAllStringFunc(transformed, func(marker string) string {
		idx, err := strconv.Atoi(parserpkg.PlaceholderPattern.FindStringSubmatch(marker)[1])
		if err != nil || idx < 0 || idx >= len(rendered) {
			return marker
		}
		return rendered[idx]
	})

	logging.WithFields(logger, map[string]any{
		"shortcodes": len(parsed),
	}).Debug("shortcode.service.process_completed")
	return output, nil
}

// Render executes a single shortcode definition.
func (s *Service) Render(ctx interfaces.ShortcodeContext, shortcode string, params map[string]any, inner string) (string, error) {
	if s.renderer == nil {
		return "", ErrServiceNotInitialised
	}
	if ctx.Context == nil {
		ctx.Context = context.Background()
	}
	logger := logging.WithFields(s.baseLogger(ctx.Context), map[string]any{
		"operation": "shortcode.render",
		"page":      ctx.Page,
	})
	return s.render(ctx, logger, interfaces.ParsedShortcode{Name: shortcode, Params: params, Inner: inner}, 0)
}

func (s *Service) render(ctx interfaces.ShortcodeContext, logger interfaces.Logger, sc interfaces.ParsedShortcode, idx int) (string, error) {
	start := time.Now()
	result, err := s.renderer.Render(ctx, sc.Name, sc.Params, sc.Inner)
	elapsed := time.Since(start)
	s.metrics.ObserveRenderDuration(sc.Name, elapsed)

	fields := map[string]any{
		"shortcode":   sc.Name,
		"index":       idx,
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		s.metrics.IncrementRenderError(sc.Name)
		fields["error"] = err
		logging.WithFields(logger, fields).Error("shortcode.service.render_failed")
		return "", err
	}
	logging.WithFields(logger, fields).Debug("shortcode.service.render_succeeded")
	return result, nil
}

// Registry exposes the underlying shortcode registry.
func (s *Service) Registry() interfaces.ShortcodeRegistry {
	return s.registry
}

// wordpress returns a preprocessor scoped to the currently registered names.
func (s *Service) wordpress() *parserpkg.WordPressPreprocessor {
	if s.registry == nil {
		return s.preprocessor
	}
	return parserpkg.NewWordPressPreprocessor(s.registry.Names()...)
}

func (s *Service) baseLogger(ctx context.Context) interfaces.Logger {
	logger := s.logger
	if logger == nil {
		logger = logging.NoOp()
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	return logger
}

// Ensure Service complies with interfaces.ShortcodeService.
var _ interfaces.ShortcodeService = (*Service)(nil)
