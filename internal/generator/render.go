package generator

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/goliatone/go-snippet/internal/markdown"
	"github.com/goliatone/go-snippet/internal/section"
	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// HTMLRenderer converts Markdown into an HTML fragment.
type HTMLRenderer interface {
	Render(ctx context.Context, source []byte, opts interfaces.ParseOptions) ([]byte, error)
}

// PageTemplateData is passed to the page template in html builds.
type PageTemplateData struct {
	Title  string
	Page   string
	Body   template.HTML
	Custom map[string]any
}

var defaultPageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
</head>
<body>
{{ .Body }}
</body>
</html>
`))

// renderHTML converts a processed page into a full HTML document. The front
// matter is consumed for the title and never emitted.
func (s *service) renderHTML(ctx context.Context, page string, processed []byte) ([]byte, error) {
	meta, _, body, err := markdown.SplitPage(processed)
	if err != nil {
		return nil, err
	}
	fragment, err := s.deps.Renderer.Render(ctx, body, interfaces.ParseOptions{
		Page:          page,
		DirectoryURLs: s.cfg.UseDirectoryURLs,
	})
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	data := PageTemplateData{
		Title:  pageTitle(meta, page, body),
		Page:   page,
		Body:   template.HTML(fragment),
		Custom: meta.Custom,
	}
	tmpl := s.cfg.Template
	if tmpl == nil {
		tmpl = defaultPageTemplate
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// pageTitle prefers the front matter title, then the first heading, then the
// file name.
func pageTitle(meta interfaces.FrontMatter, page string, body []byte) string {
	if title := strings.TrimSpace(meta.Title); title != "" {
		return title
	}
	for _, heading := range section.Headings(string(body)) {
		if heading.Level == 1 {
			return heading.Title
		}
	}
	base := page
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".md")
}
