package generator

import (
	"path"
	"strings"

	"github.com/goliatone/go-snippet/internal/pages"
)

const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// outputPath maps a page path relative to the docs root onto its output file.
// Markdown output mirrors the source tree. HTML output follows the page URL,
// so guide/install.md becomes guide/install/index.html with directory URLs.
func outputPath(page, format string, directoryURLs bool) string {
	clean := path.Clean(strings.TrimPrefix(strings.TrimSpace(page), "/"))
	if format != FormatHTML {
		return clean
	}
	url := pages.URL(clean, directoryURLs)
	switch {
	case url == "":
		return "index.html"
	case strings.HasSuffix(url, "/"):
		return path.Join(url, "index.html")
	default:
		return url
	}
}

// route is the site path used in the sitemap.
func route(page string, directoryURLs bool) string {
	return "/" + pages.URL(page, directoryURLs)
}

func joinOutputPath(base string, rel string) string {
	if strings.TrimSpace(base) == "" {
		return strings.TrimLeft(rel, "/")
	}
	return path.Join(strings.TrimRight(base, "/"), rel)
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "html", "htm":
		return FormatHTML
	default:
		return FormatMarkdown
	}
}
