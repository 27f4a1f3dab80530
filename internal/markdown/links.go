package markdown

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// PageURL returns the site URL of a page given its path relative to the docs
// root. With directory URLs guide/install.md maps to guide/install/ and
// index pages map to their directory. The root index maps to "".
func PageURL(page string, directoryURLs bool) string {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(page)), "/"))
	if clean == "." || clean == "" {
		return ""
	}
	dir, file := path.Split(clean)
	stem := strings.TrimSuffix(file, path.Ext(file))

	if isIndexPage(stem) {
		return dir
	}
	if !directoryURLs {
		return dir + stem + ".html"
	}
	return dir + stem + "/"
}

func isIndexPage(stem string) bool {
	switch strings.ToLower(stem) {
	case "index", "readme":
		return true
	default:
		return false
	}
}

// linkTarget is the page whose links are being rewritten.
type linkTarget struct {
	page          string
	directoryURLs bool
}

var linkTargetKey = parser.NewContextKey()

// pageLinkTransformer points relative links to other Markdown pages at the
// URL that page is built to. It is a no-op unless the parse context carries a
// linkTarget.
type pageLinkTransformer struct{}

func (pageLinkTransformer) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	target, ok := pc.Get(linkTargetKey).(linkTarget)
	if !ok || target.page == "" {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			if rewritten, changed := rewritePageLink(target, string(link.Destination)); changed {
				link.Destination = []byte(rewritten)
			}
		}
		return ast.WalkContinue, nil
	})
}

// rewritePageLink maps destination, relative to target.page, onto the built
// URL of the page it names, relative to the built URL of target.page.
// External, absolute and non-Markdown destinations are returned unchanged.
func rewritePageLink(target linkTarget, destination string) (string, bool) {
	if destination == "" || strings.HasPrefix(destination, "/") || strings.HasPrefix(destination, "#") {
		return destination, false
	}
	parsed, err := url.Parse(destination)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" || parsed.Opaque != "" {
		return destination, false
	}
	if !strings.EqualFold(path.Ext(parsed.Path), ".md") {
		return destination, false
	}

	from := path.Clean(strings.TrimPrefix(filepath.ToSlash(target.page), "/"))
	linked := path.Join(path.Dir(from), parsed.Path)
	if linked == ".." || strings.HasPrefix(linked, "../") {
		return destination, false
	}

	href := relativeURL(outputDir(from, target.directoryURLs), PageURL(linked, target.directoryURLs))
	if parsed.RawQuery != "" {
		href += "?" + parsed.RawQuery
	}
	if parsed.Fragment != "" {
		href += "#" + parsed.EscapedFragment()
	}
	return href, true
}

// outputDir is the site directory the built page is served from.
func outputDir(page string, directoryURLs bool) string {
	u := PageURL(page, directoryURLs)
	if u == "" || strings.HasSuffix(u, "/") {
		return strings.TrimSuffix(u, "/")
	}
	dir := path.Dir(u)
	if dir == "." {
		return ""
	}
	return dir
}

// relativeURL expresses the site URL to relative to the site directory from.
func relativeURL(from, to string) string {
	var fromParts, toParts []string
	if from != "" {
		fromParts = strings.Split(from, "/")
	}
	trailing := to == "" || strings.HasSuffix(to, "/")
	if trimmed := strings.TrimSuffix(to, "/"); trimmed != "" {
		toParts = strings.Split(trimmed, "/")
	}

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	parts := make([]string, 0, len(fromParts)-common+len(toParts)-common)
	for range fromParts[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)

	rel := strings.Join(parts, "/")
	switch {
	case rel == "":
		return "./"
	case trailing:
		return rel + "/"
	default:
		return rel
	}
}
