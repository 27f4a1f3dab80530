package pages

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-snippet/internal/markdown"
)

// URL returns the site URL of a page given its path relative to the docs
// root. The root index maps to "".
func URL(page string, directoryURLs bool) string {
	return markdown.PageURL(page, directoryURLs)
}

// Destination returns the directory that receives images localized for page.
// It is basePath joined with the page URL when directory URLs are on, and the
// page's own directory otherwise.
func Destination(basePath, page string, directoryURLs bool) string {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	target := URL(page, directoryURLs)
	if !directoryURLs {
		target = path.Dir(path.Clean(filepath.ToSlash(strings.TrimSpace(page))))
		if target == "." {
			target = ""
		}
	}
	return filepath.Join(basePath, filepath.FromSlash(target))
}
