// Package markdown discovers Markdown pages under the docs root, reads their
// front matter and renders HTML previews with goldmark.
package markdown
