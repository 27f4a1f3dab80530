package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-snippet/internal/images"
)

type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categoryAsset    writeCategory = "asset"
	categorySitemap  writeCategory = "sitemap"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes a file write routed through the artifact writer.
type writeFileRequest struct {
	Path     string
	Content  []byte
	Category writeCategory
}

// artifactWriter abstracts where build outputs land.
type artifactWriter interface {
	WriteFile(ctx context.Context, req writeFileRequest) (bool, error)
	Remove(ctx context.Context, path string) error
}

func newArtifactWriter(writer images.Writer, dryRun bool) artifactWriter {
	if dryRun {
		return noopWriter{}
	}
	if writer == nil {
		writer = images.NewFileWriter()
	}
	return &fileArtifactWriter{writer: writer}
}

// fileArtifactWriter reuses the atomic image writer, so unchanged outputs keep
// their modification time.
type fileArtifactWriter struct {
	writer images.Writer
}

func (w *fileArtifactWriter) WriteFile(ctx context.Context, req writeFileRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.TrimSpace(req.Path) == "" {
		return false, errors.New("generator: write requires path")
	}
	return w.writer.Write(filepath.FromSlash(req.Path), req.Content)
}

func (w *fileArtifactWriter) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.FromSlash(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type noopWriter struct{}

func (noopWriter) WriteFile(context.Context, writeFileRequest) (bool, error) { return false, nil }

func (noopWriter) Remove(context.Context, string) error { return nil }
