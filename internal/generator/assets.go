package generator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-snippet/internal/logging"
)

// assetCopySummary reports how many non-page files were copied.
type assetCopySummary struct {
	built   int
	skipped int
}

// copyAssets mirrors every non-page file under the docs root into the output
// directory. Images localized next to pages are picked up here. Hidden
// entries and the output directory itself are ignored.
func (s *service) copyAssets(ctx context.Context, writer artifactWriter, manifest *buildManifest) (assetCopySummary, error) {
	summary := assetCopySummary{}
	root := s.cfg.BasePath
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	outputAbs, _ := filepath.Abs(s.cfg.OutputDir)

	err := fs.WalkDir(os.DirFS(root), ".", func(rel string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if strings.HasPrefix(path.Base(rel), ".") {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if abs, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(rel))); err == nil && abs == outputAbs {
				return fs.SkipDir
			}
			return nil
		}
		if s.isPage(rel) {
			return nil
		}

		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("generator: read asset %s: %w", rel, err)
		}
		output := joinOutputPath(s.cfg.OutputDir, rel)
		written, err := writer.WriteFile(ctx, writeFileRequest{
			Path:     output,
			Content:  data,
			Category: categoryAsset,
		})
		if err != nil {
			return fmt.Errorf("generator: copy asset %s: %w", rel, err)
		}
		if written {
			summary.built++
		} else {
			summary.skipped++
		}
		manifest.setAsset(manifestFile{
			Source:   rel,
			Output:   output,
			Checksum: computeHash(data),
			Size:     int64(len(data)),
		})
		logging.WithFields(s.logger, map[string]any{
			"asset":   rel,
			"written": written,
		}).Debug("generator.asset_copied")
		return nil
	})
	return summary, err
}

func (s *service) isPage(rel string) bool {
	pattern := s.cfg.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}
	ok, err := path.Match(pattern, path.Base(rel))
	return err == nil && ok
}
