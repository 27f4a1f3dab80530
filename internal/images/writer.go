package images

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Writer materialises image bytes on disk.
type Writer interface {
	// Write stores data at destination and reports whether the file changed.
	Write(destination string, data []byte) (bool, error)
}

type noWritesKey struct{}

// WithoutWrites marks ctx so localizers rewrite references without touching
// the filesystem. Dry-run builds use it.
func WithoutWrites(ctx context.Context) context.Context {
	return context.WithValue(ctx, noWritesKey{}, true)
}

func writesDisabled(ctx context.Context) bool {
	disabled, _ := ctx.Value(noWritesKey{}).(bool)
	return disabled
}

// FileWriter writes through a temp file and rename so concurrent writers of
// the same destination never observe a partial file.
type FileWriter struct {
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

// NewFileWriter returns a FileWriter with 0755 directories and 0644 files.
func NewFileWriter() *FileWriter {
	return &FileWriter{DirPerm: 0o755, FilePerm: 0o644}
}

func (w *FileWriter) Write(destination string, data []byte) (bool, error) {
	if existing, err := os.ReadFile(destination); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}

	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, w.dirPerm()); err != nil {
		return false, &WriteError{Destination: destination, Err: err}
	}

	tmp := filepath.Join(dir, "."+filepath.Base(destination)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, w.filePerm()); err != nil {
		_ = os.Remove(tmp)
		return false, &WriteError{Destination: destination, Err: err}
	}
	if err := os.Rename(tmp, destination); err != nil {
		_ = os.Remove(tmp)
		return false, &WriteError{Destination: destination, Err: err}
	}
	return true, nil
}

func (w *FileWriter) dirPerm() os.FileMode {
	if w == nil || w.DirPerm == 0 {
		return 0o755
	}
	return w.DirPerm
}

func (w *FileWriter) filePerm() os.FileMode {
	if w == nil || w.FilePerm == 0 {
		return 0o644
	}
	return w.FilePerm
}
