package remote

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResourceFetch is matched by errors.Is for every remote fetch failure.
	ErrResourceFetch = errors.New("remote: resource fetch failed")
	// ErrNotFound marks fetch failures caused by a missing path or ref.
	ErrNotFound = errors.New("remote: resource not found")
	// ErrInvalidRepository indicates a repository identifier that is not "owner/name".
	ErrInvalidRepository = errors.New("remote: invalid repository identifier")
)

// FetchError describes a failed remote fetch. It identifies the resource so
// authors can locate the broken reference in their page.
type FetchError struct {
	Repository string
	Path       string
	Ref        string
	Err        error
}

func (e *FetchError) Error() string {
	ref := e.Ref
	if ref == "" {
		ref = "default branch"
	}
	msg := fmt.Sprintf("fetch %s from %s@%s", e.Path, e.Repository, ref)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrResourceFetch
}

// NewFetchError wraps err unless it already is a FetchError.
func NewFetchError(repository, path, ref string, err error) error {
	var existing *FetchError
	if errors.As(err, &existing) {
		return err
	}
	return &FetchError{Repository: repository, Path: path, Ref: ref, Err: err}
}

// SplitRepository parses an "owner/name" identifier.
func SplitRepository(repository string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.Trim(strings.TrimSpace(repository), "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
	}
	return owner, name, nil
}
