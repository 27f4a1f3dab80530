package source

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is matched by errors.Is when a local file is missing or
	// cannot be decoded.
	ErrSourceNotFound = errors.New("source: not found")
	// ErrFileRequired indicates a snippet call without a file.
	ErrFileRequired = errors.New("source: file is required")
	// ErrRemoteUnavailable indicates a repository was requested but no remote
	// provider is configured.
	ErrRemoteUnavailable = errors.New("source: remote provider not configured")
	// ErrUnsupportedEncoding reports an unknown encoding name.
	ErrUnsupportedEncoding = errors.New("source: unsupported encoding")
	// ErrDecode reports bytes that are invalid in the configured encoding.
	ErrDecode = errors.New("source: invalid encoded text")
)

// NotFoundError reports a local snippet file that could not be read.
type NotFoundError struct {
	File string
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no such file: %s", e.File)
	if e.Path != "" && e.Path != e.File {
		msg += fmt.Sprintf(" (resolved to %s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrSourceNotFound
}
