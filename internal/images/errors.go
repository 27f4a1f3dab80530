package images

import (
	"errors"
	"fmt"
)

var (
	// ErrEscapesRoot marks targets that resolve outside the repository root.
	ErrEscapesRoot = errors.New("images: target escapes repository root")
	// ErrDestinationConflict marks two different sources that flatten onto the
	// same destination basename within one call.
	ErrDestinationConflict = errors.New("images: destination already claimed by another image")
	// ErrMissingFetcher indicates the localizer was built without a fetcher.
	ErrMissingFetcher = errors.New("images: fetcher is required")
)

// WriteError wraps filesystem failures while materialising an image.
type WriteError struct {
	Destination string
	Err         error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("images: write %s: %v", e.Destination, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
