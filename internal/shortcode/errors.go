package shortcode

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateDefinition indicates an attempt to register a shortcode name twice.
	ErrDuplicateDefinition = errors.New("shortcode: duplicate definition")
	// ErrInvalidDefinition occurs when a definition fails schema validation.
	ErrInvalidDefinition = errors.New("shortcode: invalid definition")
	// ErrUnknownShortcode indicates a call to a shortcode that is not registered.
	ErrUnknownShortcode = errors.New("shortcode: unknown shortcode")
	// ErrInnerNotAllowed indicates inner content passed to a shortcode that does not accept it.
	ErrInnerNotAllowed = errors.New("shortcode: inner content not allowed")
	// ErrServiceNotInitialised indicates a service without renderer or parser.
	ErrServiceNotInitialised = errors.New("shortcode: service not initialised")
)

// RenderError carries the failing shortcode name alongside the cause.
type RenderError struct {
	Shortcode string
	Index     int
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("shortcode %s (#%d): %v", e.Shortcode, e.Index, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
