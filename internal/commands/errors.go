package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to errors raised by the handler itself. Domain errors
// tagged by a classifier keep their own codes.
const (
	CodeInvalidMessage = "SNIPPET_COMMAND_INVALID"
	CodeCanceled       = "SNIPPET_COMMAND_CANCELED"
	CodeTimeout        = "SNIPPET_COMMAND_TIMEOUT"
	CodeFailed         = "SNIPPET_COMMAND_FAILED"
)

// TextCode returns the text code of the first categorised error in err's
// chain, or "" when nothing in the chain was categorised.
func TextCode(err error) string {
	var tagged *goerrors.Error
	if goerrors.As(err, &tagged) && tagged != nil {
		return tagged.TextCode
	}
	return ""
}

func tag(err error, category goerrors.Category, message, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, category, message).WithTextCode(code)
}

func invalidMessage(err error) error {
	return tag(err, goerrors.CategoryValidation, "invalid command message", CodeInvalidMessage)
}

func interrupted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return tag(err, goerrors.CategoryCommand, "command timed out", CodeTimeout)
	}
	return tag(err, goerrors.CategoryCommand, "command canceled", CodeCanceled)
}

func failed(err error) error {
	return tag(err, goerrors.CategoryCommand, "command failed", CodeFailed)
}
