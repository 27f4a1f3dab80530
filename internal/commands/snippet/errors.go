package snippetcmd

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-snippet/internal/remote"
	"github.com/goliatone/go-snippet/internal/section"
	"github.com/goliatone/go-snippet/internal/source"
)

const (
	SourceNotFoundCode  = "SNIPPET_SOURCE_NOT_FOUND"
	FetchFailedCode     = "SNIPPET_RESOURCE_FETCH_FAILED"
	SectionNotFoundCode = "SNIPPET_SECTION_NOT_FOUND"
)

// ClassifyError tags snippet failures with a go-errors category and text code
// so callers can branch on them without importing the domain packages.
// Unrecognised errors are returned unchanged.
func ClassifyError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, section.ErrSectionNotFound):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "snippet section not found").
			WithTextCode(SectionNotFoundCode)
	case errors.Is(err, source.ErrSourceNotFound):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "snippet source not found").
			WithTextCode(SourceNotFoundCode)
	case errors.Is(err, remote.ErrResourceFetch):
		return goerrors.Wrap(err, goerrors.CategoryExternal, "snippet resource fetch failed").
			WithTextCode(FetchFailedCode)
	}
	return err
}
