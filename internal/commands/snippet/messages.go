package snippetcmd

import (
	"io"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-snippet/internal/generator"
)

const (
	resolveSnippetMessageType = "snippet.resolve"
	renderPageMessageType     = "snippet.render_page"
	buildSiteMessageType      = "snippet.build_site"
)

var repositoryPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// ResolveSnippetCommand expands a single snippet call and writes the result
// to Output.
type ResolveSnippetCommand struct {
	// File is relative to the docs root, or to the repository root when
	// Repository is set.
	File       string `json:"file"`
	Section    string `json:"section,omitempty"`
	Repository string `json:"repository,omitempty"`
	Ref        string `json:"ref,omitempty"`
	SkipHeader bool   `json:"skip_header,omitempty"`
	// Destination receives images localized from remote content.
	Destination string `json:"destination,omitempty"`

	Output io.Writer `json:"-"`
}

// Type implements command.Message.
func (ResolveSnippetCommand) Type() string { return resolveSnippetMessageType }

// Validate ensures a file is named and that remote options are consistent.
func (cmd ResolveSnippetCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.File, validation.Required, validation.By(notBlank("snippet.resolve.file_required", "file is required"))),
		validation.Field(&cmd.Repository, validation.When(cmd.Repository != "", validation.Match(repositoryPattern).Error("repository must look like owner/name"))),
		validation.Field(&cmd.Ref, validation.When(cmd.Ref != "" && strings.TrimSpace(cmd.Repository) == "", validation.Empty.Error("ref requires a repository"))),
	)
}

// RenderPageCommand expands every snippet call in one page under the docs
// root.
type RenderPageCommand struct {
	// Path is relative to the docs root.
	Path   string    `json:"path"`
	Output io.Writer `json:"-"`
}

// Type implements command.Message.
func (RenderPageCommand) Type() string { return renderPageMessageType }

// Validate ensures a page path is present.
func (cmd RenderPageCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(notBlank("snippet.render_page.path_required", "path is required"))),
	)
}

// BuildSiteCommand runs the generator over the docs root. An empty Pages list
// builds everything.
type BuildSiteCommand struct {
	Pages  []string `json:"pages,omitempty"`
	DryRun bool     `json:"dry_run,omitempty"`

	// Report receives the build summary, including partial results of a
	// failed build.
	Report func(*generator.BuildResult) `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate rejects blank page selectors.
func (cmd BuildSiteCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Pages, validation.Each(validation.By(notBlank("snippet.build_site.page_blank", "page must not be blank")))),
	)
}

func notBlank(code, message string) validation.RuleFunc {
	return func(value any) error {
		text, _ := value.(string)
		if strings.TrimSpace(text) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}
