package interfaces

import "context"

// SnippetRequest captures a single snippet call as written by a page author.
// Repository switches the lookup from the local docs tree to the remote provider.
type SnippetRequest struct {
	// File is the path of the included document, relative to the docs base path
	// for local lookups or to the repository root for remote ones.
	File string
	// Section narrows the result to one heading. Empty means the whole document.
	Section string
	// Repository identifies the remote repository ("owner/name").
	Repository string
	// Ref selects a branch, tag or commit. Empty means the default branch.
	Ref string
	// SkipHeader drops the first line of the final result.
	SkipHeader bool
	// Destination is the directory that receives images copied from remote
	// content. It is derived from the including page.
	Destination string
}

// SnippetResolver turns a snippet call into the text spliced into the page.
type SnippetResolver interface {
	Resolve(ctx context.Context, req SnippetRequest) (string, error)
}

// LocalReader reads text files from the local filesystem.
type LocalReader interface {
	ReadText(path, encoding string) (string, error)
}

// RemoteProvider fetches file contents from a hosted git repository.
// An empty ref targets the repository's default branch.
type RemoteProvider interface {
	FetchText(ctx context.Context, repository, path, ref string) (string, error)
	FetchBinary(ctx context.Context, repository, path, ref string) ([]byte, error)
}
