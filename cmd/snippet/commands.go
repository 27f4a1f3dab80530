package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-snippet"
	snippetcmd "github.com/goliatone/go-snippet/internal/commands/snippet"
	"github.com/goliatone/go-snippet/internal/generator"
)

type remoteFlags struct {
	repository string
	ref        string
}

func (r *remoteFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.repository, "repository", "r", "", "remote repository as owner/name")
	cmd.Flags().StringVar(&r.ref, "ref", "", "branch, tag or commit of the repository")
}

func newResolveCommand(opts *globalOptions) *cobra.Command {
	var (
		remote      remoteFlags
		section     string
		noHeader    bool
		destination string
	)
	cmd := &cobra.Command{
		Use:   "resolve FILE",
		Short: "Print the text a snippet call expands to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := opts.module(cmd, nil)
			if err != nil {
				return err
			}
			return module.Commands().Resolve.Execute(cmd.Context(), snippetcmd.ResolveSnippetCommand{
				File:        args[0],
				Section:     section,
				Repository:  remote.repository,
				Ref:         remote.ref,
				SkipHeader:  noHeader,
				Destination: destination,
				Output:      cmd.OutOrStdout(),
			})
		},
	}
	remote.bind(cmd)
	cmd.Flags().StringVarP(&section, "section", "s", "", "heading whose section is extracted")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "drop the first line of the result")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "directory that receives images referenced by remote content")
	return cmd
}

func newRenderCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render PAGE",
		Short: "Print a page with every snippet call expanded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := opts.module(cmd, nil)
			if err != nil {
				return err
			}
			return module.Commands().Render.Execute(cmd.Context(), snippetcmd.RenderPageCommand{
				Path:   args[0],
				Output: cmd.OutOrStdout(),
			})
		},
	}
}

func newBuildCommand(opts *globalOptions) *cobra.Command {
	var (
		dryRun  bool
		output  string
		format  string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "build [PAGE...]",
		Short: "Write every page, expanded, to the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := opts.module(cmd, func(cfg *snippet.Config) {
				if output != "" {
					cfg.Generator.OutputDir = output
				}
				if format != "" {
					cfg.Generator.Format = format
				}
				if cmd.Flags().Changed("workers") {
					cfg.Generator.Workers = workers
				}
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return module.Commands().Build.Execute(cmd.Context(), snippetcmd.BuildSiteCommand{
				Pages:  args,
				DryRun: dryRun,
				Report: func(result *generator.BuildResult) { printBuildResult(out, result) },
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render pages without writing files")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory, overrides the config file")
	cmd.Flags().StringVar(&format, "format", "", "output format (md or html)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent page workers, 0 picks a default")
	return cmd
}

func newSectionsCommand(opts *globalOptions) *cobra.Command {
	var remote remoteFlags
	cmd := &cobra.Command{
		Use:   "sections FILE",
		Short: "List the headings a snippet call can select",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := opts.module(cmd, nil)
			if err != nil {
				return err
			}
			headings, err := module.Sections(cmd.Context(), snippet.SnippetRequest{
				File:       args[0],
				Repository: remote.repository,
				Ref:        remote.ref,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, heading := range headings {
				fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", heading.Level-1), heading.Title)
			}
			return nil
		},
	}
	remote.bind(cmd)
	return cmd
}

func printBuildResult(w io.Writer, result *generator.BuildResult) {
	prefix := ""
	if result.DryRun {
		prefix = "dry run: "
	}
	fmt.Fprintf(w, "%sbuilt %d pages (%d unchanged, %d skipped), %d assets in %s\n",
		prefix, result.PagesBuilt, result.PagesUnchanged, result.PagesSkipped, result.AssetsBuilt, result.Duration.Round(time.Millisecond))
	for _, removed := range result.Removed {
		fmt.Fprintf(w, "removed %s\n", removed)
	}
	for _, diag := range result.Diagnostics {
		fmt.Fprintf(w, "error %s: %v\n", diag.Source, diag.Err)
	}
}
