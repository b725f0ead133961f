package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"relnotes/pkg/errors"
	"relnotes/pkg/render"
	"relnotes/pkg/upstream/brew"
)

// resolveCommand creates the resolve debug command: show how one package
// resolves and which strategy matched.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		noCache bool
		isCask  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <package>",
		Short: "Show how a package resolves to its upstream source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := errors.ValidatePackageName(name); err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)

			runner, closeStore := c.newRunner(noCache)
			defer func() { _ = closeStore() }()

			kind := brew.KindFormula
			if isCask {
				kind = brew.KindCask
			}

			spin := newSpinner(ctx, fmt.Sprintf("Resolving %s...", name))
			spin.Start()
			meta, err := runner.Metadata.Metadata(ctx, name, kind)
			if err != nil {
				spin.Stop()
				return err
			}
			src := runner.Resolver.Resolve(ctx, meta.Candidates())
			spin.Stop()
			if spin.Cancelled() {
				return ctx.Err()
			}

			printSuccess("%s", name)
			printKeyValue("kind", kind.String())
			printKeyValue("homepage", meta.Homepage)
			printKeyValue("source url", meta.SourceURL)
			printKeyValue("version", meta.Version)
			printKeyValue("resolved", src.String())
			if src.Strategy != "" {
				printKeyValue("strategy", src.Strategy)
			}

			// Show the notes lookup outcome too, so the whole pipeline can
			// be inspected for one package.
			out := runner.Lookup(ctx, brew.Package{
				Name:             name,
				Kind:             kind,
				InstalledVersion: "0",
				CurrentVersion:   meta.Version,
			})
			switch render.Classify(out) {
			case render.StateNotes:
				printKeyValue("notes", string(out.Notes.Source))
				if !out.ReleasedAt.IsZero() {
					printKeyValue("released", out.ReleasedAt.Format(time.DateOnly))
				}
			case render.StateError:
				printWarning("lookup failed: %s", errors.UserMessage(out.Err))
			default:
				printDetail("no release notes found")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the HTTP response cache")
	cmd.Flags().BoolVar(&isCask, "cask", false, "treat the package as a cask")

	return cmd
}
