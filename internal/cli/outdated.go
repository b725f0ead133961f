package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"relnotes/pkg/batch"
	"relnotes/pkg/render"
	"relnotes/pkg/upstream/brew"
)

// outdatedCommand creates the main command: look up and print changelogs for
// every locally-outdated package.
func (c *CLI) outdatedCommand() *cobra.Command {
	var (
		noCache      bool
		interactive  bool
		jobs         int
		formulaeOnly bool
		casksOnly    bool
	)

	cmd := &cobra.Command{
		Use:   "outdated",
		Short: "Show changelogs for all outdated packages",
		Long:  `Queries brew for outdated packages, resolves each one's upstream changelog, and prints what changed since the installed version. Output order always matches brew's package order regardless of lookup timing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			pkgs, err := c.Inventory.Outdated(ctx)
			if err != nil {
				return err
			}
			pkgs = filterKinds(pkgs, formulaeOnly, casksOnly)
			if len(pkgs) == 0 {
				printInfo("All packages are up to date")
				return nil
			}

			runner, closeStore := c.newRunner(noCache)
			defer func() { _ = closeStore() }()

			renderer := render.New(stdoutIsTerminal())

			var mu sync.Mutex
			var tally render.Tally
			tasks := make([]batch.Task, len(pkgs))
			for i, pkg := range pkgs {
				pkg := pkg
				tasks[i] = batch.Task{
					Name: pkg.Name,
					Run: func(ctx context.Context) (string, error) {
						out := runner.Lookup(ctx, pkg)
						mu.Lock()
						tally.Add(out)
						mu.Unlock()
						return renderer.Render(out), out.Err
					},
				}
			}

			cfg := c.Config
			if jobs > 0 {
				cfg.Jobs = jobs
			}
			opts := batch.Options{
				Limit:     cfg.JobLimit(),
				Delay:     cfg.BatchDelay,
				Separator: "\n",
				Logger:    c.Logger,
			}

			var view *progressView
			if interactive && stdoutIsTerminal() {
				view = newProgressView(len(pkgs))
				opts.OnProgress = view.update
				view.start()
			} else {
				opts.OnProgress = func(p batch.Progress) {
					c.Logger.Debug("processed", "package", p.Name, "done", p.Done, "total", p.Total)
				}
			}

			prog := newProgress(c.Logger)
			res, runErr := batch.Run(ctx, os.Stdout, tasks, opts)
			if view != nil {
				view.finish()
			}
			if runErr != nil && !res.Canceled {
				return runErr
			}

			fmt.Println()
			fmt.Print(renderer.Summary(tally))
			prog.done(fmt.Sprintf("processed %d packages", res.Completed+res.Failed))

			if res.Canceled {
				printError("interrupted, partial results above")
				return context.Canceled
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the HTTP response cache")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "show a live progress view")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "concurrent lookups (clamped to a safe limit)")
	cmd.Flags().BoolVar(&formulaeOnly, "formulae", false, "only check formulae")
	cmd.Flags().BoolVar(&casksOnly, "casks", false, "only check casks")
	cmd.MarkFlagsMutuallyExclusive("formulae", "casks")

	return cmd
}

func filterKinds(pkgs []brew.Package, formulaeOnly, casksOnly bool) []brew.Package {
	if !formulaeOnly && !casksOnly {
		return pkgs
	}
	want := brew.KindFormula
	if casksOnly {
		want = brew.KindCask
	}
	filtered := pkgs[:0:0]
	for _, p := range pkgs {
		if p.Kind == want {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
