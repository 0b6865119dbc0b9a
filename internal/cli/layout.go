package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/pipeline"
	"github.com/matzehuels/storyboard/pkg/watcher"
)

// layoutFlags holds the layout command's flags.
type layoutFlags struct {
	output     string
	configPath string
	formats    string
	detailed   bool
	write      bool
	watch      bool
	noCache    bool
	refresh    bool
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [board.yaml]",
		Short: "Compute node positions for a storyboard",
		Long: `Compute node positions for a storyboard.

The layout command reads a storyboard (JSON or YAML), places every branch and
writes a layout file (<input>.layout.json by default) with one box per node.
With --write the computed positions are also written back into the
storyboard. With --format the layout is rendered as well (svg, dot, json,
yaml). With --watch the layout is recomputed whenever the storyboard or the
config file changes.

Results are cached locally; set STORYBOARD_REDIS_URL to share a Redis cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.write && f.watch {
				return errors.New("--write cannot be combined with --watch")
			}
			return c.runLayout(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "layout output file (default: <input>.layout.json)")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "layout config file (TOML)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "also render: svg, dot, json, yaml (comma-separated)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "show node type and state in rendered diagrams")
	cmd.Flags().BoolVarP(&f.write, "write", "w", false, "write positions back into the storyboard")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "re-run when the storyboard or config changes")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached layouts")

	return cmd
}

// runLayout lays out input once and, with --watch, again on every change.
func (c *CLI) runLayout(ctx context.Context, input string, f layoutFlags) error {
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if err := c.layoutOnce(ctx, runner, input, f); err != nil {
		if !f.watch {
			return err
		}
		printError("%v", err)
	}
	if !f.watch {
		return nil
	}
	return c.watchLayout(ctx, runner, input, f)
}

// layoutOnce loads, lays out, writes, and optionally renders input.
func (c *CLI) layoutOnce(ctx context.Context, runner *pipeline.Runner, input string, f layoutFlags) error {
	opts := pipeline.Options{
		Input:      input,
		ConfigPath: f.configPath,
		Refresh:    f.refresh,
		Detailed:   f.detailed,
		Logger:     c.Logger,
	}
	if f.formats != "" {
		opts.Formats = strings.Split(f.formats, ",")
		if err := pipeline.ValidateFormats(opts.Formats); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "--format")
		}
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Computing layout...")
	spinner.Start()

	b, name, err := runner.Load(ctx, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return fmt.Errorf("load %s: %w", input, err)
	}
	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, b, name, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done(fmt.Sprintf("Laid out %d nodes", b.NodeCount()))

	outputPath := f.output
	if outputPath == "" {
		outputPath = basePath("", input) + ".layout.json"
	}
	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	if f.write {
		if err := graph.WriteStoryboardFile(b, name, input); err != nil {
			return fmt.Errorf("write storyboard %s: %w", input, err)
		}
		printFile(input)
	}

	if len(opts.Formats) > 0 {
		artifacts, _, err := runner.RenderWithCacheInfo(ctx, l, opts)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		if err := writeArtifacts(basePath("", input), artifacts, opts.Formats); err != nil {
			return err
		}
	}
	printStats(b.NodeCount(), b.BranchCount(), cacheHit)

	if !f.watch && len(opts.Formats) == 0 {
		printNextStep("Render", appName+" render "+outputPath)
	}
	return nil
}

// watchLayout re-runs layoutOnce on every debounced change until ctx ends.
func (c *CLI) watchLayout(ctx context.Context, runner *pipeline.Runner, input string, f layoutFlags) error {
	paths := []string{input}
	if f.configPath != "" {
		paths = append(paths, f.configPath)
	}

	w, err := watcher.NewWatcher(paths, watcher.WithOnError(func(err error) {
		if errors.Is(err, watcher.ErrFileRemoved) {
			c.Logger.Debug("watched file replaced", "error", err)
			return
		}
		c.Logger.Warn("watch error", "error", err)
	}))
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Stop()

	printInfo("Watching %s (ctrl+c to stop)", strings.Join(paths, ", "))
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-w.Changed():
			c.Logger.Debug("change detected", "path", path)
			if err := c.layoutOnce(ctx, runner, input, f); err != nil {
				printError("%v", err)
			}
		}
	}
}
