package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/pipeline"
)

// renderFlags holds the render command's flags.
type renderFlags struct {
	output   string
	formats  string
	detailed bool
	scale    float64
	noCache  bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render [board.layout.json]",
		Short: "Render a computed layout",
		Long: `Render a computed layout.

The render command reads a layout file (produced by 'layout') and writes one
artifact per format: svg (Graphviz, nodes pinned at their computed
positions), dot, json or yaml.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output base path (default: input without .layout.json)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), dot, json, yaml (comma-separated)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "show node type and state")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "canvas pixels to points (default 0.25)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, f renderFlags) error {
	l, err := graph.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Formats:  parseFormats(f.formats),
		Detailed: f.detailed,
		Scale:    f.scale,
		Logger:   c.Logger,
	}

	spinner := newSpinner(ctx, "Rendering...")
	spinner.Start()
	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	printSuccess("Render complete")
	if err := writeArtifacts(basePath(f.output, input), artifacts, opts.Formats); err != nil {
		return err
	}
	if cacheHit {
		printDetail("%d nodes · %d edges · %s", len(l.Boxes), len(l.Edges), iconCached)
	} else {
		printDetail("%d nodes · %d edges", len(l.Boxes), len(l.Edges))
	}
	return nil
}
