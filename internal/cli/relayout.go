package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/pipeline"
	"github.com/matzehuels/storyboard/pkg/story"
)

// relayoutFlags holds the relayout command's flags. Boolean modifiers are
// only applied when given on the command line.
type relayoutFlags struct {
	output        string
	configPath    string
	state         string
	baseX         float64
	clearBaseX    bool
	expanded      bool
	floatingPanel bool
	bubblesPanel  bool
}

// relayoutCommand creates the relayout command.
func (c *CLI) relayoutCommand() *cobra.Command {
	var f relayoutFlags

	cmd := &cobra.Command{
		Use:   "relayout [board.yaml] [node]",
		Short: "Change one node and shift the nodes after it",
		Long: `Change one node and shift the nodes after it.

The relayout command applies a state or size change to a single node of an
already laid out storyboard and runs the incremental pass an editor runs
after the same change: later siblings move along the row, child branches
follow their origins, and nothing before the node moves.

The updated positions are written back into the storyboard.`,
		Example: `  storyboard relayout board.yaml intro --state generating
  storyboard relayout board.yaml choice --bubbles-panel
  storyboard relayout board.yaml left --base-x 1500`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := relayoutPatch(cmd, f)
			if err != nil {
				return err
			}
			return c.runRelayout(cmd.Context(), args[0], args[1], patch, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "also write the layout to this file")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "layout config file (TOML)")
	cmd.Flags().StringVarP(&f.state, "state", "s", "", "new node state")
	cmd.Flags().Float64Var(&f.baseX, "base-x", 0, "anchor x for the first node of a branch")
	cmd.Flags().BoolVar(&f.clearBaseX, "clear-base-x", false, "remove the anchor x")
	cmd.Flags().BoolVar(&f.expanded, "expanded", false, "expanded (double height)")
	cmd.Flags().BoolVar(&f.floatingPanel, "floating-panel", false, "show the floating panel")
	cmd.Flags().BoolVar(&f.bubblesPanel, "bubbles-panel", false, "show the bubbles panel (exploration nodes)")

	return cmd
}

// relayoutPatch builds a node patch from the flags that were set.
func relayoutPatch(cmd *cobra.Command, f relayoutFlags) (story.NodePatch, error) {
	var p story.NodePatch
	flags := cmd.Flags()
	if flags.Changed("state") {
		s, err := apperrors.ValidateNodeState(f.state)
		if err != nil {
			return p, err
		}
		p.State = &s
	}
	if flags.Changed("base-x") {
		if f.clearBaseX {
			return p, apperrors.New(apperrors.ErrCodeInvalidInput, "--base-x and --clear-base-x are mutually exclusive")
		}
		p.BaseX = story.Ptr(f.baseX)
	}
	p.ClearBaseX = f.clearBaseX
	if flags.Changed("expanded") {
		p.Expanded = story.Ptr(f.expanded)
	}
	if flags.Changed("floating-panel") {
		p.ShowFloatingPanel = story.Ptr(f.floatingPanel)
	}
	if flags.Changed("bubbles-panel") {
		p.ShowBubblesPanel = story.Ptr(f.bubblesPanel)
	}
	return p, nil
}

func (c *CLI) runRelayout(ctx context.Context, input, nodeID string, patch story.NodePatch, f relayoutFlags) error {
	if err := apperrors.ValidateID("node", nodeID); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{Input: input, ConfigPath: f.configPath, Logger: c.Logger}
	b, name, err := runner.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}

	l, err := runner.Relayout(ctx, b, name, nodeID, patch, opts)
	if err != nil {
		return err
	}

	if err := graph.WriteStoryboardFile(b, name, input); err != nil {
		return fmt.Errorf("write storyboard %s: %w", input, err)
	}
	printSuccess("Relaid out %s", nodeID)
	printFile(input)
	if f.output != "" {
		if err := graph.WriteLayoutFile(l, f.output); err != nil {
			return fmt.Errorf("write output %s: %w", f.output, err)
		}
		printFile(f.output)
	}
	if box, ok := l.Box(nodeID); ok {
		printDetail("%s at (%.0f, %.0f), %.0fx%.0f", nodeID, box.X, box.Y, box.Width, box.Height)
	}
	return nil
}
