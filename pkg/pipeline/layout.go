package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/layout"
	"github.com/matzehuels/storyboard/pkg/story"
)

// =============================================================================
// Load
// =============================================================================

// Load reads the storyboard named by opts. The document name can be
// overridden with opts.Name.
func Load(opts Options) (*story.Board, string, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", err
	}
	data := opts.Data
	if len(data) == 0 {
		raw, err := os.ReadFile(opts.Input)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", opts.Input, err)
		}
		data = raw
	}
	b, name, err := graph.ReadStoryboard(bytes.NewReader(data), opts.InputFormat)
	if err != nil {
		return nil, "", err
	}
	if opts.Name != "" {
		name = opts.Name
	}
	return b, name, nil
}

// =============================================================================
// Layout
// =============================================================================

// ComputeLayout runs a full layout pass over b and exports the result.
func ComputeLayout(ctx context.Context, b *story.Board, name string, opts Options) (graph.Layout, layout.Result, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, layout.Result{}, err
	}
	eng := layout.NewEngine(layout.NewContext(b, *opts.Config, opts.Logger))
	res, err := eng.Layout(ctx)
	if err != nil {
		return graph.Layout{}, layout.Result{}, err
	}
	return graph.NewLayout(b, name, *opts.Config, res), res, nil
}

// Relayout applies patch to one node and runs the incremental pass an
// editor would run after that change. Patches that do not change the node's
// size still trigger the pass; it simply writes nothing.
func Relayout(ctx context.Context, b *story.Board, name, nodeID string, patch story.NodePatch, opts Options) (graph.Layout, layout.Result, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, layout.Result{}, err
	}
	if err := b.UpdateNode(nodeID, patch); err != nil {
		return graph.Layout{}, layout.Result{}, fmt.Errorf("update node %s: %w", nodeID, err)
	}
	eng := layout.NewEngine(layout.NewContext(b, *opts.Config, opts.Logger))
	res, err := eng.NodeChanged(ctx, nodeID)
	if err != nil {
		return graph.Layout{}, layout.Result{}, err
	}
	return graph.NewLayout(b, name, *opts.Config, res), res, nil
}

// applyPositions copies layout output (positions and connections) from a
// serialized storyboard onto b. Nodes missing from b are skipped.
func applyPositions(b *story.Board, sb graph.Storyboard) error {
	for _, n := range sb.Nodes {
		if n.Pos == nil {
			continue
		}
		if _, ok := b.Node(n.ID); !ok {
			continue
		}
		conns := n.Connections
		if conns == nil {
			conns = []string{}
		}
		if err := b.UpdateNode(n.ID, story.NodePatch{Pos: n.Pos, Connections: conns}); err != nil {
			return fmt.Errorf("apply position %s: %w", n.ID, err)
		}
	}
	return nil
}
