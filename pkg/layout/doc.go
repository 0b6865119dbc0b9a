// Package layout computes canvas positions for a storyboard.
//
// # Overview
//
// A storyboard is a forest of branches. Each branch is one horizontal row
// of nodes; a child branch diverges from an origin node of its parent and is
// drawn to the right of it, fanned out vertically with its siblings. This
// package places every node so that rows never overlap and resizing a single
// node only moves what has to move.
//
// # Sizing
//
// [Config.Width], [Config.Height] and [Config.Gap] map a node's type and
// interactive state to its box and to the spacing before its neighbour.
// They read only the node value they are given.
//
// # Passes
//
//   - [Tree] lays out every branch reachable from a root.
//   - [RelayoutFrom] moves the tail of one branch after one node resized,
//     falling back to [Tree] when the change shifts child branch anchors.
//   - [ResolveOverlaps] pushes nodes apart when a row violates the minimum
//     gap.
//
// All passes plan positions first and then write them through the caller's
// [Mutator]; nothing is cached between calls. Missing nodes and branches are
// logged and skipped, never returned as errors.
//
// # Basic Usage
//
//	board := story.New()
//	// ... add branches and nodes ...
//	lc := layout.NewContext(board, layout.DefaultConfig(), logger)
//	eng := layout.NewEngine(lc)
//	if _, err := eng.Layout(ctx); err != nil {
//	    return err
//	}
//	_ = board.SetNodeState(id, story.StateExpanded)
//	_, err := eng.NodeChanged(ctx, id)
//
// # Concurrency
//
// Passes are synchronous and expect exclusive access to the store while
// they run. [Engine] rejects a pass that starts while another one is in
// flight with [ErrLayoutInProgress].
package layout
