// Package story provides the storyboard data model: nodes grouped into
// branches, and branches organized into a tree.
//
// # Overview
//
// A storyboard is a narrative that diverges into alternative paths. Each
// path segment is a [Branch], an ordered sequence of [Node] values drawn on a
// single horizontal row. A child branch diverges from an origin node of its
// parent branch, typically an exploration node where the reader makes a
// choice.
//
// # Basic Usage
//
// Create a [Board] with [New], add nodes with [Board.AddNode], branches with
// [Board.AddBranch], and place nodes into branches with
// [Board.AddNodeToBranch]:
//
//	b := story.New()
//	_ = b.AddBranch(story.Branch{ID: "main"})
//	_ = b.AddNode(story.Node{ID: "n0", Type: story.TypeStoryFrame})
//	_ = b.AddNodeToBranch("main", "n0", story.End)
//
// Structural mutators keep Branch.NodeIDs and Node.NodeIndex synchronized.
// Use [Board.Validate] to check the tree invariants after bulk edits.
//
// # Ownership
//
// Node.Pos and Node.Connections are owned by the layout engine
// (pkg/layout). Other code may only supply Node.BaseX as an anchor hint
// for the first node of a branch. Every structural mutation must be followed
// by a layout pass before positions are considered valid.
//
// # Concurrency
//
// Board is not safe for concurrent use without external synchronization.
package story
