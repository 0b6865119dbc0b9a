// Package pkg provides the core libraries for storyboard layout.
//
// # Overview
//
// A storyboard is a tree of branches. Each branch is a row of nodes; child
// branches diverge from a node of their parent and are placed below and
// above it. The pkg directory is organized as:
//
//  1. [story] - Board model (nodes, branches, validation)
//  2. [layout] - Layout engine (full tree pass, incremental relayout, overlap resolution)
//  3. [graph] - Serialization of storyboards and computed layouts
//  4. [render] - Visual output (Graphviz node-link diagrams)
//  5. [pipeline] - Orchestration (load → layout → render) with caching
//  6. [cache], [errors], [observability], [watcher], [buildinfo] - Infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	storyboard.yaml / API request
//	         ↓
//	    [graph] package (decode + validate into a story.Board)
//	         ↓
//	    [layout] package (positions written back through layout.Mutator)
//	         ↓
//	    [graph] + [render] packages (layout export, DOT, SVG)
//
// # Quick Start
//
//	b, name, err := graph.ReadStoryboardFile("board.yaml")
//	if err != nil {
//	    return err
//	}
//	eng := layout.NewEngine(layout.NewContext(b, layout.DefaultConfig(), nil))
//	res, err := eng.Layout(ctx)
//	if err != nil {
//	    return err
//	}
//	l := graph.NewLayout(b, name, layout.DefaultConfig(), res)
//
// Editors that change one node call [layout.Engine.NodeChanged] instead of a
// full pass; only nodes after the changed one move.
//
// [story]: github.com/matzehuels/storyboard/pkg/story
// [layout]: github.com/matzehuels/storyboard/pkg/layout
// [layout.Engine.NodeChanged]: github.com/matzehuels/storyboard/pkg/layout.Engine.NodeChanged
// [graph]: github.com/matzehuels/storyboard/pkg/graph
// [render]: github.com/matzehuels/storyboard/pkg/render
// [pipeline]: github.com/matzehuels/storyboard/pkg/pipeline
// [cache]: github.com/matzehuels/storyboard/pkg/cache
// [errors]: github.com/matzehuels/storyboard/pkg/errors
// [observability]: github.com/matzehuels/storyboard/pkg/observability
// [watcher]: github.com/matzehuels/storyboard/pkg/watcher
// [buildinfo]: github.com/matzehuels/storyboard/pkg/buildinfo
package pkg
