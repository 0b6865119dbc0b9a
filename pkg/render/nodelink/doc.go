// Package nodelink renders laid-out storyboards as node-link diagrams.
//
// # Overview
//
// The layout engine already decides where every node goes. This package
// turns a [graph.Layout] into Graphviz DOT with every node pinned at its
// computed position and size, then renders it with neato so Graphviz only
// draws edges and boxes.
//
// # Usage
//
//	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: adds node type and state to each label
//   - Scale: pixels-to-points factor (default [DefaultScale])
//
// # DOT Format
//
// Positions use the pinned form pos="x,y!" in points with notranslate set,
// so the DOT can also be fed to the graphviz CLI (neato -n2) directly.
// Fork edges (origin → first node of a child branch) are dashed.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
//
// [graph.Layout]: github.com/matzehuels/storyboard/pkg/graph.Layout
package nodelink
