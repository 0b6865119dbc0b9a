// Package render groups the renderers for laid-out storyboards.
//
// Rendering never computes positions: every renderer takes a
// [graph.Layout] produced by the layout engine and draws it as is.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage emits Graphviz DOT with every node pinned at its
// computed position and renders it to SVG:
//
//	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// JSON and YAML exports of the layout itself live in [graph].
//
// [graph.Layout]: github.com/matzehuels/storyboard/pkg/graph.Layout
// [graph]: github.com/matzehuels/storyboard/pkg/graph
// [nodelink]: github.com/matzehuels/storyboard/pkg/render/nodelink
package render
