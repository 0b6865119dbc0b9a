package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/storyboard/pkg/graph"
)

// DefaultScale maps canvas pixels to DOT points. Storyboard canvases are
// several thousand pixels wide; a quarter keeps the SVG readable.
const DefaultScale = 0.25

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the node type and state under the node ID.
	Detailed bool
	// Scale converts canvas pixels to points. Zero means DefaultScale.
	Scale float64
}

// Fill colors per node type.
var fills = map[string]string{
	"story_frame":  "white",
	"exploration":  "lightgoldenrod1",
	"branch_start": "lightblue",
	"branch_frame": "aliceblue",
}

// ToDOT converts a computed layout to Graphviz DOT. Every node is pinned at
// its computed position (canvas y grows downward, DOT y upward, so rows are
// mirrored around the layout bounds) and drawn at its computed size, so
// rendering with neato reproduces the layout instead of computing a new one.
//
// Fork edges are drawn dashed; sequence edges solid.
func ToDOT(l graph.Layout, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fixedsize=true, fontsize=14];\n")
	buf.WriteString("\n")

	for _, b := range l.Boxes {
		cx := (b.X + b.Width/2 - l.Bounds.MinX) * scale
		cy := (l.Bounds.MaxY - (b.Y + b.Height/2)) * scale
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(b, opts.Detailed)),
			fmt.Sprintf("pos=\"%s,%s!\"", num(cx), num(cy)),
			fmt.Sprintf("width=%s", num(b.Width*scale/72)),
			fmt.Sprintf("height=%s", num(b.Height*scale/72)),
			fmt.Sprintf("fillcolor=%q", fill(b.Type)),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", b.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		if e.Kind == graph.EdgeFork {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(b graph.Box, detailed bool) string {
	if !detailed {
		return b.ID
	}
	return b.ID + "\n" + b.Type + "\n" + b.State
}

func fill(nodeType string) string {
	if c, ok := fills[nodeType]; ok {
		return c
	}
	return "white"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz neato, which honours
// the pinned positions written by [ToDOT].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz <svg> header with a minimal one so
// the output scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(header))
}
