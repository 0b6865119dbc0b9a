package layout

import "github.com/matzehuels/storyboard/pkg/story"

// Width returns the display width of n. It reads only the fields of the
// value passed in, so a relayout always reflects the latest committed
// interactive state.
//
// Exploration nodes are ExplorationWidth, or ExplorationBubblesWidth with the
// bubbles panel open. Every other node is FrameActiveWidth while editing,
// expanded or generating and FrameWidth otherwise, plus FloatingPanelWidth
// with the floating panel open.
func (c Config) Width(n story.Node) float64 {
	if n.IsExploration() {
		if n.ShowBubblesPanel {
			return c.ExplorationBubblesWidth
		}
		return c.ExplorationWidth
	}

	w := c.FrameWidth
	switch n.State {
	case story.StateGenerating, story.StateExpanded, story.StateEditing:
		w = c.FrameActiveWidth
	}
	if n.ShowFloatingPanel {
		w += c.FloatingPanelWidth
	}
	return w
}

// Height returns the display height of n.
func (c Config) Height(n story.Node) float64 {
	if n.Expanded {
		return c.ExpandedHeight
	}
	return c.NodeHeight
}

// Gap returns the horizontal gap between adjacent nodes a and b. Gaps are
// constant per kind pair, not proportional to width, so the rhythm of a row
// stays stable while nodes resize.
func (c Config) Gap(a, b story.Node) float64 {
	switch {
	case a.IsExploration() && b.IsExploration():
		return c.GapExplorationExploration
	case a.IsExploration():
		return c.GapExplorationFrame
	case b.IsExploration():
		return c.GapFrameExploration
	default:
		return c.GapFrameFrame
	}
}
