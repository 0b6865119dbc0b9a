package layout

import "github.com/matzehuels/storyboard/pkg/story"

// RootBounds is the extent of one root branch and its descendants.
type RootBounds struct {
	BranchID string `json:"branch_id" yaml:"branch_id"`
	Bounds   Bounds `json:"bounds" yaml:"bounds"`
}

// Result summarizes one layout pass.
type Result struct {
	// Bounds covers every node placed by a full pass, or the relaid
	// subtree of an incremental pass.
	Bounds Bounds `json:"bounds" yaml:"bounds"`
	// Roots lists the stacked root subtrees of a full pass, top to bottom.
	Roots []RootBounds `json:"roots,omitempty" yaml:"roots,omitempty"`
	// Placed is the number of nodes the pass computed a position for.
	Placed int `json:"placed" yaml:"placed"`
	// Writes is the number of nodes actually updated through the mutator.
	Writes int `json:"writes" yaml:"writes"`
	// Full is true when a full tree pass ran, including fallbacks from an
	// incremental request.
	Full bool `json:"full" yaml:"full"`
}

// Tree positions every node reachable from a root branch.
//
// Root branches are visited in store order. The first non-empty root is
// anchored at (StartX, StartY); each later one is laid out and then shifted
// so its subtree starts RootGap below the previous subtree's bottom edge.
// Branches that cannot be reached from any root are reported and left
// untouched.
//
// Tree is deterministic: the same store contents always produce the same
// positions. Every changed position is written, however small.
func Tree(lc *Context) Result {
	cfg := lc.Config
	p := newPlanner(lc)
	res := Result{Full: true}

	var prevMaxY float64
	for _, br := range lc.Store.Branches() {
		if br.ParentBranchID != "" {
			continue
		}
		mark := len(p.order)
		start := story.Point{X: cfg.StartX, Y: cfg.StartY}
		if len(res.Roots) > 0 {
			start.Y = 0
		}
		b, _ := p.layoutBranch(br, start, nil)
		if b.IsZero() {
			continue
		}
		if len(res.Roots) > 0 {
			dy := prevMaxY + cfg.RootGap - b.MinY
			p.shift(p.order[mark:], dy)
			b = b.Translate(0, dy)
		}
		res.Roots = append(res.Roots, RootBounds{BranchID: br.ID, Bounds: b})
		res.Bounds = res.Bounds.Union(b)
		prevMaxY = b.MaxY
	}

	for _, br := range lc.Store.Branches() {
		if !p.placed[br.ID] {
			lc.log().Warn("branch not reachable from a root", "branch", br.ID, "parent", br.ParentBranchID)
		}
	}

	res.Placed = len(p.order)
	res.Writes = p.commit(0)
	lc.log().Debug("full layout", "roots", len(res.Roots), "placed", res.Placed, "writes", res.Writes)
	return res
}
