package layout

import "math"

// RelayoutFrom repositions the nodes of one branch after the node nodeID
// changed size.
//
// Nodes before nodeID keep their positions. nodeID and every later node are
// placed with the same adjacency rule as Tree; when nodeID is the first
// node it snaps back to its BaseX anchor. Child branches diverging from any
// repositioned node are laid out again from their new anchor.
//
// When nodeID can move the anchor of a child branch through its own width
// (an exploration node, or the origin of a child branch), or when its height
// change alters how root subtrees stack, RelayoutFrom runs Tree instead and
// reports Full in the result.
//
// Missing branches or nodes are logged and ignored. Position changes below
// Config.MinDelta are not written.
func RelayoutFrom(lc *Context, branchID, nodeID string) Result {
	br, ok := lc.Store.Branch(branchID)
	if !ok {
		lc.log().Warn("relayout: branch not found", "branch", branchID)
		return Result{}
	}
	members := lc.members(br)
	idx := indexOf(members, nodeID)
	if idx < 0 {
		lc.log().Warn("relayout: node not in branch", "branch", branchID, "node", nodeID)
		return Result{}
	}
	if lc.isFork(members[idx]) {
		lc.log().Debug("relayout: forking node changed, running full layout", "node", nodeID)
		return Tree(lc)
	}

	p := newPlanner(lc)
	path := p.ancestry(br)
	b := p.placeRow(br, members, idx, members[0].Pos)
	b = b.Union(p.placeChildren(br, members, idx, path))

	if p.restacks(path[0]) {
		lc.log().Debug("relayout: root subtree height changed, running full layout", "node", nodeID)
		return Tree(lc)
	}

	res := Result{Bounds: b, Placed: len(p.order)}
	res.Writes = p.commit(lc.Config.MinDelta)
	lc.log().Debug("incremental layout", "branch", branchID, "node", nodeID, "placed", res.Placed, "writes", res.Writes)
	return res
}

// restacks reports whether the planned subtree of rootID no longer ends
// exactly RootGap above the next non-empty root subtree.
func (p *planner) restacks(rootID string) bool {
	cfg := p.lc.Config
	found := false
	for _, br := range p.lc.Store.Branches() {
		if br.ParentBranchID != "" {
			continue
		}
		if br.ID == rootID {
			found = true
			continue
		}
		if !found {
			continue
		}
		next := p.subtreeBounds(br.ID)
		if next.IsZero() {
			continue
		}
		cur := p.subtreeBounds(rootID)
		return math.Abs(next.MinY-(cur.MaxY+cfg.RootGap)) >= max(cfg.MinDelta, 1e-9)
	}
	return false
}
