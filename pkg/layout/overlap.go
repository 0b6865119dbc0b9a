package layout

import "github.com/matzehuels/storyboard/pkg/story"

// ResolveOverlaps pushes nodes of one branch to the right until every
// adjacent pair is at least Config.MinGap apart:
//
//	next.x >= prev.x + width(prev) + MinGap
//
// A node that is pushed and has child branches carries them along. The pass
// repeats while anything moved, up to Config.MaxOverlapPasses; reaching the
// cap logs a warning and stops, leaving the next layout to finish the job.
// depth is the number of passes already run, zero for callers.
//
// It returns the number of nodes pushed across all passes.
func ResolveOverlaps(lc *Context, branchID string, depth int) int {
	cfg := lc.Config
	br, ok := lc.Store.Branch(branchID)
	if !ok {
		lc.log().Warn("overlap: branch not found", "branch", branchID)
		return 0
	}

	members := lc.members(br)
	var p *planner
	pushed := 0
	for i := 1; i < len(members); i++ {
		prev := members[i-1]
		limit := prev.Pos.X + cfg.Width(prev) + cfg.MinGap
		if members[i].Pos.X >= limit {
			continue
		}
		members[i].Pos.X = limit
		next := members[i]
		if err := lc.Store.UpdateNode(next.ID, story.NodePatch{Pos: story.Ptr(next.Pos)}); err != nil {
			lc.log().Warn("overlap: update node failed", "node", next.ID, "err", err)
			continue
		}
		pushed++

		if lc.isFork(next) {
			if p == nil {
				p = newPlanner(lc)
			}
			p.set(next, next.Pos, baseConnections(br, i))
			p.placeChildrenOf(br.ID, next, p.ancestry(br))
		}
	}
	if p != nil {
		p.commit(cfg.MinDelta)
	}

	if pushed == 0 {
		return 0
	}
	if depth+1 >= cfg.MaxOverlapPasses {
		lc.log().Warn("overlap: pass limit reached", "branch", branchID, "passes", depth+1, "pushed", pushed)
		return pushed
	}
	return pushed + ResolveOverlaps(lc, branchID, depth+1)
}
