package layout

import (
	"fmt"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/storyboard/pkg/story"
)

// recipe describes a storyboard so that identical boards can be built more
// than once from one draw.
type recipe struct {
	nodes    []story.Node
	branches []story.Branch
}

var nodeTypes = []story.NodeType{
	story.TypeStoryFrame,
	story.TypeExploration,
	story.TypeBranchStart,
	story.TypeBranchFrame,
}

func drawNode(t *rapid.T, id string) story.Node {
	n := story.Node{
		ID:                id,
		Type:              rapid.SampledFrom(nodeTypes).Draw(t, id+"/type"),
		State:             rapid.SampledFrom(story.States).Draw(t, id+"/state"),
		ShowFloatingPanel: rapid.Bool().Draw(t, id+"/floating"),
		ShowBubblesPanel:  rapid.Bool().Draw(t, id+"/bubbles"),
		Expanded:          rapid.Bool().Draw(t, id+"/expanded"),
	}
	if rapid.IntRange(0, 3).Draw(t, id+"/anchored") == 0 {
		n.BaseX = story.Ptr(float64(rapid.IntRange(0, 3000).Draw(t, id+"/basex")))
	}
	return n
}

func drawRecipe(t *rapid.T) recipe {
	var r recipe
	roots := rapid.IntRange(1, 3).Draw(t, "roots")
	total := rapid.IntRange(roots, 9).Draw(t, "branches")
	for i := range total {
		br := story.Branch{ID: fmt.Sprintf("b%d", i)}
		if i >= roots {
			parent := r.branches[rapid.IntRange(0, i-1).Draw(t, br.ID+"/parent")]
			br.ParentBranchID = parent.ID
			br.OriginNodeID = rapid.SampledFrom(parent.NodeIDs).Draw(t, br.ID+"/origin")
		}
		for j := range rapid.IntRange(1, 5).Draw(t, br.ID+"/size") {
			n := drawNode(t, fmt.Sprintf("%s-%d", br.ID, j))
			r.nodes = append(r.nodes, n)
			br.NodeIDs = append(br.NodeIDs, n.ID)
		}
		r.branches = append(r.branches, br)
	}
	return r
}

func (r recipe) build(t *rapid.T) *story.Board {
	b := story.New()
	for _, n := range r.nodes {
		if _, err := b.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, br := range r.branches {
		if _, err := b.AddBranch(br); err != nil {
			t.Fatalf("AddBranch(%s): %v", br.ID, err)
		}
	}
	return b
}

func TestPropertyTreeDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := drawRecipe(t)
		a, b := r.build(t), r.build(t)
		Tree(quietContext(a))
		Tree(quietContext(b))

		sa, sb := snapshot(a), snapshot(b)
		for id, n := range sa {
			if sb[id].Pos != n.Pos || !slices.Equal(sb[id].Connections, n.Connections) {
				t.Fatalf("%s differs: %+v vs %+v", id, n, sb[id])
			}
		}
		if res := Tree(quietContext(a)); res.Writes != 0 {
			t.Fatalf("repeated pass wrote %d nodes", res.Writes)
		}
	})
}

func TestPropertyTreeRowsDoNotOverlap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := drawRecipe(t).build(t)
		lc := quietContext(b)
		Tree(lc)

		cfg := lc.Config
		for _, br := range b.Branches() {
			members := lc.members(br)
			for i := 1; i < len(members); i++ {
				prev, next := members[i-1], members[i]
				if next.Pos.X < prev.Pos.X+cfg.Width(prev)+cfg.MinGap {
					t.Fatalf("branch %s: %s at %v overlaps %s at %v", br.ID, next.ID, next.Pos.X, prev.ID, prev.Pos.X)
				}
				if next.Pos.Y != prev.Pos.Y {
					t.Fatalf("branch %s: row not horizontal at %s", br.ID, next.ID)
				}
			}
			if len(members) > 0 && members[0].BaseX != nil && members[0].Pos.X != *members[0].BaseX {
				t.Fatalf("branch %s: first node at %v, want anchor %v", br.ID, members[0].Pos.X, *members[0].BaseX)
			}
		}
	})
}

func TestPropertyIncrementalMatchesFull(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := drawRecipe(t)
		incremental, full := r.build(t), r.build(t)
		lcInc, lcFull := quietContext(incremental), quietContext(full)
		Tree(lcInc)
		Tree(lcFull)

		changed := rapid.SampledFrom(r.nodes).Draw(t, "changed")
		patch := story.NodePatch{
			State:             story.Ptr(rapid.SampledFrom(story.States).Draw(t, "state")),
			ShowFloatingPanel: story.Ptr(rapid.Bool().Draw(t, "floating")),
			ShowBubblesPanel:  story.Ptr(rapid.Bool().Draw(t, "bubbles")),
			Expanded:          story.Ptr(rapid.Bool().Draw(t, "expanded")),
		}
		for _, b := range []*story.Board{incremental, full} {
			if err := b.UpdateNode(changed.ID, patch); err != nil {
				t.Fatal(err)
			}
		}

		n, _ := incremental.Node(changed.ID)
		RelayoutFrom(lcInc, n.BranchID, n.ID)
		ResolveOverlaps(lcInc, n.BranchID, 0)
		Tree(lcFull)
		for _, br := range full.Branches() {
			ResolveOverlaps(lcFull, br.ID, 0)
		}

		si, sf := snapshot(incremental), snapshot(full)
		for id, want := range sf {
			got := si[id]
			if got.Pos != want.Pos {
				t.Fatalf("%s pos = %v incrementally, %v in full pass", id, got.Pos, want.Pos)
			}
			if !slices.Equal(got.Connections, want.Connections) {
				t.Fatalf("%s connections = %v incrementally, %v in full pass", id, got.Connections, want.Connections)
			}
		}
	})
}
