package story

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Validate checks the board invariants and returns nil if they hold:
//
//  1. The branch parent graph is acyclic and every parent exists
//  2. Levels match depth (roots at 0, children at parent+1)
//  3. Every child branch's origin is a member of its parent branch
//  4. NodeIDs order matches NodeIndex, members point back at their branch,
//     and no node belongs to two branches
//
// The mutators on Board maintain these invariants; Validate exists for
// boards assembled from external data and for tests.
func (b *Board) Validate() error {
	if err := CheckBranchTree(b.Branches()); err != nil {
		return err
	}

	owner := make(map[string]string, len(b.nodes))
	for _, id := range b.branchOrder {
		br := b.branches[id]
		if br.IsRoot() {
			if br.Level != 0 {
				return fmt.Errorf("branch %s: %w", id, ErrLevelMismatch)
			}
			if br.OriginNodeID != "" {
				return fmt.Errorf("branch %s: %w", id, ErrOriginWithoutParent)
			}
		} else {
			parent := b.branches[br.ParentBranchID]
			if br.Level != parent.Level+1 {
				return fmt.Errorf("branch %s: %w", id, ErrLevelMismatch)
			}
			if n, ok := b.nodes[br.OriginNodeID]; !ok || n.BranchID != parent.ID {
				return fmt.Errorf("branch %s: %w", id, ErrOriginNotInParent)
			}
		}

		for i, nid := range br.NodeIDs {
			n, ok := b.nodes[nid]
			if !ok {
				return fmt.Errorf("branch %s member %s: %w", id, nid, ErrUnknownNode)
			}
			if prev, dup := owner[nid]; dup {
				return fmt.Errorf("node %s in %s and %s: %w", nid, prev, id, ErrNodeInBranch)
			}
			owner[nid] = id
			if n.BranchID != id || n.NodeIndex != i {
				return fmt.Errorf("branch %s member %s: %w", id, nid, ErrIndexMismatch)
			}
		}
	}
	return nil
}

// CheckBranchTree verifies that the parent links among branches form a
// forest: every ParentBranchID names a branch in the slice and no parent
// chain loops. The order of branches is irrelevant.
//
// Returns an error wrapping ErrUnknownBranch or ErrBranchCycle.
func CheckBranchTree(branches []Branch) error {
	ids := make(map[string]int64, len(branches))
	for i, br := range branches {
		ids[br.ID] = int64(i)
	}

	g := simple.NewDirectedGraph()
	for i := range branches {
		g.AddNode(simple.Node(int64(i)))
	}
	for i, br := range branches {
		if br.ParentBranchID == "" {
			continue
		}
		p, ok := ids[br.ParentBranchID]
		if !ok {
			return fmt.Errorf("branch %s parent %s: %w", br.ID, br.ParentBranchID, ErrUnknownBranch)
		}
		if p == int64(i) {
			return fmt.Errorf("branch %s is its own parent: %w", br.ID, ErrBranchCycle)
		}
		g.SetEdge(g.NewEdge(simple.Node(p), simple.Node(int64(i))))
	}

	cycles := topo.DirectedCyclesIn(g)
	if len(cycles) == 0 {
		return nil
	}
	names := make([]string, 0, len(cycles[0]))
	for _, n := range cycles[0] {
		names = append(names, branches[n.ID()].ID)
	}
	return fmt.Errorf("%s: %w", strings.Join(names, " -> "), ErrBranchCycle)
}
