package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/storyboard/pkg/story"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Serialization formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Edge kinds in a Layout.
const (
	// EdgeSequence links consecutive nodes of one branch.
	EdgeSequence = "sequence"
	// EdgeFork links an origin node to the first node of a child branch.
	EdgeFork = "fork"
)

// =============================================================================
// Storyboard - Board Serialization
// =============================================================================

// Storyboard is the canonical serialization format for a board. Used for
// input files, API requests, and cache keys.
//
// Branch membership is carried by Branch.Nodes only; node order within a
// branch is the order of that list.
type Storyboard struct {
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes    []Node   `json:"nodes" yaml:"nodes"`
	Branches []Branch `json:"branches" yaml:"branches"`
}

// Node is the serialized form of story.Node.
type Node struct {
	ID    string `json:"id" yaml:"id"`
	Type  string `json:"type" yaml:"type"`
	State string `json:"state,omitempty" yaml:"state,omitempty"`

	// Anchor hint for the first node of a branch.
	BaseX *float64 `json:"base_x,omitempty" yaml:"base_x,omitempty"`

	// Size modifiers.
	FloatingPanel bool `json:"floating_panel,omitempty" yaml:"floating_panel,omitempty"`
	BubblesPanel  bool `json:"bubbles_panel,omitempty" yaml:"bubbles_panel,omitempty"`
	Expanded      bool `json:"expanded,omitempty" yaml:"expanded,omitempty"`

	// Layout output, present once a board has been laid out.
	Pos         *story.Point `json:"pos,omitempty" yaml:"pos,omitempty"`
	Connections []string     `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// Branch is the serialized form of story.Branch. Level is not stored; it is
// derived from the parent chain on load.
type Branch struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Parent string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Origin string   `json:"origin,omitempty" yaml:"origin,omitempty"`
	Nodes  []string `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// NodePatch is the serialized form of story.NodePatch, used by relayout
// requests. Only size-affecting and anchor fields can be patched; positions
// belong to the layout engine.
type NodePatch struct {
	State         *string  `json:"state,omitempty" yaml:"state,omitempty"`
	BaseX         *float64 `json:"base_x,omitempty" yaml:"base_x,omitempty"`
	ClearBaseX    bool     `json:"clear_base_x,omitempty" yaml:"clear_base_x,omitempty"`
	FloatingPanel *bool    `json:"floating_panel,omitempty" yaml:"floating_panel,omitempty"`
	BubblesPanel  *bool    `json:"bubbles_panel,omitempty" yaml:"bubbles_panel,omitempty"`
	Expanded      *bool    `json:"expanded,omitempty" yaml:"expanded,omitempty"`
}

// ToStory converts the patch, validating the state name.
func (p NodePatch) ToStory() (story.NodePatch, error) {
	out := story.NodePatch{
		BaseX:             p.BaseX,
		ClearBaseX:        p.ClearBaseX,
		ShowFloatingPanel: p.FloatingPanel,
		ShowBubblesPanel:  p.BubblesPanel,
		Expanded:          p.Expanded,
	}
	if p.State != nil {
		s := story.NodeState(*p.State)
		if !s.Valid() {
			return story.NodePatch{}, fmt.Errorf("%w: %q", story.ErrInvalidNodeState, *p.State)
		}
		out.State = &s
	}
	return out, nil
}

// =============================================================================
// Board ↔ Storyboard Conversion
// =============================================================================

// FromBoard converts a board to its serialization format. Nodes and branches
// keep board insertion order. Positions are included for placed nodes.
func FromBoard(b *story.Board, name string) Storyboard {
	out := Storyboard{
		Name:     name,
		Nodes:    make([]Node, 0, b.NodeCount()),
		Branches: make([]Branch, 0, b.BranchCount()),
	}
	for _, n := range b.Nodes() {
		out.Nodes = append(out.Nodes, nodeFromStory(n))
	}
	for _, br := range b.Branches() {
		out.Branches = append(out.Branches, Branch{
			ID:     br.ID,
			Name:   br.Name,
			Parent: br.ParentBranchID,
			Origin: br.OriginNodeID,
			Nodes:  br.NodeIDs,
		})
	}
	return out
}

// ToBoard converts a Storyboard to a board.
//
// Branches may be listed in any order: the parent tree is checked for
// cycles and dangling parents first, then branches are added parents first
// while siblings keep their listed order.
func ToBoard(s Storyboard) (*story.Board, error) {
	branches := make([]story.Branch, len(s.Branches))
	for i, bj := range s.Branches {
		branches[i] = story.Branch{
			ID:             bj.ID,
			Name:           bj.Name,
			ParentBranchID: bj.Parent,
			OriginNodeID:   bj.Origin,
			NodeIDs:        bj.Nodes,
		}
	}
	if err := story.CheckBranchTree(branches); err != nil {
		return nil, err
	}

	b := story.New()
	for _, nj := range s.Nodes {
		if _, err := b.AddNode(nodeToStory(nj)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}

	depth := branchDepths(branches)
	slices.SortStableFunc(branches, func(x, y story.Branch) int {
		return cmp.Compare(depth[x.ID], depth[y.ID])
	})
	for _, br := range branches {
		if _, err := b.AddBranch(br); err != nil {
			return nil, fmt.Errorf("add branch %s: %w", br.ID, err)
		}
	}
	return b, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// branchDepths returns each branch's nesting depth. The parent links must
// already be checked for cycles and dangling parents.
func branchDepths(branches []story.Branch) map[string]int {
	parent := make(map[string]string, len(branches))
	for _, br := range branches {
		parent[br.ID] = br.ParentBranchID
	}
	depth := make(map[string]int, len(branches))
	var walk func(id string) int
	walk = func(id string) int {
		if d, ok := depth[id]; ok {
			return d
		}
		d := 0
		if p := parent[id]; p != "" {
			d = walk(p) + 1
		}
		depth[id] = d
		return d
	}
	for _, br := range branches {
		walk(br.ID)
	}
	return depth
}

func nodeFromStory(n story.Node) Node {
	out := Node{
		ID:            n.ID,
		Type:          string(n.Type),
		State:         string(n.State),
		BaseX:         n.BaseX,
		FloatingPanel: n.ShowFloatingPanel,
		BubblesPanel:  n.ShowBubblesPanel,
		Expanded:      n.Expanded,
		Connections:   n.Connections,
	}
	if n.BranchID != "" {
		out.Pos = story.Ptr(n.Pos)
	}
	return out
}

func nodeToStory(nj Node) story.Node {
	n := story.Node{
		ID:                nj.ID,
		Type:              story.NodeType(nj.Type),
		State:             story.NodeState(nj.State),
		BaseX:             nj.BaseX,
		ShowFloatingPanel: nj.FloatingPanel,
		ShowBubblesPanel:  nj.BubblesPanel,
		Expanded:          nj.Expanded,
		Connections:       nj.Connections,
	}
	if nj.Pos != nil {
		n.Pos = *nj.Pos
	}
	return n
}
