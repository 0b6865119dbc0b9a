package story

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateNodeID is returned by [Board.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateBranchID is returned by [Board.AddBranch] when a branch with
	// the same ID already exists.
	ErrDuplicateBranchID = errors.New("duplicate branch ID")

	// ErrUnknownNode is returned when an operation references a node ID that
	// is not on the board.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownBranch is returned when an operation references a branch ID
	// that is not on the board, including a missing parent branch.
	ErrUnknownBranch = errors.New("unknown branch")

	// ErrInvalidNodeType is returned by [Board.AddNode] for an unknown type.
	ErrInvalidNodeType = errors.New("invalid node type")

	// ErrInvalidNodeState is returned for an unknown interactive state.
	ErrInvalidNodeState = errors.New("invalid node state")

	// ErrNodeInBranch is returned by [Board.AddNodeToBranch] when the node
	// already belongs to a branch. A node belongs to at most one branch.
	ErrNodeInBranch = errors.New("node already belongs to a branch")

	// ErrNodeNotInBranch is returned when a node is not a member of the
	// branch named by the operation.
	ErrNodeNotInBranch = errors.New("node is not a member of the branch")

	// ErrOriginNotInParent is returned when a child branch's origin node is
	// not a member of its parent branch.
	ErrOriginNotInParent = errors.New("origin node is not a member of the parent branch")

	// ErrOriginWithoutParent is returned when a root branch names an origin.
	ErrOriginWithoutParent = errors.New("root branch cannot have an origin node")

	// ErrNodeIsOrigin is returned when removing a node that child branches
	// still diverge from. Remove those branches first.
	ErrNodeIsOrigin = errors.New("node is the origin of a child branch")

	// ErrLevelMismatch is returned by [Board.Validate] when a branch level is
	// not its parent's level plus one (or 0 for roots).
	ErrLevelMismatch = errors.New("branch level does not match its depth")

	// ErrIndexMismatch is returned by [Board.Validate] when NodeIDs order and
	// NodeIndex values disagree, or a member's BranchID is wrong.
	ErrIndexMismatch = errors.New("branch order and node index disagree")

	// ErrBranchCycle is returned when the parent chain of a branch loops back
	// to itself.
	ErrBranchCycle = errors.New("branch tree contains a cycle")
)

// End is the index passed to [Board.AddNodeToBranch] to append.
const End = -1

// Board is the in-memory storyboard store. It implements the read accessors
// and the node mutator consumed by pkg/layout, plus the structural mutators.
//
// The zero value is not usable - use New.
type Board struct {
	nodes       map[string]*Node
	nodeOrder   []string
	branches    map[string]*Branch
	branchOrder []string
}

// New creates an empty board.
func New() *Board {
	return &Board{
		nodes:    make(map[string]*Node),
		branches: make(map[string]*Branch),
	}
}

// AddNode adds an unplaced node and returns its ID. An empty ID is replaced
// with a generated UUID; an empty State defaults to StateCollapsed.
// BranchID and NodeIndex are reset: use AddNodeToBranch to place the node.
func (b *Board) AddNode(n Node) (string, error) {
	if !n.Type.Valid() {
		return "", ErrInvalidNodeType
	}
	if n.State == "" {
		n.State = StateCollapsed
	}
	if !n.State.Valid() {
		return "", ErrInvalidNodeState
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, exists := b.nodes[n.ID]; exists {
		return "", ErrDuplicateNodeID
	}
	n = n.Clone()
	n.BranchID = ""
	n.NodeIndex = 0
	b.nodes[n.ID] = &n
	b.nodeOrder = append(b.nodeOrder, n.ID)
	return n.ID, nil
}

// AddBranch adds a branch and returns its ID. An empty ID is replaced with a
// generated UUID. Level is derived from the parent. Any NodeIDs on br are
// placed in order with AddNodeToBranch; if one fails the branch is removed
// again and the error returned.
func (b *Board) AddBranch(br Branch) (string, error) {
	if br.ID == "" {
		br.ID = uuid.NewString()
	}
	if _, exists := b.branches[br.ID]; exists {
		return "", ErrDuplicateBranchID
	}
	if br.ParentBranchID == "" {
		if br.OriginNodeID != "" {
			return "", ErrOriginWithoutParent
		}
		br.Level = 0
	} else {
		parent, ok := b.branches[br.ParentBranchID]
		if !ok {
			return "", ErrUnknownBranch
		}
		if !slices.Contains(parent.NodeIDs, br.OriginNodeID) {
			return "", ErrOriginNotInParent
		}
		br.Level = parent.Level + 1
	}

	members := br.NodeIDs
	br.NodeIDs = nil
	b.branches[br.ID] = &br
	b.branchOrder = append(b.branchOrder, br.ID)

	for i, id := range members {
		if err := b.AddNodeToBranch(br.ID, id, End); err != nil {
			for _, placed := range members[:i] {
				_ = b.RemoveNodeFromBranch(br.ID, placed)
			}
			_ = b.RemoveBranch(br.ID)
			return "", err
		}
	}
	return br.ID, nil
}

// AddNodeToBranch inserts an unplaced node into a branch at index. An index
// below zero or past the end appends. NodeIndex values of all members are
// renumbered to match the new order.
func (b *Board) AddNodeToBranch(branchID, nodeID string, index int) error {
	br, ok := b.branches[branchID]
	if !ok {
		return ErrUnknownBranch
	}
	n, ok := b.nodes[nodeID]
	if !ok {
		return ErrUnknownNode
	}
	if n.BranchID != "" {
		return ErrNodeInBranch
	}
	if index < 0 || index > len(br.NodeIDs) {
		index = len(br.NodeIDs)
	}
	br.NodeIDs = slices.Insert(br.NodeIDs, index, nodeID)
	n.BranchID = branchID
	b.renumber(br)
	return nil
}

// RemoveNodeFromBranch detaches a node from a branch without deleting it.
// Returns ErrNodeIsOrigin if child branches still diverge from the node.
func (b *Board) RemoveNodeFromBranch(branchID, nodeID string) error {
	br, ok := b.branches[branchID]
	if !ok {
		return ErrUnknownBranch
	}
	i := slices.Index(br.NodeIDs, nodeID)
	if i < 0 {
		return ErrNodeNotInBranch
	}
	if b.isOrigin(nodeID) {
		return ErrNodeIsOrigin
	}
	br.NodeIDs = slices.Delete(br.NodeIDs, i, i+1)
	if n, ok := b.nodes[nodeID]; ok {
		n.BranchID = ""
		n.NodeIndex = 0
	}
	b.renumber(br)
	return nil
}

// RemoveNode deletes a node, detaching it from its branch first.
// Returns ErrNodeIsOrigin if child branches still diverge from the node.
func (b *Board) RemoveNode(id string) error {
	n, ok := b.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	if n.BranchID != "" {
		if err := b.RemoveNodeFromBranch(n.BranchID, id); err != nil {
			return err
		}
	}
	delete(b.nodes, id)
	b.nodeOrder = slices.DeleteFunc(b.nodeOrder, func(s string) bool { return s == id })
	return nil
}

// MoveNode reorders a member of a branch to index, clamped to the valid
// range, and renumbers the branch.
func (b *Board) MoveNode(branchID, nodeID string, index int) error {
	br, ok := b.branches[branchID]
	if !ok {
		return ErrUnknownBranch
	}
	i := slices.Index(br.NodeIDs, nodeID)
	if i < 0 {
		return ErrNodeNotInBranch
	}
	br.NodeIDs = slices.Delete(br.NodeIDs, i, i+1)
	index = max(0, min(index, len(br.NodeIDs)))
	br.NodeIDs = slices.Insert(br.NodeIDs, index, nodeID)
	b.renumber(br)
	return nil
}

// RemoveBranch deletes a branch, every descendant branch, and all of their
// member nodes.
func (b *Board) RemoveBranch(id string) error {
	if _, ok := b.branches[id]; !ok {
		return ErrUnknownBranch
	}
	doomed := b.subtree(id)
	for _, bid := range doomed {
		for _, nid := range b.branches[bid].NodeIDs {
			delete(b.nodes, nid)
		}
	}
	for _, bid := range doomed {
		delete(b.branches, bid)
	}
	b.nodeOrder = slices.DeleteFunc(b.nodeOrder, func(s string) bool {
		_, ok := b.nodes[s]
		return !ok
	})
	b.branchOrder = slices.DeleteFunc(b.branchOrder, func(s string) bool {
		_, ok := b.branches[s]
		return !ok
	})
	return nil
}

// ReparentBranch moves a branch (with its descendants) under a new parent,
// diverging from originNodeID. An empty parentID makes it a root. Levels of
// the moved subtree are recomputed. Returns ErrBranchCycle when parentID is
// the branch itself or one of its descendants.
func (b *Board) ReparentBranch(id, parentID, originNodeID string) error {
	br, ok := b.branches[id]
	if !ok {
		return ErrUnknownBranch
	}
	level := 0
	if parentID == "" {
		if originNodeID != "" {
			return ErrOriginWithoutParent
		}
	} else {
		parent, ok := b.branches[parentID]
		if !ok {
			return ErrUnknownBranch
		}
		if slices.Contains(b.subtree(id), parentID) {
			return ErrBranchCycle
		}
		if !slices.Contains(parent.NodeIDs, originNodeID) {
			return ErrOriginNotInParent
		}
		level = parent.Level + 1
	}
	br.ParentBranchID = parentID
	br.OriginNodeID = originNodeID
	br.Level = level
	for _, sid := range b.subtree(id)[1:] {
		child := b.branches[sid]
		child.Level = b.branches[child.ParentBranchID].Level + 1
	}
	return nil
}

// UpdateNode applies a partial update to a node.
func (b *Board) UpdateNode(id string, p NodePatch) error {
	n, ok := b.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	if p.State != nil && !p.State.Valid() {
		return ErrInvalidNodeState
	}
	if p.Pos != nil {
		n.Pos = *p.Pos
	}
	if p.Connections != nil {
		n.Connections = slices.Clone(p.Connections)
	}
	if p.State != nil {
		n.State = *p.State
	}
	if p.ClearBaseX {
		n.BaseX = nil
	} else if p.BaseX != nil {
		n.BaseX = Ptr(*p.BaseX)
	}
	if p.ShowFloatingPanel != nil {
		n.ShowFloatingPanel = *p.ShowFloatingPanel
	}
	if p.ShowBubblesPanel != nil {
		n.ShowBubblesPanel = *p.ShowBubblesPanel
	}
	if p.Expanded != nil {
		n.Expanded = *p.Expanded
	}
	return nil
}

// SetNodeState changes a node's interactive state.
func (b *Board) SetNodeState(id string, s NodeState) error {
	return b.UpdateNode(id, NodePatch{State: &s})
}

// Node returns a copy of the node with the given ID.
func (b *Board) Node(id string) (Node, bool) {
	n, ok := b.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.Clone(), true
}

// Branch returns a copy of the branch with the given ID.
func (b *Board) Branch(id string) (Branch, bool) {
	br, ok := b.branches[id]
	if !ok {
		return Branch{}, false
	}
	return br.Clone(), true
}

// Nodes returns copies of all nodes in insertion order.
func (b *Board) Nodes() []Node {
	out := make([]Node, 0, len(b.nodeOrder))
	for _, id := range b.nodeOrder {
		out = append(out, b.nodes[id].Clone())
	}
	return out
}

// Branches returns copies of all branches in insertion order.
func (b *Board) Branches() []Branch {
	out := make([]Branch, 0, len(b.branchOrder))
	for _, id := range b.branchOrder {
		out = append(out, b.branches[id].Clone())
	}
	return out
}

// Roots returns the root branches in insertion order.
func (b *Board) Roots() []Branch {
	var out []Branch
	for _, id := range b.branchOrder {
		if br := b.branches[id]; br.IsRoot() {
			out = append(out, br.Clone())
		}
	}
	return out
}

// Children returns the direct child branches of a branch in insertion order.
func (b *Board) Children(branchID string) []Branch {
	if branchID == "" {
		return nil
	}
	var out []Branch
	for _, id := range b.branchOrder {
		if br := b.branches[id]; br.ParentBranchID == branchID {
			out = append(out, br.Clone())
		}
	}
	return out
}

// NodeCount returns the number of nodes on the board.
func (b *Board) NodeCount() int { return len(b.nodes) }

// BranchCount returns the number of branches on the board.
func (b *Board) BranchCount() int { return len(b.branches) }

func (b *Board) renumber(br *Branch) {
	for i, id := range br.NodeIDs {
		if n, ok := b.nodes[id]; ok {
			n.NodeIndex = i
		}
	}
}

func (b *Board) isOrigin(nodeID string) bool {
	for _, br := range b.branches {
		if br.ParentBranchID != "" && br.OriginNodeID == nodeID {
			return true
		}
	}
	return false
}

// subtree returns id and all of its descendant branch IDs. The visited set
// stops the walk on a malformed parent chain.
func (b *Board) subtree(id string) []string {
	out := []string{id}
	seen := map[string]bool{id: true}
	for i := 0; i < len(out); i++ {
		for _, cid := range b.branchOrder {
			if b.branches[cid].ParentBranchID == out[i] && !seen[cid] {
				seen[cid] = true
				out = append(out, cid)
			}
		}
	}
	return out
}
