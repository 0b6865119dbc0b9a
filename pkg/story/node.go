package story

import "slices"

// NodeType classifies what a node represents in the narrative.
type NodeType string

const (
	TypeStoryFrame  NodeType = "story_frame"
	TypeExploration NodeType = "exploration"
	TypeBranchStart NodeType = "branch_start"
	TypeBranchFrame NodeType = "branch_frame"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case TypeStoryFrame, TypeExploration, TypeBranchStart, TypeBranchFrame:
		return true
	}
	return false
}

// NodeState is the interactive state of a node in the editor.
//
// The usual progression is collapsed → editing/expanded → generating →
// image/collapsedWithImage → imageEditing → image. The layout engine does
// not care about transitions, only about the size class each state implies.
type NodeState string

const (
	StateCollapsed          NodeState = "collapsed"
	StateEditing            NodeState = "editing"
	StateGenerating         NodeState = "generating"
	StateImage              NodeState = "image"
	StateImageEditing       NodeState = "imageEditing"
	StateExpanded           NodeState = "expanded"
	StateCollapsedWithImage NodeState = "collapsedWithImage"
)

// States lists every node state in editor cycle order.
var States = []NodeState{
	StateCollapsed,
	StateEditing,
	StateExpanded,
	StateGenerating,
	StateImage,
	StateCollapsedWithImage,
	StateImageEditing,
}

// Valid reports whether s is one of the known node states.
func (s NodeState) Valid() bool { return slices.Contains(States, s) }

// Next returns the state following s in [States], wrapping around.
// Unknown states advance to StateCollapsed.
func (s NodeState) Next() NodeState {
	i := slices.Index(States, s)
	if i < 0 {
		return StateCollapsed
	}
	return States[(i+1)%len(States)]
}

// Point is a position in canvas coordinates (pixels, y grows downward).
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a single card on the storyboard canvas.
//
// The zero value is not usable - Type must be set before adding to a Board.
type Node struct {
	ID       string
	Type     NodeType
	State    NodeState
	BranchID string // Owning branch ("" until placed with AddNodeToBranch)
	// NodeIndex is the ordinal within the owning branch.
	NodeIndex int

	// Pos and Connections are written by the layout engine only.
	Pos         Point
	Connections []string

	// BaseX anchors the first node of a branch. Nil means "use the anchor
	// the layout computes".
	BaseX *float64

	ShowFloatingPanel bool // Widens non-exploration nodes
	ShowBubblesPanel  bool // Widens exploration nodes
	Expanded          bool // Doubles node height
}

// IsExploration reports whether the node is a branching decision point.
func (n Node) IsExploration() bool { return n.Type == TypeExploration }

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	c := n
	c.Connections = slices.Clone(n.Connections)
	if n.BaseX != nil {
		x := *n.BaseX
		c.BaseX = &x
	}
	return c
}

// NodePatch carries a partial node update for [Board.UpdateNode].
// Nil fields are left untouched. A non-nil empty Connections slice clears
// the node's connections.
type NodePatch struct {
	Pos               *Point
	Connections       []string
	State             *NodeState
	BaseX             *float64
	ClearBaseX        bool
	ShowFloatingPanel *bool
	ShowBubblesPanel  *bool
	Expanded          *bool
}

// Branch is an ordered sequence of nodes laid out on one row.
type Branch struct {
	ID           string
	Name         string
	OriginNodeID string // Node in the parent branch this one diverges from ("" for roots)
	// NodeIDs is ordered by ascending NodeIndex.
	NodeIDs        []string
	Level          int    // Depth from the root branch
	ParentBranchID string // "" for roots
}

// IsRoot reports whether the branch has no parent.
func (b Branch) IsRoot() bool { return b.ParentBranchID == "" }

// Clone returns a deep copy of b.
func (b Branch) Clone() Branch {
	c := b
	c.NodeIDs = slices.Clone(b.NodeIDs)
	return c
}

// Ptr returns a pointer to v, for filling optional fields such as
// Node.BaseX and NodePatch values.
func Ptr[T any](v T) *T { return &v }
