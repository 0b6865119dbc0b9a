package layout

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyboard/pkg/story"
)

// Accessor is the read side of the caller's store.
// Branches must return branches in a stable order; sibling branches are
// laid out in that order.
type Accessor interface {
	Node(id string) (story.Node, bool)
	Branch(id string) (story.Branch, bool)
	Branches() []story.Branch
}

// Mutator is the write side of the caller's store. The engine only ever
// sets NodePatch.Pos and NodePatch.Connections.
type Mutator interface {
	UpdateNode(id string, p story.NodePatch) error
}

// Store combines Accessor and Mutator. *story.Board implements it.
type Store interface {
	Accessor
	Mutator
}

// Context binds a store, the sizing constants and a logger for one series
// of layout calls. It replaces any notion of a "current" graph: every
// operation receives its Context explicitly, so independent boards can be
// laid out side by side.
type Context struct {
	Store  Store
	Config Config
	Logger *log.Logger
}

// NewContext returns a Context over s with the given config. A nil logger
// falls back to log.Default().
func NewContext(s Store, cfg Config, logger *log.Logger) *Context {
	return &Context{Store: s, Config: cfg, Logger: logger}
}

func (lc *Context) log() *log.Logger {
	if lc.Logger != nil {
		return lc.Logger
	}
	return log.Default()
}

// members returns the nodes of br stable-sorted by NodeIndex. IDs that no
// longer resolve are skipped with a warning.
func (lc *Context) members(br story.Branch) []story.Node {
	nodes := make([]story.Node, 0, len(br.NodeIDs))
	for _, id := range br.NodeIDs {
		n, ok := lc.Store.Node(id)
		if !ok {
			lc.log().Warn("branch member not found", "branch", br.ID, "node", id)
			continue
		}
		nodes = append(nodes, n)
	}
	slices.SortStableFunc(nodes, func(a, b story.Node) int {
		return cmp.Compare(a.NodeIndex, b.NodeIndex)
	})
	return nodes
}

// isFork reports whether resizing n moves the anchor of some child branch:
// exploration nodes always qualify, any other node only when a branch
// diverges from it.
func (lc *Context) isFork(n story.Node) bool {
	if n.IsExploration() {
		return true
	}
	for _, br := range lc.Store.Branches() {
		if br.ParentBranchID != "" && br.OriginNodeID == n.ID {
			return true
		}
	}
	return false
}

func indexOf(nodes []story.Node, id string) int {
	return slices.IndexFunc(nodes, func(n story.Node) bool { return n.ID == id })
}
