package layout

import (
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/storyboard/pkg/story"
)

// Bounds is an axis-aligned rectangle in canvas pixels. The zero value is
// empty and acts as the identity for Union.
type Bounds struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

func rect(p story.Point, w, h float64) Bounds {
	return Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X + w, MaxY: p.Y + h}
}

// IsZero reports whether b is the empty rectangle.
func (b Bounds) IsZero() bool { return b == Bounds{} }

// Width returns the horizontal extent of b.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of b.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Union returns the smallest rectangle containing b and o.
func (b Bounds) Union(o Bounds) Bounds {
	switch {
	case b.IsZero():
		return o
	case o.IsZero():
		return b
	}
	return Bounds{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// Translate returns b moved by (dx, dy).
func (b Bounds) Translate(dx, dy float64) Bounds {
	if b.IsZero() {
		return b
	}
	return Bounds{MinX: b.MinX + dx, MinY: b.MinY + dy, MaxX: b.MaxX + dx, MaxY: b.MaxY + dy}
}

// planner computes positions and connections without touching the store.
// Every pass plans first and commits once, so a pass never reads its own
// partial writes back through the accessor.
type planner struct {
	lc       *Context
	children map[string][]story.Branch
	nodes    map[string]story.Node
	conns    map[string][]string
	order    []string
	placed   map[string]bool
}

func newPlanner(lc *Context) *planner {
	p := &planner{
		lc:       lc,
		children: make(map[string][]story.Branch),
		nodes:    make(map[string]story.Node),
		conns:    make(map[string][]string),
		placed:   make(map[string]bool),
	}
	for _, br := range lc.Store.Branches() {
		if br.ParentBranchID != "" {
			p.children[br.ParentBranchID] = append(p.children[br.ParentBranchID], br)
		}
	}
	return p
}

// node returns the planned version of n, or n itself when unplanned.
func (p *planner) node(n story.Node) story.Node {
	if planned, ok := p.nodes[n.ID]; ok {
		return planned
	}
	return n
}

func (p *planner) set(n story.Node, pos story.Point, conns []string) {
	if _, ok := p.nodes[n.ID]; !ok {
		p.order = append(p.order, n.ID)
	}
	n.Pos = pos
	p.nodes[n.ID] = n
	p.conns[n.ID] = conns
}

func (p *planner) rect(n story.Node) Bounds {
	n = p.node(n)
	return rect(n.Pos, p.lc.Config.Width(n), p.lc.Config.Height(n))
}

// layoutBranch places br with its first node at start and recurses into its
// child branches. path holds the ancestors of br, root first. It returns the
// bounds of the subtree and the id of the first node ("" when empty).
func (p *planner) layoutBranch(br story.Branch, start story.Point, path []string) (Bounds, string) {
	if slices.Contains(path, br.ID) {
		p.lc.log().Warn("branch cycle, skipping", "branch", br.ID, "path", strings.Join(path, " -> "))
		return Bounds{}, ""
	}
	if len(path) >= p.lc.Config.MaxDepth {
		p.lc.log().Warn("branch nesting too deep, skipping", "branch", br.ID, "depth", len(path))
		return Bounds{}, ""
	}
	p.placed[br.ID] = true

	members := p.lc.members(br)
	for _, kid := range p.children[br.ID] {
		if indexOf(members, kid.OriginNodeID) < 0 {
			p.lc.log().Warn("child branch origin not in parent", "branch", kid.ID, "parent", br.ID, "origin", kid.OriginNodeID)
		}
	}

	path = append(slices.Clip(path), br.ID)
	b := p.placeRow(br, members, 0, start)
	b = b.Union(p.placeChildren(br, members, 0, path))
	if len(members) == 0 {
		return b, ""
	}
	return b, members[0].ID
}

// placeRow positions members[from:] on one row. The first node sits at
// start, or at its BaseX when set; every later node follows its predecessor
// by width plus gap. Members before from keep their positions. It returns
// the bounds of the whole row.
func (p *planner) placeRow(br story.Branch, members []story.Node, from int, start story.Point) Bounds {
	cfg := p.lc.Config
	var b Bounds
	for i, n := range members {
		if i >= from {
			var pos story.Point
			if i == 0 {
				pos = start
				if n.BaseX != nil {
					pos.X = *n.BaseX
				}
			} else {
				prev := p.node(members[i-1])
				pos = story.Point{X: prev.Pos.X + cfg.Width(prev) + cfg.Gap(prev, n), Y: prev.Pos.Y}
			}
			p.set(n, pos, baseConnections(br, i))
		}
		b = b.Union(p.rect(n))
	}
	return b
}

// placeChildren lays out the child branches of every member from index from
// onward.
func (p *planner) placeChildren(br story.Branch, members []story.Node, from int, path []string) Bounds {
	var b Bounds
	for _, origin := range members[min(from, len(members)):] {
		b = b.Union(p.placeChildrenOf(br.ID, origin, path))
	}
	return b
}

// placeChildrenOf fans the child branches diverging from origin out to its
// right: child i of n starts at origin.y + (i - n/2) * ChildSpacingY. Each
// child's first node id is appended to the origin's connections.
func (p *planner) placeChildrenOf(parentID string, origin story.Node, path []string) Bounds {
	var kids []story.Branch
	for _, kid := range p.children[parentID] {
		if kid.OriginNodeID == origin.ID {
			kids = append(kids, kid)
		}
	}
	if len(kids) == 0 {
		return Bounds{}
	}

	cfg := p.lc.Config
	origin = p.node(origin)
	x := origin.Pos.X + cfg.Width(origin) + cfg.ChildOffsetX
	n := len(kids)

	var b Bounds
	for i, kid := range kids {
		start := story.Point{X: x, Y: origin.Pos.Y + float64(i-n/2)*cfg.ChildSpacingY}
		kb, first := p.layoutBranch(kid, start, path)
		b = b.Union(kb)
		if first != "" {
			p.conns[origin.ID] = append(p.conns[origin.ID], first)
		}
	}
	return b
}

// baseConnections returns the stored edges of the node at index i of br:
// the first node links back to the origin, the rest link nowhere because
// row adjacency is implied by order.
func baseConnections(br story.Branch, i int) []string {
	if i == 0 && br.OriginNodeID != "" {
		return []string{br.OriginNodeID}
	}
	return []string{}
}

// shift moves every planned node in ids vertically by dy.
func (p *planner) shift(ids []string, dy float64) {
	for _, id := range ids {
		n := p.nodes[id]
		n.Pos.Y += dy
		p.nodes[id] = n
	}
}

// ancestry returns the parent chain of br, root first, ending with br.
func (p *planner) ancestry(br story.Branch) []string {
	chain := []string{br.ID}
	seen := map[string]bool{br.ID: true}
	for cur := br; cur.ParentBranchID != ""; {
		parent, ok := p.lc.Store.Branch(cur.ParentBranchID)
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent.ID)
		cur = parent
	}
	slices.Reverse(chain)
	return chain
}

// subtreeBounds returns the bounds of the branch subtree rooted at rootID,
// using planned positions where available.
func (p *planner) subtreeBounds(rootID string) Bounds {
	var b Bounds
	seen := make(map[string]bool)
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		br, ok := p.lc.Store.Branch(id)
		if !ok {
			continue
		}
		for _, nid := range br.NodeIDs {
			if n, ok := p.lc.Store.Node(nid); ok {
				b = b.Union(p.rect(n))
			}
		}
		for _, kid := range p.children[id] {
			queue = append(queue, kid.ID)
		}
	}
	return b
}

// commit writes planned positions and connections through the mutator.
// Position changes smaller than minDelta on both axes are skipped; nodes
// deleted since planning are skipped with a warning. It returns the number
// of nodes written.
func (p *planner) commit(minDelta float64) int {
	writes := 0
	for _, id := range p.order {
		planned := p.nodes[id]
		cur, ok := p.lc.Store.Node(id)
		if !ok {
			p.lc.log().Warn("node removed during layout", "node", id)
			continue
		}

		dx, dy := math.Abs(cur.Pos.X-planned.Pos.X), math.Abs(cur.Pos.Y-planned.Pos.Y)
		moved := (dx > 0 || dy > 0) && max(dx, dy) >= minDelta
		conns := p.conns[id]
		relinked := !slices.Equal(cur.Connections, conns)
		if !moved && !relinked {
			continue
		}

		var patch story.NodePatch
		if moved {
			patch.Pos = story.Ptr(planned.Pos)
		}
		if relinked {
			patch.Connections = conns
		}
		if err := p.lc.Store.UpdateNode(id, patch); err != nil {
			p.lc.log().Warn("update node failed", "node", id, "err", err)
			continue
		}
		writes++
	}
	return writes
}
