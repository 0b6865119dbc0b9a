package layout

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyboard/pkg/story"
)

// addRow adds one node per type to a new branch br. Node ids are
// "<branch>-<i>".
func addRow(t testing.TB, b *story.Board, br story.Branch, types ...story.NodeType) []string {
	t.Helper()
	ids := make([]string, len(types))
	for i, typ := range types {
		id, err := b.AddNode(story.Node{ID: fmt.Sprintf("%s-%d", br.ID, i), Type: typ})
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = id
	}
	br.NodeIDs = ids
	if _, err := b.AddBranch(br); err != nil {
		t.Fatal(err)
	}
	return ids
}

func frames(n int) []story.NodeType {
	types := make([]story.NodeType, n)
	for i := range types {
		types[i] = story.TypeStoryFrame
	}
	return types
}

func quietContext(s Store) *Context {
	return NewContext(s, DefaultConfig(), log.New(io.Discard))
}

// capturedContext returns a Context whose log output is collected in buf.
func capturedContext(s Store) (*Context, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewContext(s, DefaultConfig(), log.New(&buf)), &buf
}

func posOf(t testing.TB, a Accessor, id string) story.Point {
	t.Helper()
	n, ok := a.Node(id)
	if !ok {
		t.Fatalf("node %q not found", id)
	}
	return n.Pos
}

func snapshot(b *story.Board) map[string]story.Node {
	out := make(map[string]story.Node)
	for _, n := range b.Nodes() {
		out[n.ID] = n
	}
	return out
}

// extraStore reports additional, possibly malformed, branches on top of a
// valid board.
type extraStore struct {
	*story.Board
	extra []story.Branch
}

func (s extraStore) Branches() []story.Branch {
	return append(s.Board.Branches(), s.extra...)
}

func (s extraStore) Branch(id string) (story.Branch, bool) {
	if br, ok := s.Board.Branch(id); ok {
		return br, true
	}
	for _, br := range s.extra {
		if br.ID == id {
			return br, true
		}
	}
	return story.Branch{}, false
}
