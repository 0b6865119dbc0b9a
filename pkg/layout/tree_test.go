package layout

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/storyboard/pkg/story"
)

func TestTreeRow(t *testing.T) {
	b := story.New()
	ids := addRow(t, b, story.Branch{ID: "main"}, frames(3)...)
	if err := b.UpdateNode(ids[0], story.NodePatch{BaseX: story.Ptr(100.0)}); err != nil {
		t.Fatal(err)
	}

	res := Tree(quietContext(b))

	want := []story.Point{{X: 100, Y: 100}, {X: 390, Y: 100}, {X: 680, Y: 100}}
	for i, id := range ids {
		if got := posOf(t, b, id); got != want[i] {
			t.Errorf("%s pos = %v, want %v", id, got, want[i])
		}
	}
	if !res.Full || res.Placed != 3 || res.Writes != 3 {
		t.Errorf("Result = %+v, want full pass placing and writing 3", res)
	}
	wantBounds := Bounds{MinX: 100, MinY: 100, MaxX: 920, MaxY: 300}
	if res.Bounds != wantBounds {
		t.Errorf("Bounds = %+v, want %+v", res.Bounds, wantBounds)
	}
}

func TestTreeMixedGaps(t *testing.T) {
	b := story.New()
	ids := addRow(t, b, story.Branch{ID: "main"},
		story.TypeStoryFrame, story.TypeExploration, story.TypeExploration, story.TypeBranchFrame)

	Tree(quietContext(b))

	// 100 +240+50 = 390 +400+60 = 850 +400+60 = 1310
	want := []float64{100, 390, 850, 1310}
	for i, id := range ids {
		if got := posOf(t, b, id).X; got != want[i] {
			t.Errorf("%s x = %v, want %v", id, got, want[i])
		}
	}
}

func TestTreeChildFanOut(t *testing.T) {
	b := story.New()
	main := addRow(t, b, story.Branch{ID: "main"}, story.TypeExploration)
	left := addRow(t, b, story.Branch{ID: "left", ParentBranchID: "main", OriginNodeID: main[0]}, story.TypeBranchStart, story.TypeBranchFrame)
	right := addRow(t, b, story.Branch{ID: "right", ParentBranchID: "main", OriginNodeID: main[0]}, story.TypeBranchStart)

	Tree(quietContext(b))

	origin := posOf(t, b, main[0])
	if origin != (story.Point{X: 100, Y: 100}) {
		t.Fatalf("origin pos = %v", origin)
	}
	// anchor x = 100 + 400 + 20; y offsets (0-1)*300 and (1-1)*300
	if got, want := posOf(t, b, left[0]), (story.Point{X: 520, Y: -200}); got != want {
		t.Errorf("left[0] pos = %v, want %v", got, want)
	}
	if got, want := posOf(t, b, left[1]), (story.Point{X: 810, Y: -200}); got != want {
		t.Errorf("left[1] pos = %v, want %v", got, want)
	}
	if got, want := posOf(t, b, right[0]), (story.Point{X: 520, Y: 100}); got != want {
		t.Errorf("right[0] pos = %v, want %v", got, want)
	}

	n, _ := b.Node(main[0])
	if want := []string{left[0], right[0]}; !slices.Equal(n.Connections, want) {
		t.Errorf("origin connections = %v, want %v", n.Connections, want)
	}
	n, _ = b.Node(left[0])
	if want := []string{main[0]}; !slices.Equal(n.Connections, want) {
		t.Errorf("left[0] connections = %v, want %v", n.Connections, want)
	}
	n, _ = b.Node(left[1])
	if len(n.Connections) != 0 {
		t.Errorf("left[1] connections = %v, want none", n.Connections)
	}
}

func TestTreeChildSymmetry(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5} {
		b := story.New()
		main := addRow(t, b, story.Branch{ID: "main"}, story.TypeExploration)
		var firsts []string
		for i := range n {
			ids := addRow(t, b, story.Branch{ID: string(rune('a' + i)), ParentBranchID: "main", OriginNodeID: main[0]}, story.TypeBranchStart)
			firsts = append(firsts, ids[0])
		}

		Tree(quietContext(b))

		oy := posOf(t, b, main[0]).Y
		for i, id := range firsts {
			want := oy + float64(i-n/2)*300
			if got := posOf(t, b, id).Y; got != want {
				t.Errorf("n=%d child %d y = %v, want %v", n, i, got, want)
			}
		}
	}
}

func TestTreeNonExplorationOrigin(t *testing.T) {
	b := story.New()
	main := addRow(t, b, story.Branch{ID: "main"}, frames(2)...)
	alt := addRow(t, b, story.Branch{ID: "alt", ParentBranchID: "main", OriginNodeID: main[1]}, story.TypeBranchStart)

	Tree(quietContext(b))

	// main[1] at 390, width 240
	if got, want := posOf(t, b, alt[0]), (story.Point{X: 650, Y: 100}); got != want {
		t.Errorf("alt[0] pos = %v, want %v", got, want)
	}
}

func TestTreeStacksRoots(t *testing.T) {
	b := story.New()
	first := addRow(t, b, story.Branch{ID: "first"}, story.TypeStoryFrame)
	second := addRow(t, b, story.Branch{ID: "second"}, story.TypeExploration)
	up := addRow(t, b, story.Branch{ID: "up", ParentBranchID: "second", OriginNodeID: second[0]}, story.TypeBranchStart)
	addRow(t, b, story.Branch{ID: "down", ParentBranchID: "second", OriginNodeID: second[0]}, story.TypeBranchStart)
	empty := story.Branch{ID: "empty"}
	if _, err := b.AddBranch(empty); err != nil {
		t.Fatal(err)
	}
	third := addRow(t, b, story.Branch{ID: "third"}, story.TypeStoryFrame)

	res := Tree(quietContext(b))

	// first spans y 100..300; second's subtree starts 600 lower at 900,
	// and its top is the "up" child 300 above the root row.
	if got := posOf(t, b, first[0]).Y; got != 100 {
		t.Errorf("first y = %v, want 100", got)
	}
	if got := posOf(t, b, up[0]).Y; got != 900 {
		t.Errorf("up y = %v, want 900", got)
	}
	if got := posOf(t, b, second[0]).Y; got != 1200 {
		t.Errorf("second y = %v, want 1200", got)
	}
	// second subtree ends at 1200+200; third starts 600 below
	if got := posOf(t, b, third[0]).Y; got != 2000 {
		t.Errorf("third y = %v, want 2000", got)
	}
	if got := posOf(t, b, third[0]).X; got != 100 {
		t.Errorf("third x = %v, want 100", got)
	}

	var roots []string
	for _, r := range res.Roots {
		roots = append(roots, r.BranchID)
	}
	if want := []string{"first", "second", "third"}; !slices.Equal(roots, want) {
		t.Errorf("Roots = %v, want %v", roots, want)
	}
}

func TestTreeAnchorStability(t *testing.T) {
	b := story.New()
	main := addRow(t, b, story.Branch{ID: "main"}, story.TypeExploration)
	alt := addRow(t, b, story.Branch{ID: "alt", ParentBranchID: "main", OriginNodeID: main[0]}, frames(2)...)
	if err := b.UpdateNode(alt[0], story.NodePatch{BaseX: story.Ptr(2000.0)}); err != nil {
		t.Fatal(err)
	}

	lc := quietContext(b)
	Tree(lc)
	want := posOf(t, b, alt[0])
	if want.X != 2000 {
		t.Fatalf("alt[0] x = %v, want 2000", want.X)
	}

	// Widening the origin moves the default anchor, not the explicit one.
	if err := b.UpdateNode(main[0], story.NodePatch{ShowBubblesPanel: story.Ptr(true)}); err != nil {
		t.Fatal(err)
	}
	Tree(lc)
	if got := posOf(t, b, alt[0]); got != want {
		t.Errorf("alt[0] pos = %v after origin resize, want %v", got, want)
	}
	if got := posOf(t, b, alt[1]).X; got != 2290 {
		t.Errorf("alt[1] x = %v, want 2290", got)
	}
}

func TestTreeDeterministic(t *testing.T) {
	b := story.New()
	main := addRow(t, b, story.Branch{ID: "main"}, story.TypeStoryFrame, story.TypeExploration, story.TypeStoryFrame)
	addRow(t, b, story.Branch{ID: "a", ParentBranchID: "main", OriginNodeID: main[1]}, frames(3)...)
	addRow(t, b, story.Branch{ID: "b", ParentBranchID: "main", OriginNodeID: main[1]}, story.TypeExploration)

	lc := quietContext(b)
	Tree(lc)
	before := snapshot(b)

	res := Tree(lc)
	if res.Writes != 0 {
		t.Errorf("second pass wrote %d nodes, want 0", res.Writes)
	}
	after := snapshot(b)
	for id, n := range before {
		if after[id].Pos != n.Pos || !slices.Equal(after[id].Connections, n.Connections) {
			t.Errorf("%s changed: %+v -> %+v", id, n, after[id])
		}
	}
}

func TestTreeMalformedStore(t *testing.T) {
	tests := []struct {
		name  string
		extra func(main []string) []story.Branch
		warn  string
	}{
		{
			name: "Cycle",
			extra: func(main []string) []story.Branch {
				return []story.Branch{{ID: "main", ParentBranchID: "main", OriginNodeID: main[0]}}
			},
			warn: "branch cycle",
		},
		{
			name: "Unreachable",
			extra: func([]string) []story.Branch {
				return []story.Branch{{ID: "lost", ParentBranchID: "nowhere"}}
			},
			warn: "branch not reachable",
		},
		{
			name: "MissingMember",
			extra: func([]string) []story.Branch {
				return []story.Branch{{ID: "ghost", NodeIDs: []string{"missing"}}}
			},
			warn: "branch member not found",
		},
		{
			name: "ForeignOrigin",
			extra: func([]string) []story.Branch {
				return []story.Branch{{ID: "stray", ParentBranchID: "main", OriginNodeID: "elsewhere"}}
			},
			warn: "child branch origin not in parent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := story.New()
			main := addRow(t, b, story.Branch{ID: "main"}, frames(2)...)
			lc, buf := capturedContext(extraStore{Board: b, extra: tt.extra(main)})

			Tree(lc)

			if !strings.Contains(buf.String(), tt.warn) {
				t.Errorf("log = %q, want warning %q", buf.String(), tt.warn)
			}
			if got := posOf(t, b, main[1]).X; got != 390 {
				t.Errorf("main[1] x = %v, want 390", got)
			}
		})
	}
}

func TestTreeMaxDepth(t *testing.T) {
	b := story.New()
	main := addRow(t, b, story.Branch{ID: "main"}, story.TypeExploration)
	mid := addRow(t, b, story.Branch{ID: "mid", ParentBranchID: "main", OriginNodeID: main[0]}, story.TypeExploration)
	deep := addRow(t, b, story.Branch{ID: "deep", ParentBranchID: "mid", OriginNodeID: mid[0]}, story.TypeBranchStart)

	lc, buf := capturedContext(b)
	lc.Config.MaxDepth = 2
	res := Tree(lc)

	if !strings.Contains(buf.String(), "nesting too deep") {
		t.Errorf("log = %q, want depth warning", buf.String())
	}
	if res.Placed != 2 {
		t.Errorf("Placed = %d, want 2", res.Placed)
	}
	if got := posOf(t, b, deep[0]); got != (story.Point{}) {
		t.Errorf("deep[0] pos = %v, want untouched", got)
	}
}
