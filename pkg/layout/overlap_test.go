package layout

import (
	"strings"
	"testing"

	"github.com/matzehuels/storyboard/pkg/story"
)

func TestResolveOverlaps(t *testing.T) {
	tests := []struct {
		name       string
		drift      map[int]float64
		wantX      []float64
		wantPushed int
	}{
		{
			name:       "Clean",
			wantX:      []float64{100, 390, 680},
			wantPushed: 0,
		},
		{
			name:       "Single",
			drift:      map[int]float64{1: 150},
			wantX:      []float64{100, 360, 680},
			wantPushed: 1,
		},
		{
			name:       "Cascade",
			drift:      map[int]float64{1: 150, 2: 200},
			wantX:      []float64{100, 360, 620},
			wantPushed: 2,
		},
		{
			name:       "ExactMinGap",
			drift:      map[int]float64{1: 360},
			wantX:      []float64{100, 360, 680},
			wantPushed: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := story.New()
			ids := addRow(t, b, story.Branch{ID: "main"}, frames(3)...)
			lc := quietContext(b)
			Tree(lc)
			for i, x := range tt.drift {
				if err := b.UpdateNode(ids[i], story.NodePatch{Pos: &story.Point{X: x, Y: 100}}); err != nil {
					t.Fatal(err)
				}
			}

			if got := ResolveOverlaps(lc, "main", 0); got != tt.wantPushed {
				t.Errorf("ResolveOverlaps() = %d, want %d", got, tt.wantPushed)
			}
			for i, id := range ids {
				if got := posOf(t, b, id).X; got != tt.wantX[i] {
					t.Errorf("%s x = %v, want %v", id, got, tt.wantX[i])
				}
			}
		})
	}
}

func TestResolveOverlapsPassLimit(t *testing.T) {
	b := story.New()
	ids := addRow(t, b, story.Branch{ID: "main"}, frames(2)...)
	lc, buf := capturedContext(b)
	lc.Config.MaxOverlapPasses = 1
	Tree(lc)
	if err := b.UpdateNode(ids[1], story.NodePatch{Pos: &story.Point{X: 0, Y: 100}}); err != nil {
		t.Fatal(err)
	}

	if got := ResolveOverlaps(lc, "main", 0); got != 1 {
		t.Errorf("ResolveOverlaps() = %d, want 1", got)
	}
	if !strings.Contains(buf.String(), "pass limit reached") {
		t.Errorf("log = %q, want pass limit warning", buf.String())
	}
}

func TestResolveOverlapsCarriesChildren(t *testing.T) {
	b := story.New()
	main := addRow(t, b, story.Branch{ID: "main"}, story.TypeStoryFrame, story.TypeExploration)
	alt := addRow(t, b, story.Branch{ID: "alt", ParentBranchID: "main", OriginNodeID: main[1]}, frames(2)...)
	lc := quietContext(b)
	Tree(lc)
	if err := b.UpdateNode(main[1], story.NodePatch{Pos: &story.Point{X: 150, Y: 100}}); err != nil {
		t.Fatal(err)
	}

	ResolveOverlaps(lc, "main", 0)

	if got := posOf(t, b, main[1]).X; got != 360 {
		t.Errorf("main[1] x = %v, want 360", got)
	}
	// 360 + 400 + 20
	if got := posOf(t, b, alt[0]).X; got != 780 {
		t.Errorf("alt[0] x = %v, want 780", got)
	}
	if got := posOf(t, b, alt[1]).X; got != 1070 {
		t.Errorf("alt[1] x = %v, want 1070", got)
	}
}

func TestResolveOverlapsMissingBranch(t *testing.T) {
	lc, buf := capturedContext(story.New())
	if got := ResolveOverlaps(lc, "ghost", 0); got != 0 {
		t.Errorf("ResolveOverlaps() = %d, want 0", got)
	}
	if !strings.Contains(buf.String(), "branch not found") {
		t.Errorf("log = %q, want warning", buf.String())
	}
}
