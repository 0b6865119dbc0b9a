package layout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/storyboard/pkg/observability"
	"github.com/matzehuels/storyboard/pkg/story"
)

// reentrantStore asks the engine for another pass from inside every write.
type reentrantStore struct {
	*story.Board
	eng  *Engine
	errs []error
}

func (s *reentrantStore) UpdateNode(id string, p story.NodePatch) error {
	if _, err := s.eng.Layout(context.Background()); err != nil {
		s.errs = append(s.errs, err)
	}
	return s.Board.UpdateNode(id, p)
}

func TestEngineRejectsReentrantPasses(t *testing.T) {
	b := story.New()
	ids := addRow(t, b, story.Branch{ID: "main"}, frames(2)...)
	store := &reentrantStore{Board: b}
	eng := NewEngine(quietContext(store))
	store.eng = eng

	res, err := eng.Layout(context.Background())
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	if res.Writes != 2 {
		t.Errorf("Writes = %d, want 2", res.Writes)
	}
	if len(store.errs) != 2 {
		t.Fatalf("nested passes = %d, want 2 rejected", len(store.errs))
	}
	for _, err := range store.errs {
		if !errors.Is(err, ErrLayoutInProgress) {
			t.Errorf("nested pass error = %v, want %v", err, ErrLayoutInProgress)
		}
	}
	if got := posOf(t, b, ids[1]).X; got != 390 {
		t.Errorf("node1 x = %v, want 390", got)
	}

	// The guard is released once the pass returns.
	if _, err := eng.NodeChanged(context.Background(), ids[0]); err != nil {
		t.Errorf("NodeChanged() after pass = %v, want nil", err)
	}
}

func TestEngineNodeChanged(t *testing.T) {
	b := story.New()
	ids := addRow(t, b, story.Branch{ID: "main"}, frames(3)...)
	eng := NewEngine(quietContext(b))
	ctx := context.Background()
	if _, err := eng.Layout(ctx); err != nil {
		t.Fatal(err)
	}

	if err := b.SetNodeState(ids[1], story.StateGenerating); err != nil {
		t.Fatal(err)
	}
	res, err := eng.NodeChanged(ctx, ids[1])
	if err != nil {
		t.Fatalf("NodeChanged() error: %v", err)
	}
	if res.Full {
		t.Error("NodeChanged ran a full pass for a leaf frame")
	}
	if got := posOf(t, b, ids[2]).X; got != 1640 {
		t.Errorf("node2 x = %v, want 1640", got)
	}
}

func TestEngineNodeChangedIgnoresUnknown(t *testing.T) {
	b := story.New()
	addRow(t, b, story.Branch{ID: "main"}, frames(1)...)
	if _, err := b.AddNode(story.Node{ID: "loose", Type: story.TypeStoryFrame}); err != nil {
		t.Fatal(err)
	}
	lc, buf := capturedContext(b)
	eng := NewEngine(lc)

	for _, id := range []string{"ghost", "loose"} {
		res, err := eng.NodeChanged(context.Background(), id)
		if err != nil || res.Placed != 0 {
			t.Errorf("NodeChanged(%q) = %+v, %v, want no-op", id, res, err)
		}
	}
	if !strings.Contains(buf.String(), "node not found") {
		t.Errorf("log = %q, want warning for unknown node", buf.String())
	}
}

type recordingHooks struct {
	observability.NoopLayoutHooks
	started   []string
	completed []string
}

func (h *recordingHooks) OnPassStart(_ context.Context, kind string, _ int) {
	h.started = append(h.started, kind)
}

func (h *recordingHooks) OnPassComplete(_ context.Context, kind string, _ int, _ time.Duration) {
	h.completed = append(h.completed, kind)
}

func TestEngineReportsPasses(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetLayoutHooks(hooks)
	t.Cleanup(observability.Reset)

	b := story.New()
	main := addRow(t, b, story.Branch{ID: "main"}, story.TypeStoryFrame, story.TypeExploration)
	eng := NewEngine(quietContext(b))
	ctx := context.Background()

	if _, err := eng.Layout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.NodeChanged(ctx, main[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.NodeChanged(ctx, main[1]); err != nil {
		t.Fatal(err)
	}

	wantStarted := []string{observability.PassFull, observability.PassIncremental, observability.PassIncremental}
	wantCompleted := []string{observability.PassFull, observability.PassIncremental, observability.PassFull}
	if strings.Join(hooks.started, ",") != strings.Join(wantStarted, ",") {
		t.Errorf("started = %v, want %v", hooks.started, wantStarted)
	}
	if strings.Join(hooks.completed, ",") != strings.Join(wantCompleted, ",") {
		t.Errorf("completed = %v, want %v", hooks.completed, wantCompleted)
	}
}
