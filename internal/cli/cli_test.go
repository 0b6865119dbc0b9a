package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/story"
)

const sampleBoard = `name: pilot
nodes:
  - {id: intro, type: story_frame}
  - {id: choice, type: exploration}
  - {id: left, type: branch_start}
branches:
  - {id: main, nodes: [intro, choice]}
  - {id: left-path, parent: main, origin: choice, nodes: [left]}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(path, []byte(sampleBoard), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(redisURLEnv, "")
	root := New(io.Discard, log.WarnLevel).RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"dot", []string{"dot"}},
		{"svg,dot,json", []string{"svg", "dot", "json"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.input); !slices.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "board.yaml", "board"},
		{"", "out/board.layout.json", "out/board"},
		{"diagram.svg", "board.layout.json", "diagram"},
		{"diagram", "board.layout.json", "diagram"},
		{"diagram.png", "board.layout.json", "diagram.png"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestLayoutRelayoutCommands(t *testing.T) {
	path := writeSample(t)
	dir := filepath.Dir(path)

	if err := execute(t, "layout", path, "--no-cache", "--write", "-f", "dot"); err != nil {
		t.Fatalf("layout error: %v", err)
	}

	l, err := graph.ReadLayoutFile(filepath.Join(dir, "board.layout.json"))
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if box, _ := l.Box("choice"); box.X != 390 {
		t.Errorf("choice x = %v, want 390", box.X)
	}
	if _, err := os.Stat(filepath.Join(dir, "board.dot")); err != nil {
		t.Errorf("dot artifact missing: %v", err)
	}

	if err := execute(t, "relayout", path, "intro", "--state", "generating"); err != nil {
		t.Fatalf("relayout error: %v", err)
	}
	b, _, err := graph.ReadStoryboardFile(path)
	if err != nil {
		t.Fatal(err)
	}
	intro, _ := b.Node("intro")
	choice, _ := b.Node("choice")
	if intro.State != story.StateGenerating {
		t.Errorf("intro state = %s, want generating", intro.State)
	}
	if choice.Pos.X != 1350 {
		t.Errorf("choice x = %v, want 1350", choice.Pos.X)
	}
}

func TestRenderCommand(t *testing.T) {
	path := writeSample(t)
	dir := filepath.Dir(path)
	if err := execute(t, "layout", path, "--no-cache"); err != nil {
		t.Fatal(err)
	}

	layoutPath := filepath.Join(dir, "board.layout.json")
	if err := execute(t, "render", layoutPath, "--no-cache", "-f", "dot,yaml", "-o", filepath.Join(dir, "out")); err != nil {
		t.Fatalf("render error: %v", err)
	}
	for _, name := range []string{"out.dot", "out.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	path := writeSample(t)
	tests := []struct {
		name string
		args []string
		code apperrors.Code
	}{
		{"BadState", []string{"relayout", path, "intro", "--state", "sleeping"}, apperrors.ErrCodeInvalidNodeState},
		{"UnknownNode", []string{"relayout", path, "ghost"}, apperrors.ErrCodeNodeNotFound},
		{"BadFormat", []string{"layout", path, "--no-cache", "-f", "gif"}, apperrors.ErrCodeInvalidFormat},
		{"MissingFile", []string{"validate", path + ".missing"}, apperrors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperrors.Classify(err).Code; got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	path := writeSample(t)
	if err := execute(t, "validate", path); err != nil {
		t.Errorf("validate error: %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	src := "nodes:\n  - {id: a, type: poster}\nbranches: []\n"
	if err := os.WriteFile(bad, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "validate", bad); err == nil {
		t.Error("validate accepted an unknown node type")
	}
}

func TestWriteFlagConflictsWithWatch(t *testing.T) {
	if err := execute(t, "layout", writeSample(t), "--write", "--watch"); err == nil {
		t.Error("layout accepted --write with --watch")
	}
}
