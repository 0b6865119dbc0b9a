package graph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/storyboard/pkg/layout"
	"github.com/matzehuels/storyboard/pkg/story"
)

// =============================================================================
// Layout - Computed Positions
// =============================================================================

// Layout is the serialization format for a laid-out storyboard. It carries
// everything a renderer needs without access to the board or the sizing
// config: one box per placed node plus the edges between them.
type Layout struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Frame dimensions and extent of all boxes.
	Width  float64             `json:"width" yaml:"width"`
	Height float64             `json:"height" yaml:"height"`
	Bounds layout.Bounds       `json:"bounds" yaml:"bounds"`
	Roots  []layout.RootBounds `json:"roots,omitempty" yaml:"roots,omitempty"`

	Boxes []Box  `json:"boxes" yaml:"boxes"`
	Edges []Edge `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Box is one positioned node.
type Box struct {
	ID     string  `json:"id" yaml:"id"`
	Type   string  `json:"type" yaml:"type"`
	State  string  `json:"state" yaml:"state"`
	Branch string  `json:"branch" yaml:"branch"`
	Index  int     `json:"index" yaml:"index"`
	Level  int     `json:"level" yaml:"level"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Edge links two boxes. Kind is EdgeSequence or EdgeFork.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Kind string `json:"kind" yaml:"kind"`
}

// ErrInvalidLayout is returned when a decoded layout references boxes that
// do not exist.
var ErrInvalidLayout = errors.New("invalid layout")

// NewLayout builds a Layout from a board whose positions have been computed.
// Boxes follow branch order, then node index; unplaced nodes are left out.
// Roots is taken from res when it came from a full pass.
func NewLayout(b *story.Board, name string, cfg layout.Config, res layout.Result) Layout {
	l := Layout{Name: name, Roots: res.Roots}
	for _, br := range b.Branches() {
		for i, id := range br.NodeIDs {
			n, ok := b.Node(id)
			if !ok {
				continue
			}
			box := Box{
				ID:     n.ID,
				Type:   string(n.Type),
				State:  string(n.State),
				Branch: br.ID,
				Index:  n.NodeIndex,
				Level:  br.Level,
				X:      n.Pos.X,
				Y:      n.Pos.Y,
				Width:  cfg.Width(n),
				Height: cfg.Height(n),
			}
			l.Boxes = append(l.Boxes, box)
			l.Bounds = l.Bounds.Union(layout.Bounds{MinX: box.X, MinY: box.Y, MaxX: box.X + box.Width, MaxY: box.Y + box.Height})

			if i == 0 && br.OriginNodeID != "" {
				l.Edges = append(l.Edges, Edge{From: br.OriginNodeID, To: id, Kind: EdgeFork})
			}
			if i > 0 {
				l.Edges = append(l.Edges, Edge{From: br.NodeIDs[i-1], To: id, Kind: EdgeSequence})
			}
		}
	}
	l.Width, l.Height = l.Bounds.Width(), l.Bounds.Height()
	return l
}

// Box returns the box with the given id.
func (l *Layout) Box(id string) (Box, bool) {
	for _, b := range l.Boxes {
		if b.ID == id {
			return b, true
		}
	}
	return Box{}, false
}

// Validate checks that every edge connects two boxes.
func (l *Layout) Validate() error {
	ids := make(map[string]bool, len(l.Boxes))
	for _, b := range l.Boxes {
		if b.ID == "" {
			return fmt.Errorf("%w: box without id", ErrInvalidLayout)
		}
		ids[b.ID] = true
	}
	for _, e := range l.Edges {
		if !ids[e.From] || !ids[e.To] {
			return fmt.Errorf("%w: edge %s→%s references an unknown box", ErrInvalidLayout, e.From, e.To)
		}
	}
	return nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed bytes.
func MarshalLayout(l Layout, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteLayout(l, format, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteLayout encodes a Layout to w.
func WriteLayout(l Layout, format string, w io.Writer) error {
	return encode(l, format, w)
}

// UnmarshalLayout deserializes bytes into a Layout and validates it.
func UnmarshalLayout(data []byte, format string) (Layout, error) {
	var l Layout
	if err := decode(bytes.NewReader(data), format, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to path, choosing the format from the file
// extension.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l, FormatFromPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data, FormatFromPath(path))
}
