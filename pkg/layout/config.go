package layout

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds every sizing and spacing constant used by the layout.
// All values are in canvas pixels. Use DefaultConfig for the editor's
// standard values; LoadConfig overlays a TOML file on top of them.
type Config struct {
	// Anchor of the first root branch.
	StartX float64 `toml:"start_x" json:"start_x"`
	StartY float64 `toml:"start_y" json:"start_y"`

	// Node widths.
	FrameWidth              float64 `toml:"frame_width" json:"frame_width"`
	FrameActiveWidth        float64 `toml:"frame_active_width" json:"frame_active_width"` // editing, expanded, generating
	FloatingPanelWidth      float64 `toml:"floating_panel_width" json:"floating_panel_width"`
	ExplorationWidth        float64 `toml:"exploration_width" json:"exploration_width"`
	ExplorationBubblesWidth float64 `toml:"exploration_bubbles_width" json:"exploration_bubbles_width"`

	// Node heights.
	NodeHeight     float64 `toml:"node_height" json:"node_height"`
	ExpandedHeight float64 `toml:"expanded_height" json:"expanded_height"`

	// Horizontal gaps keyed by (previous, next) node kind.
	GapFrameFrame             float64 `toml:"gap_frame_frame" json:"gap_frame_frame"`
	GapFrameExploration       float64 `toml:"gap_frame_exploration" json:"gap_frame_exploration"`
	GapExplorationFrame       float64 `toml:"gap_exploration_frame" json:"gap_exploration_frame"`
	GapExplorationExploration float64 `toml:"gap_exploration_exploration" json:"gap_exploration_exploration"`

	// Child branch placement relative to the origin node.
	ChildOffsetX  float64 `toml:"child_offset_x" json:"child_offset_x"`
	ChildSpacingY float64 `toml:"child_spacing_y" json:"child_spacing_y"`

	// Vertical gap between stacked root subtrees.
	RootGap float64 `toml:"root_gap" json:"root_gap"`

	// MinGap is the smallest horizontal gap the overlap pass tolerates.
	MinGap float64 `toml:"min_gap" json:"min_gap"`
	// MaxOverlapPasses caps the overlap pass recursion.
	MaxOverlapPasses int `toml:"max_overlap_passes" json:"max_overlap_passes"`
	// MaxDepth caps branch nesting during the tree walk.
	MaxDepth int `toml:"max_depth" json:"max_depth"`
	// MinDelta is the smallest position change an incremental pass writes.
	MinDelta float64 `toml:"min_delta" json:"min_delta"`
}

// DefaultConfig returns the standard editor constants.
func DefaultConfig() Config {
	return Config{
		StartX: 100,
		StartY: 100,

		FrameWidth:              240,
		FrameActiveWidth:        1200,
		FloatingPanelWidth:      132,
		ExplorationWidth:        400,
		ExplorationBubblesWidth: 800,

		NodeHeight:     200,
		ExpandedHeight: 400,

		GapFrameFrame:             50,
		GapFrameExploration:       50,
		GapExplorationFrame:       60,
		GapExplorationExploration: 60,

		ChildOffsetX:  20,
		ChildSpacingY: 300,
		RootGap:       600,

		MinGap:           20,
		MaxOverlapPasses: 5,
		MaxDepth:         64,
		MinDelta:         1,
	}
}

// ErrInvalidConfig is returned by Config.Validate and LoadConfig.
var ErrInvalidConfig = errors.New("invalid layout config")

// Validate checks that sizes are positive and the overlap gap does not
// exceed the regular gaps, which would make every fresh layout look like
// an overlap.
func (c Config) Validate() error {
	positive := map[string]float64{
		"frame_width":               c.FrameWidth,
		"frame_active_width":        c.FrameActiveWidth,
		"exploration_width":         c.ExplorationWidth,
		"exploration_bubbles_width": c.ExplorationBubblesWidth,
		"node_height":               c.NodeHeight,
		"expanded_height":           c.ExpandedHeight,
	}
	for _, k := range slices.Sorted(maps.Keys(positive)) {
		if positive[k] <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, k)
		}
	}
	if c.MinGap < 0 || c.FloatingPanelWidth < 0 || c.RootGap < 0 || c.MinDelta < 0 {
		return fmt.Errorf("%w: gaps and deltas must not be negative", ErrInvalidConfig)
	}
	smallest := min(c.GapFrameFrame, c.GapFrameExploration, c.GapExplorationFrame, c.GapExplorationExploration)
	if c.MinGap > smallest {
		return fmt.Errorf("%w: min_gap %.0f exceeds smallest gap %.0f", ErrInvalidConfig, c.MinGap, smallest)
	}
	if c.MaxOverlapPasses < 1 || c.MaxDepth < 1 {
		return fmt.Errorf("%w: max_overlap_passes and max_depth must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// fileConfig is the on-disk shape: constants live under a [layout] table.
type fileConfig struct {
	Layout Config `toml:"layout"`
}

// LoadConfig reads a TOML file and overlays it on DefaultConfig.
// Unknown keys are rejected so that typos do not silently fall back to
// defaults.
//
//	[layout]
//	frame_width = 260
//	root_gap = 400
func LoadConfig(path string) (Config, error) {
	fc := fileConfig{Layout: DefaultConfig()}
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	if err := fc.Layout.Validate(); err != nil {
		return Config{}, err
	}
	return fc.Layout, nil
}
