// Package pipeline provides the load → layout → render pipeline for
// storyboards.
//
// This package is shared by the CLI and the HTTP server so both entry points
// lay out and render boards the same way and share one caching scheme.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a storyboard document (JSON or YAML) into a story.Board
//  2. Layout: Run a full layout pass and export a graph.Layout
//  3. Render: Produce artifacts (layout JSON/YAML, Graphviz DOT, SVG)
//
// Layout and render results are cached by content hash. A layout hit also
// restores the computed positions onto the board, so callers always end up
// with a laid-out board.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "pilot.yaml",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	b, name, err := runner.Load(ctx, opts)
//	l, err := runner.Layout(ctx, b, name, opts)
//	artifacts, err := runner.Render(ctx, l, opts)
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/layout"
	"github.com/matzehuels/storyboard/pkg/render/nodelink"
	"github.com/matzehuels/storyboard/pkg/story"
)

// Format constants for output artifacts.
const (
	FormatJSON = graph.FormatJSON // layout document
	FormatYAML = graph.FormatYAML // layout document
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatYAML: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidInputFormats is the set of supported storyboard encodings.
var ValidInputFormats = map[string]bool{
	graph.FormatJSON: true,
	graph.FormatYAML: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Input is a file path; Data is an in-memory document and
	// wins over Input when both are set.
	Input       string `json:"-"`
	Data        []byte `json:"-"`
	InputFormat string `json:"input_format,omitempty"`
	Name        string `json:"name,omitempty"` // overrides the document name

	// Layout options. Config wins over ConfigPath; with neither set the
	// default sizing is used.
	Config     *layout.Config `json:"config,omitempty"`
	ConfigPath string         `json:"-"`
	Refresh    bool           `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Scale    float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Board is the laid-out board.
	Board *story.Board

	// Name is the storyboard name.
	Name string

	// BoardHash is the content hash of the input storyboard.
	BoardHash string

	// Layout is the exported layout.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	BranchCount int
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that an output format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: %s)", format, strings.Join(slices.Sorted(maps.Keys(ValidFormats)), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInputFormat checks that a storyboard encoding is valid.
func ValidateInputFormat(format string) error {
	if !ValidInputFormats[format] {
		return fmt.Errorf("invalid input format: %q (must be one of: json, yaml)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that an input is set and resolves its format.
func (o *Options) ValidateForLoad() error {
	if o.Input == "" && len(o.Data) == 0 {
		return fmt.Errorf("input is required")
	}
	if o.InputFormat == "" {
		o.InputFormat = graph.FormatJSON
		if len(o.Data) == 0 {
			o.InputFormat = graph.FormatFromPath(o.Input)
		}
	}
	o.setLogger()
	return ValidateInputFormat(o.InputFormat)
}

// ValidateForLayout resolves the layout config (loading ConfigPath if
// needed) and validates it.
func (o *Options) ValidateForLayout() error {
	o.setLogger()
	if o.Config == nil {
		cfg := layout.DefaultConfig()
		if o.ConfigPath != "" {
			loaded, err := layout.LoadConfig(o.ConfigPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		o.Config = &cfg
	}
	return o.Config.Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = nodelink.DefaultScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 {
		return fmt.Errorf("scale must not be negative")
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
// ValidateForLayout must have run.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	data, _ := json.Marshal(o.Config)
	return cache.LayoutKeyOpts{ConfigHash: cache.Hash(data)}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		Scale:    o.Scale,
	}
}

// RenderOptions returns the node-link rendering options.
func (o *Options) RenderOptions() nodelink.Options {
	return nodelink.Options{Detailed: o.Detailed, Scale: o.Scale}
}
