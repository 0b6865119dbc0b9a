package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/observability"
	"github.com/matzehuels/storyboard/pkg/story"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Boards are not safe for concurrent use, but
// multiple goroutines can share one Runner as long as each works on its
// own board.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedLayout is the layout cache payload: the laid-out storyboard (to
// restore positions onto the caller's board) and the exported layout.
type cachedLayout struct {
	Board  graph.Storyboard `json:"board"`
	Layout graph.Layout     `json:"layout"`
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	b, name, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Board, result.Name = b, name
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = b.NodeCount()
	result.Stats.BranchCount = b.BranchCount()
	if data, err := graph.MarshalStoryboard(b, name, graph.FormatJSON); err == nil {
		result.BoardHash = cache.Hash(data)
	}

	r.Logger.Info("loaded storyboard",
		"name", name,
		"nodes", b.NodeCount(),
		"branches", b.BranchCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, b, name, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"boxes", len(l.Boxes),
		"width", l.Width,
		"height", l.Height,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the storyboard named by opts and reports through the pipeline
// hooks.
func (r *Runner) Load(ctx context.Context, opts Options) (*story.Board, string, error) {
	r.applyLogger(&opts)
	source := opts.Input
	if len(opts.Data) > 0 {
		source = "<inline>"
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	b, name, err := Load(opts)

	count := 0
	if b != nil {
		count = b.NodeCount()
	}
	hooks.OnLoadComplete(ctx, source, count, time.Since(start), err)
	return b, name, err
}

// LayoutWithCacheInfo lays out b with caching and returns cache hit info.
// On a hit the cached positions and connections are written onto b.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, b *story.Board, name string, opts Options) (graph.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}

	boardData, err := graph.MarshalStoryboard(b, name, graph.FormatJSON)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("serialize storyboard for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(boardData), opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if l, ok := r.cachedLayout(ctx, cacheKey, b); ok {
			return l, true, nil
		}
	}

	l, _, err := ComputeLayout(ctx, b, name, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}

	if data, err := json.Marshal(cachedLayout{Board: graph.FromBoard(b, name), Layout: l}); err == nil {
		r.store(ctx, cacheKey, data, cache.TTLLayout)
	}
	return l, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, b *story.Board, name string, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, b, name, opts)
	return l, err
}

func (r *Runner) cachedLayout(ctx context.Context, key string, b *story.Board) (graph.Layout, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return graph.Layout{}, false
	}

	var cached cachedLayout
	if err := json.Unmarshal(data, &cached); err != nil || cached.Layout.Validate() != nil {
		// Unreadable entry; recompute and overwrite.
		observability.Cache().OnCacheMiss(ctx, key)
		return graph.Layout{}, false
	}
	if err := applyPositions(b, cached.Board); err != nil {
		r.Logger.Warn("cached layout does not fit board", "error", err)
		observability.Cache().OnCacheMiss(ctx, key)
		return graph.Layout{}, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return cached.Layout, true
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := graph.MarshalLayout(l, graph.FormatJSON)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, key)
			break
		}
		observability.Cache().OnCacheHit(ctx, key)
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, l, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		r.store(ctx, key, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Relayout applies patch to nodeID and runs an incremental pass. The result
// depends on the board's current positions, so it is never cached.
func (r *Runner) Relayout(ctx context.Context, b *story.Board, name, nodeID string, patch story.NodePatch, opts Options) (graph.Layout, error) {
	r.applyLogger(&opts)
	start := time.Now()
	l, res, err := Relayout(ctx, b, name, nodeID, patch, opts)
	if err != nil {
		return graph.Layout{}, err
	}
	r.Logger.Info("relaid out node",
		"node", nodeID,
		"full", res.Full,
		"writes", res.Writes,
		"duration", time.Since(start))
	return l, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// store writes a cache entry. Failures are logged; a broken cache never
// fails the pipeline.
func (r *Runner) store(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
