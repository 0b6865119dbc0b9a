package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/layout"
	"github.com/matzehuels/storyboard/pkg/pipeline"
	"github.com/matzehuels/storyboard/pkg/story"
)

// =============================================================================
// Request / Response Types
// =============================================================================

type layoutRequest struct {
	Storyboard graph.Storyboard `json:"storyboard"`
	Config     json.RawMessage  `json:"config,omitempty"`
	Formats    []string         `json:"formats,omitempty"`
	Detailed   bool             `json:"detailed,omitempty"`
	Scale      float64          `json:"scale,omitempty"`
	Refresh    bool             `json:"refresh,omitempty"`
}

type relayoutRequest struct {
	Storyboard graph.Storyboard `json:"storyboard"`
	NodeID     string           `json:"node_id"`
	Patch      graph.NodePatch  `json:"patch"`
	Config     json.RawMessage  `json:"config,omitempty"`
}

type renderRequest struct {
	Layout   graph.Layout `json:"layout"`
	Formats  []string     `json:"formats,omitempty"`
	Detailed bool         `json:"detailed,omitempty"`
	Scale    float64      `json:"scale,omitempty"`
}

type layoutResponse struct {
	Storyboard graph.Storyboard  `json:"storyboard"`
	Layout     graph.Layout      `json:"layout"`
	Artifacts  map[string]string `json:"artifacts,omitempty"`
	Cache      *cacheInfo        `json:"cache,omitempty"`
}

type renderResponse struct {
	Artifacts map[string]string `json:"artifacts"`
	Cache     cacheInfo         `json:"cache"`
}

type cacheInfo struct {
	LayoutHit bool `json:"layout_hit"`
	RenderHit bool `json:"render_hit"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := pipeline.ValidateFormats(req.Formats); err != nil {
		s.respondError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "formats"))
		return
	}

	cfg, err := configFrom(req.Config)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	opts := pipeline.Options{
		Config:   cfg,
		Formats:  req.Formats,
		Detailed: req.Detailed,
		Scale:    req.Scale,
		Refresh:  req.Refresh,
	}
	b, name, err := s.load(r, req.Storyboard, &opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	l, layoutHit, err := s.runner.LayoutWithCacheInfo(ctx, b, name, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := layoutResponse{
		Storyboard: graph.FromBoard(b, name),
		Layout:     l,
		Cache:      &cacheInfo{LayoutHit: layoutHit},
	}
	if len(req.Formats) > 0 {
		artifacts, renderHit, err := s.runner.RenderWithCacheInfo(ctx, l, opts)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		resp.Artifacts = textArtifacts(artifacts)
		resp.Cache.RenderHit = renderHit
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) relayout(w http.ResponseWriter, r *http.Request) {
	var req relayoutRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := apperrors.ValidateID("node", req.NodeID); err != nil {
		s.respondError(w, r, err)
		return
	}
	patch, err := req.Patch.ToStory()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	cfg, err := configFrom(req.Config)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	opts := pipeline.Options{Config: cfg}
	b, name, err := s.load(r, req.Storyboard, &opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	l, err := s.runner.Relayout(r.Context(), b, name, req.NodeID, patch, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, layoutResponse{
		Storyboard: graph.FromBoard(b, name),
		Layout:     l,
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := req.Layout.Validate(); err != nil {
		s.respondError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "layout"))
		return
	}
	if err := pipeline.ValidateFormats(req.Formats); err != nil {
		s.respondError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "formats"))
		return
	}

	opts := pipeline.Options{Formats: req.Formats, Detailed: req.Detailed, Scale: req.Scale}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), req.Layout, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, renderResponse{
		Artifacts: textArtifacts(artifacts),
		Cache:     cacheInfo{RenderHit: hit},
	})
}

// load converts the request storyboard into a board through the pipeline's
// loader, so API input is validated exactly like files. Every failure is a
// client error.
func (s *Server) load(r *http.Request, sb graph.Storyboard, opts *pipeline.Options) (*story.Board, string, error) {
	data, err := json.Marshal(sb)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrCodeInvalidStoryboard, err, "encode storyboard")
	}
	opts.Data = data
	opts.InputFormat = graph.FormatJSON

	b, name, err := s.runner.Load(r.Context(), *opts)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrCodeInvalidStoryboard, err, "invalid storyboard: %v", err)
	}
	return b, name, nil
}

// configFrom applies the request's config overrides to the defaults. A nil
// result lets the pipeline use the defaults.
func configFrom(raw json.RawMessage) (*layout.Config, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	cfg := layout.DefaultConfig()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "invalid config: %v", err)
	}
	return &cfg, nil
}

// textArtifacts converts artifacts for JSON responses. Every supported
// format is text.
func textArtifacts(in map[string][]byte) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = string(v)
	}
	return out
}
