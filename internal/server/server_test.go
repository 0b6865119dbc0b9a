package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/observability"
	"github.com/matzehuels/storyboard/pkg/pipeline"
)

const sampleBoard = `{
  "name": "pilot",
  "nodes": [
    {"id": "intro", "type": "story_frame"},
    {"id": "choice", "type": "exploration"},
    {"id": "left", "type": "branch_start"}
  ],
  "branches": [
    {"id": "main", "nodes": ["intro", "choice"]},
    {"id": "left-path", "parent": "main", "origin": "choice", "nodes": ["left"]}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	srv := New(pipeline.NewRunner(nil, nil, logger), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decodeBody[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t)
	resp, data := post(t, ts, "/v1/layout", `{"storyboard":`+sampleBoard+`,"formats":["dot"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, data)
	}

	got := decodeBody[layoutResponse](t, data)
	if len(got.Layout.Boxes) != 3 {
		t.Fatalf("boxes = %d, want 3", len(got.Layout.Boxes))
	}
	if box, _ := got.Layout.Box("choice"); box.X != 390 {
		t.Errorf("choice x = %v, want 390", box.X)
	}
	for _, n := range got.Storyboard.Nodes {
		if n.Pos == nil {
			t.Errorf("node %s has no position", n.ID)
		}
	}
	if !strings.Contains(got.Artifacts["dot"], `"choice" -> "left" [style=dashed];`) {
		t.Errorf("dot artifact missing fork edge:\n%s", got.Artifacts["dot"])
	}
	if got.Cache == nil || got.Cache.LayoutHit {
		t.Errorf("cache = %+v, want miss", got.Cache)
	}
}

func TestLayoutWithConfig(t *testing.T) {
	ts := newTestServer(t)
	body := `{"storyboard":` + sampleBoard + `,"config":{"frame_width":300}}`
	resp, data := post(t, ts, "/v1/layout", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, data)
	}
	got := decodeBody[layoutResponse](t, data)
	if box, _ := got.Layout.Box("choice"); box.X != 450 {
		t.Errorf("choice x = %v, want 450", box.X)
	}
}

func TestRelayout(t *testing.T) {
	ts := newTestServer(t)
	_, data := post(t, ts, "/v1/layout", `{"storyboard":`+sampleBoard+`}`)
	laidOut := decodeBody[layoutResponse](t, data)

	sb, err := json.Marshal(laidOut.Storyboard)
	if err != nil {
		t.Fatal(err)
	}
	resp, data := post(t, ts, "/v1/relayout",
		`{"storyboard":`+string(sb)+`,"node_id":"intro","patch":{"state":"generating"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, data)
	}

	got := decodeBody[layoutResponse](t, data)
	if box, _ := got.Layout.Box("choice"); box.X != 1350 {
		t.Errorf("choice x = %v, want 1350", box.X)
	}
	for _, n := range got.Storyboard.Nodes {
		if n.ID == "intro" && n.State != "generating" {
			t.Errorf("intro state = %q, want generating", n.State)
		}
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t)
	_, data := post(t, ts, "/v1/layout", `{"storyboard":`+sampleBoard+`}`)
	laidOut := decodeBody[layoutResponse](t, data)

	l, err := json.Marshal(laidOut.Layout)
	if err != nil {
		t.Fatal(err)
	}
	resp, data := post(t, ts, "/v1/render", `{"layout":`+string(l)+`,"formats":["json","dot"],"detailed":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, data)
	}
	got := decodeBody[renderResponse](t, data)
	if _, ok := got.Artifacts["json"]; !ok {
		t.Error("json artifact missing")
	}
	if !strings.Contains(got.Artifacts["dot"], `exploration\ncollapsed`) {
		t.Errorf("dot artifact not detailed:\n%s", got.Artifacts["dot"])
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   apperrors.Code
	}{
		{"BadJSON", "/v1/layout", `{"storyboard":`, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"UnknownField", "/v1/layout", `{"board":{}}`, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"BadFormat", "/v1/layout", `{"storyboard":` + sampleBoard + `,"formats":["pdf"]}`, http.StatusBadRequest, apperrors.ErrCodeInvalidFormat},
		{"BadNodeType", "/v1/layout", `{"storyboard":{"nodes":[{"id":"a","type":"poster"}],"branches":[]}}`, http.StatusBadRequest, apperrors.ErrCodeInvalidStoryboard},
		{"UnknownMember", "/v1/layout", `{"storyboard":{"nodes":[],"branches":[{"id":"main","nodes":["ghost"]}]}}`, http.StatusBadRequest, apperrors.ErrCodeInvalidStoryboard},
		{"UnknownConfigKey", "/v1/layout", `{"storyboard":` + sampleBoard + `,"config":{"frame_widht":300}}`, http.StatusBadRequest, apperrors.ErrCodeInvalidConfig},
		{"BadConfig", "/v1/layout", `{"storyboard":` + sampleBoard + `,"config":{"frame_width":-1}}`, http.StatusBadRequest, apperrors.ErrCodeInvalidConfig},
		{"UnknownNode", "/v1/relayout", `{"storyboard":` + sampleBoard + `,"node_id":"ghost","patch":{}}`, http.StatusNotFound, apperrors.ErrCodeNodeNotFound},
		{"EmptyNodeID", "/v1/relayout", `{"storyboard":` + sampleBoard + `,"patch":{}}`, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"BadState", "/v1/relayout", `{"storyboard":` + sampleBoard + `,"node_id":"intro","patch":{"state":"sleeping"}}`, http.StatusBadRequest, apperrors.ErrCodeInvalidNodeState},
		{"BadLayout", "/v1/render", `{"layout":{"boxes":[{"id":"a"}],"edges":[{"from":"a","to":"b","kind":"sequence"}]}}`, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := post(t, ts, tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.wantStatus, data)
			}
			got := decodeBody[errorBody](t, data)
			if got.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s (%s)", got.Error.Code, tt.wantCode, got.Error.Message)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	logger := log.New(io.Discard)
	srv := New(pipeline.NewRunner(nil, nil, logger), logger)
	srv.maxBodyBytes = 16

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/layout", bytes.NewBufferString(`{"storyboard":`+sampleBoard+`}`))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route+" "+http.StatusText(status))
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	logger := log.New(io.Discard)
	h := New(pipeline.NewRunner(nil, nil, logger), logger).Handler()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader("{")))

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	want := []string{"GET /healthz OK", "POST /v1/render Bad Request"}
	if len(hooks.routes) != len(want) {
		t.Fatalf("routes = %v, want %v", hooks.routes, want)
	}
	for i := range want {
		if hooks.routes[i] != want[i] {
			t.Errorf("routes[%d] = %q, want %q", i, hooks.routes[i], want[i])
		}
	}
}
