package layout

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/matzehuels/storyboard/pkg/observability"
)

// ErrLayoutInProgress is returned when a pass is requested while another
// pass of the same Engine is still running, typically from a mutator
// callback that reacts to the engine's own writes.
var ErrLayoutInProgress = errors.New("layout already in progress")

// Engine is the entry point editors use. It serializes passes over one
// Context: a pass started while another is running is rejected rather than
// allowed to read half-written positions.
type Engine struct {
	lc   *Context
	busy atomic.Bool
}

// NewEngine returns an Engine over lc.
func NewEngine(lc *Context) *Engine {
	return &Engine{lc: lc}
}

// Context returns the Context the engine operates on.
func (e *Engine) Context() *Context { return e.lc }

// Layout runs a full tree pass followed by an overlap sweep of every branch.
func (e *Engine) Layout(ctx context.Context) (Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return Result{}, ErrLayoutInProgress
	}
	defer e.busy.Store(false)

	return e.observe(ctx, observability.PassFull, func() Result {
		res := Tree(e.lc)
		res.Writes += e.sweep()
		return res
	}), nil
}

// NodeChanged relays out the branch of nodeID after its size-affecting
// state changed, then repairs overlaps on that branch. Unknown nodes and
// nodes outside any branch are ignored.
func (e *Engine) NodeChanged(ctx context.Context, nodeID string) (Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return Result{}, ErrLayoutInProgress
	}
	defer e.busy.Store(false)

	n, ok := e.lc.Store.Node(nodeID)
	if !ok {
		e.lc.log().Warn("node changed: node not found", "node", nodeID)
		return Result{}, nil
	}
	if n.BranchID == "" {
		e.lc.log().Debug("node changed: node not in a branch", "node", nodeID)
		return Result{}, nil
	}

	return e.observe(ctx, observability.PassIncremental, func() Result {
		res := RelayoutFrom(e.lc, n.BranchID, nodeID)
		if res.Full {
			res.Writes += e.sweep()
		} else {
			res.Writes += ResolveOverlaps(e.lc, n.BranchID, 0)
		}
		return res
	}), nil
}

func (e *Engine) sweep() int {
	pushed := 0
	for _, br := range e.lc.Store.Branches() {
		pushed += ResolveOverlaps(e.lc, br.ID, 0)
	}
	return pushed
}

func (e *Engine) observe(ctx context.Context, kind string, pass func() Result) Result {
	count := 0
	for _, br := range e.lc.Store.Branches() {
		count += len(br.NodeIDs)
	}
	hooks := observability.Layout()
	hooks.OnPassStart(ctx, kind, count)
	start := time.Now()

	res := pass()

	if res.Full {
		kind = observability.PassFull
	}
	hooks.OnPassComplete(ctx, kind, res.Writes, time.Since(start))
	return res
}
