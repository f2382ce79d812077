// Package refine is THE CORE of adgrid: the priority-queue-driven
// longest-edge-bisection loop, the per-tet refinement predicates
// (crit.go), and the alpha-quality feedback rule, coupled to the
// mtet tet mesh.
package refine

import (
	"container/heap"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/deadsy/adgrid/ifunc"
	"github.com/deadsy/adgrid/mtet"
	"github.com/deadsy/adgrid/quality"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config holds the per-run parameters of spec.md §6's CLI surface.
type Config struct {
	Mode         Mode
	CurveNetwork bool
	Threshold    float64
	// Alpha is the quality-feedback scale factor. The default,
	// math.Inf(1), disables the feedback rule entirely (spec.md
	// §4.3's "Alpha = ∞ semantics").
	Alpha float64
	// MaxElements caps total live tet count. DefaultConfig sets it to
	// math.MaxInt32, which leaves the count unbounded in practice.
	MaxElements int
	FuncNum     int

	// AlphaForceEvaluate selects the resolved-Open-Question behavior
	// for a surrounding tet with no activeness-cache entry during the
	// alpha feedback scan: false (default) skips it, matching the
	// reference engine's literal `tet_active_map.contains` gate; true
	// forces that tet's predicate to run on demand first. See
	// SPEC_FULL.md §4.2.
	AlphaForceEvaluate bool

	// Logger receives structured progress/diagnostic output. Defaults
	// to a no-op logger.
	Logger *zap.Logger
}

// DefaultConfig returns the Config matching spec.md §6's CLI defaults:
// alpha=+∞, max_elements unbounded.
func DefaultConfig() Config {
	return Config{
		Alpha:       math.Inf(1),
		MaxElements: math.MaxInt32,
		Logger:      zap.NewNop(),
	}
}

// Result is the tet_metric output of spec.md §4.3's active-tet
// collection pass.
type Result struct {
	TotalTet           int
	ActiveTet           int
	MinRadiusRatio      float64
	ActiveRadiusRatio   float64
	TwoFuncCheck        int
	ThreeFuncCheck      int
	ActiveTetId         []mtet.TetId
	VertexFuncGradCache map[mtet.VertexId][]ifunc.Value
	Elapsed             time.Duration
	BudgetExhausted     bool
}

// Engine is the refinement engine state of spec.md §4.3: the mesh, the
// vertex-function cache, the activeness cache, the priority queue, the
// two predicate counters.
type Engine struct {
	mesh      *mtet.Mesh
	evaluate  ifunc.Evaluator
	csgEval   CSGEvaluator
	cfg       Config
	counters  Counters
	funcCache map[mtet.VertexId][]ifunc.Value
	active    map[[4]mtet.VertexId]bool
	q         queue
}

// NewEngine builds an Engine over mesh using evaluate (the opaque
// `func` callable) and csgEval (the opaque `csg_eval` callable, unused
// outside CSG mode — may be nil for IA/MI).
func NewEngine(mesh *mtet.Mesh, evaluate ifunc.Evaluator, csgEval CSGEvaluator, cfg Config) (*Engine, error) {
	if cfg.Mode != IA && cfg.Mode != MI && cfg.Mode != CSG {
		return nil, fmt.Errorf("refine: NewEngine: %w: unknown mode %d", ErrPrecondition, cfg.Mode)
	}
	if cfg.Mode == CSG && csgEval == nil {
		return nil, fmt.Errorf("refine: NewEngine: %w: CSG mode requires a csg tree evaluator", ErrInput)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{
		mesh:      mesh,
		evaluate:  evaluate,
		csgEval:   csgEval,
		cfg:       cfg,
		funcCache: make(map[mtet.VertexId][]ifunc.Value),
		active:    make(map[[4]mtet.VertexId]bool),
	}, nil
}

// Run executes the refinement engine's initialization and main loop
// (spec.md §4.3) to completion and returns the collected metrics.
func (e *Engine) Run() (*Result, error) {
	start := time.Now()

	if err := e.evaluateInitialVertices(); err != nil {
		return nil, err
	}

	var initTets []mtet.TetId
	e.mesh.SeqForeachTet(func(tid mtet.TetId, _ [4]mtet.VertexId) { initTets = append(initTets, tid) })
	for _, tid := range initTets {
		if item, ok := e.evaluateAndQueue(tid); ok {
			e.q = append(e.q, item)
		}
	}
	heap.Init(&e.q)

	budgetExhausted := e.mainLoop()

	result := e.collectResult()
	result.Elapsed = time.Since(start)
	result.BudgetExhausted = budgetExhausted
	e.cfg.Logger.Info("refinement complete",
		zap.Int("total_tet", result.TotalTet),
		zap.Int("active_tet", result.ActiveTet),
		zap.Duration("elapsed", result.Elapsed),
		zap.Bool("budget_exhausted", budgetExhausted))
	return result, nil
}

// evaluateInitialVertices populates the function/gradient cache for
// every initial vertex via a bounded worker pool — read-only parallel
// traversal, the only place spec.md §5 allows it.
func (e *Engine) evaluateInitialVertices() error {
	type pending struct {
		vid mtet.VertexId
		p   r3.Vec
	}
	var todo []pending
	e.mesh.SeqForeachVertex(func(vid mtet.VertexId, p r3.Vec) {
		todo = append(todo, pending{vid: vid, p: p})
	})

	results := make([][]ifunc.Value, len(todo))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, item := range todo {
		i, item := i, item
		g.Go(func() error {
			results[i] = e.evaluate(item.p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refine: evaluateInitialVertices: %w", err)
	}
	for i, item := range todo {
		e.funcCache[item.vid] = results[i]
	}
	return nil
}

func (e *Engine) ensureCached(vid mtet.VertexId) []ifunc.Value {
	if v, ok := e.funcCache[vid]; ok {
		return v
	}
	v := e.evaluate(e.mesh.GetVertex(vid))
	e.funcCache[vid] = v
	return v
}

func sortedVertexSet(vs [4]mtet.VertexId) [4]mtet.VertexId {
	sort.Slice(vs[:], func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}

// evaluatePredicate runs the configured mode's predicate on tid,
// records its activeness in the activeness cache, and returns
// (needsSplit, pts, table) for callers that go on to find the longest
// edge.
func (e *Engine) evaluatePredicate(tid mtet.TetId) (needsSplit bool, pts [4]r3.Vec, table [4][]ifunc.Value) {
	vs := e.mesh.GetTet(tid)
	for i, vid := range vs {
		pts[i] = e.mesh.GetVertex(vid)
		table[i] = e.ensureCached(vid)
	}

	var isActive bool
	switch e.cfg.Mode {
	case IA:
		needsSplit, isActive = CritIA(pts, table, e.cfg.FuncNum, e.cfg.Threshold, e.cfg.CurveNetwork, &e.counters)
	case MI:
		needsSplit, isActive = CritMI(pts, table, e.cfg.FuncNum, e.cfg.Threshold, e.cfg.CurveNetwork, &e.counters)
	case CSG:
		needsSplit, isActive = CritCSG(pts, table, e.cfg.FuncNum, e.csgEval, e.cfg.Threshold, e.cfg.CurveNetwork, &e.counters)
	}
	e.active[sortedVertexSet(vs)] = isActive
	return needsSplit, pts, table
}

type queueItem struct {
	lenSq float64
	edge  mtet.EdgeId
}

// longestEdge returns the longest edge of tid, breaking ties by the
// first-encountered edge in local order (spec.md §4.3).
func (e *Engine) longestEdge(tid mtet.TetId) queueItem {
	var best queueItem
	for _, ee := range e.mesh.EdgesInTet(tid) {
		p0, p1 := e.mesh.GetVertex(ee.V0), e.mesh.GetVertex(ee.V1)
		l2 := r3.Norm2(r3.Sub(p0, p1))
		if l2 > best.lenSq {
			best = queueItem{lenSq: l2, edge: ee.Edge}
		}
	}
	return best
}

// evaluateAndQueue is push_longest_edge (spec.md §4.3): evaluate the
// predicate, and if it needs a split, return the (length², edge)
// queue entry for the caller to push.
func (e *Engine) evaluateAndQueue(tid mtet.TetId) (queueItem, bool) {
	needsSplit, _, _ := e.evaluatePredicate(tid)
	if !needsSplit {
		return queueItem{}, false
	}
	return e.longestEdge(tid), true
}

func (e *Engine) mainLoop() (budgetExhausted bool) {
	// Covers max_elements=0 (and any config where the initial mesh
	// already meets or exceeds the budget) without re-checking every
	// iteration: once the loop is running, only a split can grow the
	// tet count, and that is checked below.
	if e.mesh.GetNumTets() > e.cfg.MaxElements {
		return true
	}
	for e.q.Len() > 0 {
		item := heap.Pop(&e.q).(queueItem)
		if !e.mesh.HasEdge(item.edge) {
			continue
		}

		if e.alphaFeedback(item) {
			continue
		}

		mid, e0, e1, err := e.mesh.SplitEdge(item.edge)
		_ = mid
		if err != nil {
			// item.edge was confirmed live above; a failure here
			// indicates the mesh invariant was violated upstream.
			e.cfg.Logger.Warn("split_edge failed on a live edge", zap.Error(err))
			continue
		}
		if e.mesh.GetNumTets() > e.cfg.MaxElements {
			return true
		}

		for _, tid := range e.mesh.TetsAroundEdge(e0) {
			if qi, ok := e.evaluateAndQueue(tid); ok {
				heap.Push(&e.q, qi)
			}
		}
		for _, tid := range e.mesh.TetsAroundEdge(e1) {
			if qi, ok := e.evaluateAndQueue(tid); ok {
				heap.Push(&e.q, qi)
			}
		}
	}
	return false
}

// alphaFeedback implements spec.md §4.3 step 2: the alpha quality
// rule. It returns true if it re-enqueued other active tets' longest
// edges instead of letting the caller split item.edge.
func (e *Engine) alphaFeedback(item queueItem) bool {
	compLen := e.cfg.Alpha * item.lenSq
	if math.IsInf(compLen, 1) {
		return false // alpha=+∞ fast path: never defers a split.
	}

	addedActive := false
	var toPush []queueItem
	for _, tid := range e.mesh.TetsAroundEdge(item.edge) {
		vs := e.mesh.GetTet(tid)
		key := sortedVertexSet(vs)
		isActive, ok := e.active[key]
		if !ok {
			if !e.cfg.AlphaForceEvaluate {
				continue // resolved Open Question: skip, don't force-evaluate.
			}
			e.evaluatePredicate(tid)
			isActive, ok = e.active[key]
			if !ok {
				continue
			}
		}
		if !isActive {
			continue
		}
		longest := e.longestEdge(tid)
		if longest.lenSq > compLen {
			toPush = append(toPush, longest)
			addedActive = true
		}
	}
	if addedActive {
		for _, qi := range toPush {
			heap.Push(&e.q, qi)
		}
	}
	return addedActive
}

func (e *Engine) collectResult() *Result {
	res := &Result{MinRadiusRatio: math.Inf(1), ActiveRadiusRatio: math.Inf(1)}
	e.mesh.SeqForeachTet(func(tid mtet.TetId, vs [4]mtet.VertexId) {
		var pts [4]r3.Vec
		for i, vid := range vs {
			pts[i] = e.mesh.GetVertex(vid)
		}
		ratio := quality.RadiusRatio(pts[0], pts[1], pts[2], pts[3])
		if ratio < res.MinRadiusRatio {
			res.MinRadiusRatio = ratio
		}
		if isActive, ok := e.active[sortedVertexSet(vs)]; ok && isActive {
			res.ActiveTet++
			res.ActiveTetId = append(res.ActiveTetId, tid)
			if ratio < res.ActiveRadiusRatio {
				res.ActiveRadiusRatio = ratio
			}
		}
	})
	res.TotalTet = e.mesh.GetNumTets()
	res.TwoFuncCheck = e.counters.TwoFuncCheck
	res.ThreeFuncCheck = e.counters.ThreeFuncCheck
	res.VertexFuncGradCache = e.funcCache
	return res
}

//-----------------------------------------------------------------------------
// queue is a container/heap max-heap over squared edge length,
// tolerating stale entries (filtered lazily via mtet.Mesh.HasEdge).

type queue []queueItem

func (q queue) Len() int            { return len(q) }
func (q queue) Less(i, j int) bool  { return q[i].lenSq > q[j].lenSq } // max-heap
func (q queue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x interface{}) { *q = append(*q, x.(queueItem)) }
func (q *queue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
