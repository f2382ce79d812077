package refine

import (
	"github.com/deadsy/adgrid/csgtree"
	"github.com/deadsy/adgrid/ifunc"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mode selects the implicit-complex interpretation the predicates
// enforce.
type Mode int

// The three modes of spec.md §1.
const (
	IA Mode = iota
	MI
	CSG
)

// Counters accumulates the two predicate call counters of spec.md §3,
// mutated in place the way a single-threaded engine's plain counter
// suffices (see spec.md §9).
type Counters struct {
	TwoFuncCheck   int
	ThreeFuncCheck int
}

// pairs and triples return the C(n,2) and C(n,3) combination indices
// into an n-element active set, reused across predicates.
func pairs(n int) [][2]int {
	out := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}

func triples(n int) [][3]int {
	out := make([][3]int, 0)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				out = append(out, [3]int{i, j, k})
			}
		}
	}
	return out
}

// tetDiameter returns the longest pairwise distance among the tet's
// four corners.
func tetDiameter(pts [4]r3.Vec) float64 {
	d := 0.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if l := r3.Norm(r3.Sub(pts[i], pts[j])); l > d {
				d = l
			}
		}
	}
	return d
}

// errorEstimate bounds the piecewise-linear interpolation error of one
// function over the tet: 0.125 * diam^2 * the largest gradient
// variation rate observed across the tet's six edges — a
// finite-difference proxy for the local Hessian norm scaling a
// second-order Taylor remainder (see SPEC_FULL.md §4.2).
func errorEstimate(pts [4]r3.Vec, corner [4]ifunc.Value) float64 {
	diam := tetDiameter(pts)
	maxRate := 0.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			edgeLen := r3.Norm(r3.Sub(pts[i], pts[j]))
			if edgeLen == 0 {
				continue
			}
			gradDiff := r3.Norm(r3.Sub(corner[i].Grad, corner[j].Grad))
			if rate := gradDiff / edgeLen; rate > maxRate {
				maxRate = rate
			}
		}
	}
	return 0.125 * diam * diam * maxRate
}

//-----------------------------------------------------------------------------

// CritIA is the IA predicate of spec.md §4.2. table[i] is the
// funcNum-length function/gradient vector at corner i.
func CritIA(pts [4]r3.Vec, table [4][]ifunc.Value, funcNum int, threshold float64, curveNetwork bool, counters *Counters) (needsSplit, isActive bool) {
	active := make([]int, 0, funcNum)
	for f := 0; f < funcNum; f++ {
		lo, hi := valueRangeAt(table, f)
		if lo <= 0 && hi >= 0 {
			active = append(active, f)
		}
	}
	isActive = len(active) > 0

	est := func(f int) float64 {
		var c [4]ifunc.Value
		for i := 0; i < 4; i++ {
			c[i] = table[i][f]
		}
		return errorEstimate(pts, c)
	}

	if !curveNetwork {
		for _, f := range active {
			if est(f) > threshold {
				needsSplit = true
			}
		}
	}

	for _, pr := range pairs(len(active)) {
		counters.TwoFuncCheck++
		if est(active[pr[0]])+est(active[pr[1]]) > threshold {
			needsSplit = true
		}
	}
	for _, tr := range triples(len(active)) {
		counters.ThreeFuncCheck++
		if est(active[tr[0]])+est(active[tr[1]])+est(active[tr[2]]) > threshold {
			needsSplit = true
		}
	}

	if curveNetwork && len(active) < 2 {
		needsSplit = false
	}
	return needsSplit, isActive
}

func valueRangeAt(table [4][]ifunc.Value, f int) (float64, float64) {
	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		vals[i] = table[i][f].Val
	}
	return floats.Min(vals), floats.Max(vals)
}

//-----------------------------------------------------------------------------

// CritMI is the MI predicate of spec.md §4.2: active iff the argmax
// function over the tet's corners is not constant (ties resolve
// active), needs-split checks on which function dominates rather than
// sign.
func CritMI(pts [4]r3.Vec, table [4][]ifunc.Value, funcNum int, threshold float64, curveNetwork bool, counters *Counters) (needsSplit, isActive bool) {
	dominant := map[int]bool{}
	for i := 0; i < 4; i++ {
		best := table[i][0].Val
		for f := 1; f < funcNum; f++ {
			if table[i][f].Val > best {
				best = table[i][f].Val
			}
		}
		// Every function attaining the corner maximum counts as
		// dominant, so an exact tie makes the tet active.
		for f := 0; f < funcNum; f++ {
			if table[i][f].Val == best {
				dominant[f] = true
			}
		}
	}
	isActive = len(dominant) > 1

	active := make([]int, 0, len(dominant))
	for f := range dominant {
		active = append(active, f)
	}
	sortInts(active)

	est := func(f int) float64 {
		var c [4]ifunc.Value
		for i := 0; i < 4; i++ {
			c[i] = table[i][f]
		}
		return errorEstimate(pts, c)
	}

	if !curveNetwork {
		for _, f := range active {
			if est(f) > threshold {
				needsSplit = true
			}
		}
	}
	for _, pr := range pairs(len(active)) {
		counters.TwoFuncCheck++
		if est(active[pr[0]])+est(active[pr[1]]) > threshold {
			needsSplit = true
		}
	}
	for _, tr := range triples(len(active)) {
		counters.ThreeFuncCheck++
		if est(active[tr[0]])+est(active[tr[1]])+est(active[tr[2]]) > threshold {
			needsSplit = true
		}
	}
	if curveNetwork && len(active) < 2 {
		needsSplit = false
	}
	return needsSplit, isActive
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

//-----------------------------------------------------------------------------

// CSGEvaluator is the opaque CSG-tree callable of spec.md §4.2/§6: it
// combines per-function value intervals and reports which functions
// were active at the tree root. csgtree.Tree.Eval is the concrete
// backing.
type CSGEvaluator func(intervals []csgtree.Interval) (csgtree.Interval, []int)

// CritCSG is the CSG predicate of spec.md §4.2: computes per-function
// value intervals over the tet, feeds them to csgEval, and restricts
// activeness/needs-split decisions to the returned active function
// indices.
func CritCSG(pts [4]r3.Vec, table [4][]ifunc.Value, funcNum int, csgEval CSGEvaluator, threshold float64, curveNetwork bool, counters *Counters) (needsSplit, isActive bool) {
	intervals := make([]csgtree.Interval, funcNum)
	for f := 0; f < funcNum; f++ {
		lo, hi := valueRangeAt(table, f)
		intervals[f] = csgtree.Interval{Lo: lo, Hi: hi}
	}
	combined, active := csgEval(intervals)
	isActive = combined.Lo <= 0 && combined.Hi >= 0 && len(active) > 0
	sortInts(active)

	est := func(f int) float64 {
		var c [4]ifunc.Value
		for i := 0; i < 4; i++ {
			c[i] = table[i][f]
		}
		return errorEstimate(pts, c)
	}

	if !curveNetwork {
		for _, f := range active {
			if est(f) > threshold {
				needsSplit = true
			}
		}
	}
	for _, pr := range pairs(len(active)) {
		counters.TwoFuncCheck++
		if est(active[pr[0]])+est(active[pr[1]]) > threshold {
			needsSplit = true
		}
	}
	for _, tr := range triples(len(active)) {
		counters.ThreeFuncCheck++
		if est(active[tr[0]])+est(active[tr[1]])+est(active[tr[2]]) > threshold {
			needsSplit = true
		}
	}
	if curveNetwork && len(active) < 2 {
		needsSplit = false
	}
	return needsSplit, isActive
}
