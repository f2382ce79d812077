// Package csgtree parses and evaluates the CSG tree of spec.md §6:
// `{op, children, index}` JSON nodes combined under union/intersect/
// subtract/negate, bottoming out at leaves naming a function index.
// It is the concrete backing for the `csg_eval` callable the CSG
// predicate treats as opaque.
package csgtree

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Op is a CSG tree node operator.
type Op string

// The CSG operators spec.md §6 names.
const (
	OpUnion     Op = "union"
	OpIntersect Op = "intersect"
	OpSubtract  Op = "subtract"
	OpNegate    Op = "negate"
	OpLeaf      Op = "leaf"
)

// Node is one node of a parsed CSG tree.
type Node struct {
	Op       Op      `json:"op"`
	Children []*Node `json:"children,omitempty"`
	Index    int     `json:"index,omitempty"`
}

// Tree is a parsed CSG tree rooted at Root.
type Tree struct {
	Root *Node
}

// Parse parses the JSON CSG tree file format of spec.md §6.
func Parse(data []byte) (*Tree, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("csgtree: Parse: %w", err)
	}
	return &Tree{Root: &root}, nil
}

// Interval is a closed real interval [Lo, Hi].
type Interval struct {
	Lo, Hi float64
}

// Eval walks the CSG tree, combining the per-function value intervals
// funcIntervals (indexed by function index) under the tree's
// operators, and returns the combined root interval plus the sorted,
// de-duplicated list of function indices that were active (reached
// through a leaf whose containing subtree contributes to the root)
// during evaluation. This is the concrete backing for §6's `csg_eval`
// opaque callable: `refine.Engine` never inspects tree structure
// itself, only this function's return value.
func (t *Tree) Eval(funcIntervals []Interval) (Interval, []int) {
	if t == nil || t.Root == nil {
		return Interval{}, nil
	}
	seen := map[int]bool{}
	result := evalNode(t.Root, funcIntervals, seen)
	active := make([]int, 0, len(seen))
	for i := range seen {
		active = append(active, i)
	}
	sortInts(active)
	return result, active
}

func evalNode(n *Node, funcIntervals []Interval, seen map[int]bool) Interval {
	switch n.Op {
	case OpLeaf:
		seen[n.Index] = true
		return funcIntervals[n.Index]
	case OpNegate:
		c := evalNode(n.Children[0], funcIntervals, seen)
		return Interval{Lo: -c.Hi, Hi: -c.Lo}
	case OpUnion:
		acc := evalNode(n.Children[0], funcIntervals, seen)
		for _, ch := range n.Children[1:] {
			c := evalNode(ch, funcIntervals, seen)
			acc = Interval{Lo: minF(acc.Lo, c.Lo), Hi: minF(acc.Hi, c.Hi)}
		}
		return acc
	case OpIntersect:
		acc := evalNode(n.Children[0], funcIntervals, seen)
		for _, ch := range n.Children[1:] {
			c := evalNode(ch, funcIntervals, seen)
			acc = Interval{Lo: maxF(acc.Lo, c.Lo), Hi: maxF(acc.Hi, c.Hi)}
		}
		return acc
	case OpSubtract:
		acc := evalNode(n.Children[0], funcIntervals, seen)
		for _, ch := range n.Children[1:] {
			c := evalNode(ch, funcIntervals, seen)
			neg := Interval{Lo: -c.Hi, Hi: -c.Lo}
			acc = Interval{Lo: maxF(acc.Lo, neg.Lo), Hi: maxF(acc.Hi, neg.Hi)}
		}
		return acc
	default:
		panic(fmt.Sprintf("csgtree: unknown op %q", n.Op))
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
