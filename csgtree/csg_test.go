package csgtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndEvalSubtractTree(t *testing.T) {
	data := []byte(`{
		"op": "subtract",
		"children": [
			{"op": "leaf", "index": 0},
			{"op": "leaf", "index": 1}
		]
	}`)
	tree, err := Parse(data)
	require.NoError(t, err)

	ivals := []Interval{{Lo: -1, Hi: 1}, {Lo: -0.5, Hi: 0.5}}
	result, active := tree.Eval(ivals)

	assert.Equal(t, []int{0, 1}, active)
	assert.Equal(t, -0.5, result.Lo)
	assert.Equal(t, 1.0, result.Hi)
}

func TestEvalUnionAndIntersect(t *testing.T) {
	ivals := []Interval{{Lo: -2, Hi: -1}, {Lo: 1, Hi: 2}}

	union, _ := (&Tree{Root: &Node{Op: OpUnion, Children: []*Node{
		{Op: OpLeaf, Index: 0}, {Op: OpLeaf, Index: 1},
	}}}).Eval(ivals)
	assert.Equal(t, Interval{Lo: -2, Hi: -1}, union)

	intersect, _ := (&Tree{Root: &Node{Op: OpIntersect, Children: []*Node{
		{Op: OpLeaf, Index: 0}, {Op: OpLeaf, Index: 1},
	}}}).Eval(ivals)
	assert.Equal(t, Interval{Lo: 1, Hi: 2}, intersect)
}

func TestEvalNegate(t *testing.T) {
	ivals := []Interval{{Lo: -1, Hi: 3}}
	result, active := (&Tree{Root: &Node{Op: OpNegate, Children: []*Node{
		{Op: OpLeaf, Index: 0},
	}}}).Eval(ivals)
	assert.Equal(t, []int{0}, active)
	assert.Equal(t, Interval{Lo: -3, Hi: 1}, result)
}
