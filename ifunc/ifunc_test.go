package ifunc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSphereEvaluate(t *testing.T) {
	s := NewSphere(r3.Vec{}, 2)
	v := s.Evaluate(r3.Vec{X: 4})
	assert.InDelta(t, 2.0, v.Val, 1e-9)
	assert.InDelta(t, 1.0, v.Grad.X, 1e-9)
}

func TestPlaneEvaluate(t *testing.T) {
	p := NewPlane(r3.Vec{Z: 1}, 3)
	v := p.Evaluate(r3.Vec{Z: 5})
	assert.InDelta(t, 2.0, v.Val, 1e-9)
}

func TestGenericEvaluate(t *testing.T) {
	g, err := NewGeneric("sqrt(x^2 + y^2 + z^2) - 1")
	require.NoError(t, err)
	v := g.Evaluate(r3.Vec{X: 3, Y: 4})
	assert.InDelta(t, 4.0, v.Val, 1e-9)
}

func TestLoadFunctionsJSON(t *testing.T) {
	data := []byte(`[
		{"type":"sphere","center":[0,0,0],"radius":1},
		{"type":"plane","normal":[0,0,1],"offset":0}
	]`)
	fns, err := LoadFunctions(data)
	require.NoError(t, err)
	require.Len(t, fns, 2)

	ev := NewEvaluator(fns)
	vals := ev(r3.Vec{Z: 1})
	require.Len(t, vals, 2)
	assert.InDelta(t, 0.0, vals[0].Val, 1e-9)
	assert.InDelta(t, 1.0, vals[1].Val, 1e-9)
}

func TestLoadFunctionsUnknownType(t *testing.T) {
	_, err := LoadFunctions([]byte(`[{"type":"mystery"}]`))
	require.Error(t, err)
}
