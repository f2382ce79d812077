package refine

import (
	"math"
	"testing"

	"github.com/deadsy/adgrid/ifunc"
	"github.com/deadsy/adgrid/mtet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// cubeMesh returns the six-tet decomposition of a unit cube, large
// enough that LEB has room to subdivide several times.
func cubeMesh() *mtet.Mesh {
	m := mtet.NewMesh()
	v0 := m.AddVertex(0, 0, 0)
	v1 := m.AddVertex(1, 0, 0)
	v2 := m.AddVertex(1, 1, 0)
	v3 := m.AddVertex(0, 1, 0)
	v4 := m.AddVertex(0, 0, 1)
	v5 := m.AddVertex(1, 0, 1)
	v6 := m.AddVertex(1, 1, 1)
	v7 := m.AddVertex(0, 1, 1)
	must := func(_ mtet.TetId, err error) {
		if err != nil {
			panic(err)
		}
	}
	must(m.AddTet(v0, v1, v2, v6))
	must(m.AddTet(v0, v2, v3, v6))
	must(m.AddTet(v0, v3, v7, v6))
	must(m.AddTet(v0, v7, v4, v6))
	must(m.AddTet(v0, v4, v5, v6))
	must(m.AddTet(v0, v5, v1, v6))
	return m
}

// sphereEvaluator centers the sphere off the cube center so that, for
// radius 0.6, corner v0 lies inside and every other corner outside: each
// initial tet contains v0, so each sees a sign change at its corners.
func sphereEvaluator(radius float64) ifunc.Evaluator {
	sphere := ifunc.NewSphere(r3.Vec{X: 0.25, Y: 0.25, Z: 0.25}, radius)
	return ifunc.NewEvaluator([]ifunc.Function{sphere})
}

func TestEngineMaxElementsZeroReturnsImmediately(t *testing.T) {
	m := cubeMesh()
	cfg := DefaultConfig()
	cfg.Mode = IA
	cfg.FuncNum = 1
	cfg.Threshold = 0
	cfg.MaxElements = 0

	eng, err := NewEngine(m, sphereEvaluator(0.6), nil, cfg)
	require.NoError(t, err)

	res, err := eng.Run()
	require.NoError(t, err)
	assert.True(t, res.BudgetExhausted)
	assert.Equal(t, 6, res.TotalTet)
}

func TestEngineInfiniteThresholdNeverSplits(t *testing.T) {
	m := cubeMesh()
	cfg := DefaultConfig()
	cfg.Mode = IA
	cfg.FuncNum = 1
	cfg.Threshold = math.Inf(1)

	eng, err := NewEngine(m, sphereEvaluator(0.6), nil, cfg)
	require.NoError(t, err)

	res, err := eng.Run()
	require.NoError(t, err)
	assert.False(t, res.BudgetExhausted)
	assert.Equal(t, 6, res.TotalTet, "infinite threshold admits no splits beyond the initial mesh")
}

func TestEngineRefinesAcrossSphereBoundary(t *testing.T) {
	m := cubeMesh()
	cfg := DefaultConfig()
	cfg.Mode = IA
	cfg.FuncNum = 1
	cfg.Threshold = 1e-4
	cfg.MaxElements = 500

	eng, err := NewEngine(m, sphereEvaluator(0.6), nil, cfg)
	require.NoError(t, err)

	res, err := eng.Run()
	require.NoError(t, err)
	assert.Greater(t, res.TotalTet, 6, "the sphere boundary crosses the cube, so refinement must split something")
	assert.Greater(t, res.ActiveTet, 0)
	assert.LessOrEqual(t, res.ActiveRadiusRatio, 1.0+1e-9)
}

func TestEngineRejectsUnknownMode(t *testing.T) {
	m := cubeMesh()
	cfg := DefaultConfig()
	cfg.Mode = Mode(99)
	_, err := NewEngine(m, sphereEvaluator(0.6), nil, cfg)
	require.Error(t, err)
}

func TestEngineCSGModeRequiresEvaluator(t *testing.T) {
	m := cubeMesh()
	cfg := DefaultConfig()
	cfg.Mode = CSG
	_, err := NewEngine(m, sphereEvaluator(0.6), nil, cfg)
	require.Error(t, err)
}

func TestEngineFiniteAlphaSkipVariantRefines(t *testing.T) {
	m := cubeMesh()
	cfg := DefaultConfig()
	cfg.Mode = IA
	cfg.FuncNum = 1
	cfg.Threshold = 1e-6
	cfg.MaxElements = 300
	cfg.Alpha = 4.0 // small alpha: quality feedback engages readily

	eng, err := NewEngine(m, sphereEvaluator(0.6), nil, cfg)
	require.NoError(t, err)

	res, err := eng.Run()
	require.NoError(t, err)
	assert.Greater(t, res.TotalTet, 6)
}

// TestEngineSingleSphereLargeThresholdNoSplits is spec.md §8 end-to-end
// scenario 4: a single sphere with a large threshold performs zero
// splits, leaving active_tet equal to the number of initial tets the
// sphere boundary crosses. threshold=1.0 is chosen to exceed this
// mesh's worst-case single-function error estimate analytically:
// errorEstimate <= 0.125*diam^2*maxRate, diam <= sqrt(3) (the cube's
// space diagonal) and maxRate <= 2/1 (Sphere's gradient is always a
// unit vector, and the mesh's shortest edge has length 1), so the
// bound is 0.75 regardless of where the sphere sits.
func TestEngineSingleSphereLargeThresholdNoSplits(t *testing.T) {
	m := cubeMesh()
	cfg := DefaultConfig()
	cfg.Mode = IA
	cfg.FuncNum = 1
	cfg.Threshold = 1.0

	eng, err := NewEngine(m, sphereEvaluator(0.6), nil, cfg)
	require.NoError(t, err)

	res, err := eng.Run()
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalTet, "threshold above the worst-case error bound admits no splits")
	assert.Greater(t, res.ActiveTet, 0, "the sphere boundary crosses the cube, so some initial tet is active")
}

// TestEngineBudgetCapHaltsNearLimit is a small-scale analog of spec.md
// §8 end-to-end scenario 6 (the full 18-sphere/max_elements=10000
// scenario needs a seed grid and function set this pack doesn't carry
// — see SPEC_FULL.md §8): refinement halts once a split would exceed
// max_elements, growing past it by no more than one split's ring size.
func TestEngineBudgetCapHaltsNearLimit(t *testing.T) {
	m := cubeMesh()
	cfg := DefaultConfig()
	cfg.Mode = IA
	cfg.FuncNum = 1
	cfg.Threshold = 0
	cfg.MaxElements = 20

	eng, err := NewEngine(m, sphereEvaluator(0.6), nil, cfg)
	require.NoError(t, err)

	res, err := eng.Run()
	require.NoError(t, err)
	assert.True(t, res.BudgetExhausted)
	assert.Greater(t, res.TotalTet, 6)
	assert.LessOrEqual(t, res.TotalTet, cfg.MaxElements+8, "growth past the cap is bounded by the ring size of the split that crossed it")
}

func TestEngineAlphaForceEvaluateVariant(t *testing.T) {
	m := cubeMesh()
	cfg := DefaultConfig()
	cfg.Mode = IA
	cfg.FuncNum = 1
	cfg.Threshold = 1e-6
	cfg.MaxElements = 300
	cfg.Alpha = 4.0
	cfg.AlphaForceEvaluate = true

	eng, err := NewEngine(m, sphereEvaluator(0.6), nil, cfg)
	require.NoError(t, err)

	res, err := eng.Run()
	require.NoError(t, err)
	assert.Greater(t, res.TotalTet, 6)
}
