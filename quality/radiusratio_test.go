package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRadiusRatioRegularTet(t *testing.T) {
	// A regular tetrahedron inscribed in alternating cube corners.
	v0 := r3.Vec{X: 1, Y: 1, Z: 1}
	v1 := r3.Vec{X: 1, Y: -1, Z: -1}
	v2 := r3.Vec{X: -1, Y: 1, Z: -1}
	v3 := r3.Vec{X: -1, Y: -1, Z: 1}

	ratio := RadiusRatio(v0, v1, v2, v3)
	assert.InDelta(t, 1.0, ratio, 1e-9)
}

func TestRadiusRatioDegenerateTet(t *testing.T) {
	v0 := r3.Vec{X: 0, Y: 0, Z: 0}
	v1 := r3.Vec{X: 1, Y: 0, Z: 0}
	v2 := r3.Vec{X: 2, Y: 0, Z: 0}
	v3 := r3.Vec{X: 3, Y: 0, Z: 0}
	ratio := RadiusRatio(v0, v1, v2, v3)
	assert.Equal(t, 0.0, ratio)
}

func TestRadiusRatioBoundedByOne(t *testing.T) {
	v0 := r3.Vec{X: 0, Y: 0, Z: 0}
	v1 := r3.Vec{X: 2, Y: 0, Z: 0}
	v2 := r3.Vec{X: 0, Y: 1, Z: 0}
	v3 := r3.Vec{X: 0, Y: 0, Z: 1}
	ratio := RadiusRatio(v0, v1, v2, v3)
	assert.True(t, ratio > 0 && ratio < 1)
	assert.False(t, math.IsNaN(ratio))
}
