// Package quality implements the tet radius-ratio shape metric used to
// report mesh quality once refinement completes.
package quality

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// RadiusRatio computes 3*r_in/r_circ for the tet with corners v0..v3,
// where r_in is the inscribed-sphere radius and r_circ the
// circumscribed-sphere radius. It returns 1 for a regular tet and
// tends to 0 as the tet degenerates.
func RadiusRatio(v0, v1, v2, v3 r3.Vec) float64 {
	volume := tetVolume(v0, v1, v2, v3)
	if volume <= 0 {
		return 0
	}

	faceArea := func(a, b, c r3.Vec) float64 {
		return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
	}
	surfaceArea := faceArea(v1, v2, v3) + faceArea(v0, v2, v3) + faceArea(v0, v1, v3) + faceArea(v0, v1, v2)
	if surfaceArea <= 0 {
		return 0
	}
	rIn := 3 * volume / surfaceArea

	rCirc, ok := circumradius(v0, v1, v2, v3)
	if !ok || rCirc <= 0 {
		return 0
	}

	return 3 * rIn / rCirc
}

func tetVolume(v0, v1, v2, v3 r3.Vec) float64 {
	a := r3.Sub(v1, v0)
	b := r3.Sub(v2, v0)
	c := r3.Sub(v3, v0)
	return math.Abs(r3.Dot(r3.Cross(a, b), c)) / 6
}

// circumradius solves for the circumcenter O (equidistant from all
// four corners) via the 3x3 linear system obtained by differencing the
// equidistance equations against v0, then returns |O - v0|.
func circumradius(v0, v1, v2, v3 r3.Vec) (float64, bool) {
	pts := [3]r3.Vec{v1, v2, v3}
	rowsA := make([]float64, 9)
	rhs := make([]float64, 3)
	for i, p := range pts {
		d := r3.Sub(p, v0)
		rowsA[i*3+0] = 2 * d.X
		rowsA[i*3+1] = 2 * d.Y
		rowsA[i*3+2] = 2 * d.Z
		rhs[i] = r3.Dot(p, p) - r3.Dot(v0, v0)
	}
	A := mat.NewDense(3, 3, rowsA)
	b := mat.NewVecDense(3, rhs)

	var lu mat.LU
	lu.Factorize(A)
	if cond := lu.Cond(); math.IsInf(cond, 1) || cond > 1e15 {
		return 0, false
	}

	var o mat.VecDense
	if err := o.SolveVec(A, b); err != nil {
		return 0, false
	}
	center := r3.Vec{X: o.AtVec(0), Y: o.AtVec(1), Z: o.AtVec(2)}
	return r3.Norm(r3.Sub(center, v0)), true
}
