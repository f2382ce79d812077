package ifunc

import "gonum.org/v1/gonum/spatial/r3"

// Torus is the signed distance to a torus of major radius R and minor
// radius r, centered at Center with the given unit revolution axis.
type Torus struct {
	Center      r3.Vec
	Axis        r3.Vec // unit
	MajorRadius float64
	MinorRadius float64
}

// NewTorus returns a Torus implicit function.
func NewTorus(center, axis r3.Vec, majorRadius, minorRadius float64) *Torus {
	n := r3.Norm(axis)
	if n == 0 {
		n = 1
		axis = r3.Vec{Z: 1}
	}
	return &Torus{Center: center, Axis: r3.Scale(1/n, axis), MajorRadius: majorRadius, MinorRadius: minorRadius}
}

// Evaluate returns the signed distance to the torus surface and its
// gradient, computed via a central finite difference — the torus
// distance field has no convenient closed-form gradient in terms of
// an arbitrary axis, and a symmetric difference is accurate to
// O(h^2), well inside the error budget the predicates already assume
// for second-order effects.
func (t *Torus) Evaluate(p r3.Vec) Value {
	f := t.value(p)
	const h = 1e-6
	gx := (t.value(r3.Add(p, r3.Vec{X: h})) - t.value(r3.Sub(p, r3.Vec{X: h}))) / (2 * h)
	gy := (t.value(r3.Add(p, r3.Vec{Y: h})) - t.value(r3.Sub(p, r3.Vec{Y: h}))) / (2 * h)
	gz := (t.value(r3.Add(p, r3.Vec{Z: h})) - t.value(r3.Sub(p, r3.Vec{Z: h}))) / (2 * h)
	return Value{Val: f, Grad: r3.Vec{X: gx, Y: gy, Z: gz}}
}

func (t *Torus) value(p r3.Vec) float64 {
	d := r3.Sub(p, t.Center)
	axial := r3.Dot(d, t.Axis)
	radialVec := r3.Sub(d, r3.Scale(axial, t.Axis))
	radialDist := r3.Norm(radialVec)
	ringDist := radialDist - t.MajorRadius
	return r3Hypot(ringDist, axial) - t.MinorRadius
}

func r3Hypot(a, b float64) float64 {
	return r3.Norm(r3.Vec{X: a, Y: b})
}
