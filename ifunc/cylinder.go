package ifunc

import "gonum.org/v1/gonum/spatial/r3"

// Cylinder is the signed distance to an infinite circular cylinder
// with the given center axis point, unit axis direction and radius.
type Cylinder struct {
	Center r3.Vec
	Axis   r3.Vec // unit
	Radius float64
}

// NewCylinder returns a Cylinder implicit function.
func NewCylinder(center, axis r3.Vec, radius float64) *Cylinder {
	n := r3.Norm(axis)
	if n == 0 {
		n = 1
		axis = r3.Vec{Z: 1}
	}
	return &Cylinder{Center: center, Axis: r3.Scale(1/n, axis), Radius: radius}
}

// Evaluate returns the signed radial distance to the cylinder surface
// and its gradient.
func (c *Cylinder) Evaluate(p r3.Vec) Value {
	d := r3.Sub(p, c.Center)
	axialComp := r3.Dot(d, c.Axis)
	radial := r3.Sub(d, r3.Scale(axialComp, c.Axis))
	n := r3.Norm(radial)
	if n == 0 {
		return Value{Val: -c.Radius, Grad: r3.Vec{X: 1}}
	}
	return Value{Val: n - c.Radius, Grad: r3.Scale(1/n, radial)}
}
