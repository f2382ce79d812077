package ifunc

import "gonum.org/v1/gonum/spatial/r3"

// Sphere is the signed distance to a sphere: negative inside.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// NewSphere returns a Sphere implicit function.
func NewSphere(center r3.Vec, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// Evaluate returns the signed distance to the sphere and its gradient
// (the unit outward radial direction, with a stable fallback at the
// center where the gradient is undefined).
func (s *Sphere) Evaluate(p r3.Vec) Value {
	d := r3.Sub(p, s.Center)
	n := r3.Norm(d)
	if n == 0 {
		return Value{Val: -s.Radius, Grad: r3.Vec{X: 1}}
	}
	return Value{Val: n - s.Radius, Grad: r3.Scale(1/n, d)}
}
