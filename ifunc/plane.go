package ifunc

import "gonum.org/v1/gonum/spatial/r3"

// Plane is the signed distance to a plane with unit normal n and
// offset d: f(p) = dot(n,p) - d.
type Plane struct {
	Normal r3.Vec
	Offset float64
}

// NewPlane returns a Plane implicit function. The normal is
// normalized at construction time so gradients are unit length.
func NewPlane(normal r3.Vec, offset float64) *Plane {
	n := r3.Norm(normal)
	if n == 0 {
		n = 1
	}
	return &Plane{Normal: r3.Scale(1/n, normal), Offset: offset}
}

// Evaluate returns the signed distance and the (constant) gradient.
func (p *Plane) Evaluate(x r3.Vec) Value {
	return Value{Val: r3.Dot(p.Normal, x) - p.Offset, Grad: p.Normal}
}
