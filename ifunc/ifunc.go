// Package ifunc provides concrete implicit functions — the external
// collaborator the refinement engine's core treats as an opaque
// value+gradient callable. It also parses the JSON function-file
// format of spec.md §6.
package ifunc

import (
	"fmt"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/spatial/r3"
)

// Value is one implicit function's value and gradient at a point: the
// quadruple (value, grad_x, grad_y, grad_z) of spec.md §3.
type Value struct {
	Val  float64
	Grad r3.Vec
}

// Function is a smooth scalar field with a gradient (analytic for
// Sphere, Plane and Cylinder; a central finite difference for Torus
// and Generic).
type Function interface {
	Evaluate(p r3.Vec) Value
}

// Evaluator is the opaque per-vertex callable the refinement engine
// consumes: given a point, return one Value per configured function.
type Evaluator func(p r3.Vec) []Value

// NewEvaluator adapts a concrete list of Functions into the Evaluator
// shape the engine expects.
func NewEvaluator(fns []Function) Evaluator {
	return func(p r3.Vec) []Value {
		out := make([]Value, len(fns))
		for i, f := range fns {
			out[i] = f.Evaluate(p)
		}
		return out
	}
}

// spec is the on-disk JSON shape of one function-file entry: a
// subtype tag plus subtype-specific parameters.
type spec struct {
	Type   string    `json:"type"`
	Center [3]float64 `json:"center,omitempty"`
	Normal [3]float64 `json:"normal,omitempty"`
	Offset float64    `json:"offset,omitempty"`
	Radius float64    `json:"radius,omitempty"`
	MinorRadius float64 `json:"minor_radius,omitempty"`
	Axis   [3]float64 `json:"axis,omitempty"`
	Expr   string     `json:"expr,omitempty"`
}

// LoadFunctions parses the JSON function-list file format of spec.md
// §6 into concrete Functions.
func LoadFunctions(data []byte) ([]Function, error) {
	var specs []spec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("ifunc: LoadFunctions: %w", err)
	}
	fns := make([]Function, 0, len(specs))
	for i, s := range specs {
		f, err := build(s)
		if err != nil {
			return nil, fmt.Errorf("ifunc: LoadFunctions: function %d: %w", i, err)
		}
		fns = append(fns, f)
	}
	return fns, nil
}

func build(s spec) (Function, error) {
	switch s.Type {
	case "sphere":
		return NewSphere(vec(s.Center), s.Radius), nil
	case "plane":
		return NewPlane(vec(s.Normal), s.Offset), nil
	case "cylinder":
		return NewCylinder(vec(s.Center), vec(s.Axis), s.Radius), nil
	case "torus":
		return NewTorus(vec(s.Center), vec(s.Axis), s.Radius, s.MinorRadius), nil
	case "generic":
		return NewGeneric(s.Expr)
	default:
		return nil, fmt.Errorf("ifunc: unknown function subtype %q", s.Type)
	}
}

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }
