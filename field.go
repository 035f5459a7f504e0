// Package implicit provides scalar field abstractions for meshing
// implicit surfaces. An implicit surface is the zero level set of a
// field F: points with F < 0 are inside the solid, F > 0 outside and
// F == 0 lie on the surface. The polygonize and mesher packages turn
// fields into explicit triangle meshes.
package implicit

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Field is the interface to a scalar field over 3D space.
type Field interface {
	// Evaluate takes a point in 3D space as input and returns the
	// field value at that point. The value is negative if the point
	// is inside the surface, positive outside.
	Evaluate(p r3.Vec) float64
}

// FieldFunc adapts an ordinary function to the Field interface.
type FieldFunc func(p r3.Vec) float64

// Evaluate calls f(p).
func (f FieldFunc) Evaluate(p r3.Vec) float64 { return f(p) }

// NewField wraps a field function for use by the meshing strategies.
// The adapter holds no state of its own: it is safe to share across
// goroutines exactly when f is.
func NewField(f func(p r3.Vec) float64) Field {
	if f == nil {
		panic("nil field function")
	}
	return FieldFunc(f)
}

// Ball is a bounding sphere constraining a surface search.
type Ball struct {
	Center r3.Vec
	R      float64
}

// Box returns the axis aligned box circumscribing the ball.
func (b Ball) Box() r3.Box {
	d := r3.Vec{X: b.R, Y: b.R, Z: b.R}
	return r3.Box{Min: r3.Sub(b.Center, d), Max: r3.Add(b.Center, d)}
}

// Contains returns true if p lies within the ball (boundary included).
func (b Ball) Contains(p r3.Vec) bool {
	return r3.Norm2(r3.Sub(p, b.Center)) <= b.R*b.R
}

// Normal returns the unit normal of a field at a point (doesn't need to
// be on the surface). Computed by sampling the field several times
// inside a box of side 2*eps centered on p.
func Normal(f Field, p r3.Vec, eps float64) r3.Vec {
	return r3.Unit(r3.Vec{
		X: f.Evaluate(r3.Add(p, r3.Vec{X: eps})) - f.Evaluate(r3.Add(p, r3.Vec{X: -eps})),
		Y: f.Evaluate(r3.Add(p, r3.Vec{Y: eps})) - f.Evaluate(r3.Add(p, r3.Vec{Y: -eps})),
		Z: f.Evaluate(r3.Add(p, r3.Vec{Z: eps})) - f.Evaluate(r3.Add(p, r3.Vec{Z: -eps})),
	})
}

// Sphere returns the field of a sphere of radius r centered at the
// origin. Useful as a test field with a known zero set.
func Sphere(r float64) Field {
	if r <= 0 {
		panic("sphere radius must be positive")
	}
	return FieldFunc(func(p r3.Vec) float64 {
		return r3.Norm(p) - r
	})
}
