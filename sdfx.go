package implicit

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// FromSDFX adapts a github.com/deadsy/sdfx model to the Field
// interface so existing CAD models can be polygonized directly.
func FromSDFX(s sdf.SDF3) Field {
	if s == nil {
		panic("nil sdfx SDF3 argument")
	}
	return FieldFunc(func(p r3.Vec) float64 {
		return s.Evaluate(sdf.V3{X: p.X, Y: p.Y, Z: p.Z})
	})
}

// BoundFromSDFX returns the ball circumscribing the bounding box of an
// sdfx model, suitable as the bounding volume of a meshing call.
func BoundFromSDFX(s sdf.SDF3) Ball {
	if s == nil {
		panic("nil sdfx SDF3 argument")
	}
	bb := s.BoundingBox()
	size := bb.Max.Sub(bb.Min)
	center := bb.Min.Add(size.MulScalar(0.5))
	return Ball{
		Center: r3.Vec{X: center.X, Y: center.Y, Z: center.Z},
		R:      0.5 * math.Sqrt(size.X*size.X+size.Y*size.Y+size.Z*size.Z),
	}
}
