package polygonize

import (
	"math"

	"github.com/soypat/implicit/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is a surface vertex with its estimated field normal.
type Vertex struct {
	Pos    r3.Vec
	Normal r3.Vec
}

// Surface is the indexed triangle approximation of an implicit surface.
// Vertices are stored in emission order and indices are never reused or
// renumbered after creation. Crossing vertices on lattice edges shared
// between cells appear exactly once.
type Surface struct {
	Vertices  []Vertex
	Triangles [][3]int
}

// IsEmpty returns true if the polygonizer found no zero crossing.
func (s *Surface) IsEmpty() bool {
	return len(s.Triangles) == 0
}

// Triangle returns the i-th surface triangle.
func (s *Surface) Triangle(i int) Triangle3 {
	t := s.Triangles[i]
	return Triangle3{V: [3]r3.Vec{
		s.Vertices[t[0]].Pos,
		s.Vertices[t[1]].Pos,
		s.Vertices[t[2]].Pos,
	}}
}

// Area returns the total surface area of the triangles.
func (s *Surface) Area() float64 {
	var area float64
	for i := range s.Triangles {
		area += s.Triangle(i).Area()
	}
	return area
}

// Bounds returns the axis aligned bounding box of the surface vertices.
// The zero box is returned for an empty surface.
func (s *Surface) Bounds() r3.Box {
	if len(s.Vertices) == 0 {
		return r3.Box{}
	}
	bb := d3.Box{Min: d3.Elem(math.MaxFloat64), Max: d3.Elem(-math.MaxFloat64)}
	for i := range s.Vertices {
		bb = bb.Include(s.Vertices[i].Pos)
	}
	return r3.Box(bb)
}

// Triangle3 is a 3D triangle.
type Triangle3 struct {
	V [3]r3.Vec
}

// Normal returns the unit normal vector of the triangle following the
// right hand rule on its winding.
func (t Triangle3) Normal() r3.Vec {
	e1 := r3.Sub(t.V[1], t.V[0])
	e2 := r3.Sub(t.V[2], t.V[0])
	return r3.Unit(r3.Cross(e1, e2))
}

// Area returns the surface area of the triangle.
func (t Triangle3) Area() float64 {
	e1 := r3.Sub(t.V[1], t.V[0])
	e2 := r3.Sub(t.V[2], t.V[0])
	return 0.5 * r3.Norm(r3.Cross(e1, e2))
}

// Centroid returns the mean of the triangle vertices.
func (t Triangle3) Centroid() r3.Vec {
	return r3.Scale(1./3., r3.Add(t.V[0], r3.Add(t.V[1], t.V[2])))
}

// Degenerate returns true if the triangle has two approximately
// coincident vertices.
func (t Triangle3) Degenerate(tol float64) bool {
	return d3.EqualWithin(t.V[0], t.V[1], tol) ||
		d3.EqualWithin(t.V[1], t.V[2], tol) ||
		d3.EqualWithin(t.V[2], t.V[0], tol)
}
