package polygonize

import (
	"math"

	"github.com/soypat/implicit"
	"github.com/soypat/implicit/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ implicit.Field   = surfaceField{}
	_ kdtree.Interface = kdTriangles{}
	_ kdtree.Bounder   = kdTriangles{}
)

// NewSurfaceField turns a polygonized surface back into a field whose
// approximate signed distance is measured against the nearest surface
// triangle. The surface must not be empty.
func NewSurfaceField(s *Surface) implicit.Field {
	if s.IsEmpty() {
		panic("cannot build a field from an empty surface")
	}
	tris := make(kdTriangles, len(s.Triangles))
	for i := range tris {
		tris[i] = kdTriangle(s.Triangle(i))
	}
	tree := kdtree.New(tris, true)
	return surfaceField{tree: *tree}
}

type surfaceField struct {
	tree kdtree.Tree
}

// Evaluate returns the distance to the nearest triangle vertex, signed
// by which side of the triangle the point falls on.
func (s surfaceField) Evaluate(v r3.Vec) float64 {
	const eps = 1e-3
	triangle := s.nearest(v)
	minDist := math.MaxFloat64
	closest := r3.Vec{}
	for i := 0; i < 3; i++ {
		vDist := r3.Norm(r3.Sub(v, triangle.V[i]))
		if vDist < minDist {
			closest = triangle.V[i]
			minDist = vDist
		}
	}
	if minDist < eps {
		return 0
	}
	pointDir := r3.Sub(v, closest)
	n := triangle.Normal()
	alpha := math.Acos(r3.Cos(n, pointDir))
	return math.Copysign(minDist, math.Pi/2-alpha)
}

// nearest returns the triangle whose centroid is closest to the point.
func (s surfaceField) nearest(v r3.Vec) kdTriangle {
	got, _ := s.tree.Nearest(kdTriangle{
		V: [3]r3.Vec{v, v, v},
	})
	return got.(kdTriangle)
}

type kdTriangles []kdTriangle

type kdTriangle Triangle3

func (k kdTriangles) Index(i int) kdtree.Comparable {
	return k[i]
}

// Len returns the length of the list.
func (k kdTriangles) Len() int { return len(k) }

// Pivot partitions the list based on the dimension specified.
func (k kdTriangles) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: int(d), triangles: k}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (k kdTriangles) Slice(start, end int) kdtree.Interface {
	return k[start:end]
}

func (k kdTriangles) Bounds() *kdtree.Bounding {
	max := d3.Elem(-math.MaxFloat64)
	min := d3.Elem(math.MaxFloat64)
	for _, tri := range k {
		tbounds := tri.Bounds()
		tmin := tbounds.Min.(kdTriangle)
		tmax := tbounds.Max.(kdTriangle)
		min = d3.MinElem(min, tmin.V[0])
		max = d3.MaxElem(max, tmax.V[0])
	}
	return &kdtree.Bounding{
		Min: kdTriangle{V: [3]r3.Vec{min, min, min}},
		Max: kdTriangle{V: [3]r3.Vec{max, max, max}},
	}
}

// Compare returns the signed distance of a from the plane passing through
// b and perpendicular to the dimension d.
func (a kdTriangle) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return kdComp(a, b.(kdTriangle), int(d))
}

// Dims returns the number of dimensions described in the Comparable.
func (a kdTriangle) Dims() int {
	return 3
}

// Distance returns the squared Euclidean distance between the receiver and
// the parameter.
func (a kdTriangle) Distance(b kdtree.Comparable) float64 {
	return kdDist(a, b.(kdTriangle))
}

func (a kdTriangle) Bounds() *kdtree.Bounding {
	min := d3.MinElem(a.V[2], d3.MinElem(a.V[0], a.V[1]))
	max := d3.MaxElem(a.V[2], d3.MaxElem(a.V[0], a.V[1]))
	return &kdtree.Bounding{
		Min: kdTriangle{V: [3]r3.Vec{min, min, min}},
		Max: kdTriangle{V: [3]r3.Vec{max, max, max}},
	}
}

func (a kdTriangle) Normal() r3.Vec {
	return Triangle3(a).Normal()
}

// c = a.dim - b.dim
func kdComp(a, b kdTriangle, dim int) (c float64) {
	switch dim {
	case 0:
		c = (a.V[0].X + a.V[1].X + a.V[2].X) - (b.V[0].X + b.V[1].X + b.V[2].X)
	case 1:
		c = (a.V[0].Y + a.V[1].Y + a.V[2].Y) - (b.V[0].Y + b.V[1].Y + b.V[2].Y)
	case 2:
		c = (a.V[0].Z + a.V[1].Z + a.V[2].Z) - (b.V[0].Z + b.V[1].Z + b.V[2].Z)
	}
	return c / 3
}

// kdDist returns euclidean squared norm distance between triangle centroids.
func kdDist(a, b kdTriangle) (c float64) {
	ac := Triangle3(a).Centroid()
	bc := Triangle3(b).Centroid()
	return r3.Norm2(r3.Sub(ac, bc))
}

type kdPlane struct {
	dim       int
	triangles kdTriangles
}

func (p kdPlane) Less(i, j int) bool {
	return kdComp(p.triangles[i], p.triangles[j], p.dim) < 0
}
func (p kdPlane) Swap(i, j int) {
	p.triangles[i], p.triangles[j] = p.triangles[j], p.triangles[i]
}
func (p kdPlane) Len() int {
	return len(p.triangles)
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.triangles = p.triangles[start:end]
	return p
}
