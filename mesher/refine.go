package mesher

import (
	"fmt"
	"math"

	"github.com/soypat/implicit"
	"gonum.org/v1/gonum/spatial/r3"
)

// Quality Delaunay-refinement meshing (Boissonnat-Oudot) through an
// external engine. This package only adapts the field and bounding
// volume into the engine's domain and criteria and exports the
// triangulation complex it returns; the refinement algorithm itself is
// not implemented here.

// QualityOptions are the facet quality thresholds of a refinement
// meshing call. Each field at or below zero selects the default.
type QualityOptions struct {
	// MinFacetAngle is the minimum facet angle in radians.
	// Default 30 degrees.
	MinFacetAngle float64
	// MinDelaunayRadius is the minimum radius of surface Delaunay
	// balls, in scene units. Default 0.1.
	MinDelaunayRadius float64
	// MinCenterSeparation is the minimum facet center-center distance,
	// in scene units. Default 0.1.
	MinCenterSeparation float64
}

// cellRadiusEdgeRatio is the fixed cell shape criterion handed to the
// engine.
const cellRadiusEdgeRatio = 2.0

// Domain is the labeled meshing domain handed to the engine: the field
// defines inside (negative) and the ball is a hard boundary.
type Domain struct {
	Field implicit.Field
	Bound implicit.Ball
}

// Criteria are the refinement criteria handed to the engine. FacetAngle
// is in degrees, as refinement engines conventionally expect.
type Criteria struct {
	FacetAngle          float64
	FacetSize           float64
	FacetDistance       float64
	CellRadiusEdgeRatio float64
}

// VertexRef is a stable reference to a triangulation vertex. Engine
// implementations must use comparable values: references are used as
// map keys to associate vertices with their builder handles.
type VertexRef interface {
	Point() r3.Vec
}

// CellRef is a reference to a tetrahedral cell of the triangulation.
type CellRef interface {
	// Vertex returns the cell vertex in slot i, 0 to 3.
	Vertex(i int) VertexRef
}

// Facet identifies a surface triangle of the complex: the face of Cell
// opposite the vertex in slot Opposite.
type Facet struct {
	Cell     CellRef
	Opposite int
}

// Complex is the triangulation-plus-surface structure produced by the
// engine. FiniteVertices carries no ordering guarantee.
type Complex interface {
	FiniteVertices() []VertexRef
	FacetsInComplex() []Facet
}

// Engine is the external Delaunay refinement implementation.
type Engine interface {
	Mesh(d Domain, c Criteria) (Complex, error)
}

// MeshQuality meshes the zero level set of f inside bound using an
// external refinement engine and exports the result into b. The field
// must evaluate negative at the bound center; violating that is a
// caller contract violation and panics at this boundary rather than
// producing undefined engine behavior.
func MeshQuality(f implicit.Field, bound implicit.Ball, e Engine, opts QualityOptions, b Builder) (Stats, error) {
	if f == nil {
		panic("nil field argument")
	}
	if e == nil {
		panic("nil refinement engine argument")
	}
	if b == nil {
		panic("nil builder argument")
	}
	if f.Evaluate(bound.Center) >= 0 {
		panic("field must evaluate negative at the bounding ball center")
	}
	criteria := Criteria{
		FacetAngle:          30,
		FacetSize:           0.1,
		FacetDistance:       0.1,
		CellRadiusEdgeRatio: cellRadiusEdgeRatio,
	}
	if opts.MinFacetAngle > 0 {
		criteria.FacetAngle = opts.MinFacetAngle * 180 / math.Pi
	}
	if opts.MinDelaunayRadius > 0 {
		criteria.FacetSize = opts.MinDelaunayRadius
	}
	if opts.MinCenterSeparation > 0 {
		criteria.FacetDistance = opts.MinCenterSeparation
	}
	c, err := e.Mesh(Domain{Field: f, Bound: bound}, criteria)
	if err != nil {
		return Stats{}, fmt.Errorf("mesher: refinement engine: %w", err)
	}
	return ExportComplex(c, b)
}

// ExportComplex drives the builder protocol from a refinement complex:
// all finite vertices first, remembering the vertex-to-handle
// association, then every facet in complex reading the three cell
// vertices not opposite the facet in ascending slot order. Abort
// semantics match Export.
func ExportComplex(c Complex, b Builder) (Stats, error) {
	if c == nil {
		panic("nil complex argument")
	}
	if b == nil {
		panic("nil builder argument")
	}
	b.Begin()
	verts := c.FiniteVertices()
	vmap := make(map[VertexRef]VertexHandle, len(verts))
	for i, v := range verts {
		h := b.AddVertex(v.Point(), i, nil)
		if !b.IsValidVertex(h) {
			return Stats{}, fmt.Errorf("mesher: target mesh rejected vertex %d of %d from refinement complex", i, len(verts))
		}
		vmap[v] = h
	}
	facets := c.FacetsInComplex()
	for i, facet := range facets {
		if facet.Opposite < 0 || facet.Opposite > 3 {
			return Stats{}, fmt.Errorf("mesher: facet %d has opposite vertex slot %d outside 0-3", i, facet.Opposite)
		}
		var handles [3]VertexHandle
		j := 0
		for slot := 0; slot < 4; slot++ {
			if slot == facet.Opposite {
				continue
			}
			vr := facet.Cell.Vertex(slot)
			h, ok := vmap[vr]
			if !ok {
				// engine internal inconsistency: the facet references a
				// vertex it never declared.
				return Stats{}, fmt.Errorf("mesher: facet %d references a vertex missing from the complex vertex set", i)
			}
			handles[j] = h
			j++
		}
		fh := b.AddFace(handles[0], handles[1], handles[2])
		if !b.IsValidFace(fh) {
			return Stats{}, fmt.Errorf("mesher: target mesh rejected facet %d of %d from refinement complex", i, len(facets))
		}
	}
	b.End()
	return Stats{Vertices: len(verts), Triangles: len(facets)}, nil
}
