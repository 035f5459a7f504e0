// Package polygonize converts implicit surfaces to indexed triangle
// meshes by propagating a front of cubical cells from a seed point
// known to lie near the surface (Bloomenthal's method).
package polygonize

import (
	"errors"

	"github.com/soypat/implicit"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	defaultSearchSteps   = 10
	defaultTriangleLimit = 1 << 22
)

// ErrTriangleLimit is returned when the safety valve of
// Options.TriangleLimit trips. The truncated surface is still returned.
var ErrTriangleLimit = errors.New("polygonize: triangle limit exceeded")

// Options configures a polygonization call. The zero value selects
// defaults for every field.
type Options struct {
	// CellSize is the edge length of the marching cell. Smaller cells
	// trade computation for fidelity. If zero or negative the cell size
	// is derived as a tenth of the bounding ball radius.
	CellSize float64
	// MaxSearchSteps bounds how far the cell front may propagate from
	// the seed cell, in lattice cells per axis. Cells beyond the bound
	// are never visited nor evaluated. If zero or negative 10 is used.
	MaxSearchSteps int
	// TetrahedralizeCubes splits each straddling cube into 6 tetrahedra
	// before surface extraction. Finer triangulation, more evaluations.
	TetrahedralizeCubes bool
	// TriangleLimit stops the march once this many triangles have been
	// emitted and returns ErrTriangleLimit together with the truncated
	// surface. The search-step bound already caps total work, this is a
	// second valve for dense fields at small cell sizes. If zero or
	// negative 1<<22 is used.
	TriangleLimit int
}

// Polygonize approximates the zero level set of f by an indexed
// triangle surface. seed should lie on or near the surface; bound is
// advisory and only sets the default cell size. A field with no zero
// crossing reachable from the seed yields an empty surface and nil
// error.
func Polygonize(f implicit.Field, bound implicit.Ball, seed r3.Vec, opts Options) (*Surface, error) {
	if f == nil {
		panic("nil field argument")
	}
	cell := opts.CellSize
	if cell <= 0 {
		cell = bound.R / 10
	}
	if cell <= 0 {
		panic("cell size must be positive: set Options.CellSize or the bounding ball radius")
	}
	steps := opts.MaxSearchSteps
	if steps <= 0 {
		steps = defaultSearchSteps
	}
	limit := opts.TriangleLimit
	if limit <= 0 {
		limit = defaultTriangleLimit
	}
	m := marcher{
		f:    f,
		cell: cell,
		// center the seed in the lattice cell at the origin.
		origin:  r3.Sub(seed, r3.Vec{X: cell / 2, Y: cell / 2, Z: cell / 2}),
		eps:     cell / 100,
		bounds:  steps,
		tet:     opts.TetrahedralizeCubes,
		limit:   limit,
		values:  make(map[V3i]float64),
		edges:   make(map[edgeKey]int),
		corners: make(map[V3i]int),
		visited: make(map[V3i]struct{}),
	}
	return m.march()
}

// marcher holds the state of one front propagation. Not safe for
// concurrent use; one meshing call owns it for its whole duration.
type marcher struct {
	f      implicit.Field
	origin r3.Vec  // position of lattice coordinate (0,0,0)
	cell   float64 // lattice spacing
	eps    float64 // finite difference step for vertex normals
	bounds int     // Chebyshev propagation bound around the seed cell
	tet    bool
	limit  int

	values  map[V3i]float64  // cache of corner evaluations
	edges   map[edgeKey]int  // crossing vertex per lattice edge
	corners map[V3i]int      // crossing vertex pinned to a lattice corner
	visited map[V3i]struct{} // cells already queued or processed
	todo    []V3i            // cell work queue
	surf    Surface
}

// neighbors6 are the face-adjacent lattice offsets.
var neighbors6 = [6]V3i{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// march runs the front propagation to completion. Until the first
// straddling cell is found the front floods outward from the seed cell
// (the seed may not have been on the surface); from then on only cells
// adjacent to straddling cells propagate, so the visited set stays
// proportional to the surface area. Both phases are clipped to the
// Chebyshev box set by MaxSearchSteps, which keeps total work finite
// even for pathological fields.
func (m *marcher) march() (*Surface, error) {
	found := false
	start := V3i{}
	m.visited[start] = struct{}{}
	m.todo = append(m.todo, start)
	for len(m.todo) > 0 {
		c := m.todo[0]
		m.todo = m.todo[1:] // leaks backing array, short lived
		straddles := m.processCell(c)
		if len(m.surf.Triangles) >= m.limit {
			return &m.surf, ErrTriangleLimit
		}
		if straddles {
			found = true
		} else if found {
			// Seek phase over: non straddling cells stop propagating.
			continue
		}
		for _, d := range neighbors6 {
			n := c.Add(d)
			if n.Chebyshev() > m.bounds {
				continue
			}
			if _, ok := m.visited[n]; ok {
				continue
			}
			m.visited[n] = struct{}{}
			m.todo = append(m.todo, n)
		}
	}
	return &m.surf, nil
}

// processCell evaluates the 8 cell corners and extracts triangles if
// the corner signs differ. Reports whether the cell straddles the
// surface.
func (m *marcher) processCell(c V3i) (straddles bool) {
	var pos [8]r3.Vec
	var val [8]float64
	index := 0
	for i, off := range cubeCorners {
		vi := c.Add(off)
		pos[i] = m.corner(vi)
		val[i] = m.value(vi, pos[i])
		if val[i] < 0 {
			index |= 1 << uint(i)
		}
	}
	if index == 0 || index == 0xff {
		return false
	}
	if m.tet {
		for _, tet := range kuhnTets {
			m.polygonizeTet(c, tet, &pos, &val)
		}
	} else {
		m.polygonizeCube(c, index, &pos, &val)
	}
	return true
}

// corner returns the position of a lattice corner.
func (m *marcher) corner(vi V3i) r3.Vec {
	return r3.Add(m.origin, r3.Scale(m.cell, vi.ToV3()))
}

// value evaluates the field at a lattice corner through the value
// cache. Corners are shared by up to 8 cells so roughly 7 of 8 lookups
// hit the cache once the front is rolling.
func (m *marcher) value(vi V3i, p r3.Vec) float64 {
	if d, ok := m.values[vi]; ok {
		return d
	}
	d := m.f.Evaluate(p)
	m.values[vi] = d
	return d
}

// polygonizeCube emits the marching cubes triangles of a straddling
// cell.
func (m *marcher) polygonizeCube(c V3i, index int, pos *[8]r3.Vec, val *[8]float64) {
	var everts [12]int
	bits := mcEdgeTable[index]
	for e := 0; e < 12; e++ {
		if bits&(1<<uint(e)) == 0 {
			continue
		}
		m.checkCrossing(val[cubeEdges[e][0]], val[cubeEdges[e][1]])
		everts[e] = m.edgeVertex(c, cubeEdges[e][0], cubeEdges[e][1], pos, val)
	}
	tris := mcTriangleTable[index]
	for i := 0; i < len(tris); i += 3 {
		m.emit(everts[tris[i]], everts[tris[i+1]], everts[tris[i+2]])
	}
}

func (m *marcher) checkCrossing(v0, v1 float64) {
	if (v0 < 0) == (v1 < 0) {
		panic("bug: marching cubes tables selected an edge without sign change")
	}
}

// polygonizeTet emits the marching tetrahedra triangles of one Kuhn
// tetrahedron of a straddling cell.
func (m *marcher) polygonizeTet(c V3i, tet [4]int, pos *[8]r3.Vec, val *[8]float64) {
	var in, out [4]int
	ni, no := 0, 0
	for _, ci := range tet {
		if val[ci] < 0 {
			in[ni] = ci
			ni++
		} else {
			out[no] = ci
			no++
		}
	}
	switch ni {
	case 0, 4:
		// no crossing within this tetrahedron.
	case 1:
		v0 := m.edgeVertex(c, in[0], out[0], pos, val)
		v1 := m.edgeVertex(c, in[0], out[1], pos, val)
		v2 := m.edgeVertex(c, in[0], out[2], pos, val)
		m.emit(v0, v1, v2)
	case 3:
		v0 := m.edgeVertex(c, in[0], out[0], pos, val)
		v1 := m.edgeVertex(c, in[1], out[0], pos, val)
		v2 := m.edgeVertex(c, in[2], out[0], pos, val)
		m.emit(v0, v1, v2)
	case 2:
		// crossing is a quad, split into two triangles.
		v0 := m.edgeVertex(c, in[0], out[0], pos, val)
		v1 := m.edgeVertex(c, in[0], out[1], pos, val)
		v2 := m.edgeVertex(c, in[1], out[1], pos, val)
		v3 := m.edgeVertex(c, in[1], out[0], pos, val)
		m.emit(v0, v1, v2)
		m.emit(v0, v2, v3)
	}
}

// edgeVertex returns the index of the crossing vertex on the cell edge
// joining corners i0 and i1, interpolating and emitting it on first
// use. The edge key is global to the lattice so cells sharing the edge
// share the vertex. A crossing landing exactly on a lattice corner
// (the field is zero there) is keyed by the corner instead: every edge
// through that corner then resolves to one vertex, and a triangle
// degenerating onto it collapses to repeated indices rather than
// leaving coincident duplicates behind.
func (m *marcher) edgeVertex(c V3i, i0, i1 int, pos *[8]r3.Vec, val *[8]float64) int {
	a := c.Add(cubeCorners[i0])
	b := c.Add(cubeCorners[i1])
	k := makeEdgeKey(a, b)
	if idx, ok := m.edges[k]; ok {
		return idx
	}
	v0, v1 := val[i0], val[i1]
	t := 0.5
	if v0 != v1 {
		t = v0 / (v0 - v1)
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	var idx int
	switch t {
	case 0:
		idx = m.cornerVertex(a, pos[i0])
	case 1:
		idx = m.cornerVertex(b, pos[i1])
	default:
		p := r3.Add(pos[i0], r3.Scale(t, r3.Sub(pos[i1], pos[i0])))
		idx = len(m.surf.Vertices)
		m.surf.Vertices = append(m.surf.Vertices, Vertex{
			Pos:    p,
			Normal: implicit.Normal(m.f, p, m.eps),
		})
	}
	m.edges[k] = idx
	return idx
}

// cornerVertex returns the crossing vertex pinned to a lattice corner,
// emitting it on first use.
func (m *marcher) cornerVertex(vi V3i, p r3.Vec) int {
	if idx, ok := m.corners[vi]; ok {
		return idx
	}
	idx := len(m.surf.Vertices)
	m.surf.Vertices = append(m.surf.Vertices, Vertex{
		Pos:    p,
		Normal: implicit.Normal(m.f, p, m.eps),
	})
	m.corners[vi] = idx
	return idx
}

// emit appends a triangle wound so its geometric normal agrees with the
// field gradient at its vertices, giving outward faces for
// inside-negative fields. Degenerate triangles are dropped.
func (m *marcher) emit(i0, i1, i2 int) {
	if i0 == i1 || i1 == i2 || i2 == i0 {
		return
	}
	v := m.surf.Vertices
	geom := r3.Cross(
		r3.Sub(v[i1].Pos, v[i0].Pos),
		r3.Sub(v[i2].Pos, v[i0].Pos),
	)
	if r3.Norm2(geom) == 0 {
		// collinear crossings, zero area.
		return
	}
	grad := r3.Add(v[i0].Normal, r3.Add(v[i1].Normal, v[i2].Normal))
	if r3.Dot(geom, grad) < 0 {
		i1, i2 = i2, i1
	}
	m.surf.Triangles = append(m.surf.Triangles, [3]int{i0, i1, i2})
}
