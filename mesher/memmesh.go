package mesher

import "gonum.org/v1/gonum/spatial/r3"

// MeshVertex is a vertex stored by the in-memory reference mesh.
type MeshVertex struct {
	Pos r3.Vec
	// External is the identity tag supplied by the producer.
	External int
	Normal   r3.Vec
	// HasNormal reports whether Normal carries a producer estimate.
	HasNormal bool
}

// Mesh is an in-memory reference implementation of the Builder
// protocol. Handles are int indices. Insertions performed inside a
// Begin/End bracket become visible through the accessors only after
// End commits; an aborted batch leaves the previously committed
// contents untouched.
type Mesh struct {
	verts []MeshVertex
	faces [][3]int
	// committed prefix lengths.
	nv, nf   int
	building bool
}

// NewMesh returns an empty in-memory target mesh.
func NewMesh() *Mesh {
	return &Mesh{}
}

// Begin starts a staging batch, discarding any staged insertions left
// behind by an aborted batch.
func (m *Mesh) Begin() {
	m.verts = m.verts[:m.nv]
	m.faces = m.faces[:m.nf]
	m.building = true
}

// AddVertex stages a vertex and returns its int handle.
func (m *Mesh) AddVertex(pos r3.Vec, externalIndex int, normal *r3.Vec) VertexHandle {
	if !m.building {
		return -1
	}
	v := MeshVertex{Pos: pos, External: externalIndex}
	if normal != nil {
		v.Normal = *normal
		v.HasNormal = true
	}
	m.verts = append(m.verts, v)
	return len(m.verts) - 1
}

// AddFace stages a face referencing previously staged vertices.
func (m *Mesh) AddFace(v0, v1, v2 VertexHandle) FaceHandle {
	if !m.building {
		return -1
	}
	i0, ok0 := v0.(int)
	i1, ok1 := v1.(int)
	i2, ok2 := v2.(int)
	if !ok0 || !ok1 || !ok2 ||
		i0 < 0 || i0 >= len(m.verts) ||
		i1 < 0 || i1 >= len(m.verts) ||
		i2 < 0 || i2 >= len(m.verts) {
		return -1
	}
	m.faces = append(m.faces, [3]int{i0, i1, i2})
	return len(m.faces) - 1
}

// End commits the staged batch.
func (m *Mesh) End() {
	m.building = false
	m.nv = len(m.verts)
	m.nf = len(m.faces)
}

// IsValidVertex reports whether h references a staged vertex.
func (m *Mesh) IsValidVertex(h VertexHandle) bool {
	i, ok := h.(int)
	return ok && i >= 0 && i < len(m.verts)
}

// IsValidFace reports whether h references a staged face.
func (m *Mesh) IsValidFace(h FaceHandle) bool {
	i, ok := h.(int)
	return ok && i >= 0 && i < len(m.faces)
}

// Vertices returns the committed vertices.
func (m *Mesh) Vertices() []MeshVertex {
	return m.verts[:m.nv]
}

// Faces returns the committed faces as vertex index triples.
func (m *Mesh) Faces() [][3]int {
	return m.faces[:m.nf]
}
