package mesher

import (
	"fmt"

	"github.com/soypat/implicit/polygonize"
)

// Export walks a polygonized surface exactly once and drives the
// builder protocol: every vertex in emission order tagged with its
// emission index, then every triangle resolved to the captured vertex
// handles. The first rejected insertion aborts the export with an
// error and End is not called, so no partial mesh is committed.
// Exporting an empty surface performs an empty Begin/End batch and
// succeeds with zero stats.
func Export(s *polygonize.Surface, b Builder) (Stats, error) {
	if s == nil {
		panic("nil surface argument")
	}
	if b == nil {
		panic("nil builder argument")
	}
	b.Begin()
	handles := make([]VertexHandle, len(s.Vertices))
	for i := range s.Vertices {
		n := s.Vertices[i].Normal
		h := b.AddVertex(s.Vertices[i].Pos, i, &n)
		if !b.IsValidVertex(h) {
			return Stats{}, fmt.Errorf("mesher: target mesh rejected vertex %d of %d", i, len(s.Vertices))
		}
		handles[i] = h
	}
	for i, t := range s.Triangles {
		for _, vi := range t {
			if vi < 0 || vi >= len(handles) {
				return Stats{}, fmt.Errorf("mesher: triangle %d references vertex %d outside emitted range", i, vi)
			}
		}
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			return Stats{}, fmt.Errorf("mesher: triangle %d has repeated vertex indices", i)
		}
		fh := b.AddFace(handles[t[0]], handles[t[1]], handles[t[2]])
		if !b.IsValidFace(fh) {
			return Stats{}, fmt.Errorf("mesher: target mesh rejected face %d of %d", i, len(s.Triangles))
		}
	}
	b.End()
	return Stats{Vertices: len(s.Vertices), Triangles: len(s.Triangles)}, nil
}
