// Package mesher exports polygonization results into caller owned mesh
// structures through an incremental build protocol, and adapts quality
// Delaunay refinement engines behind the same export contract.
package mesher

import "gonum.org/v1/gonum/spatial/r3"

// VertexHandle is an opaque vertex reference issued by a Builder. The
// exporter never inspects handles beyond validity checks.
type VertexHandle interface{}

// FaceHandle is an opaque face reference issued by a Builder.
type FaceHandle interface{}

// Builder is the incremental build protocol of a target mesh. Begin and
// End bracket a batch of insertions; End is only called if every
// insertion in the batch succeeded, so a target never sees a partial
// batch committed. An insertion failure is signalled by returning a
// handle for which the corresponding validity check is false.
//
// The builder is exclusively owned by one export call for its whole
// duration.
type Builder interface {
	Begin()
	// AddVertex inserts a vertex at pos. externalIndex is the vertex
	// identity tag assigned by the producer (the emission index for
	// polygonized surfaces). normal may be nil when the producer has no
	// normal estimate.
	AddVertex(pos r3.Vec, externalIndex int, normal *r3.Vec) VertexHandle
	AddFace(v0, v1, v2 VertexHandle) FaceHandle
	End()
	IsValidVertex(h VertexHandle) bool
	IsValidFace(h FaceHandle) bool
}

// Stats reports the insertions performed by a successful export.
// Informational only.
type Stats struct {
	Vertices  int
	Triangles int
}
