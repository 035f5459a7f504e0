package polygonize

import "gonum.org/v1/gonum/spatial/r3"

// V3i is a 3D integer lattice vector.
type V3i [3]int

// Add adds two vectors. Return v = a + b.
func (a V3i) Add(b V3i) V3i {
	return V3i{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// AddScalar adds a scalar to each component of the vector.
func (a V3i) AddScalar(b int) V3i {
	return V3i{a[0] + b, a[1] + b, a[2] + b}
}

// ToV3 converts V3i (integer) to r3.Vec (float).
func (a V3i) ToV3() r3.Vec {
	return r3.Vec{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])}
}

// Chebyshev returns the L-infinity norm of the vector.
func (a V3i) Chebyshev() int {
	c := absInt(a[0])
	if v := absInt(a[1]); v > c {
		c = v
	}
	if v := absInt(a[2]); v > c {
		c = v
	}
	return c
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// edgeKey identifies a lattice edge by its two corner coordinates
// stored in canonical (lexicographic) order. Crossing vertices are
// keyed by edge so cells sharing the edge reuse the same vertex.
type edgeKey struct {
	a, b V3i
}

func makeEdgeKey(a, b V3i) edgeKey {
	if lessV3i(b, a) {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

func lessV3i(a, b V3i) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
