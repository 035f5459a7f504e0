package polygonize

import "testing"

func TestMarchingCubesTables(t *testing.T) {
	max := 0
	for i, tri := range mcTriangleTable {
		if len(tri)%3 != 0 {
			t.Errorf("case %d: %d edge indices, not a whole number of triangles", i, len(tri))
		}
		if len(tri) > max {
			max = len(tri)
		}
		for _, e := range tri {
			if e < 0 || e > 11 {
				t.Errorf("case %d: edge index %d out of range", i, e)
			}
		}
	}
	if max/3 != marchingCubesMaxTriangles {
		t.Errorf("max triangles per cube %d, table says %d", marchingCubesMaxTriangles, max/3)
	}
	if len(mcTriangleTable[0]) != 0 || len(mcTriangleTable[0xff]) != 0 {
		t.Error("uniform-sign cases must produce no triangles")
	}
}

// Every edge selected by a case must join two corners on opposite
// sides of the surface, and a case and its complement must cut the
// same edges.
func TestMarchingCubesEdgeConsistency(t *testing.T) {
	for i := 0; i < 256; i++ {
		if mcEdgeTable[i] != mcEdgeTable[0xff^i] {
			t.Errorf("case %d and complement %d select different edge sets", i, 0xff^i)
		}
		for e := 0; e < 12; e++ {
			if mcEdgeTable[i]&(1<<uint(e)) == 0 {
				continue
			}
			c0, c1 := cubeEdges[e][0], cubeEdges[e][1]
			if (i>>uint(c0))&1 == (i>>uint(c1))&1 {
				t.Errorf("case %d cuts edge %d whose corners %d,%d have the same sign", i, e, c0, c1)
			}
		}
	}
}

func TestKuhnTetrahedra(t *testing.T) {
	// All six tetrahedra share the main diagonal 0-6 and each cube
	// corner appears in at least one tetrahedron.
	var seen [8]bool
	for i, tet := range kuhnTets {
		has0, has6 := false, false
		for _, c := range tet {
			seen[c] = true
			has0 = has0 || c == 0
			has6 = has6 || c == 6
		}
		if !has0 || !has6 {
			t.Errorf("tetrahedron %d %v does not contain the main diagonal", i, tet)
		}
	}
	for c, ok := range seen {
		if !ok {
			t.Errorf("corner %d unused by tetrahedral decomposition", c)
		}
	}
}

func TestEdgeKeyCanonical(t *testing.T) {
	a := V3i{1, 2, 3}
	b := V3i{0, 2, 3}
	if makeEdgeKey(a, b) != makeEdgeKey(b, a) {
		t.Error("edge key depends on argument order")
	}
	k := makeEdgeKey(a, b)
	if !lessV3i(k.a, k.b) {
		t.Error("edge key endpoints not in canonical order")
	}
}
