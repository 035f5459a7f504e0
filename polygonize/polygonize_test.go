package polygonize_test

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	sdfxrender "github.com/deadsy/sdfx/render"
	"github.com/soypat/implicit"
	"github.com/soypat/implicit/internal/d3"
	"github.com/soypat/implicit/polygonize"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	sphereRadius = 1.0
	sphereArea   = 4 * math.Pi * sphereRadius * sphereRadius
)

func sphereOptions(cell float64) polygonize.Options {
	return polygonize.Options{
		CellSize: cell,
		// The sphere spans 2*radius from a seed on its equator, give
		// the front room to walk around it.
		MaxSearchSteps: int(2.2 * sphereRadius / cell),
	}
}

func polygonizeSphere(t testing.TB, opts polygonize.Options) *polygonize.Surface {
	t.Helper()
	bound := implicit.Ball{R: 1.5 * sphereRadius}
	seed := r3.Vec{X: sphereRadius}
	s, err := polygonize.Polygonize(implicit.Sphere(sphereRadius), bound, seed, opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSphereSurface(t *testing.T) {
	const cell = 0.1
	s := polygonizeSphere(t, sphereOptions(cell))
	if s.IsEmpty() {
		t.Fatal("expected non-empty surface")
	}
	if nt := len(s.Triangles); nt < 500 || nt > 10000 {
		t.Errorf("unexpected triangle count %d for cell size %g", nt, cell)
	}
	for i, v := range s.Vertices {
		if d := math.Abs(r3.Norm(v.Pos) - sphereRadius); d > cell {
			t.Fatalf("vertex %d is %g from the analytic surface, more than one cell", i, d)
		}
	}
	for i := range s.Triangles {
		tri := s.Triangle(i)
		if tri.Degenerate(1e-12) {
			t.Fatalf("triangle %d is degenerate", i)
		}
		out := r3.Unit(tri.Centroid())
		if r3.Dot(tri.Normal(), out) <= 0 {
			t.Fatalf("triangle %d normal does not point outward", i)
		}
	}
	size := d3.Box(s.Bounds()).Size()
	for _, side := range []float64{size.X, size.Y, size.Z} {
		if math.Abs(side-2*sphereRadius) > 2*cell {
			t.Errorf("bounding box side %g, want close to sphere diameter %g", side, 2*sphereRadius)
		}
	}
	checkClosed(t, s)
}

// checkClosed verifies the triangle set is watertight and consistently
// oriented: every directed edge must appear exactly once, paired with
// its reverse.
func checkClosed(t *testing.T, s *polygonize.Surface) {
	t.Helper()
	edges := make(map[[2]int]int)
	for _, tri := range s.Triangles {
		for i := 0; i < 3; i++ {
			e := [2]int{tri[i], tri[(i+1)%3]}
			edges[e]++
		}
	}
	for e, n := range edges {
		if n != 1 {
			t.Fatalf("directed edge %v appears %d times, want 1", e, n)
		}
		if edges[[2]int{e[1], e[0]}] != 1 {
			t.Fatalf("directed edge %v has no reverse: surface not closed", e)
		}
	}
}

func TestSphereAreaConvergence(t *testing.T) {
	for _, tc := range []struct {
		cell float64
		rtol float64
	}{
		{cell: 0.1, rtol: 0.05},
		{cell: 0.05, rtol: 0.02},
	} {
		s := polygonizeSphere(t, sphereOptions(tc.cell))
		got := s.Area()
		rel := math.Abs(got-sphereArea) / sphereArea
		if rel > tc.rtol {
			t.Errorf("cell %g: surface area %g, want %g within %g (got relative error %g)",
				tc.cell, got, sphereArea, tc.rtol, rel)
		}
		t.Logf("cell %g: %d triangles, area error %.4f", tc.cell, len(s.Triangles), rel)
	}
}

func TestSphereTetrahedralized(t *testing.T) {
	opts := sphereOptions(0.1)
	opts.TetrahedralizeCubes = true
	s := polygonizeSphere(t, opts)
	if s.IsEmpty() {
		t.Fatal("expected non-empty surface")
	}
	cubes := polygonizeSphere(t, sphereOptions(0.1))
	if len(s.Triangles) <= len(cubes.Triangles) {
		t.Errorf("tetrahedralized extraction gave %d triangles, cube extraction %d: expected finer triangulation",
			len(s.Triangles), len(cubes.Triangles))
	}
	rel := math.Abs(s.Area()-sphereArea) / sphereArea
	if rel > 0.05 {
		t.Errorf("surface area relative error %g too large", rel)
	}
	checkClosed(t, s)
}

func TestPlaneVertices(t *testing.T) {
	// f is linear so edge interpolation places vertices exactly on the
	// plane z=0.
	f := implicit.NewField(func(p r3.Vec) float64 { return p.Z })
	s, err := polygonize.Polygonize(f, implicit.Ball{R: 1}, r3.Vec{}, polygonize.Options{
		CellSize:       0.25,
		MaxSearchSteps: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.IsEmpty() {
		t.Fatal("expected non-empty surface")
	}
	for i, v := range s.Vertices {
		if math.Abs(v.Pos.Z) > 1e-12 {
			t.Fatalf("vertex %d not on plane: z=%g", i, v.Pos.Z)
		}
		if r3.Dot(v.Normal, r3.Vec{Z: 1}) < 0.99 {
			t.Fatalf("vertex %d normal %v not +z", i, v.Normal)
		}
	}
}

func TestLatticeAlignedSurface(t *testing.T) {
	// Octahedron |x|+|y|+|z| = r with the lattice aligned so the
	// surface passes exactly through lattice corners. Crossings then
	// pin to the same corner from several edge directions and must
	// collapse to one vertex for the surface to stay closed.
	const (
		r    = 0.75
		cell = 0.25
	)
	f := implicit.NewField(func(p r3.Vec) float64 {
		return math.Abs(p.X) + math.Abs(p.Y) + math.Abs(p.Z) - r
	})
	seed := r3.Vec{X: cell / 2, Y: cell / 2, Z: cell / 2}
	for _, tet := range []bool{false, true} {
		s, err := polygonize.Polygonize(f, implicit.Ball{R: 1}, seed, polygonize.Options{
			CellSize:            cell,
			MaxSearchSteps:      6,
			TetrahedralizeCubes: tet,
		})
		if err != nil {
			t.Fatal(err)
		}
		if s.IsEmpty() {
			t.Fatalf("tet=%v: expected non-empty surface", tet)
		}
		seen := make(map[r3.Vec]int)
		for i, v := range s.Vertices {
			if j, ok := seen[v.Pos]; ok {
				t.Fatalf("tet=%v: vertices %d and %d share position %v", tet, i, j, v.Pos)
			}
			seen[v.Pos] = i
		}
		checkClosed(t, s)
		want := 4 * math.Sqrt(3) * r * r
		if rel := math.Abs(s.Area()-want) / want; rel > 0.02 {
			t.Errorf("tet=%v: surface area %g, want %g within 2%%", tet, s.Area(), want)
		}
	}
}

func TestNoSurfaceFound(t *testing.T) {
	// strictly positive field: no zero set anywhere.
	f := implicit.NewField(func(p r3.Vec) float64 { return r3.Norm(p) + 1 })
	s, err := polygonize.Polygonize(f, implicit.Ball{R: 1}, r3.Vec{}, polygonize.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsEmpty() || len(s.Vertices) != 0 {
		t.Errorf("want empty surface, got %d vertices %d triangles", len(s.Vertices), len(s.Triangles))
	}
}

func TestSurfaceOutOfReach(t *testing.T) {
	// zero set exists but further from the seed than the step bound
	// allows: legitimate empty result, not an error.
	f := implicit.Sphere(sphereRadius)
	seed := r3.Vec{X: 10 * sphereRadius}
	s, err := polygonize.Polygonize(f, implicit.Ball{R: 1}, seed, polygonize.Options{
		CellSize:       0.1,
		MaxSearchSteps: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsEmpty() {
		t.Errorf("surface out of reach should give empty result, got %d triangles", len(s.Triangles))
	}
}

func TestSeedOffSurface(t *testing.T) {
	// seed at the sphere center: the front must walk outward to find
	// the surface.
	s, err := polygonize.Polygonize(implicit.Sphere(0.5), implicit.Ball{R: 1}, r3.Vec{}, polygonize.Options{
		CellSize:       0.1,
		MaxSearchSteps: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.IsEmpty() {
		t.Fatal("front propagation from an off-surface seed found nothing")
	}
	checkClosed(t, s)
}

func TestIdempotence(t *testing.T) {
	a := polygonizeSphere(t, sphereOptions(0.2))
	b := polygonizeSphere(t, sphereOptions(0.2))
	if len(a.Vertices) != len(b.Vertices) || len(a.Triangles) != len(b.Triangles) {
		t.Fatalf("repeat call size mismatch: %d/%d vertices, %d/%d triangles",
			len(a.Vertices), len(b.Vertices), len(a.Triangles), len(b.Triangles))
	}
	if !reflect.DeepEqual(a.Triangles, b.Triangles) {
		t.Error("repeat call produced different connectivity")
	}
	if !reflect.DeepEqual(a.Vertices, b.Vertices) {
		t.Error("repeat call produced different vertices")
	}
}

func TestTriangleLimit(t *testing.T) {
	opts := sphereOptions(0.05)
	opts.TriangleLimit = 10
	bound := implicit.Ball{R: 1.5}
	s, err := polygonize.Polygonize(implicit.Sphere(sphereRadius), bound, r3.Vec{X: sphereRadius}, opts)
	if err != polygonize.ErrTriangleLimit {
		t.Fatalf("want ErrTriangleLimit, got %v", err)
	}
	if len(s.Triangles) < opts.TriangleLimit {
		t.Errorf("truncated surface has %d triangles, want at least %d", len(s.Triangles), opts.TriangleLimit)
	}
}

func TestNilFieldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("nil field did not panic")
		}
	}()
	polygonize.Polygonize(nil, implicit.Ball{R: 1}, r3.Vec{}, polygonize.Options{})
}

func TestSurfaceField(t *testing.T) {
	s := polygonizeSphere(t, sphereOptions(0.1))
	f := polygonize.NewSurfaceField(s)
	if d := f.Evaluate(r3.Vec{}); d >= 0 {
		t.Errorf("surface field at sphere center: got %g, want negative", d)
	}
	if d := f.Evaluate(r3.Vec{X: 2 * sphereRadius}); d <= 0 {
		t.Errorf("surface field outside sphere: got %g, want positive", d)
	}
}

func TestFromSDFXSphere(t *testing.T) {
	object, err := sdf.Sphere3D(sphereRadius)
	if err != nil {
		t.Fatal(err)
	}
	f := implicit.FromSDFX(object)
	bound := implicit.BoundFromSDFX(object)
	s, err := polygonize.Polygonize(f, bound, r3.Vec{X: sphereRadius}, sphereOptions(0.1))
	if err != nil {
		t.Fatal(err)
	}
	rel := math.Abs(s.Area()-sphereArea) / sphereArea
	if rel > 0.05 {
		t.Errorf("sdfx sphere surface area relative error %g too large", rel)
	}
}

func BenchmarkPolygonizeSphere(b *testing.B) {
	path := filepath.Join(b.TempDir(), "sphere.stl")
	for i := 0; i < b.N; i++ {
		s := polygonizeSphere(b, sphereOptions(0.05))
		if err := polygonize.CreateSTL(path, s); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSDFXSphere(b *testing.B) {
	stdout := os.Stdout
	defer func() {
		os.Stdout = stdout // pesky sdfx prints out stuff
	}()
	os.Stdout, _ = os.Open(os.DevNull)
	path := filepath.Join(b.TempDir(), "sdfx_sphere.stl")
	object, _ := sdf.Sphere3D(sphereRadius)
	for i := 0; i < b.N; i++ {
		sdfxrender.ToSTL(object, 40, path, &sdfxrender.MarchingCubesOctree{})
	}
}
