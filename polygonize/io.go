package polygonize

import "io"

// Renderer is a source of triangles read in batches, io.Reader style.
// ReadTriangles returns io.EOF once the source is exhausted.
type Renderer interface {
	ReadTriangles(t []Triangle3) (int, error)
}

// Renderer returns a one-shot streaming view over the surface
// triangles, suitable for the STL writer.
func (s *Surface) Renderer() Renderer {
	return &surfaceRenderer{s: s}
}

type surfaceRenderer struct {
	s    *Surface
	next int
}

func (r *surfaceRenderer) ReadTriangles(dst []Triangle3) (n int, err error) {
	if len(dst) == 0 {
		panic("cannot write to empty triangle slice")
	}
	if r.next >= len(r.s.Triangles) {
		return 0, io.EOF
	}
	for n < len(dst) && r.next < len(r.s.Triangles) {
		dst[n] = r.s.Triangle(r.next)
		n++
		r.next++
	}
	return n, nil
}

// RenderAll reads the full contents of a Renderer and returns the slice
// read. It does not return io.EOF.
func RenderAll(r Renderer) ([]Triangle3, error) {
	var err error
	var nt int
	result := make([]Triangle3, 0, 1<<12)
	buf := make([]Triangle3, 1024)
	for {
		nt, err = r.ReadTriangles(buf)
		if err != nil {
			break
		}
		result = append(result, buf[:nt]...)
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}
