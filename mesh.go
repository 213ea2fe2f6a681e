package sarlacc

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a closed, outward-oriented triangular surface. Faces index into
// Vertices, 0-based.
type Mesh struct {
	Vertices []r3.Vec
	Faces    [][3]int
}

// Validate checks the structural invariants a describable mesh must hold.
func (m Mesh) Validate() error {
	if len(m.Vertices) == 0 {
		return fmt.Errorf("%w: no vertices", ErrMalformedMesh)
	}
	n := len(m.Vertices)
	for i, f := range m.Faces {
		for _, v := range f {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrMalformedMesh, i, v, n)
			}
		}
	}
	return nil
}

// Centroid returns the arithmetic mean vertex position.
func (m Mesh) Centroid() r3.Vec {
	var c r3.Vec
	for _, v := range m.Vertices {
		c = r3.Add(c, v)
	}
	return r3.Scale(1/float64(len(m.Vertices)), c)
}
