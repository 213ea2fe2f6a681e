// Package render reconstructs approximate surfaces from truncated spherical
// harmonic coefficients and exports them as colored meshes. Two strategies
// are provided: a fast grid-based path valid for star-shaped surfaces, and a
// volumetric iso-surface path that handles arbitrary concavity at the price
// of a dense lattice sweep.
package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/peterspackman/sarlacc"
	"github.com/peterspackman/sarlacc/internal/d3"
	"github.com/peterspackman/sarlacc/sht"
	"gonum.org/v1/gonum/spatial/r3"
)

// ColoredMesh is a reconstructed surface: triangle faces over vertices with
// one color per vertex, sampled from the synthesized property channel.
type ColoredMesh struct {
	Vertices []r3.Vec
	Faces    [][3]int
	Colors   []color.NRGBA
}

// Bounds returns the axis-aligned bounding box of the mesh vertices.
func (m ColoredMesh) Bounds() (min, max r3.Vec) {
	s := d3.Set(m.Vertices)
	return s.Min(), s.Max()
}

// Triangles expands the indexed faces into a flat triangle list.
func (m ColoredMesh) Triangles() []Triangle3 {
	tris := make([]Triangle3, len(m.Faces))
	for i, f := range m.Faces {
		tris[i] = Triangle3{V: [3]r3.Vec{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}}
	}
	return tris
}

// Triangle3 is a 3D triangle.
type Triangle3 struct {
	V [3]r3.Vec
}

// Normal returns the normal vector to the plane defined by the triangle.
func (t Triangle3) Normal() r3.Vec {
	e1 := r3.Sub(t.V[1], t.V[0])
	e2 := r3.Sub(t.V[2], t.V[0])
	return r3.Unit(r3.Cross(e1, e2))
}

// Degenerate returns true if the triangle has two vertices within tol of
// each other.
func (t Triangle3) Degenerate(tol float64) bool {
	return r3.Norm(r3.Sub(t.V[0], t.V[1])) < tol ||
		r3.Norm(r3.Sub(t.V[1], t.V[2])) < tol ||
		r3.Norm(r3.Sub(t.V[2], t.V[0])) < tol
}

// Reconstructor turns a coefficient vector back into a mesh. coeffs may be a
// combined two-channel expansion (real shape, imaginary property); when
// propCoeffs is nil the property channel is recovered from coeffs, otherwise
// propCoeffs supplies it.
type Reconstructor interface {
	Reconstruct(coeffs, propCoeffs []complex128) (ColoredMesh, []sarlacc.Diagnostic, error)
}

// checkCoeffs validates coefficient slice lengths against the truncation
// order before any indexing happens. propCoeffs is optional; nil means the
// property channel will be recovered from coeffs.
func checkCoeffs(lmax int, coeffs, propCoeffs []complex128) error {
	want := sht.NumCoeffs(lmax)
	if len(coeffs) != want {
		return fmt.Errorf("render: got %d coefficients, want %d for order %d", len(coeffs), want, lmax)
	}
	if propCoeffs != nil && len(propCoeffs) != want {
		return fmt.Errorf("render: got %d property coefficients, want %d for order %d", len(propCoeffs), want, lmax)
	}
	return nil
}

// starShapeCheck flags coefficient sets whose high-degree power is large
// against the degree-0 radius. The radial field then likely dips through
// zero somewhere, so a reconstruction anchored on rays from the origin will
// fold. The rms threshold of half the mean radius is a heuristic.
func starShapeCheck(shapeCoeffs []complex128, inv []float64) []sarlacc.Diagnostic {
	r0 := real(shapeCoeffs[0])
	var high float64
	for _, p := range inv[1:] {
		high += p
	}
	high = math.Sqrt(high)
	if high > 0.5*r0 {
		return []sarlacc.Diagnostic{{
			Kind: sarlacc.TopologyWarning,
			Msg:  "high-degree power rms exceeds half the mean radius, surface may not be star-shaped",
		}}
	}
	return nil
}
