package render

import (
	"fmt"

	"github.com/peterspackman/sarlacc"
	"github.com/peterspackman/sarlacc/sht"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/palette"
)

// DefaultResolution is the voxel lattice used when a Volumetric reconstructor
// does not set one.
var DefaultResolution = [3]int{64, 64, 64}

// Volumetric reconstructs by sweeping a voxel lattice, storing the signed
// surrogate (radial distance minus synthesized shape radius) per voxel, and
// extracting the zero level-set. Cost scales with M·N·P·(L+1)² but arbitrary
// topology and concavity are handled.
type Volumetric struct {
	LMax int
	// Resolution is the lattice node count per axis. Zero means
	// DefaultResolution.
	Resolution [3]int
	// Margin scales the bounding half-side derived from the degree-0
	// radius. Zero means 1.5. Surfaces with strong high-degree
	// excursions past the margin are clipped; that is the accepted
	// trade against lattice resolution.
	Margin float64

	PropertyMin   float64
	PropertyScale float64
	ColorMap      palette.ColorMap
}

// Reconstruct implements Reconstructor.
func (vr Volumetric) Reconstruct(coeffs, propCoeffs []complex128) (ColoredMesh, []sarlacc.Diagnostic, error) {
	grid, err := sht.NewGrid(vr.LMax)
	if err != nil {
		return ColoredMesh{}, nil, err
	}
	tr := sht.NewTransform(grid)

	if err := checkCoeffs(vr.LMax, coeffs, propCoeffs); err != nil {
		return ColoredMesh{}, nil, err
	}
	shapeCoeffs := coeffs
	if propCoeffs == nil {
		shapeCoeffs, propCoeffs = sht.SplitChannels(coeffs)
	}

	res := vr.Resolution
	if res == [3]int{} {
		res = DefaultResolution
	}
	for _, d := range res {
		if d < 4 {
			return ColoredMesh{}, nil, fmt.Errorf("render: voxel resolution %v too small", res)
		}
	}
	margin := vr.Margin
	if margin == 0 {
		margin = 1.5
	}
	// Degree-0 bounding heuristic: the mean radius scaled by the safety
	// margin, and never below the margin itself.
	r0 := real(shapeCoeffs[0])
	bound := margin
	if r0 > 1 {
		bound = margin * r0
	}
	sep := r3.Vec{
		X: 2 * bound / float64(res[0]),
		Y: 2 * bound / float64(res[1]),
		Z: 2 * bound / float64(res[2]),
	}

	vol := newVolume(res, sep)
	syn := tr.NewSynthesizer()
	for i := 0; i < res[0]; i++ {
		for j := 0; j < res[1]; j++ {
			for k := 0; k < res[2]; k++ {
				p := vol.nodePos(i, j, k)
				r, theta, phi := sht.CartesianToSpherical(p)
				shape := real(syn.At(shapeCoeffs, theta, phi))
				vol.set(i, j, k, r-shape)
			}
		}
	}

	verts, faces := vol.isosurface()
	if len(faces) == 0 {
		return ColoredMesh{}, nil, fmt.Errorf("render: no iso-surface found within bound %.3g", bound)
	}
	orientFaces(verts, faces, vol)

	vals := make([]float64, len(verts))
	for i, p := range verts {
		_, theta, phi := sht.CartesianToSpherical(p)
		vals[i] = real(syn.At(propCoeffs, theta, phi))
	}
	vals = deNormalize(vals, vr.PropertyMin, vr.PropertyScale)

	return ColoredMesh{
		Vertices: verts,
		Faces:    faces,
		Colors:   vertexColors(vals, vr.ColorMap),
	}, nil, nil
}

// orientFaces flips triangle winding so every normal points with the volume
// gradient, away from the interior where the surrogate is negative. A
// gradient exactly tangent to the face (zero dot product) leaves the winding
// untouched.
func orientFaces(verts []r3.Vec, faces [][3]int, vol *volume) {
	for fi, f := range faces {
		p0, p1, p2 := verts[f[0]], verts[f[1]], verts[f[2]]
		n := r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
		c := r3.Scale(1.0/3.0, r3.Add(p0, r3.Add(p1, p2)))
		if r3.Dot(n, vol.gradientAt(c)) < 0 {
			faces[fi][1], faces[fi][2] = f[2], f[1]
		}
	}
}
