package render

import (
	"fmt"
	"sync"

	geo "github.com/golang/geo/r3"
	quickhull "github.com/markus-wa/quickhull-go/v2"
	"github.com/peterspackman/sarlacc"
	"github.com/peterspackman/sarlacc/sht"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/palette"
)

// GridBased reconstructs by synthesizing the radial field at the canonical
// grid directions and displacing a fixed unit-sphere triangulation. The
// triangulation (a convex hull of the direction set) is computed once per
// order and reused. Valid only for surfaces star-shaped about the origin;
// a likely violation is reported as a TopologyWarning diagnostic, not an
// error.
type GridBased struct {
	LMax int
	// PropertyMin and PropertyScale undo the property normalization
	// recorded at description time. Zero values leave the synthesized
	// field as is.
	PropertyMin   float64
	PropertyScale float64
	// ColorMap overrides the default diverging blue-red palette.
	ColorMap palette.ColorMap
}

// Reconstruct implements Reconstructor.
func (g GridBased) Reconstruct(coeffs, propCoeffs []complex128) (ColoredMesh, []sarlacc.Diagnostic, error) {
	grid, err := sht.NewGrid(g.LMax)
	if err != nil {
		return ColoredMesh{}, nil, err
	}
	tr := sht.NewTransform(grid)

	if err := checkCoeffs(g.LMax, coeffs, propCoeffs); err != nil {
		return ColoredMesh{}, nil, err
	}
	shapeCoeffs := coeffs
	if propCoeffs == nil {
		shapeCoeffs, propCoeffs = sht.SplitChannels(coeffs)
	}
	diags := starShapeCheck(shapeCoeffs, sht.Invariants(shapeCoeffs))

	radii, err := tr.SynthesizeGrid(shapeCoeffs)
	if err != nil {
		return ColoredMesh{}, diags, err
	}
	props, err := tr.SynthesizeGrid(propCoeffs)
	if err != nil {
		return ColoredMesh{}, diags, err
	}

	verts := make([]r3.Vec, grid.Len())
	vals := make([]float64, grid.Len())
	for i := range verts {
		verts[i] = r3.Scale(real(radii[i]), grid.Dir(i))
		vals[i] = real(props[i])
	}
	vals = deNormalize(vals, g.PropertyMin, g.PropertyScale)

	faces, err := sphereTopology(grid)
	if err != nil {
		return ColoredMesh{}, diags, err
	}
	return ColoredMesh{
		Vertices: verts,
		Faces:    faces,
		Colors:   vertexColors(vals, g.ColorMap),
	}, diags, nil
}

var (
	topomu sync.Mutex
	topos  = map[int][][3]int{}
)

// sphereTopology triangulates the grid's unit direction set by convex hull
// and orients every face outward. The result only depends on the order and
// is cached.
func sphereTopology(grid *sht.Grid) ([][3]int, error) {
	topomu.Lock()
	defer topomu.Unlock()
	if faces, ok := topos[grid.LMax()]; ok {
		return faces, nil
	}
	dirs := grid.Dirs()
	pts := make([]geo.Vector, len(dirs))
	for i, d := range dirs {
		pts[i] = geo.Vector{X: d.X, Y: d.Y, Z: d.Z}
	}
	const eps = 1e-12
	hull := new(quickhull.QuickHull).ConvexHull(pts, true, true, eps)
	if len(hull.Indices)%3 != 0 {
		return nil, fmt.Errorf("render: convex hull returned %d indices, not a triangulation", len(hull.Indices))
	}
	faces := make([][3]int, len(hull.Indices)/3)
	for i := range faces {
		f := [3]int{hull.Indices[3*i], hull.Indices[3*i+1], hull.Indices[3*i+2]}
		// Outward: the normal of a unit-sphere hull face points along
		// the face's own vertices.
		p0, p1, p2 := dirs[f[0]], dirs[f[1]], dirs[f[2]]
		n := r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
		if r3.Dot(n, p0) < 0 {
			f[1], f[2] = f[2], f[1]
		}
		faces[i] = f
	}
	topos[grid.LMax()] = faces
	return faces, nil
}
