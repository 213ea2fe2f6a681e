package sarlacc

import (
	"fmt"

	"github.com/peterspackman/sarlacc/sht"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Aux carries the scalars removed from a surface by normalization. They are
// needed to undo the unit-mean-radius rescale and the [0,1] property rescale
// when a reconstruction is mapped back to physical units.
type Aux struct {
	MeanRadius    float64
	PropertyMin   float64
	PropertyScale float64
}

// Resample maps a mesh and its per-vertex property onto the canonical grid.
//
// The mesh is recentered about its centroid and scaled to unit mean radius,
// vertex directions are indexed in a k-d tree, and every grid direction takes
// the (radius, property) pair of its single nearest vertex direction. The
// property is normalized linearly into [0,1]; a constant property is left at
// zero rather than dividing by a zero range. Each sample is packed as
// complex(radius, property). property may be nil.
//
// The input mesh is not mutated.
func Resample(mesh Mesh, property []float64, grid *sht.Grid) ([]complex128, Aux, []Diagnostic, error) {
	var aux Aux
	if err := mesh.Validate(); err != nil {
		return nil, aux, nil, err
	}
	if property != nil && len(property) != len(mesh.Vertices) {
		return nil, aux, nil, fmt.Errorf("%w: property length %d does not match %d vertices",
			ErrMalformedMesh, len(property), len(mesh.Vertices))
	}

	center := mesh.Centroid()
	radii := make([]float64, len(mesh.Vertices))
	var meanR float64
	for i, v := range mesh.Vertices {
		radii[i] = r3.Norm(r3.Sub(v, center))
		meanR += radii[i]
	}
	meanR /= float64(len(mesh.Vertices))
	if meanR == 0 {
		return nil, aux, nil, fmt.Errorf("%w: zero mean radius", ErrMalformedMesh)
	}
	aux.MeanRadius = meanR

	// Index unit vertex directions. Vertices sitting exactly on the
	// centroid have no direction and are excluded.
	pts := make(dirPoints, 0, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		if radii[i] == 0 {
			continue
		}
		pts = append(pts, dirPoint{
			dir: r3.Scale(1/radii[i], r3.Sub(v, center)),
			idx: i,
		})
	}
	if len(pts) == 0 {
		return nil, aux, nil, fmt.Errorf("%w: all vertices at centroid", ErrMalformedMesh)
	}
	tree := kdtree.New(pts, false)

	var diags []Diagnostic
	propNorm, pmin, pscale, flat := normalizeProperty(property)
	aux.PropertyMin = pmin
	aux.PropertyScale = pscale
	if flat {
		diags = append(diags, Diagnostic{
			Kind: DegenerateProperty,
			Msg:  "constant surface property, normalized channel is zero",
		})
	}

	samples := make([]complex128, grid.Len())
	for i := range samples {
		got, _ := tree.Nearest(dirPoint{dir: grid.Dir(i)})
		src := got.(dirPoint).idx
		var p float64
		if propNorm != nil {
			p = propNorm[src]
		}
		samples[i] = complex(radii[src]/meanR, p)
	}
	return samples, aux, diags, nil
}

// normalizeProperty rescales property into [0,1]. flat reports a constant
// (or absent) property, in which case the returned values are all zero and
// the scale is zero.
func normalizeProperty(property []float64) (norm []float64, min, scale float64, flat bool) {
	if len(property) == 0 {
		return nil, 0, 0, true
	}
	min = property[0]
	max := property[0]
	for _, p := range property[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	scale = max - min
	norm = make([]float64, len(property))
	if scale == 0 {
		return norm, min, 0, true
	}
	for i, p := range property {
		norm[i] = (p - min) / scale
	}
	return norm, min, scale, false
}

// k-d tree adapter over unit vertex directions, following the
// gonum/spatial/kdtree Interface contract.

type dirPoint struct {
	dir r3.Vec
	idx int
}

type dirPoints []dirPoint

func (p dirPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p dirPoints) Len() int                      { return len(p) }
func (p dirPoints) Pivot(d kdtree.Dim) int {
	s := dirSlice{dim: int(d), pts: p}
	return kdtree.Partition(s, kdtree.MedianOfMedians(s))
}
func (p dirPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (a dirPoint) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return dirComp(a.dir, b.(dirPoint).dir, int(d))
}

func (a dirPoint) Dims() int { return 3 }

func (a dirPoint) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.dir, b.(dirPoint).dir))
}

func dirComp(a, b r3.Vec, dim int) float64 {
	switch dim {
	case 0:
		return a.X - b.X
	case 1:
		return a.Y - b.Y
	}
	return a.Z - b.Z
}

type dirSlice struct {
	dim int
	pts dirPoints
}

func (s dirSlice) Less(i, j int) bool {
	return dirComp(s.pts[i].dir, s.pts[j].dir, s.dim) < 0
}
func (s dirSlice) Swap(i, j int) { s.pts[i], s.pts[j] = s.pts[j], s.pts[i] }
func (s dirSlice) Len() int      { return len(s.pts) }
func (s dirSlice) Slice(start, end int) kdtree.SortSlicer {
	s.pts = s.pts[start:end]
	return s
}
