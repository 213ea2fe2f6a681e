package render

import (
	"github.com/peterspackman/sarlacc/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Zero level-set extraction from a scalar lattice by tetrahedral
// decomposition: each cell is split into the six Kuhn tetrahedra around its
// main diagonal, and each tetrahedron contributes one or two triangles where
// the field changes sign. The decomposition is translation-consistent, so
// shared cell faces carry matching diagonals and the extracted surface is
// watertight. Face winding is not guaranteed here; callers run an
// orientation pass over the result.

// volume is a scalar field sampled on a centered lattice. Node (i,j,k) sits
// at ((i-M/2)·sep.X, (j-N/2)·sep.Y, (k-P/2)·sep.Z).
type volume struct {
	dims [3]int
	sep  r3.Vec
	data []float64
}

func newVolume(dims [3]int, sep r3.Vec) *volume {
	return &volume{
		dims: dims,
		sep:  sep,
		data: make([]float64, dims[0]*dims[1]*dims[2]),
	}
}

func (v *volume) nodeID(i, j, k int) int {
	return (i*v.dims[1]+j)*v.dims[2] + k
}

func (v *volume) at(i, j, k int) float64 {
	return v.data[v.nodeID(i, j, k)]
}

func (v *volume) set(i, j, k int, f float64) {
	v.data[v.nodeID(i, j, k)] = f
}

func (v *volume) nodePos(i, j, k int) r3.Vec {
	return d3.MulElem(v.sep, r3.Vec{
		X: float64(i) - float64(v.dims[0])/2,
		Y: float64(j) - float64(v.dims[1])/2,
		Z: float64(k) - float64(v.dims[2])/2,
	})
}

// gradientAt estimates the field gradient at a physical position by central
// differences around the nearest lattice node, clamped to the interior.
func (v *volume) gradientAt(p r3.Vec) r3.Vec {
	i := clampInt(int(p.X/v.sep.X+float64(v.dims[0])/2+0.5), 1, v.dims[0]-2)
	j := clampInt(int(p.Y/v.sep.Y+float64(v.dims[1])/2+0.5), 1, v.dims[1]-2)
	k := clampInt(int(p.Z/v.sep.Z+float64(v.dims[2])/2+0.5), 1, v.dims[2]-2)
	return r3.Vec{
		X: (v.at(i+1, j, k) - v.at(i-1, j, k)) / (2 * v.sep.X),
		Y: (v.at(i, j+1, k) - v.at(i, j-1, k)) / (2 * v.sep.Y),
		Z: (v.at(i, j, k+1) - v.at(i, j, k-1)) / (2 * v.sep.Z),
	}
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// kuhnTets lists the six tetrahedra sharing the cell's main diagonal, as
// local corner indices with bit 0 = +x, bit 1 = +y, bit 2 = +z.
var kuhnTets = [6][4]int{
	{0, 1, 3, 7},
	{0, 1, 5, 7},
	{0, 2, 3, 7},
	{0, 2, 6, 7},
	{0, 4, 5, 7},
	{0, 4, 6, 7},
}

// isosurface extracts the zero level-set of v as an indexed triangle mesh in
// physical (centered) coordinates. A node value < 0 is inside; a value of
// exactly 0 counts as outside.
func (v *volume) isosurface() (verts []r3.Vec, faces [][3]int) {
	// Crossing vertices are shared through their lattice edge, keyed by
	// the ordered endpoint node ids.
	edgeVerts := map[[2]int]int{}

	vertexOn := func(na, nb int, pa, pb r3.Vec, va, vb float64) int {
		key := [2]int{na, nb}
		if na > nb {
			key = [2]int{nb, na}
		}
		if id, ok := edgeVerts[key]; ok {
			return id
		}
		t := va / (va - vb)
		p := r3.Add(pa, r3.Scale(t, r3.Sub(pb, pa)))
		verts = append(verts, p)
		id := len(verts) - 1
		edgeVerts[key] = id
		return id
	}

	var (
		ids  [8]int
		pos  [8]r3.Vec
		vals [8]float64
	)
	for i := 0; i < v.dims[0]-1; i++ {
		for j := 0; j < v.dims[1]-1; j++ {
			for k := 0; k < v.dims[2]-1; k++ {
				for c := 0; c < 8; c++ {
					ci, cj, ck := i+c&1, j+c>>1&1, k+c>>2&1
					ids[c] = v.nodeID(ci, cj, ck)
					pos[c] = v.nodePos(ci, cj, ck)
					vals[c] = v.at(ci, cj, ck)
				}
				for _, tet := range kuhnTets {
					var in, out []int
					for _, c := range tet {
						if vals[c] < 0 {
							in = append(in, c)
						} else {
							out = append(out, c)
						}
					}
					cross := func(a, b int) int {
						return vertexOn(ids[a], ids[b], pos[a], pos[b], vals[a], vals[b])
					}
					switch len(in) {
					case 1:
						faces = append(faces, [3]int{
							cross(in[0], out[0]), cross(in[0], out[1]), cross(in[0], out[2]),
						})
					case 3:
						faces = append(faces, [3]int{
							cross(in[0], out[0]), cross(in[1], out[0]), cross(in[2], out[0]),
						})
					case 2:
						q0 := cross(in[0], out[0])
						q1 := cross(in[0], out[1])
						q2 := cross(in[1], out[1])
						q3 := cross(in[1], out[0])
						faces = append(faces, [3]int{q0, q1, q2}, [3]int{q0, q2, q3})
					}
				}
			}
		}
	}
	return verts, faces
}
