// Package sht implements truncated spherical harmonic transforms on a fixed
// angular quadrature grid. The basis is the 4π-normalized complex harmonics,
// so the degree-0 function is identically 1 and the transform of a constant
// radius field places that radius in the real part of the first coefficient.
package sht

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/spatial/r3"
)

// MaxOrder is the largest supported angular order. Past this point the
// normalized Legendre recurrences shed enough precision near the poles
// that quadrature exactness can no longer be promised.
const MaxOrder = 84

// ErrUnsupportedOrder is returned for angular orders outside [0, MaxOrder].
var ErrUnsupportedOrder = errors.New("sht: unsupported angular order")

// Grid is the canonical angular sampling for a given maximum order: a
// Gauss-Legendre rule in colatitude crossed with a uniform azimuth ring.
// The product rule integrates products of harmonics up to degree 2·lmax
// exactly. Grids are immutable once built.
type Grid struct {
	lmax   int
	ntheta int
	nphi   int
	theta  []float64 // colatitude per point
	phi    []float64 // azimuth per point
	weight []float64 // quadrature weight per point, sums to 1 over dΩ/4π
}

var (
	gridmu sync.Mutex
	grids  = map[int]*Grid{}
)

// NewGrid returns the canonical grid for maximum angular order lmax.
// The same lmax always yields the same grid; grids are cached.
func NewGrid(lmax int) (*Grid, error) {
	if lmax < 0 || lmax > MaxOrder {
		return nil, fmt.Errorf("%w: lmax=%d not in [0, %d]", ErrUnsupportedOrder, lmax, MaxOrder)
	}
	gridmu.Lock()
	defer gridmu.Unlock()
	if g, ok := grids[lmax]; ok {
		return g, nil
	}
	g := buildGrid(lmax)
	grids[lmax] = g
	return g, nil
}

func buildGrid(lmax int) *Grid {
	// Gauss-Legendre with lmax+1 nodes is exact for polynomials of degree
	// 2·lmax+1 in cosθ; 2(lmax+1) azimuth samples kill all Fourier modes
	// up to |m|=2·lmax.
	nt := lmax + 1
	np := 2 * (lmax + 1)
	x := make([]float64, nt)
	w := make([]float64, nt)
	quad.Legendre{}.FixedLocations(x, w, -1, 1)

	n := nt * np
	g := &Grid{
		lmax:   lmax,
		ntheta: nt,
		nphi:   np,
		theta:  make([]float64, n),
		phi:    make([]float64, n),
		weight: make([]float64, n),
	}
	for it := 0; it < nt; it++ {
		theta := math.Acos(x[it])
		// w sums to 2 over cosθ and the ring weight is 2π/np. Dividing
		// by 4π normalizes the total measure to 1.
		wq := w[it] / (2 * float64(np))
		for ip := 0; ip < np; ip++ {
			i := it*np + ip
			g.theta[i] = theta
			g.phi[i] = 2 * math.Pi * float64(ip) / float64(np)
			g.weight[i] = wq
		}
	}
	return g
}

// LMax returns the maximum angular order the grid was built for.
func (g *Grid) LMax() int { return g.lmax }

// Len returns the number of angular sample directions.
func (g *Grid) Len() int { return len(g.theta) }

// Angles returns the colatitude and azimuth of sample i.
func (g *Grid) Angles(i int) (theta, phi float64) { return g.theta[i], g.phi[i] }

// Weight returns the quadrature weight of sample i.
func (g *Grid) Weight(i int) float64 { return g.weight[i] }

// Dir returns the unit direction of sample i.
func (g *Grid) Dir(i int) r3.Vec {
	st, ct := math.Sincos(g.theta[i])
	sp, cp := math.Sincos(g.phi[i])
	return r3.Vec{X: st * cp, Y: st * sp, Z: ct}
}

// Dirs returns all sample directions as unit vectors.
func (g *Grid) Dirs() []r3.Vec {
	dirs := make([]r3.Vec, g.Len())
	for i := range dirs {
		dirs[i] = g.Dir(i)
	}
	return dirs
}

// CartesianToSpherical returns the radius, colatitude θ∈[0,π] and azimuth
// φ∈[0,2π) of v using the same convention as the grid directions.
func CartesianToSpherical(v r3.Vec) (r, theta, phi float64) {
	r = r3.Norm(v)
	if r == 0 {
		return 0, 0, 0
	}
	theta = math.Acos(v.Z / r)
	phi = math.Atan2(v.Y, v.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return r, theta, phi
}

// SphericalToCartesian is the inverse of CartesianToSpherical.
func SphericalToCartesian(r, theta, phi float64) r3.Vec {
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	return r3.Vec{X: r * st * cp, Y: r * st * sp, Z: r * ct}
}
