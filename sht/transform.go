package sht

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Transform performs forward (analysis) and inverse (synthesis) spherical
// harmonic transforms truncated at the grid's maximum order. The transform
// is direct, O(N·(L+1)²), which is robust on any quadrature grid and cheap
// at the orders used for shape description (L ≤ 20 or so).
type Transform struct {
	grid *Grid
	lmax int
	// Basis tables over the product grid: Legendre values per colatitude
	// row and azimuth phases e^{imφ} per ring position, m ≥ 0.
	plm    [][]float64
	expPhi [][]complex128
}

// NumCoeffs returns the packed coefficient count for maximum order lmax.
func NumCoeffs(lmax int) int { return (lmax + 1) * (lmax + 1) }

// CoeffIdx returns the row-major packed index of degree l, order m (-l ≤ m ≤ l).
func CoeffIdx(l, m int) int { return l*l + l + m }

// NewTransform builds the analysis/synthesis basis tables for g.
func NewTransform(g *Grid) *Transform {
	t := &Transform{
		grid:   g,
		lmax:   g.lmax,
		plm:    make([][]float64, g.ntheta),
		expPhi: make([][]complex128, g.nphi),
	}
	for it := 0; it < g.ntheta; it++ {
		theta := g.theta[it*g.nphi]
		row := make([]float64, plmSize(t.lmax))
		legendreTable(t.lmax, math.Cos(theta), math.Sin(theta), row)
		t.plm[it] = row
	}
	for ip := 0; ip < g.nphi; ip++ {
		phi := g.phi[ip]
		row := make([]complex128, t.lmax+1)
		for m := 0; m <= t.lmax; m++ {
			row[m] = cmplx.Exp(complex(0, float64(m)*phi))
		}
		t.expPhi[ip] = row
	}
	return t
}

// Grid returns the canonical grid the transform operates on.
func (t *Transform) Grid() *Grid { return t.grid }

// LMax returns the truncation order.
func (t *Transform) LMax() int { return t.lmax }

// Analyse computes the (lmax+1)² truncated expansion coefficients of a
// complex-valued function sampled on the canonical grid: the quadrature
// weighted inner product with the conjugate basis at every grid direction.
func (t *Transform) Analyse(samples []complex128) ([]complex128, error) {
	g := t.grid
	if len(samples) != g.Len() {
		return nil, fmt.Errorf("sht: sample count %d does not match grid size %d", len(samples), g.Len())
	}
	coeffs := make([]complex128, NumCoeffs(t.lmax))
	for it := 0; it < g.ntheta; it++ {
		plm := t.plm[it]
		for ip := 0; ip < g.nphi; ip++ {
			i := it*g.nphi + ip
			f := samples[i] * complex(g.weight[i], 0)
			ephi := t.expPhi[ip]
			for l := 0; l <= t.lmax; l++ {
				for m := 0; m <= l; m++ {
					p := complex(plm[plmIdx(l, m)], 0)
					// conj(Yₗᵐ) = P̄ₗᵐ e^{-imφ}; Yₗ⁻ᵐ = P̄ₗᵐ e^{-imφ}.
					coeffs[CoeffIdx(l, m)] += f * p * cmplx.Conj(ephi[m])
					if m > 0 {
						coeffs[CoeffIdx(l, -m)] += f * p * ephi[m]
					}
				}
			}
		}
	}
	return coeffs, nil
}

// SynthesizeGrid evaluates the truncated series at every canonical grid
// direction, reusing the forward basis tables.
func (t *Transform) SynthesizeGrid(coeffs []complex128) ([]complex128, error) {
	if err := t.checkCoeffs(coeffs); err != nil {
		return nil, err
	}
	g := t.grid
	out := make([]complex128, g.Len())
	for it := 0; it < g.ntheta; it++ {
		plm := t.plm[it]
		for ip := 0; ip < g.nphi; ip++ {
			i := it*g.nphi + ip
			out[i] = synthesizePoint(t.lmax, coeffs, plm, t.expPhi[ip])
		}
	}
	return out, nil
}

// Synthesize evaluates the truncated series at arbitrary query directions
// given by parallel colatitude/azimuth slices.
func (t *Transform) Synthesize(coeffs []complex128, theta, phi []float64) ([]complex128, error) {
	if err := t.checkCoeffs(coeffs); err != nil {
		return nil, err
	}
	if len(theta) != len(phi) {
		return nil, fmt.Errorf("sht: theta/phi length mismatch %d != %d", len(theta), len(phi))
	}
	s := t.NewSynthesizer()
	out := make([]complex128, len(theta))
	for i := range theta {
		out[i] = s.At(coeffs, theta[i], phi[i])
	}
	return out, nil
}

func (t *Transform) checkCoeffs(coeffs []complex128) error {
	if len(coeffs) != NumCoeffs(t.lmax) {
		return fmt.Errorf("sht: coefficient count %d does not match order %d (want %d)", len(coeffs), t.lmax, NumCoeffs(t.lmax))
	}
	return nil
}

// Synthesizer evaluates a truncated series at arbitrary angles, reusing a
// scratch Legendre table between evaluations. Not safe for concurrent use;
// each goroutine should own one.
type Synthesizer struct {
	lmax int
	plm  []float64
	ephi []complex128
}

// NewSynthesizer returns a point evaluator for series truncated at t's order.
func (t *Transform) NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		lmax: t.lmax,
		plm:  make([]float64, plmSize(t.lmax)),
		ephi: make([]complex128, t.lmax+1),
	}
}

// At evaluates the series with the given coefficients at one direction.
// The coefficient slice length must be (lmax+1)²; this is not rechecked here.
func (s *Synthesizer) At(coeffs []complex128, theta, phi float64) complex128 {
	legendreTable(s.lmax, math.Cos(theta), math.Sin(theta), s.plm)
	for m := 0; m <= s.lmax; m++ {
		s.ephi[m] = cmplx.Exp(complex(0, float64(m)*phi))
	}
	return synthesizePoint(s.lmax, coeffs, s.plm, s.ephi)
}

func synthesizePoint(lmax int, coeffs []complex128, plm []float64, ephi []complex128) complex128 {
	var sum complex128
	for l := 0; l <= lmax; l++ {
		for m := 0; m <= l; m++ {
			p := complex(plm[plmIdx(l, m)], 0)
			sum += coeffs[CoeffIdx(l, m)] * p * ephi[m]
			if m > 0 {
				sum += coeffs[CoeffIdx(l, -m)] * p * cmplx.Conj(ephi[m])
			}
		}
	}
	return sum
}

// SplitChannels separates the coefficients of a two-channel function
// f = g + i·h (g, h real valued) into the coefficients of g and h. It relies
// on the basis being closed under conjugation: conj(Yₗᵐ) = Yₗ⁻ᵐ, so a real
// channel has Hermitian coefficient symmetry.
func SplitChannels(coeffs []complex128) (shape, property []complex128) {
	lmax := int(math.Round(math.Sqrt(float64(len(coeffs))))) - 1
	shape = make([]complex128, len(coeffs))
	property = make([]complex128, len(coeffs))
	for l := 0; l <= lmax; l++ {
		for m := -l; m <= l; m++ {
			c := coeffs[CoeffIdx(l, m)]
			cc := cmplx.Conj(coeffs[CoeffIdx(l, -m)])
			shape[CoeffIdx(l, m)] = (c + cc) / 2
			property[CoeffIdx(l, m)] = (c - cc) / complex(0, 2)
		}
	}
	return shape, property
}
