package sht

import "math"

// Normalized associated Legendre functions P̄ₗᵐ with the 4π (geodesy)
// normalization
//
//	P̄ₗᵐ(x) = sqrt((2l+1)·(l-m)!/(l+m)!) · Pₗᵐ(x),  0 ≤ m ≤ l,
//
// omitting the Condon-Shortley phase. With this scaling
// (1/2)∫ P̄ₗᵐ P̄ₗ'ᵐ dx = δₗₗ' and P̄₀₀ = 1, which pairs with the
// dΩ/4π quadrature measure used by Grid.

// plmIdx maps (l, m) with 0 ≤ m ≤ l to a packed triangular index.
func plmIdx(l, m int) int { return l*(l+1)/2 + m }

// plmSize is the table length required for degrees 0..lmax.
func plmSize(lmax int) int { return (lmax + 1) * (lmax + 2) / 2 }

// legendreTable fills dst with P̄ₗᵐ(x) for all 0 ≤ m ≤ l ≤ lmax using
// stable three-term recurrences. dst must have length plmSize(lmax).
// sinTheta is sqrt(1-x²), passed in so callers on an angular grid avoid
// recomputing it.
func legendreTable(lmax int, x, sinTheta float64, dst []float64) {
	if len(dst) != plmSize(lmax) {
		panic("sht: bad legendre table length")
	}
	dst[0] = 1
	if lmax == 0 {
		return
	}
	// Diagonal: P̄ₘₘ = sinθ·sqrt((2m+1)/(2m))·P̄ₘ₋₁,ₘ₋₁.
	for m := 1; m <= lmax; m++ {
		dst[plmIdx(m, m)] = sinTheta * math.Sqrt(float64(2*m+1)/float64(2*m)) * dst[plmIdx(m-1, m-1)]
	}
	// First off-diagonal: P̄ₘ₊₁,ₘ = x·sqrt(2m+3)·P̄ₘₘ.
	for m := 0; m < lmax; m++ {
		dst[plmIdx(m+1, m)] = x * math.Sqrt(float64(2*m+3)) * dst[plmIdx(m, m)]
	}
	// Upward in l for fixed m.
	for m := 0; m <= lmax-2; m++ {
		for l := m + 2; l <= lmax; l++ {
			a := math.Sqrt(float64(4*l*l-1) / float64(l*l-m*m))
			b := math.Sqrt(float64((l-1)*(l-1)-m*m) / float64(4*(l-1)*(l-1)-1))
			dst[plmIdx(l, m)] = a * (x*dst[plmIdx(l-1, m)] - b*dst[plmIdx(l-2, m)])
		}
	}
}
