package sht

import "math"

// Invariants reduces a packed coefficient vector to its per-degree power:
// entry l is Σₘ |cₗᵐ|². A rotation of the described surface only mixes
// coefficients within a degree, so the vector is rotation invariant.
// The coefficient count must be a perfect square (lmax+1)²; the result has
// length lmax+1 and every entry is non-negative.
func Invariants(coeffs []complex128) []float64 {
	size := int(math.Round(math.Sqrt(float64(len(coeffs)))))
	if size*size != len(coeffs) {
		panic("sht: coefficient count is not a perfect square")
	}
	inv := make([]float64, size)
	for l := 0; l < size; l++ {
		var p float64
		for m := -l; m <= l; m++ {
			c := coeffs[CoeffIdx(l, m)]
			// |c|² as a real product; the imaginary part is zero by
			// construction and dropped.
			p += real(c)*real(c) + imag(c)*imag(c)
		}
		inv[l] = p
	}
	return inv
}
