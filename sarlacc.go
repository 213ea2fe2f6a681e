// Package sarlacc extracts rotation-invariant shape-and-property descriptors
// from closed molecular surface meshes using a truncated spherical harmonic
// expansion, and reconstructs approximate surfaces from those expansions for
// visual verification.
//
// The forward pipeline resamples a mesh onto a canonical angular grid, packs
// the normalized radius and a per-vertex scalar property into a complex
// function, transforms it, and reduces the coefficients to a per-degree power
// spectrum. The inverse pipeline lives in the render package.
package sarlacc

import "errors"

// ErrMalformedMesh reports a mesh that cannot be described: no vertices,
// out-of-range face indices, or a degenerate (zero mean radius) geometry.
var ErrMalformedMesh = errors.New("sarlacc: malformed mesh")

// DiagnosticKind labels a non-fatal condition raised by a pipeline stage.
type DiagnosticKind int

const (
	// DegenerateProperty marks a constant surface property; the normalized
	// property channel is all zeros and the recorded range is zero.
	DegenerateProperty DiagnosticKind = iota + 1
	// TopologyWarning marks a coefficient set whose high-degree power is
	// large relative to its mean radius, likely not star-shaped. The fast
	// grid reconstruction of such a surface may self-intersect.
	TopologyWarning
)

func (k DiagnosticKind) String() string {
	switch k {
	case DegenerateProperty:
		return "degenerate property"
	case TopologyWarning:
		return "topology warning"
	}
	return "unknown"
}

// Diagnostic is a structured warning returned alongside pipeline results
// in place of ambient logging.
type Diagnostic struct {
	Kind DiagnosticKind
	Msg  string
}

func (d Diagnostic) String() string { return d.Kind.String() + ": " + d.Msg }
