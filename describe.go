package sarlacc

import (
	"sync"

	"github.com/peterspackman/sarlacc/sht"
)

// Shape is the descriptor bundle for one surface: the rotation-invariant
// per-degree power spectrum plus the scalars lost by normalization, along
// with the raw coefficients for later reconstruction.
type Shape struct {
	Name string

	// Normalization scalars, see Aux.
	MeanRadius    float64
	PropertyMin   float64
	PropertyScale float64

	// Invariants has length lmax+1; entry l is the power at degree l.
	Invariants []float64
	// Coefficients is the packed (lmax+1)² combined-channel expansion:
	// real part shape, imaginary part normalized property.
	Coefficients []complex128
}

// Vector returns the comparable descriptor: mean radius, property minimum
// and property range followed by the invariants. The auxiliary triple is
// prepended because those scalars are removed by normalization but still
// distinguish surfaces of different size or property scale.
func (s Shape) Vector() []float64 {
	v := make([]float64, 0, 3+len(s.Invariants))
	v = append(v, s.MeanRadius, s.PropertyMin, s.PropertyScale)
	return append(v, s.Invariants...)
}

// Describe runs the forward pipeline for one surface: resample onto the
// canonical grid for lmax, analyse, reduce to invariants. Non-fatal
// conditions are reported in the returned diagnostics.
func Describe(name string, mesh Mesh, property []float64, lmax int) (Shape, []Diagnostic, error) {
	grid, err := sht.NewGrid(lmax)
	if err != nil {
		return Shape{}, nil, err
	}
	samples, aux, diags, err := Resample(mesh, property, grid)
	if err != nil {
		return Shape{}, diags, err
	}
	coeffs, err := sht.NewTransform(grid).Analyse(samples)
	if err != nil {
		return Shape{}, diags, err
	}
	return Shape{
		Name:          name,
		MeanRadius:    aux.MeanRadius,
		PropertyMin:   aux.PropertyMin,
		PropertyScale: aux.PropertyScale,
		Invariants:    sht.Invariants(coeffs),
		Coefficients:  coeffs,
	}, diags, nil
}

// Job is one surface to describe.
type Job struct {
	Name     string
	Mesh     Mesh
	Property []float64
}

// Result reports one surface's outcome. Err is set when that surface failed;
// sibling surfaces are unaffected.
type Result struct {
	Shape       Shape
	Diagnostics []Diagnostic
	Err         error
}

// DescribeAll runs the forward pipeline over many independent surfaces with
// a fixed pool of workers. Each worker owns a complete pipeline invocation,
// there is no shared mutable state, and results are gathered only after all
// workers finish. Results are returned in job order. workers < 1 means one.
func DescribeAll(jobs []Job, lmax, workers int) []Result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	results := make([]Result, len(jobs))
	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				job := jobs[i]
				shape, diags, err := Describe(job.Name, job.Mesh, job.Property, lmax)
				results[i] = Result{Shape: shape, Diagnostics: diags, Err: err}
			}
		}()
	}
	for i := range jobs {
		next <- i
	}
	close(next)
	wg.Wait()
	return results
}
