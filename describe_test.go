package sarlacc_test

import (
	"errors"
	"math"
	"testing"

	"github.com/peterspackman/sarlacc"
	"github.com/peterspackman/sarlacc/sht"
	"gonum.org/v1/gonum/spatial/r3"
)

// sphereMesh builds a latitude/longitude triangulation of the radial field
// r(θ,φ) with nt interior rings of np vertices plus the two poles.
func sphereMesh(nt, np int, radius func(theta, phi float64) float64) sarlacc.Mesh {
	var m sarlacc.Mesh
	// Poles take indices 0 and 1.
	m.Vertices = append(m.Vertices,
		r3.Vec{Z: radius(0, 0)},
		r3.Vec{Z: -radius(math.Pi, 0)},
	)
	for it := 1; it <= nt; it++ {
		theta := math.Pi * float64(it) / float64(nt+1)
		for ip := 0; ip < np; ip++ {
			phi := 2 * math.Pi * float64(ip) / float64(np)
			m.Vertices = append(m.Vertices, sht.SphericalToCartesian(radius(theta, phi), theta, phi))
		}
	}
	ring := func(it, ip int) int { return 2 + (it-1)*np + ip%np }
	for ip := 0; ip < np; ip++ {
		m.Faces = append(m.Faces, [3]int{0, ring(1, ip), ring(1, ip+1)})
		m.Faces = append(m.Faces, [3]int{1, ring(nt, ip+1), ring(nt, ip)})
	}
	for it := 1; it < nt; it++ {
		for ip := 0; ip < np; ip++ {
			a, b := ring(it, ip), ring(it, ip+1)
			c, d := ring(it+1, ip), ring(it+1, ip+1)
			m.Faces = append(m.Faces, [3]int{a, c, d}, [3]int{a, d, b})
		}
	}
	return m
}

func unit(theta, phi float64) float64 { return 1 }

// bumpy is a smooth star-shaped radial field with low-order angular content.
func bumpy(theta, phi float64) float64 {
	st := math.Sin(theta)
	return 1 + 0.12*st*st*math.Cos(2*phi) + 0.08*math.Cos(theta)
}

// A 200-ish vertex unit sphere with constant property must put all its power
// in degree 0: the squared mean radius, 1.
func TestDescribeUnitSphere(t *testing.T) {
	const lmax = 4
	mesh := sphereMesh(10, 20, unit) // 202 vertices
	property := make([]float64, len(mesh.Vertices))
	for i := range property {
		property[i] = 0.5
	}
	shape, diags, err := sarlacc.Describe("sphere", mesh, property, lmax)
	if err != nil {
		t.Fatal(err)
	}
	if len(shape.Invariants) != lmax+1 {
		t.Fatalf("invariant count %d, want %d", len(shape.Invariants), lmax+1)
	}
	if math.Abs(shape.Invariants[0]-1) > 1e-3 {
		t.Errorf("degree-0 power %g, want 1", shape.Invariants[0])
	}
	for l, p := range shape.Invariants[1:] {
		if p > 1e-3 {
			t.Errorf("degree %d power %g, want ~0", l+1, p)
		}
	}
	if math.Abs(shape.MeanRadius-1) > 1e-9 {
		t.Errorf("mean radius %g, want 1", shape.MeanRadius)
	}
	if shape.PropertyScale != 0 {
		t.Errorf("property scale %g, want 0 for constant property", shape.PropertyScale)
	}
	found := false
	for _, d := range diags {
		if d.Kind == sarlacc.DegenerateProperty {
			found = true
		}
	}
	if !found {
		t.Error("missing DegenerateProperty diagnostic for constant property")
	}
}

// The central property of the descriptor: rotating the input surface must
// not move the invariants.
func TestInvariantsRotationInvariant(t *testing.T) {
	const lmax = 5
	mesh := sphereMesh(60, 120, bumpy)
	rot := r3.NewRotation(1.1, r3.Vec{X: 1, Y: 2, Z: 0.5})
	rotated := sarlacc.Mesh{Faces: mesh.Faces}
	for _, v := range mesh.Vertices {
		rotated.Vertices = append(rotated.Vertices, rot.Rotate(v))
	}

	a, _, err := sarlacc.Describe("m", mesh, nil, lmax)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := sarlacc.Describe("rm", rotated, nil, lmax)
	if err != nil {
		t.Fatal(err)
	}
	for l := range a.Invariants {
		diff := math.Abs(a.Invariants[l] - b.Invariants[l])
		// Nearest-neighbor resampling is the noise floor here, not the
		// transform, so the tolerance is loose.
		if diff > 0.05*a.Invariants[0]+2e-3 {
			t.Errorf("degree %d power moved under rotation: %g vs %g", l, a.Invariants[l], b.Invariants[l])
		}
	}
}

// Resampling a mesh that is already centered at unit mean radius must
// report a mean radius of 1.
func TestNormalizationIdempotent(t *testing.T) {
	grid, err := sht.NewGrid(4)
	if err != nil {
		t.Fatal(err)
	}
	mesh := sphereMesh(20, 40, bumpy)
	_, aux, _, err := sarlacc.Resample(mesh, nil, grid)
	if err != nil {
		t.Fatal(err)
	}
	center := mesh.Centroid()
	normalized := sarlacc.Mesh{Faces: mesh.Faces}
	for _, v := range mesh.Vertices {
		normalized.Vertices = append(normalized.Vertices, r3.Scale(1/aux.MeanRadius, r3.Sub(v, center)))
	}
	_, aux2, _, err := sarlacc.Resample(normalized, nil, grid)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(aux2.MeanRadius-1) > 1e-9 {
		t.Errorf("mean radius of normalized mesh %g, want 1", aux2.MeanRadius)
	}
}

func TestResampleDegenerateProperty(t *testing.T) {
	grid, err := sht.NewGrid(3)
	if err != nil {
		t.Fatal(err)
	}
	mesh := sphereMesh(8, 16, unit)
	property := make([]float64, len(mesh.Vertices))
	for i := range property {
		property[i] = -3.25
	}
	samples, aux, diags, err := sarlacc.Resample(mesh, property, grid)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != grid.Len() {
		t.Fatalf("sample count %d, want %d", len(samples), grid.Len())
	}
	for i, s := range samples {
		if imag(s) != 0 {
			t.Fatalf("sample %d property channel %g, want 0", i, imag(s))
		}
		if math.IsNaN(real(s)) || math.IsInf(real(s), 0) {
			t.Fatalf("sample %d radius is %g", i, real(s))
		}
	}
	if aux.PropertyMin != -3.25 || aux.PropertyScale != 0 {
		t.Errorf("aux property min/scale = %g/%g, want -3.25/0", aux.PropertyMin, aux.PropertyScale)
	}
	if len(diags) != 1 || diags[0].Kind != sarlacc.DegenerateProperty {
		t.Errorf("diagnostics %v, want one DegenerateProperty", diags)
	}
}

func TestMalformedMesh(t *testing.T) {
	grid, err := sht.NewGrid(2)
	if err != nil {
		t.Fatal(err)
	}
	for name, mesh := range map[string]sarlacc.Mesh{
		"empty":        {},
		"bad face":     {Vertices: []r3.Vec{{X: 1}}, Faces: [][3]int{{0, 0, 1}}},
		"neg face":     {Vertices: []r3.Vec{{X: 1}}, Faces: [][3]int{{0, -1, 0}}},
		"zero radius":  {Vertices: []r3.Vec{{X: 2, Y: 2}, {X: 2, Y: 2}}},
		"single point": {Vertices: []r3.Vec{{X: 1, Y: 1, Z: 1}}},
	} {
		if _, _, _, err := sarlacc.Resample(mesh, nil, grid); !errors.Is(err, sarlacc.ErrMalformedMesh) {
			t.Errorf("%s: got %v, want ErrMalformedMesh", name, err)
		}
	}
	mesh := sphereMesh(4, 8, unit)
	if _, _, _, err := sarlacc.Resample(mesh, []float64{1, 2}, grid); !errors.Is(err, sarlacc.ErrMalformedMesh) {
		t.Errorf("short property: got %v, want ErrMalformedMesh", err)
	}
}

func TestDescribeUnsupportedOrder(t *testing.T) {
	_, _, err := sarlacc.Describe("m", sphereMesh(4, 8, unit), nil, sht.MaxOrder+1)
	if !errors.Is(err, sht.ErrUnsupportedOrder) {
		t.Errorf("got %v, want ErrUnsupportedOrder", err)
	}
}

func TestShapeVector(t *testing.T) {
	shape, _, err := sarlacc.Describe("m", sphereMesh(8, 16, bumpy), nil, 6)
	if err != nil {
		t.Fatal(err)
	}
	v := shape.Vector()
	if len(v) != 3+7 {
		t.Fatalf("descriptor length %d, want 10", len(v))
	}
	if v[0] != shape.MeanRadius || v[1] != shape.PropertyMin || v[2] != shape.PropertyScale {
		t.Error("auxiliary scalars not prepended in order")
	}
}

// One malformed surface in a batch must fail alone.
func TestDescribeAllIsolatesFailures(t *testing.T) {
	good := sphereMesh(8, 16, bumpy)
	jobs := []sarlacc.Job{
		{Name: "a", Mesh: good},
		{Name: "b"}, // empty mesh, must fail
		{Name: "c", Mesh: good},
		{Name: "d", Mesh: sphereMesh(8, 16, unit)},
	}
	results := sarlacc.DescribeAll(jobs, 4, 3)
	if len(results) != len(jobs) {
		t.Fatalf("result count %d, want %d", len(results), len(jobs))
	}
	for i, res := range results {
		if i == 1 {
			if !errors.Is(res.Err, sarlacc.ErrMalformedMesh) {
				t.Errorf("job b: got %v, want ErrMalformedMesh", res.Err)
			}
			continue
		}
		if res.Err != nil {
			t.Errorf("job %s failed: %v", jobs[i].Name, res.Err)
		}
		if res.Shape.Name != jobs[i].Name {
			t.Errorf("result %d carries name %q, want %q", i, res.Shape.Name, jobs[i].Name)
		}
	}
}

func TestDescribeAllWorkerCounts(t *testing.T) {
	jobs := []sarlacc.Job{
		{Name: "a", Mesh: sphereMesh(6, 12, unit)},
		{Name: "b", Mesh: sphereMesh(6, 12, bumpy)},
	}
	for _, workers := range []int{0, 1, 8} {
		results := sarlacc.DescribeAll(jobs, 3, workers)
		for i, res := range results {
			if res.Err != nil {
				t.Errorf("workers=%d job %d: %v", workers, i, res.Err)
			}
		}
	}
}
