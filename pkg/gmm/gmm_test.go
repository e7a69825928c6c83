package gmm

import (
	"math"
	"sort"
	"testing"
)

// threeBands returns synthetic intensities concentrated around 10, 100
// and 200, with a little deterministic jitter inside each band
func threeBands(perBand int) []float64 {
	data := make([]float64, 0, 3*perBand)
	for _, center := range []float64{10, 100, 200} {
		for i := 0; i < perBand; i++ {
			data = append(data, center+float64(i%7)-3)
		}
	}
	return data
}

// TestDefaultParams verifies the standard tissue-segmentation parameters
func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	if p.Components != 3 {
		t.Errorf("Expected 3 components, got %d", p.Components)
	}
	if p.Tolerance != 1e-3 {
		t.Errorf("Expected tolerance 1e-3, got %g", p.Tolerance)
	}
	if p.MaxIterations != 100 {
		t.Errorf("Expected 100 max iterations, got %d", p.MaxIterations)
	}
}

// TestFitThreeBands verifies that well-separated bands are recovered as
// component means close to the band centers, with weights summing to 1
func TestFitThreeBands(t *testing.T) {
	data := threeBands(80)

	model, err := Fit(data, DefaultParams())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(model.Means) != 3 || len(model.Weights) != 3 || len(model.Variances) != 3 {
		t.Fatalf("Expected 3 means/weights/variances, got %d/%d/%d",
			len(model.Means), len(model.Weights), len(model.Variances))
	}

	means := append([]float64(nil), model.Means...)
	sort.Float64s(means)

	expected := []float64{10, 100, 200}
	for i, want := range expected {
		if math.Abs(means[i]-want) > 5 {
			t.Errorf("Expected mean near %g, got %g", want, means[i])
		}
	}

	sum := 0.0
	for _, w := range model.Weights {
		if w <= 0 {
			t.Errorf("Expected positive weight, got %g", w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Weights sum to %g, want 1", sum)
	}
}

// TestPosteriorSumsToOne verifies that posteriors form a probability
// partition for arbitrary intensities, including far tail values
func TestPosteriorSumsToOne(t *testing.T) {
	model, err := Fit(threeBands(50), DefaultParams())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	for _, x := range []float64{-50, 10, 55, 100, 150, 200, 1000} {
		post := model.Posterior(x)
		sum := 0.0
		for _, p := range post {
			if p < 0 || p > 1 {
				t.Fatalf("Posterior out of range at x=%g: %g", x, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("Posteriors at x=%g sum to %g, want 1", x, sum)
		}
	}
}

// TestPredictPicksNearestBand verifies that hard prediction assigns an
// intensity to the component of the band it sits in
func TestPredictPicksNearestBand(t *testing.T) {
	model, err := Fit(threeBands(50), DefaultParams())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	for _, tc := range []struct {
		x    float64
		near float64
	}{
		{10, 10},
		{100, 100},
		{200, 200},
	} {
		k := model.Predict(tc.x)
		if math.Abs(model.Means[k]-tc.near) > 10 {
			t.Errorf("Predict(%g) chose component with mean %g, want near %g",
				tc.x, model.Means[k], tc.near)
		}
	}
}

// TestFitDeterministic verifies that repeated fits on the same data produce
// identical models
func TestFitDeterministic(t *testing.T) {
	data := threeBands(40)

	a, err := Fit(data, DefaultParams())
	if err != nil {
		t.Fatalf("First fit failed: %v", err)
	}
	b, err := Fit(data, DefaultParams())
	if err != nil {
		t.Fatalf("Second fit failed: %v", err)
	}

	for k := range a.Means {
		if a.Means[k] != b.Means[k] || a.Weights[k] != b.Weights[k] {
			t.Errorf("Component %d differs between fits", k)
		}
	}
}

// TestFitSingleValue verifies that zero-variance input is rejected before
// iterating, since the covariance would be singular
func TestFitSingleValue(t *testing.T) {
	data := make([]float64, 50)
	for i := range data {
		data[i] = 7
	}

	if _, err := Fit(data, DefaultParams()); err == nil {
		t.Error("Expected error for zero-variance input, got nil")
	}
}

// TestFitTooFewObservations verifies that fewer observations than components
// is rejected
func TestFitTooFewObservations(t *testing.T) {
	if _, err := Fit([]float64{1, 2}, DefaultParams()); err == nil {
		t.Error("Expected error for 2 observations with 3 components, got nil")
	}
}

// TestComponentDensity verifies the weighted density against a direct
// evaluation of the normal density
func TestComponentDensity(t *testing.T) {
	model := &Model{
		Means:     []float64{0},
		Variances: []float64{4},
		Weights:   []float64{0.5},
	}

	// N(0; 0, 4) = 1 / (2 * sqrt(2*pi))
	want := 0.5 / (2 * math.Sqrt(2*math.Pi))
	got := model.ComponentDensity(0, 0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected density %g, got %g", want, got)
	}
}
