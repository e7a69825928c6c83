// Package fcm implements fuzzy c-means clustering for one-dimensional
// intensity data. Every observation carries a fractional membership in every
// cluster; memberships across clusters sum to 1 per observation. The
// iteration alternates between a membership update from the current centers
// and a membership-weighted center update, stopping when the largest
// membership change drops below the tolerance or the iteration cap is hit.
package fcm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Params holds the fuzzy c-means hyperparameters.
type Params struct {
	// Clusters is the number of tissue classes modeled.
	Clusters int

	// Fuzziness is the exponent controlling membership softness.
	// Must be > 1; 2 is the usual choice.
	Fuzziness float64

	// Tolerance is the convergence stop criterion on the maximum
	// membership change between iterations.
	Tolerance float64

	// MaxIterations caps the number of update iterations.
	MaxIterations int
}

// DefaultParams returns the standard tissue-segmentation parameters:
// 3 clusters, fuzziness 2, tolerance 0.005, at most 50 iterations.
func DefaultParams() Params {
	return Params{
		Clusters:      3,
		Fuzziness:     2,
		Tolerance:     0.005,
		MaxIterations: 50,
	}
}

// Model holds the result of one fuzzy c-means fit.
type Model struct {
	// Centers holds one cluster center per cluster, in raw fit order
	// (not sorted).
	Centers []float64

	// Memberships[k][j] is the membership of observation j in cluster k.
	// For every j the memberships sum to 1 across k.
	Memberships [][]float64

	// Fuzziness is the exponent the model was fitted with.
	Fuzziness float64

	// Iterations is the number of update iterations performed.
	Iterations int
}

// Fit runs fuzzy c-means on the observations in data. Centers are
// initialized deterministically at evenly spaced quantiles of the data, so
// repeated fits on the same input produce identical models.
//
// Degenerate input (fewer distinct values than clusters, which would collapse
// centers onto each other) is rejected with an error before iterating.
func Fit(data []float64, p Params) (*Model, error) {
	if p.Clusters < 2 {
		return nil, fmt.Errorf("fcm: need at least 2 clusters, got %d", p.Clusters)
	}
	if p.Fuzziness <= 1 {
		return nil, fmt.Errorf("fcm: fuzziness must be > 1, got %g", p.Fuzziness)
	}
	if p.MaxIterations < 1 {
		return nil, fmt.Errorf("fcm: need at least 1 iteration, got %d", p.MaxIterations)
	}
	if len(data) < p.Clusters {
		return nil, fmt.Errorf("fcm: %d observations cannot support %d clusters", len(data), p.Clusters)
	}
	if distinct(data) < p.Clusters {
		return nil, fmt.Errorf("fcm: input has fewer than %d distinct values", p.Clusters)
	}

	centers := initialCenters(data, p.Clusters)

	u := make([][]float64, p.Clusters)
	for k := range u {
		u[k] = make([]float64, len(data))
	}

	m := &Model{
		Centers:     centers,
		Memberships: u,
		Fuzziness:   p.Fuzziness,
	}

	exp := 2 / (p.Fuzziness - 1)
	for iter := 0; iter < p.MaxIterations; iter++ {
		delta := m.updateMemberships(data, exp)
		m.updateCenters(data)
		m.Iterations = iter + 1
		if delta < p.Tolerance {
			break
		}
	}

	for _, c := range m.Centers {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("fcm: fit diverged, non-finite cluster center")
		}
	}
	return m, nil
}

// MembershipAt evaluates the fitted membership of an arbitrary intensity x in
// each cluster, using the same formula the fit used for its observations.
func (m *Model) MembershipAt(x float64) []float64 {
	out := make([]float64, len(m.Centers))
	exp := 2 / (m.Fuzziness - 1)
	membershipRow(x, m.Centers, exp, out)
	return out
}

// updateMemberships recomputes all memberships from the current centers and
// returns the largest absolute change of any single membership value.
func (m *Model) updateMemberships(data []float64, exp float64) float64 {
	row := make([]float64, len(m.Centers))
	delta := 0.0
	for j, x := range data {
		membershipRow(x, m.Centers, exp, row)
		for k := range m.Centers {
			if d := math.Abs(row[k] - m.Memberships[k][j]); d > delta {
				delta = d
			}
			m.Memberships[k][j] = row[k]
		}
	}
	return delta
}

// membershipRow fills out with the memberships of x in each cluster. A point
// sitting exactly on one or more centers gets its membership split equally
// among those centers.
func membershipRow(x float64, centers []float64, exp float64, out []float64) {
	zero := 0
	for _, c := range centers {
		if x == c {
			zero++
		}
	}
	if zero > 0 {
		for k, c := range centers {
			if x == c {
				out[k] = 1 / float64(zero)
			} else {
				out[k] = 0
			}
		}
		return
	}
	for k, ck := range centers {
		sum := 0.0
		dk := math.Abs(x - ck)
		for _, cl := range centers {
			sum += math.Pow(dk/math.Abs(x-cl), exp)
		}
		out[k] = 1 / sum
	}
}

// updateCenters recomputes each center as the membership^fuzziness weighted
// mean of the data.
func (m *Model) updateCenters(data []float64) {
	for k := range m.Centers {
		num, den := 0.0, 0.0
		for j, x := range data {
			w := math.Pow(m.Memberships[k][j], m.Fuzziness)
			num += w * x
			den += w
		}
		if den > 0 {
			m.Centers[k] = num / den
		}
	}
}

// initialCenters places the k starting centers at evenly spaced quantiles of
// the data, which is deterministic and spreads them across the observed
// intensity range.
func initialCenters(data []float64, k int) []float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	centers := make([]float64, k)
	for i := range centers {
		q := (float64(i) + 0.5) / float64(k)
		centers[i] = stat.Quantile(q, stat.Empirical, sorted, nil)
	}
	return centers
}

// distinct counts the unique values in data.
func distinct(data []float64) int {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	n := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			n++
		}
	}
	return n
}
