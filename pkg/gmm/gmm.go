// Package gmm fits univariate Gaussian mixture models to intensity data with
// expectation-maximization. Responsibilities are computed in log space to
// stay stable in the distribution tails, and component variances are floored
// relative to the overall data variance so a tight intensity band cannot
// drive a variance to zero mid-fit.
package gmm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// varianceFloorRatio scales the overall data variance into the minimum
// variance any single component may reach.
const varianceFloorRatio = 1e-6

// Params holds the mixture model hyperparameters.
type Params struct {
	// Components is the number of Gaussian components.
	Components int

	// Tolerance is the convergence stop criterion on the change in mean
	// per-observation log-likelihood between iterations.
	Tolerance float64

	// MaxIterations caps the number of EM iterations.
	MaxIterations int
}

// DefaultParams returns the standard tissue-segmentation parameters:
// 3 components, tolerance 1e-3, at most 100 iterations.
func DefaultParams() Params {
	return Params{
		Components:    3,
		Tolerance:     1e-3,
		MaxIterations: 100,
	}
}

// Model holds the parameters of a fitted Gaussian mixture.
type Model struct {
	// Means, Variances and Weights each hold one value per component, in
	// raw fit order (not sorted). Weights sum to 1.
	Means     []float64
	Variances []float64
	Weights   []float64

	// LogLikelihood is the mean per-observation log-likelihood at the
	// final iteration.
	LogLikelihood float64

	// Iterations is the number of EM iterations performed.
	Iterations int
}

// Fit runs expectation-maximization on the observations in data. Component
// means are initialized deterministically at evenly spaced quantiles, each
// variance at the overall data variance, and weights uniformly, so repeated
// fits on the same input produce identical models.
//
// Data with zero variance (a single unique intensity) makes the covariance
// singular and is rejected before iterating; a component collapsing to zero
// responsibility mid-fit aborts with an error as well.
func Fit(data []float64, p Params) (*Model, error) {
	if p.Components < 1 {
		return nil, fmt.Errorf("gmm: need at least 1 component, got %d", p.Components)
	}
	if p.MaxIterations < 1 {
		return nil, fmt.Errorf("gmm: need at least 1 iteration, got %d", p.MaxIterations)
	}
	if len(data) < p.Components {
		return nil, fmt.Errorf("gmm: %d observations cannot support %d components", len(data), p.Components)
	}

	dataVar := stat.Variance(data, nil)
	if dataVar <= 0 || math.IsNaN(dataVar) {
		return nil, fmt.Errorf("gmm: data variance is zero, covariance would be singular")
	}
	floor := dataVar * varianceFloorRatio

	m := &Model{
		Means:     initialMeans(data, p.Components),
		Variances: make([]float64, p.Components),
		Weights:   make([]float64, p.Components),
	}
	for k := 0; k < p.Components; k++ {
		m.Variances[k] = dataVar
		m.Weights[k] = 1 / float64(p.Components)
	}

	// resp[j][k] is the responsibility of component k for observation j.
	resp := make([][]float64, len(data))
	for j := range resp {
		resp[j] = make([]float64, p.Components)
	}

	prevLL := math.Inf(-1)
	for iter := 0; iter < p.MaxIterations; iter++ {
		ll := m.eStep(data, resp)
		if err := m.mStep(data, resp, floor); err != nil {
			return nil, err
		}
		m.LogLikelihood = ll
		m.Iterations = iter + 1
		if math.Abs(ll-prevLL) < p.Tolerance {
			break
		}
		prevLL = ll
	}

	for k := range m.Means {
		if math.IsNaN(m.Means[k]) || math.IsInf(m.Means[k], 0) {
			return nil, fmt.Errorf("gmm: fit diverged, non-finite component mean")
		}
	}
	return m, nil
}

// Posterior returns the posterior probability of each component given the
// intensity x. The probabilities sum to 1.
func (m *Model) Posterior(x float64) []float64 {
	logp := make([]float64, len(m.Means))
	m.logJoint(x, logp)
	total := floats.LogSumExp(logp)
	for k := range logp {
		logp[k] = math.Exp(logp[k] - total)
	}
	return logp
}

// Predict returns the index of the component with the highest posterior
// probability for the intensity x. Ties go to the lower index.
func (m *Model) Predict(x float64) int {
	logp := make([]float64, len(m.Means))
	m.logJoint(x, logp)
	best := 0
	for k := 1; k < len(logp); k++ {
		if logp[k] > logp[best] {
			best = k
		}
	}
	return best
}

// ComponentDensity evaluates the weighted density of component k at x,
// i.e. weight_k * N(x; mean_k, variance_k).
func (m *Model) ComponentDensity(k int, x float64) float64 {
	n := distuv.Normal{Mu: m.Means[k], Sigma: math.Sqrt(m.Variances[k])}
	return m.Weights[k] * n.Prob(x)
}

// logJoint fills out with log(weight_k) + log N(x; mean_k, variance_k).
func (m *Model) logJoint(x float64, out []float64) {
	for k := range m.Means {
		n := distuv.Normal{Mu: m.Means[k], Sigma: math.Sqrt(m.Variances[k])}
		out[k] = math.Log(m.Weights[k]) + n.LogProb(x)
	}
}

// eStep fills resp with posterior responsibilities under the current
// parameters and returns the mean per-observation log-likelihood.
func (m *Model) eStep(data []float64, resp [][]float64) float64 {
	ll := 0.0
	for j, x := range data {
		m.logJoint(x, resp[j])
		total := floats.LogSumExp(resp[j])
		ll += total
		for k := range resp[j] {
			resp[j][k] = math.Exp(resp[j][k] - total)
		}
	}
	return ll / float64(len(data))
}

// mStep re-estimates weights, means and variances from the current
// responsibilities, flooring each variance.
func (m *Model) mStep(data []float64, resp [][]float64, floor float64) error {
	n := float64(len(data))
	for k := range m.Means {
		nk := 0.0
		for j := range data {
			nk += resp[j][k]
		}
		if nk <= n*1e-12 {
			return fmt.Errorf("gmm: component %d collapsed to zero responsibility", k)
		}

		mean := 0.0
		for j, x := range data {
			mean += resp[j][k] * x
		}
		mean /= nk

		variance := 0.0
		for j, x := range data {
			d := x - mean
			variance += resp[j][k] * d * d
		}
		variance /= nk
		if variance < floor {
			variance = floor
		}

		m.Weights[k] = nk / n
		m.Means[k] = mean
		m.Variances[k] = variance
	}
	return nil
}

// initialMeans places the k starting means at evenly spaced quantiles of the
// data.
func initialMeans(data []float64, k int) []float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	means := make([]float64, k)
	for i := range means {
		q := (float64(i) + 0.5) / float64(k)
		means[i] = stat.Quantile(q, stat.Empirical, sorted, nil)
	}
	return means
}
