// Package tissue computes tissue-class membership masks for brain MR volumes
// by fitting unsupervised intensity models to the voxels selected by a brain
// mask. Two engines share the same data flow: derive the inclusion mask,
// gather the masked intensity vector, fit a model, order the discovered
// classes by an intensity-meaningful criterion, and scatter per-voxel results
// back into the original geometry.
//
// The fuzzy engine orders classes by ascending cluster center, the mixture
// engine by ascending mixture weight. Either way index 0 is the
// lowest-ranked class (nominally CSF) and the last index the highest
// (nominally WM on T1-weighted images).
package tissue

import (
	"sort"

	"tissuemask/pkg/fcm"
	"tissuemask/pkg/gmm"
	"tissuemask/pkg/volume"
)

// ContrastT1 selects the brightness-based white matter peak rule: on
// T1-weighted images white matter is the brightest tissue, so the peak is the
// largest component mean. Any other contrast string routes to the
// prevalence-based rule, which takes the mean of the heaviest-weighted
// component; unrecognized contrasts are deliberately not rejected.
const ContrastT1 = "t1"

// FuzzyOptions configures the fuzzy c-means engine.
type FuzzyOptions struct {
	// Clusters, Fuzziness, Tolerance and MaxIterations are passed through
	// to the fuzzy c-means fit.
	Clusters      int
	Fuzziness     float64
	Tolerance     float64
	MaxIterations int

	// HardSeg selects discrete label output instead of soft memberships.
	HardSeg bool
}

// DefaultFuzzyOptions returns the standard three-class soft-output
// configuration.
func DefaultFuzzyOptions() FuzzyOptions {
	p := fcm.DefaultParams()
	return FuzzyOptions{
		Clusters:      p.Clusters,
		Fuzziness:     p.Fuzziness,
		Tolerance:     p.Tolerance,
		MaxIterations: p.MaxIterations,
	}
}

// MixtureOptions configures the Gaussian mixture engine.
type MixtureOptions struct {
	// Components, Tolerance and MaxIterations are passed through to the
	// EM fit.
	Components    int
	Tolerance     float64
	MaxIterations int

	// HardSeg selects discrete label output instead of posterior
	// probabilities. Ignored by WMPeak.
	HardSeg bool
}

// DefaultMixtureOptions returns the standard three-component soft-output
// configuration.
func DefaultMixtureOptions() MixtureOptions {
	p := gmm.DefaultParams()
	return MixtureOptions{
		Components:    p.Components,
		Tolerance:     p.Tolerance,
		MaxIterations: p.MaxIterations,
	}
}

// FuzzyMask segments img into opts.Clusters tissue classes with fuzzy
// c-means. brain may be nil, in which case the strictly positive voxels of
// img define the inclusion mask.
//
// The soft result has img's shape plus a trailing class dimension; slice k
// holds the membership of each included voxel in the class with the k-th
// smallest cluster center, and is zero at excluded voxels. With
// opts.HardSeg the result has img's shape and holds 1+argmax membership at
// included voxels, so labels run 1..Clusters and 0 marks excluded voxels.
func FuzzyMask(img, brain *volume.Volume, opts FuzzyOptions) (*volume.Volume, error) {
	mask, vals, err := maskedIntensities(img, brain)
	if err != nil {
		return nil, err
	}

	model, err := fcm.Fit(vals, fcm.Params{
		Clusters:      opts.Clusters,
		Fuzziness:     opts.Fuzziness,
		Tolerance:     opts.Tolerance,
		MaxIterations: opts.MaxIterations,
	})
	if err != nil {
		return nil, &FitError{Err: err}
	}

	order := orderAscending(model.Centers)

	if opts.HardSeg {
		labels := make([]float64, len(vals))
		for j := range vals {
			best := 0
			for k := 1; k < len(order); k++ {
				if model.Memberships[order[k]][j] > model.Memberships[order[best]][j] {
					best = k
				}
			}
			labels[j] = float64(best + 1)
		}
		out := volume.New(img.Shape...)
		if err := mask.Scatter(labels, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	out := volume.New(append(append([]int(nil), img.Shape...), opts.Clusters)...)
	for k, raw := range order {
		if err := mask.ScatterClass(model.Memberships[raw], k, opts.Clusters, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MixtureMask segments img into opts.Components tissue classes with a
// Gaussian mixture model. Classes are ranked by ascending mixture weight.
//
// The soft result has img's shape plus a trailing class dimension holding
// posterior probabilities in weight rank order, zero at excluded voxels.
// With opts.HardSeg the result has img's shape and included voxels carry
// rank+2, i.e. values 2..Components+1 with 0 still marking excluded voxels.
// The extra offset on top of the 1-based rank reproduces the encoding of the
// historical implementation; see DESIGN.md for why it is kept verbatim.
func MixtureMask(img, brain *volume.Volume, opts MixtureOptions) (*volume.Volume, error) {
	mask, vals, err := maskedIntensities(img, brain)
	if err != nil {
		return nil, err
	}

	model, err := gmm.Fit(vals, gmm.Params{
		Components:    opts.Components,
		Tolerance:     opts.Tolerance,
		MaxIterations: opts.MaxIterations,
	})
	if err != nil {
		return nil, &FitError{Err: err}
	}

	order := orderAscending(model.Weights)

	if opts.HardSeg {
		rank := rankOf(order)
		labels := make([]float64, len(vals))
		for j, x := range vals {
			labels[j] = float64(rank[model.Predict(x)] + 2)
		}
		out := volume.New(img.Shape...)
		if err := mask.Scatter(labels, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	cols := make([][]float64, opts.Components)
	for k := range cols {
		cols[k] = make([]float64, len(vals))
	}
	for j, x := range vals {
		post := model.Posterior(x)
		for k, raw := range order {
			cols[k][j] = post[raw]
		}
	}

	out := volume.New(append(append([]int(nil), img.Shape...), opts.Components)...)
	for k := range cols {
		if err := mask.ScatterClass(cols[k], k, opts.Components, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WMPeak estimates the white matter peak intensity of img from a Gaussian
// mixture fit to the masked intensities. For contrast "t1" the peak is the
// largest component mean; for every other contrast string it is the mean of
// the component with the largest mixture weight.
func WMPeak(img, brain *volume.Volume, contrast string, opts MixtureOptions) (float64, error) {
	_, vals, err := maskedIntensities(img, brain)
	if err != nil {
		return 0, err
	}

	model, err := gmm.Fit(vals, gmm.Params{
		Components:    opts.Components,
		Tolerance:     opts.Tolerance,
		MaxIterations: opts.MaxIterations,
	})
	if err != nil {
		return 0, &FitError{Err: err}
	}

	if contrast == ContrastT1 {
		peak := model.Means[0]
		for _, mu := range model.Means[1:] {
			if mu > peak {
				peak = mu
			}
		}
		return peak, nil
	}

	// Prevalence rule: the first component with the maximal weight wins,
	// matching the tie-break of orderAscending.
	best := 0
	for k := 1; k < len(model.Weights); k++ {
		if model.Weights[k] > model.Weights[best] {
			best = k
		}
	}
	return model.Means[best], nil
}

// maskedIntensities derives the inclusion mask and gathers the masked
// intensity vector, failing fast on shape mismatch or an empty mask.
func maskedIntensities(img, brain *volume.Volume) (*volume.Mask, []float64, error) {
	mask, err := volume.InclusionMask(img, brain)
	if err != nil {
		return nil, nil, err
	}
	vals, err := mask.Gather(img)
	if err != nil {
		return nil, nil, err
	}
	if len(vals) == 0 {
		return nil, nil, ErrEmptyMask
	}
	return mask, vals, nil
}

// orderAscending returns the component indices sorted by ascending key.
// Equal keys keep their original relative order, so the tie-break is the
// raw component index.
func orderAscending(keys []float64) []int {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] < keys[order[b]]
	})
	return order
}

// rankOf inverts an ordering permutation: rank[raw] is the position of raw
// component index raw in the ordering.
func rankOf(order []int) []int {
	rank := make([]int, len(order))
	for pos, raw := range order {
		rank[raw] = pos
	}
	return rank
}
