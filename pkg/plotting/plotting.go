// Package plotting renders diagnostic plots for fitted intensity models.
// The plots are a quality-control aid for inspecting how well a fit tracks
// the masked intensity distribution; they play no part in mask computation.
package plotting

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"tissuemask/pkg/fcm"
	"tissuemask/pkg/gmm"
)

// histogramBins is the number of bins used for the intensity histogram.
const histogramBins = 64

// SaveMixtureFit writes a plot of the masked intensity histogram overlaid
// with the weighted density of each fitted mixture component.
func SaveMixtureFit(vals []float64, model *gmm.Model, path string) error {
	p := plot.New()
	p.Title.Text = "Masked intensity distribution with fitted mixture"
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Density"

	hist, err := plotter.NewHist(plotter.Values(vals), histogramBins)
	if err != nil {
		return fmt.Errorf("error building intensity histogram: %w", err)
	}
	hist.Normalize(1)
	p.Add(hist)

	for k := range model.Means {
		k := k
		f := plotter.NewFunction(func(x float64) float64 {
			return model.ComponentDensity(k, x)
		})
		f.Samples = 200
		f.Color = plotutil.Color(k)
		p.Add(f)
		p.Legend.Add(fmt.Sprintf("component %d", k), f)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("error saving mixture fit plot: %w", err)
	}
	return nil
}

// SaveMembershipProfile writes a plot of the fitted fuzzy membership of each
// cluster as a function of intensity over [lo, hi].
func SaveMembershipProfile(model *fcm.Model, lo, hi float64, path string) error {
	if hi <= lo {
		return fmt.Errorf("plotting: invalid intensity range [%g, %g]", lo, hi)
	}

	p := plot.New()
	p.Title.Text = "Fuzzy membership profile"
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Membership"
	p.X.Min, p.X.Max = lo, hi
	p.Y.Min, p.Y.Max = 0, 1

	for k := range model.Centers {
		k := k
		f := plotter.NewFunction(func(x float64) float64 {
			return model.MembershipAt(x)[k]
		})
		f.Samples = 200
		f.Color = plotutil.Color(k)
		p.Add(f)
		p.Legend.Add(fmt.Sprintf("cluster %d", k), f)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("error saving membership profile plot: %w", err)
	}
	return nil
}
