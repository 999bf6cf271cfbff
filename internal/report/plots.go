package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/monophoton/internal/analysis/regions"
)

// WritePlots saves one MET and one photon-pt PNG per region into dir and
// returns the written paths.
func WritePlots(dir string, h *Histograms) ([]string, error) {
	var files []string
	for _, n := range h.Regions() {
		rh := h.Region(n)
		for _, spec := range []struct {
			hist  *hbook.H1D
			xName string
			file  string
		}{
			{rh.MET, "MET [GeV]", fmt.Sprintf("%s_met.png", n)},
			{rh.PhotonPt, "leading photon pt [GeV]", fmt.Sprintf("%s_photon_pt.png", n)},
		} {
			p := hplot.New()
			p.Title.Text = n
			p.X.Label.Text = spec.xName
			p.Y.Label.Text = "weighted events"

			hh := hplot.NewH1D(spec.hist)
			hh.LineStyle.Color = color.RGBA{B: 255, A: 255}
			hh.Infos.Style = hplot.HInfoSummary
			p.Add(hh)
			p.Add(hplot.NewGrid())

			path := filepath.Join(dir, spec.file)
			if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
				return files, fmt.Errorf("save %s: %w", path, err)
			}
			files = append(files, path)
		}
	}
	return files, nil
}

// WriteYieldChart saves a bar chart of the region yields.
func WriteYieldChart(path string, yields []regions.Yield) error {
	p := plot.New()
	p.Title.Text = "Region yields"
	p.Y.Label.Text = "weighted events"

	values := make(plotter.Values, len(yields))
	errs := make(plotter.YErrors, len(yields))
	names := make([]string, len(yields))
	for i, y := range yields {
		values[i] = y.Count
		errs[i].Low = y.Uncertainty
		errs[i].High = y.Uncertainty
		names[i] = y.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = color.RGBA{R: 49, G: 104, B: 142, A: 255}
	p.Add(bars)
	p.NominalX(names...)

	pts := make(plotter.XYs, len(yields))
	for i, y := range yields {
		pts[i] = plotter.XY{X: float64(i), Y: y.Count}
	}
	ebars, err := plotter.NewYErrorBars(struct {
		plotter.XYer
		plotter.YErrorer
	}{pts, errs})
	if err != nil {
		return fmt.Errorf("error bars: %w", err)
	}
	p.Add(ebars)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
