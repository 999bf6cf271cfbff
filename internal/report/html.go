package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/monophoton/internal/analysis/regions"
)

// WriteHTML renders the yields and every cut flow as bar charts on one
// page.
func WriteHTML(w io.Writer, title string, yields []regions.Yield, flows []regions.Flow) error {
	page := components.NewPage()
	page.PageTitle = title

	names := make([]string, len(yields))
	data := make([]opts.BarData, len(yields))
	for i, y := range yields {
		names[i] = y.Name
		data[i] = opts.BarData{Name: fmt.Sprintf("%s (± %.3f)", y.Name, y.Uncertainty), Value: y.Count}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Region yields", Subtitle: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("yield", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	page.AddCharts(bar)

	for _, f := range flows {
		labels := make([]string, len(f.Steps))
		steps := make([]opts.BarData, len(f.Steps))
		for i, st := range f.Steps {
			labels[i] = st.Name
			steps[i] = opts.BarData{Value: st.SumW}
		}
		fb := charts.NewBar()
		fb.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
			charts.WithTitleOpts(opts.Title{Title: "Cut flow: " + f.Region}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		)
		fb.SetXAxis(labels).AddSeries(f.Region, steps)
		page.AddCharts(fb)
	}

	return page.Render(w)
}
