package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/kgkim70/openpilot/internal/security"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// savePNG writes one PNG per figure into dir and returns the paths.
func savePNG(dir string, figs []Figure) ([]string, error) {
	var paths []string
	for _, fig := range figs {
		p := plot.New()
		p.Title.Text = fig.Title
		p.X.Label.Text = fig.XLabel
		p.Y.Label.Text = fig.YLabel
		p.Add(plotter.NewGrid())

		for i, s := range fig.Series {
			pts := make(plotter.XYs, len(s.X))
			for j := range s.X {
				pts[j] = plotter.XY{X: s.X[j], Y: s.Y[j]}
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return nil, fmt.Errorf("failed to build %s line: %w", s.Name, err)
			}
			line.Color = plotutil.Color(i)
			line.Width = vg.Points(1.5)
			p.Add(line)
			p.Legend.Add(s.Name, line)
		}
		p.Legend.Top = true

		path := filepath.Join(dir, "shaper_"+security.SanitizeFilename(fig.Name)+".png")
		if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// renderHTML writes all figures as an interactive echarts page.
func renderHTML(w io.Writer, figs []Figure) error {
	page := components.NewPage()
	page.SetPageTitle("Acceleration shaper")

	for _, fig := range figs {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
			charts.WithTitleOpts(opts.Title{Title: fig.Title}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
			charts.WithXAxisOpts(opts.XAxis{Name: fig.XLabel, NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel}),
		)

		if len(fig.Series) == 0 {
			page.AddCharts(line)
			continue
		}
		xs := make([]string, len(fig.Series[0].X))
		for i, x := range fig.Series[0].X {
			xs[i] = formatFloat(x)
		}
		line.SetXAxis(xs)
		for _, s := range fig.Series {
			data := make([]opts.LineData, len(s.Y))
			for i, y := range s.Y {
				data[i] = opts.LineData{Value: y}
			}
			line.AddSeries(s.Name, data)
		}
		page.AddCharts(line)
	}

	return page.Render(w)
}
