package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func wavelengthLabels(lambdas []float64) []string {
	labels := make([]string, len(lambdas))
	for i, l := range lambdas {
		labels[i] = fmt.Sprintf("%.0f nm", l)
	}
	return labels
}

func newFocusChart(lensName string, samples []FocusSample) *charts.Line {
	shortest, longest := FocusSpread(samples)
	subtitle := fmt.Sprintf("focal spread %.1f µm (%.0f nm - %.0f nm)",
		1000*(longest.BackFocus-shortest.BackFocus), shortest.Lambda, longest.Lambda)

	lambdas := make([]float64, len(samples))
	items := make([]opts.LineData, len(samples))
	for i, s := range samples {
		lambdas[i] = s.Lambda
		items[i] = opts.LineData{Value: s.BackFocus}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Chromatic focus shift: " + lensName, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: lensName, Width: "1200px", Height: "600px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "wavelength"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "back focus (mm)"}),
	)
	line.SetXAxis(wavelengthLabels(lambdas)).
		AddSeries("back focus", items).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return line
}

func newSpotChart(lensName string, spots []Spot) *charts.Bar {
	lambdas := make([]float64, len(spots))
	items := make([]opts.BarData, len(spots))
	for i, s := range spots {
		lambdas[i] = s.Lambda
		items[i] = opts.BarData{Value: 1000 * s.RMS}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "RMS spot radius: " + lensName, Subtitle: "on-axis point at the sensor plane"}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: lensName, Width: "1200px", Height: "600px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "wavelength"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RMS radius (µm)"}),
	)
	bar.SetXAxis(wavelengthLabels(lambdas)).
		AddSeries("rms", items).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return bar
}

// WriteCharts renders the focus and spot charts as one interactive HTML page. Either
// slice may be empty, in which case its chart is left out.
func WriteCharts(w io.Writer, lensName string, focus []FocusSample, spots []Spot) error {
	page := components.NewPage()
	if len(focus) > 0 {
		page.AddCharts(newFocusChart(lensName, focus))
	}
	if len(spots) > 0 {
		page.AddCharts(newSpotChart(lensName, spots))
	}
	return page.Render(w)
}

// SaveCharts writes the chart page to path
func SaveCharts(path, lensName string, focus []FocusSample, spots []Spot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCharts(f, lensName, focus, spots); err != nil {
		f.Close()
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return f.Close()
}
