package ui

import (
	"goanova/domain/stats"
)

const (
	plotWidth   = 560.0
	plotLeft    = 110.0
	plotRowH    = 44.0
	plotBoxHalf = 12.0
)

// boxRow is one group's box plot in SVG coordinates
type boxRow struct {
	Group    string
	Y        float64
	Top      float64
	Height   float64
	Whisker  [2]float64
	Box      [2]float64
	Median   float64
	Outliers []float64
}

// boxPlotView lays out one box per group on a shared horizontal axis
type boxPlotView struct {
	Width  float64
	Height float64
	Left   float64
	Rows   []boxRow
	Low    float64
	High   float64
}

func newBoxPlotView(groups []stats.GroupSummary) *boxPlotView {
	if len(groups) == 0 {
		return nil
	}
	lo, hi := groups[0].BoxPlot.Min, groups[0].BoxPlot.Max
	for _, g := range groups[1:] {
		if g.BoxPlot.Min < lo {
			lo = g.BoxPlot.Min
		}
		if g.BoxPlot.Max > hi {
			hi = g.BoxPlot.Max
		}
	}

	scale := func(v float64) float64 {
		if hi == lo {
			return plotLeft + plotWidth/2
		}
		return plotLeft + (v-lo)/(hi-lo)*plotWidth
	}

	view := &boxPlotView{
		Width:  plotLeft + plotWidth + 20,
		Height: plotRowH*float64(len(groups)) + 10,
		Left:   plotLeft,
		Low:    lo,
		High:   hi,
	}
	for i, g := range groups {
		y := plotRowH*float64(i) + plotRowH/2 + 5
		row := boxRow{
			Group:   g.Group,
			Y:       y,
			Top:     y - plotBoxHalf,
			Height:  2 * plotBoxHalf,
			Whisker: [2]float64{scale(g.BoxPlot.LowerWhisker), scale(g.BoxPlot.UpperWhisker)},
			Box:     [2]float64{scale(g.BoxPlot.Q1), scale(g.BoxPlot.Q3)},
			Median:  scale(g.BoxPlot.Median),
		}
		for _, o := range g.BoxPlot.Outliers {
			row.Outliers = append(row.Outliers, scale(o))
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}
