package anova

import (
	"fmt"
	"math"
	"sort"

	"goanova/domain/dataset"
	domainstats "goanova/domain/stats"
	"goanova/internal/errors"

	"github.com/montanaflynn/stats"
)

// whiskerReach is the whisker length in interquartile ranges
const whiskerReach = 1.5

// DescribeGroups summarises valueColumn per group of groupColumn, in sorted
// group order. A single group is allowed.
func DescribeGroups(table *dataset.Table, valueColumn, groupColumn string) ([]domainstats.GroupSummary, error) {
	grouping, err := table.GroupBy(valueColumn, groupColumn)
	if err != nil {
		return nil, err
	}
	if grouping.Len() == 0 {
		return nil, errors.InsufficientData(
			fmt.Sprintf("column %q has no observations with a %q value", valueColumn, groupColumn))
	}

	summaries := make([]domainstats.GroupSummary, 0, grouping.Len())
	for _, key := range grouping.Keys {
		summary, err := summarise(key, grouping.Groups[key])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func summarise(group string, values []float64) (domainstats.GroupSummary, error) {
	mean, err := stats.Mean(values)
	if err != nil {
		return domainstats.GroupSummary{}, errors.Wrap(err, "failed to compute group mean")
	}
	sd := 0.0
	if len(values) > 1 {
		if sd, err = stats.StandardDeviationSample(values); err != nil {
			return domainstats.GroupSummary{}, errors.Wrap(err, "failed to compute group standard deviation")
		}
	}
	box, err := boxPlot(values)
	if err != nil {
		return domainstats.GroupSummary{}, err
	}
	return domainstats.GroupSummary{Group: group, N: len(values), Mean: mean, StdDev: sd, BoxPlot: box}, nil
}

func boxPlot(values []float64) (domainstats.BoxPlotSummary, error) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	median, err := stats.Median(sorted)
	if err != nil {
		return domainstats.BoxPlotSummary{}, errors.Wrap(err, "failed to compute group median")
	}
	box := domainstats.BoxPlotSummary{
		Min:      sorted[0],
		Q1:       quantile(sorted, 0.25),
		Median:   median,
		Q3:       quantile(sorted, 0.75),
		Max:      sorted[len(sorted)-1],
		Outliers: []float64{},
	}

	iqr := box.Q3 - box.Q1
	low, high := box.Q1-whiskerReach*iqr, box.Q3+whiskerReach*iqr
	box.LowerWhisker, box.UpperWhisker = box.Max, box.Min
	for _, v := range sorted {
		if v < low || v > high {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		box.LowerWhisker = math.Min(box.LowerWhisker, v)
		box.UpperWhisker = math.Max(box.UpperWhisker, v)
	}
	return box, nil
}

// quantile interpolates linearly between order statistics of sorted data
// at position q*(n-1).
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
