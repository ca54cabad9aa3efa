package anova

import (
	"fmt"
	"math"

	"goanova/internal/errors"

	"github.com/montanaflynn/stats"
)

// Levene computes Levene's test for equal variances across all samples at
// once, centring each sample on its median (the Brown-Forsythe variant).
func Levene(samples [][]float64) (w, p float64, err error) {
	return NewDistributions().levene(samples)
}

func (d *Distributions) levene(samples [][]float64) (float64, float64, error) {
	k := len(samples)
	if k < 2 {
		return 0, 0, errors.New(errors.CodeInsufficientGroups,
			fmt.Sprintf("homogeneity test needs at least 2 groups, got %d", k))
	}

	// Absolute deviations from each group's median.
	deviations := make([][]float64, k)
	groupMeans := make([]float64, k)
	total := 0
	grandSum := 0.0
	for i, sample := range samples {
		if len(sample) == 0 {
			return 0, 0, errors.InsufficientData(fmt.Sprintf("group %d is empty", i+1))
		}
		median, err := stats.Median(sample)
		if err != nil {
			return 0, 0, errors.Wrap(err, "failed to compute group median")
		}
		z := make([]float64, len(sample))
		for j, v := range sample {
			z[j] = math.Abs(v - median)
			grandSum += z[j]
		}
		mean, err := stats.Mean(z)
		if err != nil {
			return 0, 0, errors.Wrap(err, "failed to compute group deviation mean")
		}
		deviations[i] = z
		groupMeans[i] = mean
		total += len(sample)
	}

	if total-k <= 0 {
		return 0, 0, errors.InsufficientData(
			fmt.Sprintf("homogeneity test needs more observations than groups (%d observations, %d groups)", total, k))
	}

	grandMean := grandSum / float64(total)
	between, within := 0.0, 0.0
	for i, z := range deviations {
		diff := groupMeans[i] - grandMean
		between += float64(len(z)) * diff * diff
		for _, v := range z {
			within += (v - groupMeans[i]) * (v - groupMeans[i])
		}
	}

	dfBetween, dfWithin := k-1, total-k
	if within == 0 {
		// Every group has constant spread around its median.
		if between == 0 {
			return 0, 1, nil
		}
		return math.Inf(1), 0, nil
	}

	w := (float64(dfWithin) / float64(dfBetween)) * between / within
	return w, d.FTestPValue(w, dfBetween, dfWithin), nil
}
