package anova

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides the reference distributions used by the tests in
// this package.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// FTestPValue computes the upper-tail p-value of an F statistic.
// An infinite statistic has p = 0; NaN or non-positive df yields NaN.
func (d *Distributions) FTestPValue(fStatistic float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(fStatistic) {
		return math.NaN()
	}
	if math.IsInf(fStatistic, 1) {
		return 0
	}
	if fStatistic <= 0 {
		return 1
	}

	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return clampProbability(fDist.Survival(fStatistic))
}

// NormalQuantile computes the quantile function of the standard normal
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// NormalUpperTail computes P(X > x) for X ~ N(mu, sigma)
func (d *Distributions) NormalUpperTail(x, mu, sigma float64) float64 {
	n := distuv.Normal{Mu: mu, Sigma: sigma}
	return n.Survival(x)
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
