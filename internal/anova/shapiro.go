package anova

import (
	"fmt"
	"math"
	"sort"

	"goanova/internal/errors"
)

// Minimum and recommended maximum sample sizes for Shapiro-Wilk.
const (
	MinNormalitySample = 3
	MaxNormalitySample = 5000
)

// Royston (1995) polynomial approximations, algorithm AS R94.
var (
	swC1 = []float64{0.0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0.0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// swTiny is reported when W falls beyond the small-sample approximation range
const swTiny = 1e-99

// ShapiroWilk computes the Shapiro-Wilk W statistic and its p-value.
// The input is not modified.
func ShapiroWilk(values []float64) (w, p float64, err error) {
	return NewDistributions().shapiroWilk(values)
}

func (d *Distributions) shapiroWilk(values []float64) (float64, float64, error) {
	n := len(values)
	if n < MinNormalitySample {
		return 0, 0, errors.InsufficientData(
			fmt.Sprintf("normality test needs at least %d observations, got %d", MinNormalitySample, n))
	}

	x := make([]float64, n)
	copy(x, values)
	sort.Float64s(x)

	if x[n-1] == x[0] {
		return 0, 0, errors.InsufficientData("normality test is undefined when all observations are identical")
	}

	a := d.shapiroCoefficients(n)

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	ss := 0.0
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}

	b := 0.0
	for i, ai := range a {
		b += ai * (x[n-1-i] - x[i])
	}

	w := math.Min(b*b/ss, 1)
	return w, d.shapiroPValue(w, n), nil
}

// shapiroCoefficients returns the antisymmetric weights a_1..a_{n/2}
// applied to x_(n+1-i) - x_(i).
func (d *Distributions) shapiroCoefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, half)
	summ2 := 0.0
	for i := range m {
		m[i] = d.NormalQuantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a1 := poly(swC1, rsn) - m[0]/ssumm2

	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func (d *Distributions) shapiroPValue(w float64, n int) float64 {
	if n == 3 {
		const sixOverPi, piOverThree = 6 / math.Pi, math.Pi / 3
		return clampProbability(sixOverPi * (math.Asin(math.Sqrt(w)) - piOverThree))
	}

	an := float64(n)
	y := math.Log(1 - w)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return swTiny
		}
		y = -math.Log(gamma - y)
		mu = poly(swC3, an)
		sigma = math.Exp(poly(swC4, an))
	} else {
		lnN := math.Log(an)
		mu = poly(swC5, lnN)
		sigma = math.Exp(poly(swC6, lnN))
	}
	return clampProbability(d.NormalUpperTail(y, mu, sigma))
}

// poly evaluates cc[0] + cc[1]x + cc[2]x^2 + ...
func poly(cc []float64, x float64) float64 {
	result := 0.0
	for i := len(cc) - 1; i >= 0; i-- {
		result = result*x + cc[i]
	}
	return result
}
