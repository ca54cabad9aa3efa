package anova

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"goanova/domain/dataset"
	"goanova/domain/stats"
	"goanova/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// perfectFitRatio bounds RSS/TSS below which the fit is treated as exact
const perfectFitRatio = 1e-10

// olsResult is the outcome of one least-squares fit
type olsResult struct {
	rss       float64
	residuals []float64
}

// fitOLS regresses y on an intercept plus the given columns. The design must
// have full column rank.
func fitOLS(y []float64, columns [][]float64) (olsResult, error) {
	n, p := len(y), len(columns)+1

	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, col := range columns {
			x.Set(i, j+1, col[i])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDNone); !ok {
		return olsResult{}, errors.ModelFit("singular value decomposition of the design matrix failed", nil)
	}
	values := svd.Values(nil)
	tol := values[0] * float64(max(n, p)) * epsilon
	rank := 0
	for _, s := range values {
		if s > tol {
			rank++
		}
	}
	if rank < p {
		return olsResult{}, errors.ModelFit(
			fmt.Sprintf("design matrix is singular (rank %d for %d columns)", rank, p), nil)
	}

	yv := mat.NewVecDense(n, append([]float64(nil), y...))
	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yv); err != nil {
		return olsResult{}, errors.ModelFit("least-squares solve failed", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	res := olsResult{residuals: make([]float64, n)}
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		res.residuals[i] = r
		res.rss += r * r
	}
	return res, nil
}

// epsilon is the float64 machine epsilon
var epsilon = math.Nextafter(1, 2) - 1

// fittedModel is the full-model fit together with its design, kept so that
// nested sub-models can be refitted for the Type-II decomposition.
type fittedModel struct {
	design  *design
	full    olsResult
	tss     float64
	dfResid int
	cache   map[string]float64
}

// fitModel builds the design and fits the full model, enforcing the
// degrees-of-freedom, rank and perfect-fit rules.
func fitModel(table *dataset.Table, spec stats.ModelSpec) (*fittedModel, error) {
	d, err := buildDesign(table, spec)
	if err != nil {
		return nil, err
	}

	n, p := d.observations(), d.parameters()
	dfResid := n - p
	if dfResid <= 0 {
		return nil, errors.ModelFit(
			fmt.Sprintf("model %q leaves no residual degrees of freedom (%d observations, %d parameters)",
				spec.String(), n, p), nil)
	}

	var all [][]float64
	for _, b := range d.blocks {
		all = append(all, b.columns...)
	}
	full, err := fitOLS(d.y, all)
	if err != nil {
		return nil, err
	}

	mean := 0.0
	for _, v := range d.y {
		mean += v
	}
	mean /= float64(n)
	tss := 0.0
	for _, v := range d.y {
		tss += (v - mean) * (v - mean)
	}
	if tss == 0 || full.rss <= perfectFitRatio*tss {
		return nil, errors.ModelFit(
			fmt.Sprintf("model %q fits the data exactly; the residual variance is zero", spec.String()), nil)
	}

	m := &fittedModel{design: d, full: full, tss: tss, dfResid: dfResid, cache: make(map[string]float64)}
	m.cache[subsetKey(allIndices(len(d.blocks)))] = full.rss
	return m, nil
}

// subModelRSS fits the model restricted to the given term blocks
func (m *fittedModel) subModelRSS(indices []int) (float64, error) {
	key := subsetKey(indices)
	if rss, ok := m.cache[key]; ok {
		return rss, nil
	}
	var columns [][]float64
	for _, i := range indices {
		columns = append(columns, m.design.blocks[i].columns...)
	}
	res, err := fitOLS(m.design.y, columns)
	if err != nil {
		return 0, err
	}
	m.cache[key] = res.rss
	return res.rss, nil
}

// typeIISumSquares computes SS(t) = RSS(R) - RSS(R + t), where R excludes t
// and every term whose factor set strictly contains t.
func (m *fittedModel) typeIISumSquares(t int) (float64, error) {
	target := m.design.blocks[t].term
	var reduced []int
	for i, b := range m.design.blocks {
		if i == t || b.term.Contains(target) {
			continue
		}
		reduced = append(reduced, i)
	}
	without, err := m.subModelRSS(reduced)
	if err != nil {
		return 0, err
	}
	with, err := m.subModelRSS(append(append([]int(nil), reduced...), t))
	if err != nil {
		return 0, err
	}
	return math.Max(without-with, 0), nil
}

// FitANOVA fits an OLS model and decomposes it with Type-II sums of squares.
// It returns either a complete table or an error.
func FitANOVA(table *dataset.Table, spec stats.ModelSpec) (*stats.ANOVATable, error) {
	return NewDistributions().fitANOVA(table, spec)
}

func (d *Distributions) fitANOVA(table *dataset.Table, spec stats.ModelSpec) (*stats.ANOVATable, error) {
	start := time.Now()

	model, err := fitModel(table, spec)
	if err != nil {
		return nil, err
	}

	residualMS := model.full.rss / float64(model.dfResid)
	result := &stats.ANOVATable{
		Formula:      spec.String(),
		Observations: model.design.observations(),
		RSquared:     1 - model.full.rss/model.tss,
	}

	for i, block := range model.design.blocks {
		ss, err := model.typeIISumSquares(i)
		if err != nil {
			return nil, err
		}
		df := len(block.columns)
		ms := ss / float64(df)
		f := ms / residualMS
		p := d.FTestPValue(f, df, model.dfResid)
		result.Rows = append(result.Rows, stats.ANOVARow{
			Term:       block.term.Name(),
			SumSquares: ss,
			DF:         df,
			MeanSquare: ms,
			FStatistic: &f,
			PValue:     &p,
		})
	}

	result.Rows = append(result.Rows, stats.ANOVARow{
		Term:       stats.ResidualTerm,
		SumSquares: model.full.rss,
		DF:         model.dfResid,
		MeanSquare: residualMS,
	})

	log.Printf("[ANOVA] Fitted %s on %d observations (%d sub-models) in %dms",
		result.Formula, result.Observations, len(model.cache), time.Since(start).Milliseconds())
	return result, nil
}

// Residuals fits the model and returns its residuals in kept-row order
func Residuals(table *dataset.Table, spec stats.ModelSpec) ([]float64, error) {
	model, err := fitModel(table, spec)
	if err != nil {
		return nil, err
	}
	return model.full.residuals, nil
}

func allIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func subsetKey(indices []int) string {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
