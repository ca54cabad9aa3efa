package anova

import (
	"fmt"
	"log"

	"goanova/domain/dataset"
	"goanova/domain/stats"
	"goanova/internal/errors"
)

// Engine runs assumption tests and model fits against a single table.
// It holds no table state; every call names the table it reads.
type Engine struct {
	dist *Distributions
}

// NewEngine creates a new ANOVA engine
func NewEngine() *Engine {
	return &Engine{dist: NewDistributions()}
}

// TestNormality returns the Shapiro-Wilk p-value for a numeric column
func (e *Engine) TestNormality(table *dataset.Table, column string) (float64, error) {
	result, err := e.Normality(table, column)
	if err != nil {
		return 0, err
	}
	return result.PValue, nil
}

// Normality runs Shapiro-Wilk on the non-missing values of a column
func (e *Engine) Normality(table *dataset.Table, column string) (stats.NormalityResult, error) {
	col, err := table.Column(column)
	if err != nil {
		return stats.NormalityResult{}, err
	}
	if !col.IsNumeric() {
		return stats.NormalityResult{}, errors.NonNumericInput(column)
	}

	values := col.Present()
	if len(values) > MaxNormalitySample {
		log.Printf("[ANOVA] Warning: %d observations in %q exceed %d; the Shapiro-Wilk p-value may be inaccurate",
			len(values), column, MaxNormalitySample)
	}

	w, p, err := e.dist.shapiroWilk(values)
	if err != nil {
		return stats.NormalityResult{}, errors.Wrapf(err, "normality test on %q", column)
	}
	return stats.NormalityResult{Column: column, N: len(values), W: w, PValue: p}, nil
}

// TestHomogeneity returns the Levene p-value of column across the groups of
// groupColumn.
func (e *Engine) TestHomogeneity(table *dataset.Table, column, groupColumn string) (float64, error) {
	result, err := e.Homogeneity(table, column, groupColumn)
	if err != nil {
		return 0, err
	}
	return result.PValue, nil
}

// Homogeneity runs median-centred Levene across every group at once
func (e *Engine) Homogeneity(table *dataset.Table, column, groupColumn string) (stats.HomogeneityResult, error) {
	grouping, err := table.GroupBy(column, groupColumn)
	if err != nil {
		return stats.HomogeneityResult{}, err
	}
	if grouping.Len() < 2 {
		return stats.HomogeneityResult{}, errors.InsufficientGroups(groupColumn, grouping.Len(), 2)
	}

	w, p, err := e.dist.levene(grouping.Samples())
	if err != nil {
		return stats.HomogeneityResult{}, errors.Wrapf(err, "homogeneity test of %q by %q", column, groupColumn)
	}
	return stats.HomogeneityResult{
		Column:      column,
		GroupColumn: groupColumn,
		Groups:      grouping.Len(),
		N:           grouping.Total(),
		W:           w,
		PValue:      p,
	}, nil
}

// TestResidualNormality fits spec and runs Shapiro-Wilk on the residuals
func (e *Engine) TestResidualNormality(table *dataset.Table, spec stats.ModelSpec) (stats.NormalityResult, error) {
	residuals, err := Residuals(table, spec)
	if err != nil {
		return stats.NormalityResult{}, err
	}
	w, p, err := e.dist.shapiroWilk(residuals)
	if err != nil {
		return stats.NormalityResult{}, errors.Wrapf(err, "normality test on residuals of %s", spec.String())
	}
	return stats.NormalityResult{
		Column: fmt.Sprintf("residuals(%s)", spec.String()),
		N:      len(residuals),
		W:      w,
		PValue: p,
	}, nil
}

// FitANOVA fits spec against table and returns its Type-II ANOVA table
func (e *Engine) FitANOVA(table *dataset.Table, spec stats.ModelSpec) (*stats.ANOVATable, error) {
	return e.dist.fitANOVA(table, spec)
}

// DescribeGroups returns per-group descriptive and box-plot summaries
func (e *Engine) DescribeGroups(table *dataset.Table, column, groupColumn string) ([]stats.GroupSummary, error) {
	return DescribeGroups(table, column, groupColumn)
}
