package anova

import (
	"math"
	"testing"

	"goanova/domain/dataset"
	"goanova/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeGroups_BoxPlot(t *testing.T) {
	table := mustTable(t,
		dataset.NewNumericColumn("Score", []float64{3, 1, 100, 5, 2, 4, 6, 7, math.NaN()}),
		dataset.NewCategoricalColumn("Group", []string{"a", "a", "a", "b", "a", "a", "b", "c", "c"}),
	)

	summaries, err := DescribeGroups(table, "Score", "Group")
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	a := summaries[0]
	assert.Equal(t, "a", a.Group)
	assert.Equal(t, 5, a.N)
	assert.InDelta(t, 22.0, a.Mean, 1e-12)
	assert.Equal(t, 1.0, a.BoxPlot.Min)
	assert.Equal(t, 2.0, a.BoxPlot.Q1)
	assert.Equal(t, 3.0, a.BoxPlot.Median)
	assert.Equal(t, 4.0, a.BoxPlot.Q3)
	assert.Equal(t, 100.0, a.BoxPlot.Max)
	assert.Equal(t, 1.0, a.BoxPlot.LowerWhisker)
	assert.Equal(t, 4.0, a.BoxPlot.UpperWhisker)
	assert.Equal(t, []float64{100}, a.BoxPlot.Outliers)

	b := summaries[1]
	assert.InDelta(t, 5.25, b.BoxPlot.Q1, 1e-12)
	assert.InDelta(t, 5.5, b.BoxPlot.Median, 1e-12)
	assert.InDelta(t, 5.75, b.BoxPlot.Q3, 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), b.StdDev, 1e-12)
	assert.Empty(t, b.BoxPlot.Outliers)

	c := summaries[2]
	assert.Equal(t, 1, c.N)
	assert.Equal(t, 0.0, c.StdDev)
	assert.Equal(t, 7.0, c.BoxPlot.LowerWhisker)
	assert.Equal(t, 7.0, c.BoxPlot.UpperWhisker)
}

func TestDescribeGroups_SingleGroupAllowed(t *testing.T) {
	table := mustTable(t,
		dataset.NewNumericColumn("Score", []float64{1, 2, 3}),
		dataset.NewCategoricalColumn("Group", []string{"x", "x", "x"}),
	)

	summaries, err := DescribeGroups(table, "Score", "Group")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].N)
}

func TestDescribeGroups_Errors(t *testing.T) {
	table := mustTable(t,
		dataset.NewNumericColumn("Score", []float64{math.NaN(), math.NaN()}),
		dataset.NewCategoricalColumn("Group", []string{"x", "y"}),
	)

	_, err := DescribeGroups(table, "Score", "Group")
	assert.Equal(t, errors.CodeInsufficientData, errors.GetCode(err))

	_, err = DescribeGroups(table, "Group", "Score")
	assert.Equal(t, errors.CodeNonNumericInput, errors.GetCode(err))

	_, err = DescribeGroups(table, "Nope", "Group")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
