package anova

import (
	"math"
	"testing"

	"goanova/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestLevene_HandComputed(t *testing.T) {
	// Medians 2 and 4; deviations {1,0,1} and {2,0,2} give W = 0.8.
	w, p, err := Levene([][]float64{{1, 2, 3}, {2, 4, 6}})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, w, 1e-12)

	expected := distuv.F{D1: 1, D2: 4}.Survival(0.8)
	assert.InDelta(t, expected, p, 1e-12)
}

func TestLevene_EqualSpreadIsNotRejected(t *testing.T) {
	w, p, err := Levene([][]float64{{1, 2, 3, 4}, {11, 12, 13, 14}, {101, 102, 103, 104}})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, w, 1e-12)
	assert.InDelta(t, 1.0, p, 1e-12)
}

func TestLevene_OneConstantGroup(t *testing.T) {
	w, p, err := Levene([][]float64{{5, 5, 5}, {1, 3, 5}})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, w, 1e-12)
	assert.InDelta(t, distuv.F{D1: 1, D2: 4}.Survival(4), p, 1e-12)
}

func TestLevene_DegenerateWithinGroupDispersion(t *testing.T) {
	w, p, err := Levene([][]float64{{5, 5}, {7, 7}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, w)
	assert.Equal(t, 1.0, p)

	w, p, err = Levene([][]float64{{5, 5}, {6, 8}})
	require.NoError(t, err)
	assert.True(t, math.IsInf(w, 1))
	assert.Equal(t, 0.0, p)
}

func TestLevene_Rejections(t *testing.T) {
	_, _, err := Levene([][]float64{{1, 2, 3}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInsufficientGroups, errors.GetCode(err))

	_, _, err = Levene([][]float64{{1}, {2}, {3}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInsufficientData, errors.GetCode(err))

	_, _, err = Levene([][]float64{{1, 2}, {}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInsufficientData, errors.GetCode(err))
}
