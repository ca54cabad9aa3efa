package dataset

import (
	stderrors "errors"
	"math"
	"testing"

	"goanova/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(
		NewCategoricalColumn("Diet", []string{"B", "A", "B", "", "A"}),
		NewNumericColumn("Weight", []float64{3.5, 2.0, 4.0, 1.0, math.NaN()}),
		NewNumericColumn("Dose", []float64{1, 2, 1, 2, 1}),
	)
	require.NoError(t, err)
	return table
}

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Group 1@Score", "Group_1_Score"},
		{"  weight ", "weight"},
		{"\ufeffid", "id"},
		{"dose-mg", "dose_mg"},
		{"2nd_trial", "_2nd_trial"},
		{"", "Unnamed_3"},
		{"rendement@parcelle", "rendement_parcelle"},
	}

	for _, tt := range tests {
		got := NormalizeColumnName(tt.raw, 3)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
		assert.True(t, IsIdentifier(got), "normalized %q must be an identifier", got)
	}
}

func TestNewTable_RejectsInvalidColumns(t *testing.T) {
	_, err := NewTable(NewNumericColumn("a b", []float64{1}))
	assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))

	_, err = NewTable(NewNumericColumn("a", []float64{1}), NewNumericColumn("a", []float64{2}))
	assert.ErrorContains(t, err, "duplicate column name")

	_, err = NewTable(NewNumericColumn("a", []float64{1, 2}), NewCategoricalColumn("b", []string{"x"}))
	assert.ErrorContains(t, err, "has 1 values, expected 2")

	_, err = NewTable()
	assert.Error(t, err)
}

func TestTable_ColumnLookup(t *testing.T) {
	table := sampleTable(t)

	col, err := table.Column("Weight")
	require.NoError(t, err)
	assert.True(t, col.IsNumeric())

	_, err = table.Column("Height")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))

	assert.Equal(t, []string{"Diet", "Weight", "Dose"}, table.Names())
	assert.Equal(t, []string{"Weight", "Dose"}, table.NamesOfType(TypeNumeric))
	assert.Equal(t, 5, table.RowCount())
	assert.Equal(t, 3, table.ColumnCount())
}

func TestTable_GroupBy(t *testing.T) {
	table := sampleTable(t)

	g, err := table.GroupBy("Weight", "Diet")
	require.NoError(t, err)

	// Row 3 has no diet and row 4 has no weight.
	assert.Equal(t, []string{"A", "B"}, g.Keys)
	assert.Equal(t, []float64{2.0}, g.Groups["A"])
	assert.Equal(t, []float64{3.5, 4.0}, g.Groups["B"])
	assert.Equal(t, 3, g.Total())
	assert.Equal(t, [][]float64{{2.0}, {3.5, 4.0}}, g.Samples())
}

func TestTable_GroupByNumericKey(t *testing.T) {
	table := sampleTable(t)

	g, err := table.GroupBy("Weight", "Dose")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, g.Keys)
	assert.Equal(t, []float64{3.5, 4.0}, g.Groups["1"])
}

func TestTable_GroupByRequiresNumericValues(t *testing.T) {
	table := sampleTable(t)

	_, err := table.GroupBy("Diet", "Dose")
	assert.True(t, stderrors.Is(err, errors.ErrNonNumericInput))
}

func TestColumn_LevelsAndHead(t *testing.T) {
	table := sampleTable(t)
	diet, _ := table.Column("Diet")
	assert.Equal(t, []string{"A", "B"}, diet.Levels())

	head := table.Head(2)
	require.Len(t, head, 2)
	assert.Equal(t, "B", head[0]["Diet"])
	assert.Equal(t, "3.5", head[0]["Weight"])
	assert.Len(t, table.Head(50), 5)
}
