package dataset

import (
	"math"
	"strings"
	"testing"

	"goanova/adapters/excel"
	"goanova/domain/dataset"
	"goanova/internal/config"
	"goanova/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_InfersTypesAndNormalizesHeaders(t *testing.T) {
	loader := NewLoader(config.Default().Data)
	input := "\ufeffPlant Height;Fert@Type;Block\n12.5;A;1\nNA;B;2\n14; A ;\n"

	table, err := loader.Load("plants.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Plant_Height", "Fert_Type", "Block"}, table.Names())
	assert.Equal(t, 3, table.RowCount())

	height, err := table.Column("Plant_Height")
	require.NoError(t, err)
	assert.Equal(t, dataset.TypeNumeric, height.Type)
	assert.Equal(t, 12.5, height.Numbers[0])
	assert.True(t, math.IsNaN(height.Numbers[1]))

	fert, err := table.Column("Fert_Type")
	require.NoError(t, err)
	assert.Equal(t, dataset.TypeCategorical, fert.Type)
	assert.Equal(t, []string{"A", "B"}, fert.Levels())

	block, err := table.Column("Block")
	require.NoError(t, err)
	assert.True(t, block.IsNumeric())
	assert.True(t, block.IsMissing(2))
}

func TestBuildTable_MixedColumnIsCategorical(t *testing.T) {
	table, err := BuildTable(&excel.RawData{
		Headers: []string{"Code"},
		Rows:    [][]string{{"1"}, {"2b"}, {""}},
	})
	require.NoError(t, err)

	code, err := table.Column("Code")
	require.NoError(t, err)
	assert.Equal(t, dataset.TypeCategorical, code.Type)
	assert.Equal(t, []string{"1", "2b", ""}, code.Labels)
}

func TestBuildTable_RejectsCollidingHeaders(t *testing.T) {
	_, err := BuildTable(&excel.RawData{
		Headers: []string{"Group 1", "Group@1"},
		Rows:    [][]string{{"a", "b"}},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), "Group_1")
}

func TestLoader_PropagatesReaderErrors(t *testing.T) {
	loader := NewLoader(config.Default().Data)
	_, err := loader.Load("empty.csv", strings.NewReader(""))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
