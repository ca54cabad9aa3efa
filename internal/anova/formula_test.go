package anova

import (
	"testing"

	"goanova/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFormula_Rendering(t *testing.T) {
	tests := []struct {
		name         string
		dependent    string
		independents []string
		interactions []Interaction
		expected     string
	}{
		{"one factor", "Y", []string{"A"}, nil, "Y ~ A"},
		{"two factors", "Y", []string{"A", "B"}, nil, "Y ~ A + B"},
		{"with interaction", "Yield", []string{"Fert", "Water"}, []Interaction{{"Fert", "Water"}}, "Yield ~ Fert + Water + Fert:Water"},
		{"interaction order kept", "Y", []string{"A", "B", "C"}, []Interaction{{"C", "A"}, {"A", "B"}}, "Y ~ A + B + C + C:A + A:B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := BuildFormula(tt.dependent, tt.independents, tt.interactions)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, spec.String())
		})
	}
}

func TestBuildFormula_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		dependent    string
		independents []string
		interactions []Interaction
	}{
		{"empty dependent", " ", []string{"A"}, nil},
		{"no independents", "Y", nil, nil},
		{"empty independent", "Y", []string{"A", ""}, nil},
		{"duplicate independent", "Y", []string{"A", "A"}, nil},
		{"self interaction", "Y", []string{"A", "B"}, []Interaction{{"A", "A"}}},
		{"undeclared member", "Y", []string{"A", "B"}, []Interaction{{"A", "C"}}},
		{"pair twice", "Y", []string{"A", "B"}, []Interaction{{"A", "B"}, {"B", "A"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildFormula(tt.dependent, tt.independents, tt.interactions)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestInteractionPairs(t *testing.T) {
	pairs := InteractionPairs([]string{"A", "B", "C"})
	assert.Equal(t, []Interaction{{"A", "B"}, {"A", "C"}, {"B", "C"}}, pairs)
	assert.Empty(t, InteractionPairs([]string{"A"}))
}

func TestParseInteraction(t *testing.T) {
	pair, err := ParseInteraction(" Fert : Water ")
	require.NoError(t, err)
	assert.Equal(t, Interaction{"Fert", "Water"}, pair)
	assert.Equal(t, "Fert:Water", pair.String())

	for _, bad := range []string{"A", "A:B:C", ":B", "A:1x"} {
		_, err := ParseInteraction(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFormula(t *testing.T) {
	spec, err := ParseFormula("  Y ~ A +B+ A : B ")
	require.NoError(t, err)
	assert.Equal(t, "Y", spec.Dependent)
	assert.Equal(t, "Y ~ A + B + A:B", spec.String())
	require.Len(t, spec.Terms, 3)
	assert.Equal(t, 2, spec.Terms[2].Order())

	spec, err = ParseFormula("Y ~ A:B + B + A")
	require.NoError(t, err)
	assert.Equal(t, "Y ~ A:B + B + A", spec.String())

	spec, err = ParseFormula("Y ~ A + B + C + A:B + A:C + B:C + A:B:C")
	require.NoError(t, err)
	assert.Len(t, spec.Terms, 7)
}

func TestParseFormula_RequiresMarginalTerms(t *testing.T) {
	for _, text := range []string{
		"Y ~ A:B",
		"Y ~ A + A:B",
		"Y ~ B + A:B",
		"Y ~ A + B + C + A:B + A:B:C",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseFormula(text)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
			assert.Contains(t, err.Error(), "marginal term")
		})
	}
}

func TestParseFormula_Rejections(t *testing.T) {
	for _, text := range []string{
		"Y A + B",
		"Y ~ A ~ B",
		"~ A",
		"Y ~",
		"Y ~ A +",
		"Y ~ A + B + A",
		"Y ~ A:B + B:A",
		"Y ~ A:A",
		"Y ~ A * B",
		"Y ~ log(A)",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseFormula(text)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}
