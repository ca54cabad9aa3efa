package anova

import (
	"math"
	"testing"

	"goanova/domain/stats"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		p    float64
		want stats.Band
	}{
		{0, stats.BandHighlySignificant},
		{0.0009, stats.BandHighlySignificant},
		{0.001, stats.BandVerySignificant},
		{0.0099, stats.BandVerySignificant},
		{0.01, stats.BandSignificant},
		{0.049, stats.BandSignificant},
		{0.05, stats.BandNotSignificant},
		{0.5, stats.BandNotSignificant},
		{1, stats.BandNotSignificant},
		{math.NaN(), stats.BandNotSignificant},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.p), "p=%v", tt.p)
	}
}

func TestAnnotate_SkipsResidual(t *testing.T) {
	f1, p1 := 27.0, 0.0009
	f2, p2 := 1.2, 0.31
	table := &stats.ANOVATable{Rows: []stats.ANOVARow{
		{Term: "A", FStatistic: &f1, PValue: &p1},
		{Term: "B", FStatistic: &f2, PValue: &p2},
		{Term: stats.ResidualTerm},
	}}

	annotations := Annotate(table)
	assert.Equal(t, []stats.Annotation{
		{Term: "A", PValue: 0.0009, Band: stats.BandHighlySignificant},
		{Term: "B", PValue: 0.31, Band: stats.BandNotSignificant},
	}, annotations)

	assert.Nil(t, Annotate(nil))
}
