package anova

import (
	"math"

	"goanova/domain/stats"
)

// Significance thresholds, strictly less-than.
const (
	AlphaHighlySignificant = 0.001
	AlphaVerySignificant   = 0.01
	AlphaSignificant       = 0.05
)

// Classify maps a p-value onto its conventional band. NaN is "ns".
func Classify(p float64) stats.Band {
	switch {
	case math.IsNaN(p):
		return stats.BandNotSignificant
	case p < AlphaHighlySignificant:
		return stats.BandHighlySignificant
	case p < AlphaVerySignificant:
		return stats.BandVerySignificant
	case p < AlphaSignificant:
		return stats.BandSignificant
	default:
		return stats.BandNotSignificant
	}
}

// Annotate classifies every term row of the table, in table order
func Annotate(table *stats.ANOVATable) []stats.Annotation {
	if table == nil {
		return nil
	}
	annotations := make([]stats.Annotation, 0, len(table.Rows))
	for _, row := range table.Rows {
		if row.IsResidual() || row.PValue == nil {
			continue
		}
		annotations = append(annotations, stats.Annotation{
			Term:   row.Term,
			PValue: *row.PValue,
			Band:   Classify(*row.PValue),
		})
	}
	return annotations
}
