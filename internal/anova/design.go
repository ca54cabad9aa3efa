package anova

import (
	"fmt"
	"sort"

	"goanova/domain/dataset"
	"goanova/domain/stats"
	"goanova/internal/errors"
)

// termBlock holds the design columns contributed by one model term
type termBlock struct {
	term    stats.Term
	labels  []string
	columns [][]float64
}

// design is the listwise-complete response and per-term design columns
// (without intercept) for a model specification.
type design struct {
	spec   stats.ModelSpec
	y      []float64
	blocks []termBlock
}

func (d *design) observations() int { return len(d.y) }

// parameters counts design columns including the intercept
func (d *design) parameters() int {
	p := 1
	for _, b := range d.blocks {
		p += len(b.columns)
	}
	return p
}

// factorCoding is the coded form of one variable over the kept rows
type factorCoding struct {
	labels  []string
	columns [][]float64
}

// buildDesign resolves the spec against the table. Categorical factors are
// treatment coded against their first sorted level; interactions multiply
// the coded columns of their members.
func buildDesign(table *dataset.Table, spec stats.ModelSpec) (*design, error) {
	if len(spec.Terms) == 0 {
		return nil, errors.ModelFit(fmt.Sprintf("model %q has no terms", spec.String()), nil)
	}

	columns := make(map[string]*dataset.Column)
	for _, name := range spec.Variables() {
		col, err := table.Column(name)
		if err != nil {
			return nil, errors.ModelFit(fmt.Sprintf("cannot resolve %q in model %q", name, spec.String()), err)
		}
		columns[name] = col
	}

	response := columns[spec.Dependent]
	if !response.IsNumeric() {
		return nil, errors.ModelFit("the dependent variable must be numeric", errors.NonNumericInput(spec.Dependent))
	}

	// Listwise deletion over every referenced column.
	var rows []int
	for i := 0; i < table.RowCount(); i++ {
		complete := true
		for _, col := range columns {
			if col.IsMissing(i) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, errors.ModelFit(fmt.Sprintf("model %q has no complete observations", spec.String()), nil)
	}

	d := &design{spec: spec, y: make([]float64, len(rows))}
	for k, i := range rows {
		d.y[k] = response.Numbers[i]
	}

	codings := make(map[string]factorCoding)
	for _, term := range spec.Terms {
		for _, factor := range term.Factors {
			if _, done := codings[factor]; done {
				continue
			}
			coding, err := codeFactor(columns[factor], rows)
			if err != nil {
				return nil, err
			}
			codings[factor] = coding
		}
		d.blocks = append(d.blocks, interact(term, codings, len(rows)))
	}

	return d, nil
}

func codeFactor(col *dataset.Column, rows []int) (factorCoding, error) {
	if col.IsNumeric() {
		values := make([]float64, len(rows))
		for k, i := range rows {
			values[k] = col.Numbers[i]
		}
		return factorCoding{labels: []string{col.Name}, columns: [][]float64{values}}, nil
	}

	seen := make(map[string]bool)
	var levels []string
	for _, i := range rows {
		if !seen[col.Labels[i]] {
			seen[col.Labels[i]] = true
			levels = append(levels, col.Labels[i])
		}
	}
	sort.Strings(levels)
	if len(levels) < 2 {
		return factorCoding{}, errors.ModelFit(
			fmt.Sprintf("factor %q has only %d level(s) among complete observations", col.Name, len(levels)), nil)
	}

	coding := factorCoding{}
	for _, level := range levels[1:] {
		dummy := make([]float64, len(rows))
		for k, i := range rows {
			if col.Labels[i] == level {
				dummy[k] = 1
			}
		}
		coding.labels = append(coding.labels, fmt.Sprintf("%s[T.%s]", col.Name, level))
		coding.columns = append(coding.columns, dummy)
	}
	return coding, nil
}

func interact(term stats.Term, codings map[string]factorCoding, n int) termBlock {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	block := termBlock{term: term, labels: []string{""}, columns: [][]float64{ones}}

	for _, factor := range term.Factors {
		coding := codings[factor]
		var labels []string
		var columns [][]float64
		for i, left := range block.columns {
			for j, right := range coding.columns {
				product := make([]float64, n)
				for k := range product {
					product[k] = left[k] * right[k]
				}
				label := coding.labels[j]
				if block.labels[i] != "" {
					label = block.labels[i] + ":" + label
				}
				labels = append(labels, label)
				columns = append(columns, product)
			}
		}
		block.labels, block.columns = labels, columns
	}
	return block
}
