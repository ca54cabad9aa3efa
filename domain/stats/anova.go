package stats

import (
	"strings"
)

// Term is one additive term of a model: a single factor ("A") or an
// interaction of factors ("A:B").
type Term struct {
	Factors []string `json:"factors"`
}

// NewTerm creates a term from its factor names
func NewTerm(factors ...string) Term {
	return Term{Factors: append([]string(nil), factors...)}
}

// Name renders the term as written in a formula
func (t Term) Name() string {
	return strings.Join(t.Factors, ":")
}

// Order is the number of factors in the term
func (t Term) Order() int {
	return len(t.Factors)
}

// Contains reports whether every factor of other is also a factor of t
// and t is of strictly higher order.
func (t Term) Contains(other Term) bool {
	if t.Order() <= other.Order() {
		return false
	}
	for _, f := range other.Factors {
		if !t.has(f) {
			return false
		}
	}
	return true
}

func (t Term) has(factor string) bool {
	for _, f := range t.Factors {
		if f == factor {
			return true
		}
	}
	return false
}

// ModelSpec is a dependent variable regressed on an ordered set of terms.
type ModelSpec struct {
	Dependent string `json:"dependent"`
	Terms     []Term `json:"terms"`
}

// String renders the textual formula `Y ~ A + B + A:B`
func (m ModelSpec) String() string {
	names := make([]string, len(m.Terms))
	for i, term := range m.Terms {
		names[i] = term.Name()
	}
	return m.Dependent + " ~ " + strings.Join(names, " + ")
}

// Variables returns every column the model references, dependent first,
// without duplicates.
func (m ModelSpec) Variables() []string {
	seen := map[string]bool{m.Dependent: true}
	vars := []string{m.Dependent}
	for _, term := range m.Terms {
		for _, f := range term.Factors {
			if !seen[f] {
				seen[f] = true
				vars = append(vars, f)
			}
		}
	}
	return vars
}

// ResidualTerm is the name of the trailing row of an ANOVA table
const ResidualTerm = "Residual"

// ANOVARow is one line of a Type-II ANOVA table. F and PValue are nil on the
// residual row.
type ANOVARow struct {
	Term       string   `json:"term" yaml:"term"`
	SumSquares float64  `json:"sum_sq" yaml:"sum_sq"`
	DF         int      `json:"df" yaml:"df"`
	MeanSquare float64  `json:"mean_sq" yaml:"mean_sq"`
	FStatistic *float64 `json:"f" yaml:"f"`
	PValue     *float64 `json:"p_value" yaml:"p_value"`
}

// IsResidual reports whether the row is the residual row
func (r ANOVARow) IsResidual() bool {
	return r.Term == ResidualTerm
}

// ANOVATable holds term rows in declared order followed by the residual row.
type ANOVATable struct {
	Formula      string     `json:"formula" yaml:"formula"`
	Observations int        `json:"observations" yaml:"observations"`
	RSquared     float64    `json:"r_squared" yaml:"r_squared"`
	Rows         []ANOVARow `json:"rows" yaml:"rows"`
}

// Terms returns the non-residual rows
func (t *ANOVATable) Terms() []ANOVARow {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[:len(t.Rows)-1]
}

// Residual returns the residual row
func (t *ANOVATable) Residual() ANOVARow {
	return t.Rows[len(t.Rows)-1]
}

// Row finds a row by term name
func (t *ANOVATable) Row(term string) (ANOVARow, bool) {
	for _, row := range t.Rows {
		if row.Term == term {
			return row, true
		}
	}
	return ANOVARow{}, false
}

// Band is a conventional star-coded significance level
type Band string

const (
	BandHighlySignificant Band = "***" // p < 0.001
	BandVerySignificant   Band = "**"  // p < 0.01
	BandSignificant       Band = "*"   // p < 0.05
	BandNotSignificant    Band = "ns"
)

// Annotation pairs a term with its significance band
type Annotation struct {
	Term   string  `json:"term" yaml:"term"`
	PValue float64 `json:"p_value" yaml:"p_value"`
	Band   Band    `json:"band" yaml:"band"`
}

// NormalityResult is the outcome of a Shapiro-Wilk test on one column
type NormalityResult struct {
	Column string  `json:"column" yaml:"column"`
	N      int     `json:"n" yaml:"n"`
	W      float64 `json:"w" yaml:"w"`
	PValue float64 `json:"p_value" yaml:"p_value"`
}

// HomogeneityResult is the outcome of Levene's test across groups
type HomogeneityResult struct {
	Column      string  `json:"column" yaml:"column"`
	GroupColumn string  `json:"group_column" yaml:"group_column"`
	Groups      int     `json:"groups" yaml:"groups"`
	N           int     `json:"n" yaml:"n"`
	W           float64 `json:"w" yaml:"w"`
	PValue      float64 `json:"p_value" yaml:"p_value"`
}

// BoxPlotSummary is what a box plot of one group draws. Whiskers reach the
// most extreme observations within 1.5 IQR of the quartiles.
type BoxPlotSummary struct {
	Min          float64   `json:"min" yaml:"min"`
	Q1           float64   `json:"q1" yaml:"q1"`
	Median       float64   `json:"median" yaml:"median"`
	Q3           float64   `json:"q3" yaml:"q3"`
	Max          float64   `json:"max" yaml:"max"`
	LowerWhisker float64   `json:"lower_whisker" yaml:"lower_whisker"`
	UpperWhisker float64   `json:"upper_whisker" yaml:"upper_whisker"`
	Outliers     []float64 `json:"outliers" yaml:"outliers"`
}

// GroupSummary describes one group of a value column. StdDev is the sample
// standard deviation and is zero for singleton groups.
type GroupSummary struct {
	Group   string         `json:"group" yaml:"group"`
	N       int            `json:"n" yaml:"n"`
	Mean    float64        `json:"mean" yaml:"mean"`
	StdDev  float64        `json:"std_dev" yaml:"std_dev"`
	BoxPlot BoxPlotSummary `json:"box_plot" yaml:"box_plot"`
}

// ANOVAReport is one completed ANOVA run: the formula that was fitted, its
// table and the significance of each term.
type ANOVAReport struct {
	Formula     string       `json:"formula" yaml:"formula"`
	Table       *ANOVATable  `json:"table" yaml:"table"`
	Annotations []Annotation `json:"annotations" yaml:"annotations"`
}
