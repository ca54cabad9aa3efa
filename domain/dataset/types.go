package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"goanova/internal/errors"
)

// ColumnType is the statistical type tag attached to a column at load time.
// It is decided once and reused by every analysis.
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeCategorical ColumnType = "categorical"
)

// Column is one named, typed column of a Table.
// Numeric columns use Numbers (NaN marks a missing cell); categorical columns
// use Labels ("" marks a missing cell).
type Column struct {
	Name    string
	Type    ColumnType
	Numbers []float64
	Labels  []string
}

// NewNumericColumn creates a numeric column
func NewNumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Type: TypeNumeric, Numbers: values}
}

// NewCategoricalColumn creates a categorical column
func NewCategoricalColumn(name string, values []string) *Column {
	return &Column{Name: name, Type: TypeCategorical, Labels: values}
}

// Len returns the number of cells in the column
func (c *Column) Len() int {
	if c.Type == TypeNumeric {
		return len(c.Numbers)
	}
	return len(c.Labels)
}

// IsNumeric reports whether the column holds numbers
func (c *Column) IsNumeric() bool {
	return c.Type == TypeNumeric
}

// IsMissing reports whether cell i is missing
func (c *Column) IsMissing(i int) bool {
	if c.Type == TypeNumeric {
		return math.IsNaN(c.Numbers[i])
	}
	return c.Labels[i] == ""
}

// Key returns cell i as a grouping key. Numeric cells are formatted in their
// shortest round-trip form so 1 and 1.0 share a group.
func (c *Column) Key(i int) string {
	if c.Type == TypeNumeric {
		if math.IsNaN(c.Numbers[i]) {
			return ""
		}
		return strconv.FormatFloat(c.Numbers[i], 'g', -1, 64)
	}
	return c.Labels[i]
}

// Levels returns the distinct non-missing keys of the column, sorted.
func (c *Column) Levels() []string {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		seen[c.Key(i)] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for level := range seen {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}

// Present returns the non-missing values of a numeric column
func (c *Column) Present() []float64 {
	values := make([]float64, 0, len(c.Numbers))
	for _, v := range c.Numbers {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	return values
}

// Table is an ordered collection of uniquely named, equally long columns.
// A Table is immutable once built; analyses only read it.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable validates the columns and assembles a Table
func NewTable(columns ...*Column) (*Table, error) {
	if len(columns) == 0 {
		return nil, errors.InvalidInput("table must have at least one column")
	}

	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
		rows:    columns[0].Len(),
	}
	for i, col := range columns {
		if !IsIdentifier(col.Name) {
			return nil, errors.InvalidInput(fmt.Sprintf("column name %q is not a valid identifier", col.Name))
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate column name %q", col.Name))
		}
		if col.Type != TypeNumeric && col.Type != TypeCategorical {
			return nil, errors.InvalidInput(fmt.Sprintf("column %q has unknown type %q", col.Name, col.Type))
		}
		if col.Len() != t.rows {
			return nil, errors.InvalidInput(fmt.Sprintf("column %q has %d values, expected %d", col.Name, col.Len(), t.rows))
		}
		t.index[col.Name] = i
	}
	return t, nil
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("column %q", name))
	}
	return t.columns[i], nil
}

// HasColumn reports whether the table has a column called name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Columns returns the columns in declared order
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Names returns the column names in declared order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// NamesOfType returns the names of columns with the given type tag
func (t *Table) NamesOfType(typ ColumnType) []string {
	var names []string
	for _, col := range t.columns {
		if col.Type == typ {
			names = append(names, col.Name)
		}
	}
	return names
}

// RowCount returns the number of rows
func (t *Table) RowCount() int { return t.rows }

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int { return len(t.columns) }

// Head returns up to n rows as display strings, keyed by column name
func (t *Table) Head(n int) []map[string]string {
	if n > t.rows {
		n = t.rows
	}
	rows := make([]map[string]string, n)
	for i := 0; i < n; i++ {
		row := make(map[string]string, len(t.columns))
		for _, col := range t.columns {
			row[col.Name] = col.Key(i)
		}
		rows[i] = row
	}
	return rows
}

// Grouping maps each distinct key of a grouping column to the ordered values
// of a numeric column that fall in that group. Keys are sorted.
type Grouping struct {
	ValueColumn string
	GroupColumn string
	Keys        []string
	Groups      map[string][]float64
}

// Len returns the number of groups
func (g *Grouping) Len() int { return len(g.Keys) }

// Samples returns the group subsequences in key order
func (g *Grouping) Samples() [][]float64 {
	samples := make([][]float64, len(g.Keys))
	for i, key := range g.Keys {
		samples[i] = g.Groups[key]
	}
	return samples
}

// Total returns the number of values across all groups
func (g *Grouping) Total() int {
	total := 0
	for _, values := range g.Groups {
		total += len(values)
	}
	return total
}

// GroupBy partitions the numeric valueColumn by the distinct values of
// groupColumn. Rows with a missing value or key are skipped.
func (t *Table) GroupBy(valueColumn, groupColumn string) (*Grouping, error) {
	values, err := t.Column(valueColumn)
	if err != nil {
		return nil, err
	}
	if !values.IsNumeric() {
		return nil, errors.NonNumericInput(valueColumn)
	}
	groups, err := t.Column(groupColumn)
	if err != nil {
		return nil, err
	}

	g := &Grouping{
		ValueColumn: valueColumn,
		GroupColumn: groupColumn,
		Groups:      make(map[string][]float64),
	}
	for i := 0; i < t.rows; i++ {
		if values.IsMissing(i) || groups.IsMissing(i) {
			continue
		}
		key := groups.Key(i)
		if _, ok := g.Groups[key]; !ok {
			g.Keys = append(g.Keys, key)
		}
		g.Groups[key] = append(g.Groups[key], values.Numbers[i])
	}
	sort.Strings(g.Keys)
	return g, nil
}

// IsIdentifier reports whether name can be used as a term in a model
// formula: a letter or underscore followed by letters, digits or underscores.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// NormalizeColumnName rewrites a raw header into an identifier. Spaces and
// '@' (and any other character that cannot appear in a formula) become '_'.
// The rewrite is irreversible.
func NormalizeColumnName(raw string, position int) string {
	name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if name == "" {
		return fmt.Sprintf("Unnamed_%d", position)
	}

	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	normalized := b.String()
	if first := []rune(normalized)[0]; unicode.IsDigit(first) {
		normalized = "_" + normalized
	}
	return normalized
}
