// Package report renders ANOVA reports for people: Markdown for the web UI
// and terminal tables for the CLI.
package report

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"goanova/domain/stats"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var headers = []string{"Term", "Sum Sq", "Df", "Mean Sq", "F", "p", ""}

// FormatNumber renders a statistic with four significant decimals
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// FormatPValue keeps small p-values readable
func FormatPValue(p float64) string {
	if !math.IsNaN(p) && p > 0 && p < 1e-4 {
		return "< 0.0001"
	}
	return FormatNumber(p)
}

func optional(v *float64, format func(float64) string) string {
	if v == nil {
		return ""
	}
	return format(*v)
}

// rows flattens the table into display cells, band last
func rows(r *stats.ANOVAReport) [][]string {
	bands := make(map[string]stats.Band, len(r.Annotations))
	for _, a := range r.Annotations {
		bands[a.Term] = a.Band
	}

	out := make([][]string, 0, len(r.Table.Rows))
	for _, row := range r.Table.Rows {
		out = append(out, []string{
			row.Term,
			FormatNumber(row.SumSquares),
			strconv.Itoa(row.DF),
			FormatNumber(row.MeanSquare),
			optional(row.FStatistic, FormatNumber),
			optional(row.PValue, FormatPValue),
			string(bands[row.Term]),
		})
	}
	return out
}

// Markdown renders the report as a Markdown section with a pipe table
func Markdown(r *stats.ANOVAReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### `%s`\n\n", r.Formula)
	fmt.Fprintf(&b, "%d observations, R² = %s\n\n", r.Table.Observations, FormatNumber(r.Table.RSquared))

	b.WriteString("| " + strings.Join(headers[:6], " | ") + " | Signif. |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|:---:|\n")
	for _, cells := range rows(r) {
		cells[6] = escapeStars(cells[6])
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\nSignif. codes: `***` p < 0.001, `**` p < 0.01, `*` p < 0.05, `ns` otherwise\n")
	return b.String()
}

// escapeStars keeps significance stars from being read as emphasis
func escapeStars(s string) string {
	return strings.ReplaceAll(s, "*", `\*`)
}

// HTML converts the Markdown rendering of the report. The output comes from
// our own Markdown with raw HTML skipped, so it is safe to embed.
func HTML(r *stats.ANOVAReport) template.HTML {
	return MarkdownToHTML(Markdown(r))
}

// MarkdownToHTML converts trusted Markdown to HTML, dropping any raw HTML
func MarkdownToHTML(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(md), p, renderer))
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	signifStyle = cellStyle.Foreground(lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"})
)

// Text renders the report as a bordered terminal table
func Text(r *stats.ANOVAReport) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows(r)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			case col == len(headers)-1:
				return signifStyle
			default:
				return numberStyle
			}
		})

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%d observations, R² = %s\n", r.Formula, r.Table.Observations, FormatNumber(r.Table.RSquared))
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}
