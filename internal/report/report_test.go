package report

import (
	"math"
	"strings"
	"testing"

	"goanova/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *stats.ANOVAReport {
	f, p := 12.5, 0.0002
	return &stats.ANOVAReport{
		Formula: "Yield ~ Fertilizer",
		Table: &stats.ANOVATable{
			Formula:      "Yield ~ Fertilizer",
			Observations: 12,
			RSquared:     0.7353,
			Rows: []stats.ANOVARow{
				{Term: "Fertilizer", SumSquares: 50, DF: 2, MeanSquare: 25, FStatistic: &f, PValue: &p},
				{Term: stats.ResidualTerm, SumSquares: 18, DF: 9, MeanSquare: 2},
			},
		},
		Annotations: []stats.Annotation{{Term: "Fertilizer", PValue: p, Band: stats.BandHighlySignificant}},
	}
}

func TestFormatPValue(t *testing.T) {
	assert.Equal(t, "< 0.0001", FormatPValue(0.00001))
	assert.Equal(t, "0.0500", FormatPValue(0.05))
	assert.Equal(t, "0.0000", FormatPValue(0))
	assert.Equal(t, "NaN", FormatPValue(math.NaN()))
	assert.Equal(t, "Inf", FormatNumber(math.Inf(1)))
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())

	assert.Contains(t, md, "### `Yield ~ Fertilizer`")
	assert.Contains(t, md, "| Fertilizer | 50.0000 | 2 | 25.0000 | 12.5000 | 0.0002 | \\*\\*\\* |")
	assert.Contains(t, md, "| Residual | 18.0000 | 9 | 2.0000 |  |  |  |")
}

func TestHTML_RendersTable(t *testing.T) {
	out := string(HTML(sampleReport()))

	require.Contains(t, out, "<table>")
	assert.Contains(t, out, "<code>Yield ~ Fertilizer</code>")
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "<em>")
}

func TestMarkdownToHTML_SkipsRawHTML(t *testing.T) {
	out := string(MarkdownToHTML("hello <script>alert(1)</script>"))
	assert.NotContains(t, out, "<script>")
}

func TestText(t *testing.T) {
	out := Text(sampleReport())

	lines := strings.Split(out, "\n")
	assert.Equal(t, "Yield ~ Fertilizer", lines[0])
	assert.Contains(t, out, "Fertilizer")
	assert.Contains(t, out, "Residual")
	assert.Contains(t, out, "12.5000")
	assert.Contains(t, out, "***")
}
