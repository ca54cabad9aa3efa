package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"goanova/domain/dataset"
	"goanova/domain/stats"
	"goanova/internal/anova"
	"goanova/internal/config"
	ingest "goanova/internal/dataset"
	"goanova/internal/report"
	"goanova/internal/testkit"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliOptions are the flags shared by every command that reads a file
type cliOptions struct {
	delimiter string
	sheet     string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	rootCmd := &cobra.Command{
		Use:           "goanova",
		Short:         "Two-way ANOVA with assumption checks on delimited or Excel data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.delimiter, "delimiter", "", `field delimiter for text files (default from CSV_DELIMITER, else ";"; use \t for tabs)`)
	rootCmd.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "workbook sheet to read (default: first sheet)")

	rootCmd.AddCommand(
		newColumnsCmd(opts),
		newDescribeCmd(opts),
		newNormalityCmd(opts),
		newHomogeneityCmd(opts),
		newFormulaCmd(),
		newANOVACmd(opts),
		newGenerateCmd(opts),
	)
	return rootCmd
}

// loadTable reads path using the environment configuration, overridden by flags
func (o *cliOptions) loadTable(path string) (*dataset.Table, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.delimiter != "" {
		if cfg.Data.Delimiter, err = config.ParseDelimiter(o.delimiter); err != nil {
			return nil, err
		}
	}
	if o.sheet != "" {
		cfg.Data.ExcelSheet = o.sheet
	}
	return ingest.NewLoader(cfg.Data).LoadFile(path)
}

func newColumnsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns [file]",
		Short: "List the columns of a file with their inferred types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d rows\n", table.RowCount())
			for _, col := range table.Columns() {
				fmt.Fprintf(out, "  %-24s %-12s %d levels\n", col.Name, col.Type, len(col.Levels()))
			}
			return nil
		},
	}
}

func newDescribeCmd(opts *cliOptions) *cobra.Command {
	var column, group string
	cmd := &cobra.Command{
		Use:   "describe [file]",
		Short: "Summarise a numeric column per group, as drawn in a box plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable(args[0])
			if err != nil {
				return err
			}
			groups, err := anova.DescribeGroups(table, column, group)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %5s %10s %10s %10s %10s %10s %10s %10s %8s\n",
				group, "n", "mean", "sd", "min", "q1", "median", "q3", "max", "outliers")
			for _, g := range groups {
				b := g.BoxPlot
				fmt.Fprintf(out, "%-12s %5d %10s %10s %10s %10s %10s %10s %10s %8d\n",
					g.Group, g.N, report.FormatNumber(g.Mean), report.FormatNumber(g.StdDev),
					report.FormatNumber(b.Min), report.FormatNumber(b.Q1), report.FormatNumber(b.Median),
					report.FormatNumber(b.Q3), report.FormatNumber(b.Max), len(b.Outliers))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "numeric value column")
	cmd.Flags().StringVar(&group, "group", "", "grouping column")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func newNormalityCmd(opts *cliOptions) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "normality [file]",
		Short: "Shapiro-Wilk test of one numeric column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable(args[0])
			if err != nil {
				return err
			}
			result, err := anova.NewEngine().Normality(table, column)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shapiro-Wilk %s: n = %d, W = %s, p = %s %s\n",
				result.Column, result.N, report.FormatNumber(result.W), report.FormatPValue(result.PValue),
				anova.Classify(result.PValue))
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "numeric column to test")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func newHomogeneityCmd(opts *cliOptions) *cobra.Command {
	var column, group string
	cmd := &cobra.Command{
		Use:   "homogeneity [file]",
		Short: "Levene test of equal variances across groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable(args[0])
			if err != nil {
				return err
			}
			result, err := anova.NewEngine().Homogeneity(table, column, group)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Levene %s by %s: %d groups, n = %d, W = %s, p = %s %s\n",
				result.Column, result.GroupColumn, result.Groups, result.N,
				report.FormatNumber(result.W), report.FormatPValue(result.PValue), anova.Classify(result.PValue))
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "numeric value column")
	cmd.Flags().StringVar(&group, "group", "", "grouping column")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

// modelFlags select a model either as a formula or as columns
type modelFlags struct {
	formula      string
	dependent    string
	independents []string
	interactions []string
	allPairs     bool
}

func (m *modelFlags) register(cmd *cobra.Command, withFormula bool) {
	if withFormula {
		cmd.Flags().StringVar(&m.formula, "formula", "", `model formula, e.g. "Y ~ A + B + A:B"`)
	}
	cmd.Flags().StringVar(&m.dependent, "dependent", "", "numeric dependent column")
	cmd.Flags().StringSliceVar(&m.independents, "independents", nil, "independent columns, comma separated")
	cmd.Flags().StringSliceVar(&m.interactions, "interaction", nil, "pairwise interaction A:B (repeatable)")
	cmd.Flags().BoolVar(&m.allPairs, "all-interactions", false, "include every pairwise interaction of the independents")
}

func (m *modelFlags) spec() (stats.ModelSpec, error) {
	if m.formula != "" {
		return anova.ParseFormula(m.formula)
	}
	var interactions []anova.Interaction
	if m.allPairs {
		interactions = anova.InteractionPairs(m.independents)
	}
	for _, text := range m.interactions {
		pair, err := anova.ParseInteraction(text)
		if err != nil {
			return stats.ModelSpec{}, err
		}
		interactions = append(interactions, pair)
	}
	return anova.BuildFormula(m.dependent, m.independents, interactions)
}

func newFormulaCmd() *cobra.Command {
	model := &modelFlags{}
	cmd := &cobra.Command{
		Use:   "formula",
		Short: "Render the model formula for a column selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := model.spec()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), spec.String())
			return nil
		},
	}
	model.register(cmd, false)
	return cmd
}

func newANOVACmd(opts *cliOptions) *cobra.Command {
	model := &modelFlags{}
	var format string
	cmd := &cobra.Command{
		Use:   "anova [file]",
		Short: "Fit an OLS model and print its Type-II ANOVA table",
		Long: `Fit an OLS model and print its Type-II ANOVA table.

Example: goanova anova trial.csv --dependent Yield --independents Fertilizer,Water --interaction Fertilizer:Water`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := model.spec()
			if err != nil {
				return err
			}
			table, err := opts.loadTable(args[0])
			if err != nil {
				return err
			}
			result, err := anova.NewEngine().FitANOVA(table, spec)
			if err != nil {
				return err
			}
			r := &stats.ANOVAReport{Formula: result.Formula, Table: result, Annotations: anova.Annotate(result)}
			return writeReport(cmd.OutOrStdout(), r, format)
		},
	}
	model.register(cmd, true)
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, markdown, json or yaml")
	return cmd
}

func writeReport(w io.Writer, r *stats.ANOVAReport, format string) error {
	switch strings.ToLower(format) {
	case "text":
		_, err := io.WriteString(w, report.Text(r))
		return err
	case "markdown", "md":
		_, err := io.WriteString(w, report.Markdown(r))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, markdown, json or yaml)", format)
	}
}

func newGenerateCmd(opts *cliOptions) *cobra.Command {
	experiment := testkit.DefaultFactorialConfig()
	var output string
	var interaction float64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a seeded two-factor experiment as delimited text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interaction != 0 {
				// Pushes the last fertilizer level up when water is low.
				experiment.Interaction = [][]float64{{0, 0}, {0, 0}, {0, interaction}}
			}
			delimiter := opts.delimiter
			if delimiter == "" {
				delimiter = ";"
			}
			sep, err := config.ParseDelimiter(delimiter)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return testkit.NewFactorialGenerator(experiment).WriteDelimited(w, sep)
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().Int64Var(&experiment.Seed, "seed", experiment.Seed, "random seed for deterministic data")
	cmd.Flags().IntVar(&experiment.Replicates, "replicates", experiment.Replicates, "observations per cell")
	cmd.Flags().Float64Var(&experiment.NoiseSD, "noise", experiment.NoiseSD, "standard deviation of the noise")
	cmd.Flags().Float64Var(&interaction, "interaction-effect", 0, "extra effect of the Fertilizer C by low Water cell")
	return cmd
}
