package app

import (
	"context"
	"io"
	"log"
	"time"

	"goanova/domain/core"
	"goanova/domain/dataset"
	"goanova/domain/stats"
	"goanova/internal/anova"
	ingest "goanova/internal/dataset"
	"goanova/internal/errors"
	"goanova/internal/session"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// AnalysisService is the single entry point every surface uses. It resolves
// a session's table and hands it to the engine.
type AnalysisService struct {
	sessions    *session.Store
	loader      *ingest.Loader
	engine      *anova.Engine
	fitSlots    *semaphore.Weighted
	previewRows int
}

// ColumnInfo describes one column of the loaded table
type ColumnInfo struct {
	Name    string             `json:"name" yaml:"name"`
	Type    dataset.ColumnType `json:"type" yaml:"type"`
	Missing int                `json:"missing" yaml:"missing"`
	Levels  int                `json:"levels" yaml:"levels"`
}

// DatasetSummary is returned after a successful upload
type DatasetSummary struct {
	Source  string       `json:"source"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// AssumptionReport holds both assumption checks. A failed check carries its
// own error; the other check is still reported.
type AssumptionReport struct {
	Normality      *stats.NormalityResult
	NormalityErr   error
	Homogeneity    *stats.HomogeneityResult
	HomogeneityErr error
}

// NewAnalysisService wires the session store, loader and engine
func NewAnalysisService(sessions *session.Store, loader *ingest.Loader, engine *anova.Engine, maxConcurrentFits, previewRows int) *AnalysisService {
	if maxConcurrentFits <= 0 {
		maxConcurrentFits = 1
	}
	return &AnalysisService{
		sessions:    sessions,
		loader:      loader,
		engine:      engine,
		fitSlots:    semaphore.NewWeighted(int64(maxConcurrentFits)),
		previewRows: previewRows,
	}
}

// CreateSession starts an empty session
func (s *AnalysisService) CreateSession(ctx context.Context) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}
	return s.sessions.Create(), nil
}

// Session returns a snapshot of the session
func (s *AnalysisService) Session(ctx context.Context, id core.SessionID) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}
	return s.sessions.Get(id)
}

// DeleteSession drops the session and its table
func (s *AnalysisService) DeleteSession(ctx context.Context, id core.SessionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sessions.Delete(id)
}

// LoadDataset parses an upload and replaces the session's table with it.
// On failure the previous table is kept.
func (s *AnalysisService) LoadDataset(ctx context.Context, id core.SessionID, filename string, src io.Reader) (*DatasetSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.sessions.Get(id); err != nil {
		return nil, err
	}

	table, err := s.loader.Load(filename, src)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Replace(id, table, filename); err != nil {
		return nil, err
	}

	return &DatasetSummary{Source: filename, Rows: table.RowCount(), Columns: describeColumns(table)}, nil
}

// Columns lists the loaded table's columns
func (s *AnalysisService) Columns(ctx context.Context, id core.SessionID) ([]ColumnInfo, error) {
	table, err := s.table(ctx, id)
	if err != nil {
		return nil, err
	}
	return describeColumns(table), nil
}

// Preview returns the first n rows as text; n <= 0 uses the configured size
func (s *AnalysisService) Preview(ctx context.Context, id core.SessionID, n int) ([]map[string]string, error) {
	table, err := s.table(ctx, id)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.previewRows
	}
	return table.Head(n), nil
}

// Describe summarises a value column per group, for box plots
func (s *AnalysisService) Describe(ctx context.Context, id core.SessionID, column, groupColumn string) ([]stats.GroupSummary, error) {
	table, err := s.table(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engine.DescribeGroups(table, column, groupColumn)
}

// Normality runs Shapiro-Wilk on one column
func (s *AnalysisService) Normality(ctx context.Context, id core.SessionID, column string) (stats.NormalityResult, error) {
	table, err := s.table(ctx, id)
	if err != nil {
		return stats.NormalityResult{}, err
	}
	return s.engine.Normality(table, column)
}

// Homogeneity runs Levene's test of column across groupColumn
func (s *AnalysisService) Homogeneity(ctx context.Context, id core.SessionID, column, groupColumn string) (stats.HomogeneityResult, error) {
	table, err := s.table(ctx, id)
	if err != nil {
		return stats.HomogeneityResult{}, err
	}
	return s.engine.Homogeneity(table, column, groupColumn)
}

// CheckAssumptions runs the normality and homogeneity checks concurrently.
// The returned error is only set when the session cannot be resolved.
func (s *AnalysisService) CheckAssumptions(ctx context.Context, id core.SessionID, column, groupColumn string) (*AssumptionReport, error) {
	table, err := s.table(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &AssumptionReport{}
	var g errgroup.Group
	g.Go(func() error {
		result, err := s.engine.Normality(table, column)
		if err != nil {
			report.NormalityErr = err
			return nil
		}
		report.Normality = &result
		return nil
	})
	g.Go(func() error {
		result, err := s.engine.Homogeneity(table, column, groupColumn)
		if err != nil {
			report.HomogeneityErr = err
			return nil
		}
		report.Homogeneity = &result
		return nil
	})
	// Each check records its own failure on the report, so Wait is always nil.
	_ = g.Wait()

	return report, nil
}

// ResidualNormality fits the model and tests its residuals for normality
func (s *AnalysisService) ResidualNormality(ctx context.Context, id core.SessionID, dependent string, independents []string, interactions []anova.Interaction) (stats.NormalityResult, error) {
	table, err := s.table(ctx, id)
	if err != nil {
		return stats.NormalityResult{}, err
	}
	spec, err := anova.BuildFormula(dependent, independents, interactions)
	if err != nil {
		return stats.NormalityResult{}, err
	}

	if err := s.fitSlots.Acquire(ctx, 1); err != nil {
		return stats.NormalityResult{}, err
	}
	defer s.fitSlots.Release(1)
	return s.engine.TestResidualNormality(table, spec)
}

// BuildFormula validates selections and renders the model formula
func (s *AnalysisService) BuildFormula(dependent string, independents []string, interactions []anova.Interaction) (stats.ModelSpec, error) {
	return anova.BuildFormula(dependent, independents, interactions)
}

// RunANOVA builds the formula from column selections, fits it and records
// the report as the session's latest result.
func (s *AnalysisService) RunANOVA(ctx context.Context, id core.SessionID, dependent string, independents []string, interactions []anova.Interaction) (*stats.ANOVAReport, error) {
	spec, err := anova.BuildFormula(dependent, independents, interactions)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, id, spec)
}

// RunFormula parses a textual formula, fits it and records the report
func (s *AnalysisService) RunFormula(ctx context.Context, id core.SessionID, text string) (*stats.ANOVAReport, error) {
	spec, err := anova.ParseFormula(text)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, id, spec)
}

// LastANOVA returns the most recent report of the session
func (s *AnalysisService) LastANOVA(ctx context.Context, id core.SessionID) (*stats.ANOVAReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.LastANOVA == nil {
		return nil, errors.NotFound("ANOVA result")
	}
	return sess.LastANOVA, nil
}

func (s *AnalysisService) run(ctx context.Context, id core.SessionID, spec stats.ModelSpec) (*stats.ANOVAReport, error) {
	table, err := s.table(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.fitSlots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	start := time.Now()
	result, err := s.engine.FitANOVA(table, spec)
	s.fitSlots.Release(1)
	if err != nil {
		log.Printf("[AnalysisService] Fit of %s failed: %v", spec.String(), err)
		return nil, err
	}

	report := &stats.ANOVAReport{
		Formula:     result.Formula,
		Table:       result,
		Annotations: anova.Annotate(result),
	}
	if err := s.sessions.RecordANOVA(id, report); err != nil {
		return nil, err
	}
	log.Printf("[AnalysisService] Session %s ran %s in %dms", id, spec.String(), time.Since(start).Milliseconds())
	return report, nil
}

// table resolves the session's current table
func (s *AnalysisService) table(ctx context.Context, id core.SessionID) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if !sess.HasTable() {
		return nil, errors.NotFound("dataset for session " + id.String())
	}
	return sess.Table, nil
}

func describeColumns(table *dataset.Table) []ColumnInfo {
	infos := make([]ColumnInfo, 0, table.ColumnCount())
	for _, col := range table.Columns() {
		missing := 0
		for i := 0; i < col.Len(); i++ {
			if col.IsMissing(i) {
				missing++
			}
		}
		infos = append(infos, ColumnInfo{
			Name:    col.Name,
			Type:    col.Type,
			Missing: missing,
			Levels:  len(col.Levels()),
		})
	}
	return infos
}
