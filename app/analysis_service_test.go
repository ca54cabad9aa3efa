package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"goanova/domain/core"
	"goanova/internal/anova"
	"goanova/internal/config"
	ingest "goanova/internal/dataset"
	"goanova/internal/errors"
	"goanova/internal/session"
	"goanova/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *AnalysisService {
	cfg := config.Default()
	return NewAnalysisService(
		session.NewStore(time.Hour),
		ingest.NewLoader(cfg.Data),
		anova.NewEngine(),
		cfg.Analysis.MaxConcurrentFits,
		cfg.Data.PreviewRows,
	)
}

func loadTrial(t *testing.T, svc *AnalysisService) core.SessionID {
	t.Helper()
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, testkit.NewFactorialGenerator(testkit.DefaultFactorialConfig()).WriteDelimited(&buf, ';'))

	summary, err := svc.LoadDataset(ctx, sess.ID, "trial.csv", &buf)
	require.NoError(t, err)
	require.Equal(t, 36, summary.Rows)
	return sess.ID
}

func TestAnalysisService_LoadAndInspect(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	id := loadTrial(t, svc)

	columns, err := svc.Columns(ctx, id)
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, "Fertilizer", columns[0].Name)
	assert.Equal(t, 3, columns[0].Levels)
	assert.Equal(t, "numeric", string(columns[2].Type))

	preview, err := svc.Preview(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, preview, 5)
	assert.Equal(t, "A", preview[0]["Fertilizer"])

	summaries, err := svc.Describe(ctx, id, "Yield", "Water")
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestAnalysisService_RequiresDataset(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.Columns(ctx, sess.ID)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = svc.Columns(ctx, core.NewSessionID())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestAnalysisService_FailedUploadKeepsTable(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	id := loadTrial(t, svc)

	_, err := svc.LoadDataset(ctx, id, "broken.csv", strings.NewReader("only_header\n"))
	require.Error(t, err)

	columns, err := svc.Columns(ctx, id)
	require.NoError(t, err)
	assert.Len(t, columns, 3)
}

func TestAnalysisService_CheckAssumptionsReportsEachCheck(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	id := loadTrial(t, svc)

	report, err := svc.CheckAssumptions(ctx, id, "Yield", "Fertilizer")
	require.NoError(t, err)
	require.NotNil(t, report.Normality)
	require.NotNil(t, report.Homogeneity)
	assert.NoError(t, report.NormalityErr)
	assert.Equal(t, 3, report.Homogeneity.Groups)

	// A categorical value column fails both checks independently.
	report, err = svc.CheckAssumptions(ctx, id, "Water", "Fertilizer")
	require.NoError(t, err)
	assert.Nil(t, report.Normality)
	assert.Equal(t, errors.CodeNonNumericInput, errors.GetCode(report.NormalityErr))
	assert.Equal(t, errors.CodeNonNumericInput, errors.GetCode(report.HomogeneityErr))
}

func TestAnalysisService_RunANOVA(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	id := loadTrial(t, svc)

	report, err := svc.RunANOVA(ctx, id, "Yield", []string{"Fertilizer", "Water"},
		[]anova.Interaction{{"Fertilizer", "Water"}})
	require.NoError(t, err)

	assert.Equal(t, "Yield ~ Fertilizer + Water + Fertilizer:Water", report.Formula)
	require.Len(t, report.Table.Rows, 4)
	require.Len(t, report.Annotations, 3)

	// Effects of 2 units against unit noise are unmistakable.
	assert.Equal(t, "***", string(report.Annotations[0].Band))
	assert.Equal(t, 2, report.Table.Rows[0].DF)
	assert.Equal(t, 30, report.Table.Residual().DF)

	last, err := svc.LastANOVA(ctx, id)
	require.NoError(t, err)
	assert.Same(t, report, last)
}

func TestAnalysisService_RunFormulaErrors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	id := loadTrial(t, svc)

	_, err := svc.RunFormula(ctx, id, "Yield ~ ")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.RunFormula(ctx, id, "Yield ~ Fertilizer + Fertilizer:Water")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.RunFormula(ctx, id, "Yield ~ Nitrogen")
	assert.Equal(t, errors.CodeModelFit, errors.GetCode(err))

	_, err = svc.LastANOVA(ctx, id)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestAnalysisService_ResidualNormality(t *testing.T) {
	svc := newTestService()
	id := loadTrial(t, svc)

	result, err := svc.ResidualNormality(context.Background(), id, "Yield", []string{"Fertilizer", "Water"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 36, result.N)
}

func TestAnalysisService_CancelledContext(t *testing.T) {
	svc := newTestService()
	id := loadTrial(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RunFormula(ctx, id, "Yield ~ Fertilizer")
	assert.ErrorIs(t, err, context.Canceled)
}
