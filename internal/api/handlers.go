package api

import (
	"net/http"
	"strconv"
	"time"

	"goanova/app"
	"goanova/domain/core"
	"goanova/domain/stats"
	"goanova/internal/anova"
	"goanova/internal/errors"

	"github.com/gin-gonic/gin"
)

// AnalysisHandler exposes the analysis service as JSON
type AnalysisHandler struct {
	service        *app.AnalysisService
	maxUploadBytes int64
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *app.AnalysisService, maxUploadBytes int64) *AnalysisHandler {
	return &AnalysisHandler{service: service, maxUploadBytes: maxUploadBytes}
}

type columnRequest struct {
	Column string `json:"column" binding:"required"`
	Group  string `json:"group"`
}

type modelRequest struct {
	Formula      string   `json:"formula"`
	Dependent    string   `json:"dependent"`
	Independents []string `json:"independents"`
	Interactions []string `json:"interactions"`
}

type sessionResponse struct {
	SessionID string     `json:"session_id"`
	Source    string     `json:"source,omitempty"`
	Rows      int        `json:"rows"`
	Columns   int        `json:"columns"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
	HasResult bool       `json:"has_result"`
}

// checkResponse carries either the result of one assumption check or its error
type checkResponse struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Code   string      `json:"code,omitempty"`
}

type assumptionsResponse struct {
	Normality   checkResponse `json:"normality"`
	Homogeneity checkResponse `json:"homogeneity"`
}

// CreateSession starts a new session
func (h *AnalysisHandler) CreateSession(c *gin.Context) {
	sess, err := h.service.CreateSession(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{SessionID: sess.ID.String()})
}

// GetSession reports what the session currently holds
func (h *AnalysisHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	sess, err := h.service.Session(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := sessionResponse{SessionID: sess.ID.String(), Source: sess.Source, HasResult: sess.LastANOVA != nil}
	if sess.HasTable() {
		loadedAt := sess.LoadedAt
		resp.LoadedAt = &loadedAt
		resp.Rows = sess.Table.RowCount()
		resp.Columns = sess.Table.ColumnCount()
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteSession drops a session
func (h *AnalysisHandler) DeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSession(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadDataset replaces the session's table with the uploaded file
func (h *AnalysisHandler) UploadDataset(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	// Multipart framing needs some headroom over the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, errors.InvalidInput("a multipart field named \"file\" is required: "+err.Error()))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, errors.Wrap(err, "failed to open upload"))
		return
	}
	defer file.Close()

	summary, err := h.service.LoadDataset(c.Request.Context(), id, header.Filename, file)
	observe("upload", err)
	if err != nil {
		respondError(c, err)
		return
	}
	datasetRows.Observe(float64(summary.Rows))
	c.JSON(http.StatusOK, summary)
}

// Columns lists the columns of the loaded table
func (h *AnalysisHandler) Columns(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	columns, err := h.service.Columns(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": columns})
}

// Preview returns the first rows of the loaded table
func (h *AnalysisHandler) Preview(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	n := 0
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(c, errors.InvalidInput("n must be a non-negative integer"))
			return
		}
		n = parsed
	}
	rows, err := h.service.Preview(c.Request.Context(), id, n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// Describe returns per-group box-plot summaries
func (h *AnalysisHandler) Describe(c *gin.Context) {
	id, req, ok := bindColumns(c, true)
	if !ok {
		return
	}
	summaries, err := h.service.Describe(c.Request.Context(), id, req.Column, req.Group)
	observe("describe", err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": summaries})
}

// Normality runs Shapiro-Wilk on one column
func (h *AnalysisHandler) Normality(c *gin.Context) {
	id, req, ok := bindColumns(c, false)
	if !ok {
		return
	}
	result, err := h.service.Normality(c.Request.Context(), id, req.Column)
	observe("normality", err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Homogeneity runs Levene's test across groups
func (h *AnalysisHandler) Homogeneity(c *gin.Context) {
	id, req, ok := bindColumns(c, true)
	if !ok {
		return
	}
	result, err := h.service.Homogeneity(c.Request.Context(), id, req.Column, req.Group)
	observe("homogeneity", err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Assumptions runs both assumption checks and reports each separately
func (h *AnalysisHandler) Assumptions(c *gin.Context) {
	id, req, ok := bindColumns(c, true)
	if !ok {
		return
	}
	report, err := h.service.CheckAssumptions(c.Request.Context(), id, req.Column, req.Group)
	if err != nil {
		respondError(c, err)
		return
	}
	observe("normality", report.NormalityErr)
	observe("homogeneity", report.HomogeneityErr)

	var resp assumptionsResponse
	if report.NormalityErr != nil {
		resp.Normality = checkError(report.NormalityErr)
	} else {
		resp.Normality = checkResponse{Result: report.Normality}
	}
	if report.HomogeneityErr != nil {
		resp.Homogeneity = checkError(report.HomogeneityErr)
	} else {
		resp.Homogeneity = checkResponse{Result: report.Homogeneity}
	}
	c.JSON(http.StatusOK, resp)
}

// ResidualNormality tests the residuals of a model for normality
func (h *AnalysisHandler) ResidualNormality(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req modelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	interactions, err := parseInteractions(req.Interactions)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.service.ResidualNormality(c.Request.Context(), id, req.Dependent, req.Independents, interactions)
	observe("residual_normality", err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// BuildFormula renders a formula from column selections without fitting
func (h *AnalysisHandler) BuildFormula(c *gin.Context) {
	var req modelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	interactions, err := parseInteractions(req.Interactions)
	if err != nil {
		respondError(c, err)
		return
	}
	spec, err := h.service.BuildFormula(req.Dependent, req.Independents, interactions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"formula": spec.String(), "model": spec})
}

// RunANOVA fits a model given either a formula or column selections
func (h *AnalysisHandler) RunANOVA(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req modelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return
	}

	start := time.Now()
	if req.Formula != "" {
		report, err := h.service.RunFormula(c.Request.Context(), id, req.Formula)
		h.finishANOVA(c, report, err, start)
		return
	}
	interactions, err := parseInteractions(req.Interactions)
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := h.service.RunANOVA(c.Request.Context(), id, req.Dependent, req.Independents, interactions)
	h.finishANOVA(c, report, err, start)
}

func (h *AnalysisHandler) finishANOVA(c *gin.Context, report *stats.ANOVAReport, err error, start time.Time) {
	observe("anova", err)
	if err != nil {
		respondError(c, err)
		return
	}
	fitDuration.Observe(time.Since(start).Seconds())
	c.JSON(http.StatusOK, report)
}

// LastANOVA returns the session's most recent ANOVA report
func (h *AnalysisHandler) LastANOVA(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	report, err := h.service.LastANOVA(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Classify maps ?p= onto its significance band
func (h *AnalysisHandler) Classify(c *gin.Context) {
	p, err := strconv.ParseFloat(c.Query("p"), 64)
	if err != nil || p < 0 || p > 1 {
		respondError(c, errors.InvalidInput("p must be a number in [0, 1]"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"p_value": p, "band": anova.Classify(p)})
}

func sessionID(c *gin.Context) (core.SessionID, bool) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

func bindColumns(c *gin.Context, needGroup bool) (core.SessionID, columnRequest, bool) {
	id, ok := sessionID(c)
	if !ok {
		return "", columnRequest{}, false
	}
	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput(err.Error()))
		return "", columnRequest{}, false
	}
	if needGroup && req.Group == "" {
		respondError(c, errors.InvalidInput("a group column is required"))
		return "", columnRequest{}, false
	}
	return id, req, true
}

func parseInteractions(raw []string) ([]anova.Interaction, error) {
	interactions := make([]anova.Interaction, 0, len(raw))
	for _, text := range raw {
		pair, err := anova.ParseInteraction(text)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, pair)
	}
	return interactions, nil
}

func checkError(err error) checkResponse {
	body := newErrorBody(err)
	return checkResponse{Error: body.Error, Code: body.Code}
}
