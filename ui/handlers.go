package ui

import (
	stderrors "errors"
	"net/http"

	"goanova/app"
	"goanova/domain/dataset"
	"goanova/domain/stats"
	"goanova/internal/anova"
	"goanova/internal/errors"
)

// pageError is shown in place of a result when an analysis fails
type pageError struct {
	Message string
	Code    string
	Status  int
}

// page is the data every template receives
type page struct {
	Title       string
	Active      string
	Source      string
	Rows        int
	HasData     bool
	Numeric     []string
	Categorical []string
	Error       *pageError
	Data        interface{}
}

func toPageError(err error) *pageError {
	if err == nil {
		return nil
	}
	return &pageError{Message: err.Error(), Code: errors.GetCode(err), Status: statusFor(err)}
}

// statusFor picks the status of a page that shows an error
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeModelFit:
		return http.StatusUnprocessableEntity
	case errors.CodeInternalError:
		return http.StatusInternalServerError
	}
	if errors.IsAppError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// newPage fills the shared header: what the session holds and its columns
func (a *App) newPage(r *http.Request, title, active string) page {
	p := page{Title: title, Active: active}
	sess, err := a.service.Session(r.Context(), sessionFrom(r))
	if err != nil || !sess.HasTable() {
		return p
	}
	p.HasData = true
	p.Source = sess.Source
	p.Rows = sess.Table.RowCount()
	p.Numeric = sess.Table.NamesOfType(dataset.TypeNumeric)
	p.Categorical = sess.Table.NamesOfType(dataset.TypeCategorical)
	return p
}

func (a *App) render(w http.ResponseWriter, templateName string, p page) {
	status := http.StatusOK
	if p.Error != nil {
		status = p.Error.Status
	}
	a.renderTemplate(w, status, templateName, p)
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	p := a.newPage(r, "goanova", "home")
	if p.HasData {
		preview, err := a.service.Preview(r.Context(), sessionFrom(r), 0)
		p.Error = toPageError(err)
		columns, err := a.service.Columns(r.Context(), sessionFrom(r))
		if p.Error == nil {
			p.Error = toPageError(err)
		}
		p.Data = homeData{Preview: preview, Columns: columns}
	}
	a.render(w, "home.html", p)
}

type homeData struct {
	Preview []map[string]string
	Columns []app.ColumnInfo
}

func (a *App) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, "upload.html", a.newPage(r, "Upload data", "upload"))
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		p := a.newPage(r, "Upload data", "upload")
		p.Error = toPageError(errors.InvalidInput("choose a file to upload"))
		a.render(w, "upload.html", p)
		return
	}
	defer file.Close()

	if _, err := a.service.LoadDataset(r.Context(), sessionFrom(r), header.Filename, file); err != nil {
		p := a.newPage(r, "Upload data", "upload")
		p.Error = toPageError(err)
		a.render(w, "upload.html", p)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type descriptiveData struct {
	Column  string
	Group   string
	Groups  []stats.GroupSummary
	BoxPlot *boxPlotView
}

func (a *App) handleDescriptive(w http.ResponseWriter, r *http.Request) {
	p := a.newPage(r, "Descriptive statistics", "descriptive")
	data := descriptiveData{Column: r.URL.Query().Get("column"), Group: r.URL.Query().Get("group")}
	if data.Column != "" && data.Group != "" {
		groups, err := a.service.Describe(r.Context(), sessionFrom(r), data.Column, data.Group)
		p.Error = toPageError(err)
		data.Groups = groups
		data.BoxPlot = newBoxPlotView(groups)
	}
	p.Data = data
	a.render(w, "descriptive.html", p)
}

type assumptionsData struct {
	Column         string
	Group          string
	Ran            bool
	Normality      *stats.NormalityResult
	NormalityErr   *pageError
	Homogeneity    *stats.HomogeneityResult
	HomogeneityErr *pageError
}

func (a *App) handleAssumptions(w http.ResponseWriter, r *http.Request) {
	p := a.newPage(r, "Assumption checks", "assumptions")
	data := assumptionsData{Column: r.URL.Query().Get("column"), Group: r.URL.Query().Get("group")}
	if data.Column != "" && data.Group != "" {
		checks, err := a.service.CheckAssumptions(r.Context(), sessionFrom(r), data.Column, data.Group)
		if err != nil {
			p.Error = toPageError(err)
		} else {
			data.Ran = true
			data.Normality, data.NormalityErr = checks.Normality, toPageError(checks.NormalityErr)
			data.Homogeneity, data.HomogeneityErr = checks.Homogeneity, toPageError(checks.HomogeneityErr)
		}
	}
	p.Data = data
	a.render(w, "assumptions.html", p)
}

type anovaData struct {
	Interaction  bool
	Dependent    string
	Independents []string
	Report       *stats.ANOVAReport
}

func (a *App) handleANOVAForm(w http.ResponseWriter, r *http.Request) {
	p := a.newPage(r, "Two-way ANOVA", "anova")
	p.Data = anovaData{}
	a.render(w, "anova.html", p)
}

// handleANOVA fits the dependent on any number of selected factors, main
// effects only.
func (a *App) handleANOVA(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	data := anovaData{Dependent: r.PostForm.Get("dependent"), Independents: r.PostForm["independents"]}
	a.runANOVA(w, r, "Two-way ANOVA", "anova", data, nil)
}

func (a *App) handleInteractionForm(w http.ResponseWriter, r *http.Request) {
	p := a.newPage(r, "Two-way ANOVA with interaction", "interaction")
	p.Data = anovaData{Interaction: true}
	a.render(w, "anova.html", p)
}

// handleInteraction fits two factors and their interaction
func (a *App) handleInteraction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	first, second := r.PostForm.Get("factor_a"), r.PostForm.Get("factor_b")
	data := anovaData{Interaction: true, Dependent: r.PostForm.Get("dependent"), Independents: []string{first, second}}
	a.runANOVA(w, r, "Two-way ANOVA with interaction", "interaction", data, []anova.Interaction{{first, second}})
}

func (a *App) runANOVA(w http.ResponseWriter, r *http.Request, title, active string, data anovaData, interactions []anova.Interaction) {
	p := a.newPage(r, title, active)
	result, err := a.service.RunANOVA(r.Context(), sessionFrom(r), data.Dependent, data.Independents, interactions)
	p.Error = toPageError(err)
	data.Report = result
	p.Data = data
	a.render(w, "anova.html", p)
}

func (a *App) handleResults(w http.ResponseWriter, r *http.Request) {
	p := a.newPage(r, "Results", "results")
	result, err := a.service.LastANOVA(r.Context(), sessionFrom(r))
	if err != nil && !stderrors.Is(err, errors.ErrNotFound) {
		p.Error = toPageError(err)
	}
	if result != nil {
		p.Data = result
	}
	a.render(w, "results.html", p)
}
