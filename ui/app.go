package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"goanova/app"
	"goanova/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	router    *chi.Mux
	service   *app.AnalysisService
	templates *template.Template
	config    Config
}

// Config holds UI application configuration
type Config struct {
	MaxUploadBytes int64
	SecureCookie   bool
}

// NewApp creates a new UI application
func NewApp(service *app.AnalysisService, config Config) (*App, error) {
	funcMap := template.FuncMap{
		"num":    report.FormatNumber,
		"pval":   report.FormatPValue,
		"anova":  report.HTML,
		"add":    func(a, b float64) float64 { return a + b },
		"sub":    func(a, b float64) float64 { return a - b },
		"first":  func(list []string) string { return at(list, 0) },
		"second": func(list []string) string { return at(list, 1) },
		"contains": func(list []string, s string) bool {
			for _, v := range list {
				if v == s {
					return true
				}
			}
			return false
		},
		"dict": func(pairs ...interface{}) (map[string]interface{}, error) {
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("dict needs key/value pairs")
			}
			m := make(map[string]interface{}, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
				}
				m[key] = pairs[i+1]
			}
			return m, nil
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		templates: templates,
		config:    config,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Group(func(r chi.Router) {
		r.Use(a.withSession)

		r.Get("/", a.handleHome)
		r.Get("/upload", a.handleUploadForm)
		r.Post("/upload", a.handleUpload)
		r.Get("/descriptive", a.handleDescriptive)
		r.Get("/assumptions", a.handleAssumptions)
		r.Get("/anova", a.handleANOVAForm)
		r.Post("/anova", a.handleANOVA)
		r.Get("/anova/interaction", a.handleInteractionForm)
		r.Post("/anova/interaction", a.handleInteraction)
		r.Get("/results", a.handleResults)
	})
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

// Router exposes the UI routes so they can be mounted next to the API
func (a *App) Router() chi.Router {
	return a.router
}

// ServeHTTP lets the App be used directly as a handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// renderTemplate executes into a buffer first so a failing template never
// leaves a half-written page.
func (a *App) renderTemplate(w http.ResponseWriter, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("[UI] Template error for %s: %v", templateName, err)
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[UI] Error writing template response: %v", err)
	}
}
