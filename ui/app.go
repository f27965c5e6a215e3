package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vardrill/domain/core"
	"vardrill/internal/errors"
	"vardrill/internal/report"
	"vardrill/internal/session"
)

//go:embed templates/*
var embeddedFiles embed.FS

// App serves the read-only HTML view of a drill path. Shared links and
// embedded dashboards land here.
type App struct {
	router    *chi.Mux
	manager   *session.Manager
	templates *template.Template
}

// NewApp creates the view app. Templates are embedded, so parsing can only
// fail on a broken build.
func NewApp(manager *session.Manager) *App {
	funcMap := template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"add": func(a, b int) int { return a + b },
	}
	templates := template.Must(template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html"))

	app := &App{
		router:    chi.NewRouter(),
		manager:   manager,
		templates: templates,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

// Handler returns the chi router.
func (a *App) Handler() http.Handler { return a.router }

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/view", http.StatusFound)
	})
	a.router.Get("/view", a.handleView)
	a.router.Get("/view/{id}", a.handleSessionView)
}

// viewData is what view.html renders.
type viewData struct {
	Title    string
	Embed    bool
	Analysis *session.Analysis
	Report   template.HTML
}

// handleView renders the filters carried in the query string. The session
// behind it lives for this request only.
func (a *App) handleView(w http.ResponseWriter, r *http.Request) {
	s := a.manager.Ephemeral(r.URL.RawQuery)
	defer s.Close()
	a.render(w, s, s.Navigator().EmbedMode())
}

func (a *App) handleSessionView(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s, err := a.manager.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), errors.HTTPStatus(err))
		return
	}
	a.render(w, s, r.URL.Query().Has("embed"))
}

func (a *App) render(w http.ResponseWriter, s *session.Session, embed bool) {
	analysis := s.Analyze()
	md := report.Markdown(analysis, report.Options{TopN: 5})
	data := viewData{
		Title:    "Variation drill-down: " + analysis.Outcome,
		Embed:    embed,
		Analysis: analysis,
		Report:   template.HTML(report.HTML(md)),
	}

	// Status is written explicitly: under gin's NoRoute the default is 404.
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, "view.html", data); err != nil {
		log.Printf("[View] template error: %v", err)
		http.Error(w, "failed to render view", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
