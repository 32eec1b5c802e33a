// Package site renders the server-side HTML pages: the public pages, the
// auth forms and the assessment dashboard.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/outbreak/internal/adapters/http/api"
	"github.com/okian/outbreak/internal/adapters/session"
	"github.com/okian/outbreak/internal/domain/model"
	"github.com/okian/outbreak/internal/domain/risk"
	"github.com/okian/outbreak/internal/domain/types"
	"github.com/okian/outbreak/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names.
const (
	PageHome      = "home"
	PageAbout     = "about"
	PageContact   = "contact"
	PageLogin     = "login"
	PageRegister  = "register"
	PageDashboard = "dashboard"
)

// Dashboard messages.
const (
	MsgPredictionFailed = "An error occurred during prediction. Please try again."
	msgMissingPrefix    = "Please enter values for: "
	msgInvalidPrefix    = "Please enter valid numbers for: "
)

// Assessor runs a risk assessment.
type Assessor interface {
	Assess(ctx context.Context, in risk.Input) (model.Assessment, error)
}

// Field describes one dashboard input.
type Field struct {
	Name        string
	Label       string
	Display     string
	Placeholder string
}

// Fields lists the dashboard inputs in form order.
var Fields = []Field{
	{risk.FieldNewCases, "New Cases", "New Cases", "e.g., 150"},
	{risk.FieldHumidity, "Humidity (%)", "Humidity", "e.g., 65"},
	{risk.FieldPopulationDensity, "Population Density", "Population Density", "e.g., 200"},
	{risk.FieldTemperature, "Temperature (°C)", "Temperature", "e.g., 28"},
	{risk.FieldRainfall, "Rainfall (mm)", "Rainfall", "e.g., 120"},
	{risk.FieldVaccinationRate, "Vaccination Rate (%)", "Vaccination Rate", "e.g., 75"},
}

// View is the data every page template receives.
type View struct {
	Page     string
	User     types.User
	SignedIn bool
	Flashes  []session.Flash
	Data     any
}

// DashboardData is the page data of the dashboard.
type DashboardData struct {
	Fields  []Field
	Values  map[string]string
	Warning string
	Error   string
	Report  *model.Assessment
}

// Option configures a Site.
type Option func(*Site)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Site) {
		if l != nil {
			s.log = l
		}
	}
}

// Site renders pages and serves the dashboard.
type Site struct {
	pages  map[string]*template.Template
	assess Assessor
	log    logger.Logger
}

// New parses the embedded templates.
func New(assess Assessor, opts ...Option) (*Site, error) {
	s := &Site{assess: assess, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	funcs := template.FuncMap{
		"day": func(t time.Time) string { return t.Format(time.DateOnly) },
		"avg": func(v *float64) string {
			if v == nil {
				return "–"
			}
			return fmt.Sprintf("%.2f", *v)
		},
		"sub": func(a, b float64) float64 { return a - b },
	}

	s.pages = make(map[string]*template.Template)
	for _, page := range []string{PageHome, PageAbout, PageContact, PageLogin, PageRegister, PageDashboard} {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParseTemplates, page, err)
		}
		s.pages[page] = t
	}
	return s, nil
}

// Register attaches the site routes to r. The dashboard is wrapped with protect.
func (s *Site) Register(r chi.Router, protect ...func(http.Handler) http.Handler) {
	r.Get("/", api.MetricsMiddleware(s.static(PageHome), "home"))
	r.Get("/about", api.MetricsMiddleware(s.static(PageAbout), "about"))
	r.Get("/contact", api.MetricsMiddleware(s.static(PageContact), "contact"))

	assets, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(assets))))

	r.Group(func(r chi.Router) {
		r.Use(protect...)
		r.Get("/dashboard", api.MetricsMiddleware(s.HandleDashboard, "dashboard"))
		r.Post("/dashboard", api.MetricsMiddleware(s.HandleAssess, "dashboard"))
	})
}

// Render draws page inside the layout. The body is buffered so a template
// failure still yields a clean 500.
func (s *Site) Render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	t, ok := s.pages[page]
	if !ok {
		s.log.Error(r.Context(), "render", logger.String("page", page), logger.Error(ErrUnknownPage))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view := View{Page: page, Data: data}
	view.User, view.SignedIn = session.UserFrom(r.Context())
	view.Flashes = session.PopFlashes(w, r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", view); err != nil {
		s.log.Error(r.Context(), "render", logger.String("page", page), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Site) static(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Render(w, r, http.StatusOK, page, nil)
	}
}

// HandleDashboard handles GET /dashboard.
func (s *Site) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	s.Render(w, r, http.StatusOK, PageDashboard, DashboardData{Fields: Fields})
}

// HandleAssess handles POST /dashboard. Input problems are shown as a
// warning next to the form; the form keeps what the user typed.
func (s *Site) HandleAssess(w http.ResponseWriter, r *http.Request) {
	data := DashboardData{Fields: Fields, Values: map[string]string{}}
	if err := r.ParseForm(); err != nil {
		data.Warning = "Invalid form submission"
		s.Render(w, r, http.StatusBadRequest, PageDashboard, data)
		return
	}
	for _, f := range Fields {
		data.Values[f.Name] = r.PostForm.Get(f.Name)
	}

	in, err := api.ParseForm(r.PostForm)
	if err == nil {
		var a model.Assessment
		if a, err = s.assess.Assess(r.Context(), in); err == nil {
			data.Report = &a
			s.Render(w, r, http.StatusOK, PageDashboard, data)
			return
		}
	}

	var iie *risk.InvalidInputError
	switch {
	case errors.As(err, &iie):
		data.Warning = InputWarning(iie)
	default:
		s.log.Error(r.Context(), "dashboard assessment failed", logger.Error(err))
		data.Error = MsgPredictionFailed
	}
	s.Render(w, r, http.StatusOK, PageDashboard, data)
}

// InputWarning renders an input error with the display names of the
// offending fields.
func InputWarning(e *risk.InvalidInputError) string {
	if len(e.Missing) > 0 {
		return msgMissingPrefix + strings.Join(displayNames(e.Missing), ", ")
	}
	if len(e.Invalid) > 0 {
		msg := msgInvalidPrefix + strings.Join(displayNames(e.Invalid), ", ")
		if e.Reason != "" {
			msg += " (" + e.Reason + ")"
		}
		return msg
	}
	return e.Error()
}

func displayNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		label := n
		for _, f := range Fields {
			if f.Name == n {
				label = f.Display
				break
			}
		}
		out = append(out, label)
	}
	return out
}
