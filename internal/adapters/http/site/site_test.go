package site_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/outbreak/internal/adapters/http/site"
	"github.com/okian/outbreak/internal/adapters/session"
	"github.com/okian/outbreak/internal/domain/model"
	"github.com/okian/outbreak/internal/domain/recommend"
	"github.com/okian/outbreak/internal/domain/risk"
	"github.com/okian/outbreak/internal/domain/trend"
	"github.com/okian/outbreak/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type assessFunc func(ctx context.Context, in risk.Input) (model.Assessment, error)

func (f assessFunc) Assess(ctx context.Context, in risk.Input) (model.Assessment, error) {
	return f(ctx, in)
}

// protect admits requests carrying X-User and redirects the rest.
func protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("X-User")
		if name == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		u := types.User{ID: "u1", Email: name + "@example.org", Name: name}
		next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), u)))
	})
}

func sampleAssessment(in risk.Input) model.Assessment {
	p := risk.Probability(0.8)
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return model.Assessment{
		ID:             "a-1",
		Input:          in,
		Label:          risk.High,
		BaseLabel:      risk.High,
		Probability:    p,
		Confidence:     87.5,
		KeyFactors:     risk.KeyFactors(in),
		Gauge:          risk.NewGauge(p),
		Recommendation: recommend.Plan(recommend.Critical),
		Trend: trend.Series{
			Window: 3,
			History: []trend.Point{
				{Date: day, Risk: 0.41, Cases: 148},
				{Date: day.AddDate(0, 0, 1), Risk: 0.52, Cases: 151, MovingAverage: risk.Float64(0.47)},
			},
			Projection: []trend.Projection{{Date: day.AddDate(0, 0, 2), Risk: 0.51}},
		},
	}
}

func newRouter(a site.Assessor) (http.Handler, *site.Site) {
	s, err := site.New(a)
	if err != nil {
		panic(err)
	}
	r := chi.NewRouter()
	s.Register(r, protect)
	return r, s
}

func do(h http.Handler, req *http.Request) (*httptest.ResponseRecorder, string) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Body)
	return rec, string(body)
}

func postDashboard(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/dashboard", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-User", "ada")
	return req
}

func fullForm() url.Values {
	return url.Values{
		"new_cases":          {"150"},
		"humidity":           {"65"},
		"population_density": {"200"},
		"temperature":        {"28"},
		"rainfall":           {"120"},
		"vaccination_rate":   {"60"},
	}
}

func TestPublicPages(t *testing.T) {
	Convey("Given the site router", t, func() {
		h, _ := newRouter(assessFunc(func(context.Context, risk.Input) (model.Assessment, error) {
			return model.Assessment{}, errors.New("unused")
		}))

		Convey("When the home page is requested anonymously", func() {
			rec, body := do(h, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then it renders inside the layout with login links", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "text/html")
				So(body, ShouldContainSubstring, "Predict outbreak risk")
				So(body, ShouldContainSubstring, `href="/login"`)
				So(body, ShouldNotContainSubstring, `href="/logout"`)
			})
		})

		Convey("When about and contact are requested", func() {
			rec, body := do(h, httptest.NewRequest(http.MethodGet, "/about", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, "<title>About")

			rec, body = do(h, httptest.NewRequest(http.MethodGet, "/contact", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, "<title>Contact")
		})

		Convey("When a static asset is requested", func() {
			rec, body := do(h, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, ".gauge-bar")
		})

		Convey("When a flash cookie is present", func() {
			flash := httptest.NewRecorder()
			session.SetFlash(flash, session.Flash{Category: session.FlashSuccess, Message: "Login successful!"})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, c := range flash.Result().Cookies() {
				req.AddCookie(c)
			}
			_, body := do(h, req)

			Convey("Then the message is shown once", func() {
				So(body, ShouldContainSubstring, `alert-success">Login successful!`)
			})
		})
	})
}

func TestDashboard(t *testing.T) {
	Convey("Given the dashboard", t, func() {
		var got risk.Input
		var fail error
		h, _ := newRouter(assessFunc(func(_ context.Context, in risk.Input) (model.Assessment, error) {
			got = in
			if fail != nil {
				return model.Assessment{}, fail
			}
			return sampleAssessment(in), nil
		}))

		Convey("When requested without a session", func() {
			rec, _ := do(h, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
			So(rec.Code, ShouldEqual, http.StatusFound)
			So(rec.Header().Get("Location"), ShouldEqual, "/login")
		})

		Convey("When requested by a signed-in user", func() {
			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			req.Header.Set("X-User", "ada")
			rec, body := do(h, req)

			Convey("Then the empty form is rendered with every field", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				for _, f := range site.Fields {
					So(body, ShouldContainSubstring, `name="`+f.Name+`"`)
				}
				So(body, ShouldContainSubstring, "ada")
				So(body, ShouldNotContainSubstring, "Confidence Score")
			})
		})

		Convey("When required fields are missing", func() {
			form := fullForm()
			form.Del("humidity")
			form.Set("rainfall", " ")
			_, body := do(h, postDashboard(form))

			Convey("Then a warning names them and the form keeps its values", func() {
				So(body, ShouldContainSubstring, "Please enter values for: Humidity, Rainfall")
				So(body, ShouldContainSubstring, `value="150"`)
			})
		})

		Convey("When a value is not a number", func() {
			form := fullForm()
			form.Set("new_cases", "lots")
			_, body := do(h, postDashboard(form))
			So(body, ShouldContainSubstring, "Please enter valid numbers for: New Cases")
		})

		Convey("When the assessor rejects a value as out of range", func() {
			fail = &risk.InvalidInputError{Invalid: []string{risk.FieldHumidity}, Reason: "humidity must be within [0, 100]"}
			_, body := do(h, postDashboard(fullForm()))
			So(body, ShouldContainSubstring, "Please enter valid numbers for: Humidity (humidity must be within [0, 100])")
		})

		Convey("When the model is unavailable", func() {
			fail = &risk.ModelUnavailableError{Source: "models/x.yaml", Err: errors.New("boom")}
			rec, body := do(h, postDashboard(fullForm()))

			Convey("Then a generic error is shown without details", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, site.MsgPredictionFailed)
				So(body, ShouldNotContainSubstring, "boom")
			})
		})

		Convey("When the form is complete", func() {
			rec, body := do(h, postDashboard(fullForm()))

			Convey("Then the parsed input reaches the assessor", func() {
				So(got.NewCases, ShouldEqual, 150.0)
				So(*got.VaccinationRate, ShouldEqual, 60.0)
			})

			Convey("Then the report is rendered", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, "High Risk")
				So(body, ShouldContainSubstring, "Confidence Score")
				So(body, ShouldContainSubstring, "87.5%")
				So(body, ShouldContainSubstring, "80.0%")
				So(body, ShouldContainSubstring, "Key Risk Factors")
				So(body, ShouldContainSubstring, "Population Density Impact")
				So(body, ShouldContainSubstring, "CRITICAL RISK: IMMEDIATE ACTION REQUIRED")
				So(body, ShouldContainSubstring, "Mobilize emergency medical teams")
				So(body, ShouldContainSubstring, "Trigger Condition: Risk &gt;70% with high transmission factors")
				So(body, ShouldContainSubstring, "2025-03-02")
				So(body, ShouldContainSubstring, "0.47")
				So(body, ShouldContainSubstring, "Projection Zone")
				So(body, ShouldContainSubstring, "Return to Dashboard")
			})
		})
	})
}

func TestRender(t *testing.T) {
	Convey("Given a site", t, func() {
		s, err := site.New(nil)
		So(err, ShouldBeNil)

		Convey("When an unknown page is rendered", func() {
			rec := httptest.NewRecorder()
			s.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "missing", nil)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the login page is rendered with provider settings", func() {
			rec := httptest.NewRecorder()
			data := struct{ Provider map[string]string }{Provider: map[string]string{"projectId": "outbreak-dev"}}
			s.Render(rec, httptest.NewRequest(http.MethodGet, "/login", nil), http.StatusOK, site.PageLogin, data)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"projectId":"outbreak-dev"`)
		})
	})
}

func TestInputWarning(t *testing.T) {
	Convey("Given input errors", t, func() {
		So(site.InputWarning(risk.Missing(risk.FieldNewCases, risk.FieldVaccinationRate)),
			ShouldEqual, "Please enter values for: New Cases, Vaccination Rate")
		So(site.InputWarning(&risk.InvalidInputError{Invalid: []string{"other"}}),
			ShouldEqual, "Please enter valid numbers for: other")
	})
}
