// Package trend builds the illustrative history and projection shown next to
// an assessment. The series is synthetic: it is drawn from a random source
// around the submitted case count and carries no real surveillance data.
package trend

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	DefaultDays    = 30
	DefaultWindow  = 3
	DefaultHorizon = 7

	// caseSpread is the standard deviation of synthetic case counts as a
	// fraction of the submitted count.
	caseSpread = 0.1
	// projectionLift scales the recent mean risk into the projection.
	projectionLift = 1.1
	// projectionBasis is the number of trailing days averaged for the projection.
	projectionBasis = 7
)

// Source supplies random draws. Implementations must be safe for concurrent use.
type Source interface {
	Float64() float64
	NormFloat64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64     { return rand.Float64() }
func (globalSource) NormFloat64() float64 { return rand.NormFloat64() }

// Point is one historical day.
type Point struct {
	Date          time.Time `json:"date"`
	Risk          float64   `json:"risk"`
	Cases         float64   `json:"cases"`
	MovingAverage *float64  `json:"moving_average"`
}

// Projection is one forecast day.
type Projection struct {
	Date time.Time `json:"date"`
	Risk float64   `json:"risk"`
}

// Series is the generated history and its projection.
type Series struct {
	Window     int          `json:"window"`
	History    []Point      `json:"history"`
	Projection []Projection `json:"projection"`
}

// Generator produces synthetic trend series.
type Generator struct {
	days    int
	window  int
	horizon int
	src     Source
}

// Option configures a Generator.
type Option func(*Generator)

// WithDays sets the number of historical days.
func WithDays(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.days = n
		}
	}
}

// WithWindow sets the moving average window.
func WithWindow(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.window = n
		}
	}
}

// WithHorizon sets the number of projected days.
func WithHorizon(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.horizon = n
		}
	}
}

// WithSource replaces the process-wide random generator.
func WithSource(src Source) Option {
	return func(g *Generator) {
		if src != nil {
			g.src = src
		}
	}
}

// NewGenerator returns a generator with the default shape.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		days:    DefaultDays,
		window:  DefaultWindow,
		horizon: DefaultHorizon,
		src:     globalSource{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a series whose history ends on the day of now.
func (g *Generator) Generate(now time.Time, newCases float64) Series {
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	history := make([]Point, g.days)
	for i := range history {
		cases := newCases + caseSpread*math.Abs(newCases)*g.src.NormFloat64()
		history[i] = Point{
			Date:  end.AddDate(0, 0, -(g.days - 1 - i)),
			Risk:  g.src.Float64(),
			Cases: math.Max(0, cases),
		}
	}

	var sum float64
	for i := range history {
		sum += history[i].Risk
		if i >= g.window {
			sum -= history[i-g.window].Risk
		}
		if i >= g.window-1 {
			avg := sum / float64(g.window)
			history[i].MovingAverage = &avg
		}
	}

	level := clamp01(recentMean(history, projectionBasis) * projectionLift)
	projection := make([]Projection, g.horizon)
	for i := range projection {
		projection[i] = Projection{Date: end.AddDate(0, 0, i+1), Risk: level}
	}

	return Series{Window: g.window, History: history, Projection: projection}
}

func recentMean(history []Point, n int) float64 {
	if len(history) == 0 {
		return 0
	}
	if n > len(history) {
		n = len(history)
	}
	var sum float64
	for _, p := range history[len(history)-n:] {
		sum += p.Risk
	}
	return sum / float64(n)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
