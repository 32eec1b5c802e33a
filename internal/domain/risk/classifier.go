package risk

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/outbreak/pkg/logger"
	"github.com/okian/outbreak/pkg/metrics"
)

// Vaccination adjustment thresholds.
const (
	highCoverageThreshold = 70.0
	highCoverageSpan      = 30.0
	lowCoverageThreshold  = 40.0
	lowCoverageSpan       = 40.0
)

// Predictor is the pre-trained binary classifier. It returns 1 for a high
// risk decision and 0 otherwise.
type Predictor interface {
	Predict(ctx context.Context, features [FeatureCount]float64) (int, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, features [FeatureCount]float64) (int, error)

// Predict implements Predictor.
func (f PredictorFunc) Predict(ctx context.Context, features [FeatureCount]float64) (int, error) {
	return f(ctx, features)
}

// Source yields uniform values in [0,1). Implementations must be safe for
// concurrent use when the Classifier is shared.
type Source interface {
	Float64() float64
}

// globalSource draws from the goroutine-safe math/rand/v2 generator.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Result is the outcome of one classification.
type Result struct {
	Label       Label       `json:"label"`
	Probability Probability `json:"probability"`
	// BaseLabel is the classifier decision before the vaccination adjustment.
	BaseLabel Label `json:"base_label"`
	Flipped   bool  `json:"flipped"`
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithSource sets the random source used by the vaccination adjustment.
func WithSource(src Source) Option {
	return func(c *Classifier) {
		if src != nil {
			c.src = src
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// Classifier wraps a Predictor and applies the vaccination adjustment.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	predictor Predictor
	src       Source
	logger    logger.Logger
}

// NewClassifier creates a classifier around p.
func NewClassifier(p Predictor, opts ...Option) *Classifier {
	c := &Classifier{
		predictor: p,
		src:       globalSource{},
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify validates in, asks the predictor for a decision, applies the
// vaccination adjustment and derives the probability.
func (c *Classifier) Classify(ctx context.Context, in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		metrics.RecordInvalidInput()
		return Result{}, err
	}
	if c.predictor == nil {
		metrics.RecordModelError()
		return Result{}, &ModelUnavailableError{Err: fmt.Errorf("no predictor configured")}
	}

	start := time.Now()
	d, err := c.predictor.Predict(ctx, in.Features())
	metrics.RecordClassifyLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordModelError()
		return Result{}, asModelUnavailable(err)
	}
	if d != 0 && d != 1 {
		metrics.RecordModelError()
		return Result{}, &ModelUnavailableError{Err: fmt.Errorf("predictor returned decision %d", d)}
	}

	base := labelFor(d)
	d = c.adjust(d, in.VaccinationRate)
	label := labelFor(d)

	res := Result{
		Label:       label,
		Probability: DeriveProbability(label, in.VaccinationRate),
		BaseLabel:   base,
		Flipped:     base != label,
	}
	if res.Flipped {
		metrics.RecordLabelFlip(base.String(), label.String())
		c.logger.Debug(ctx, "vaccination adjustment flipped label",
			logger.String("from", base.String()),
			logger.String("to", label.String()),
			logger.Float64("vaccination_rate", *in.VaccinationRate),
		)
	}
	return res, nil
}

// adjust applies the vaccination rule. It draws at most one random value.
func (c *Classifier) adjust(d int, rate *float64) int {
	if rate == nil {
		return d
	}
	v := *rate
	switch {
	case d == 1 && v > highCoverageThreshold:
		if c.src.Float64() < (v-highCoverageThreshold)/highCoverageSpan {
			return 0
		}
	case d == 0 && v < lowCoverageThreshold:
		if c.src.Float64() < (lowCoverageThreshold-v)/lowCoverageSpan {
			return 1
		}
	}
	return d
}

func labelFor(d int) Label {
	if d == 1 {
		return High
	}
	return Low
}

func asModelUnavailable(err error) error {
	var mu *ModelUnavailableError
	if errors.As(err, &mu) {
		return err
	}
	return &ModelUnavailableError{Err: err}
}
