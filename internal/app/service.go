// Package service provides the core business service that implements
// the dependencies required by the HTTP layers.
package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	classifier "github.com/okian/outbreak/internal/adapters/model"
	"github.com/okian/outbreak/internal/domain/model"
	"github.com/okian/outbreak/internal/domain/recommend"
	"github.com/okian/outbreak/internal/domain/risk"
	"github.com/okian/outbreak/internal/domain/trend"
	"github.com/okian/outbreak/pkg/logger"
	"github.com/okian/outbreak/pkg/metrics"
)

// Confidence scores are drawn uniformly from this range.
const (
	confidenceMin = 75.0
	confidenceMax = 95.0
)

// Service implements the assessment use case for the API and the dashboard.
type Service struct {
	mu sync.RWMutex

	// Model configuration
	modelPath    string
	modelURL     string
	labelPath    string
	modelTimeout time.Duration
	predictor    risk.Predictor

	// Core components
	classifier *risk.Classifier
	trend      *trend.Generator
	riskSource risk.Source
	confidence func() float64
	now        func() time.Time

	// State
	started   bool
	startedAt time.Time
	source    string

	tallyMu sync.Mutex
	tally   *model.Tally

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithModelPath loads the classifier from a YAML artifact on Start.
func WithModelPath(path string) Option {
	return func(s *Service) {
		s.modelPath = path
	}
}

// WithModelURL uses a remote classifier. It wins over WithModelPath.
func WithModelURL(url string) Option {
	return func(s *Service) {
		s.modelURL = url
	}
}

// WithModelLabelPath sets the JSON path of the decision in remote replies.
func WithModelLabelPath(path string) Option {
	return func(s *Service) {
		s.labelPath = path
	}
}

// WithModelTimeout bounds a single remote prediction.
func WithModelTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.modelTimeout = d
		}
	}
}

// WithPredictor uses p instead of loading a model.
func WithPredictor(p risk.Predictor) Option {
	return func(s *Service) {
		s.predictor = p
	}
}

// WithRiskSource sets the random source of the vaccination adjustment.
func WithRiskSource(src risk.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.riskSource = src
		}
	}
}

// WithTrendGenerator sets the trend generator.
func WithTrendGenerator(g *trend.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.trend = g
		}
	}
}

// WithConfidenceSource sets the uniform [0,1) draw behind confidence scores.
func WithConfidenceSource(f func() float64) Option {
	return func(s *Service) {
		if f != nil {
			s.confidence = f
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		modelTimeout: 2 * time.Second,
		trend:        trend.NewGenerator(),
		confidence:   rand.Float64,
		now:          time.Now,
		tally:        model.NewTally(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Start loads the classifier. It fails when no model is configured or the
// model cannot be loaded; readiness stays false in that case.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting assessment service...")

	p, source, err := s.loadPredictor(ctx)
	if err != nil {
		metrics.UpdateModelLoaded(false)
		s.logger.Error(ctx, "classifier unavailable", logger.String("source", source), logger.Error(err))
		return err
	}

	opts := []risk.Option{risk.WithLogger(s.logger.Named("classifier"))}
	if s.riskSource != nil {
		opts = append(opts, risk.WithSource(s.riskSource))
	}
	s.classifier = risk.NewClassifier(p, opts...)
	s.source = source
	s.started = true
	s.startedAt = s.now()
	metrics.UpdateModelLoaded(true)

	s.logger.Info(ctx, "assessment service started", logger.String("model", source))
	return nil
}

func (s *Service) loadPredictor(ctx context.Context) (risk.Predictor, string, error) {
	switch {
	case s.predictor != nil:
		return s.predictor, "injected", nil
	case s.modelURL != "":
		r := classifier.NewRemote(s.modelURL,
			classifier.WithTimeout(s.modelTimeout),
			classifier.WithLabelPath(s.labelPath),
			classifier.WithRemoteLogger(s.logger.Named("remote-model")),
		)
		// One prediction on a zero vector proves the server answers.
		checkCtx, cancel := context.WithTimeout(ctx, s.modelTimeout)
		defer cancel()
		if _, err := r.Predict(checkCtx, [risk.FeatureCount]float64{}); err != nil {
			return nil, s.modelURL, err
		}
		return r, s.modelURL, nil
	case s.modelPath != "":
		p, err := classifier.Load(ctx, s.modelPath)
		return p, s.modelPath, err
	default:
		return nil, "", &risk.ModelUnavailableError{Err: ErrNoModel}
	}
}

// Stop marks the service as not ready.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.classifier = nil
	metrics.UpdateModelLoaded(false)
	s.logger.Info(context.Background(), "assessment service stopped")
}

// Ready reports whether a classifier is loaded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && s.classifier != nil
}

// Assess classifies in and builds the full report.
func (s *Service) Assess(ctx context.Context, in risk.Input) (model.Assessment, error) {
	s.mu.RLock()
	c := s.classifier
	s.mu.RUnlock()
	if c == nil {
		metrics.RecordModelError()
		return model.Assessment{}, &risk.ModelUnavailableError{Err: ErrNotStarted}
	}

	res, err := c.Classify(ctx, in)
	if err != nil {
		return model.Assessment{}, err
	}
	rec, err := recommend.Recommend(res.Label, res.Probability)
	if err != nil {
		return model.Assessment{}, err
	}

	now := s.now()
	a := model.Assessment{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		Input:          in,
		Label:          res.Label,
		BaseLabel:      res.BaseLabel,
		Probability:    res.Probability,
		Confidence:     confidenceMin + (confidenceMax-confidenceMin)*s.confidence(),
		Flipped:        res.Flipped,
		KeyFactors:     risk.KeyFactors(in),
		Gauge:          risk.NewGauge(res.Probability),
		Recommendation: rec,
		Trend:          s.trend.Generate(now, in.NewCases),
	}

	metrics.RecordAssessment(a.Label.String(), rec.Tier.String())
	s.tallyMu.Lock()
	s.tally.Add(a)
	s.tallyMu.Unlock()

	s.logger.Debug(ctx, "assessment completed",
		logger.String("id", a.ID),
		logger.String("label", a.Label.String()),
		logger.Float64("probability", float64(a.Probability)),
		logger.String("tier", rec.Tier.String()),
		logger.Bool("flipped", a.Flipped),
	)
	return a, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	stats := map[string]interface{}{
		"started": s.started,
		"model":   s.source,
	}
	if s.started {
		stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())
	}
	s.mu.RUnlock()

	s.tallyMu.Lock()
	t := s.tally.Snapshot()
	s.tallyMu.Unlock()

	stats["assessments"] = t.Total
	stats["flipped"] = t.Flipped
	stats["flipRate"] = t.FlipRate()
	stats["labels"] = t.Labels
	stats["tiers"] = t.Tiers
	return stats
}
