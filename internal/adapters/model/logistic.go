package model

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/outbreak/internal/domain/risk"
)

// LogisticModel decides High when sigmoid(w·x + b) reaches Threshold.
type LogisticModel struct {
	Coefficients []float64 `yaml:"coefficients"`
	Intercept    float64   `yaml:"intercept"`
	Threshold    float64   `yaml:"threshold"`
}

func (m *LogisticModel) validate() error {
	if len(m.Coefficients) != risk.FeatureCount {
		return fmt.Errorf("%w: %d coefficients, want %d", ErrInvalidLogistic, len(m.Coefficients), risk.FeatureCount)
	}
	for i, c := range m.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidLogistic, i)
		}
	}
	if !(m.Threshold > 0 && m.Threshold < 1) {
		return fmt.Errorf("%w: threshold %v outside (0, 1)", ErrInvalidLogistic, m.Threshold)
	}
	return nil
}

// Score returns the positive class probability for x.
func (m *LogisticModel) Score(x [risk.FeatureCount]float64) float64 {
	z := m.Intercept
	for i, w := range m.Coefficients {
		z += w * x[i]
	}
	return 1 / (1 + math.Exp(-z))
}

// Predict implements risk.Predictor.
func (m *LogisticModel) Predict(ctx context.Context, x [risk.FeatureCount]float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.Score(x) >= m.Threshold {
		return 1, nil
	}
	return 0, nil
}
