// Package model loads classifier artifacts and exposes them as risk predictors.
package model

import (
	"context"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/okian/outbreak/internal/domain/risk"
)

// Supported artifact kinds.
const (
	KindLogistic = "logistic"
	KindTree     = "tree"
)

// Artifact is the on-disk description of a trained binary classifier.
type Artifact struct {
	Kind     string         `yaml:"kind"`
	Version  string         `yaml:"version"`
	Features []string       `yaml:"features"`
	Logistic *LogisticModel `yaml:"logistic,omitempty"`
	Tree     *TreeModel     `yaml:"tree,omitempty"`
}

// Load reads and validates the artifact at path. Every failure is reported
// as a model unavailable error naming the path.
func Load(ctx context.Context, path string) (risk.Predictor, error) {
	if err := ctx.Err(); err != nil {
		return nil, &risk.ModelUnavailableError{Source: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &risk.ModelUnavailableError{Source: path, Err: err}
	}
	p, err := Parse(data)
	if err != nil {
		return nil, &risk.ModelUnavailableError{Source: path, Err: err}
	}
	return p, nil
}

// Parse decodes an artifact document.
func Parse(data []byte) (risk.Predictor, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return a.Predictor()
}

// Predictor validates the artifact and returns the model it describes.
func (a Artifact) Predictor() (risk.Predictor, error) {
	if !slices.Equal(a.Features, risk.FeatureNames[:]) {
		return nil, fmt.Errorf("%w: got %v, want %v", ErrFeatureMismatch, a.Features, risk.FeatureNames)
	}
	switch a.Kind {
	case KindLogistic:
		if a.Logistic == nil {
			return nil, fmt.Errorf("%w: missing logistic section", ErrInvalidLogistic)
		}
		if err := a.Logistic.validate(); err != nil {
			return nil, err
		}
		return a.Logistic, nil
	case KindTree:
		if a.Tree == nil {
			return nil, fmt.Errorf("%w: missing tree section", ErrInvalidTree)
		}
		if err := a.Tree.validate(); err != nil {
			return nil, err
		}
		return a.Tree, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
}
