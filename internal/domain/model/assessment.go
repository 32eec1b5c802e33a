// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/outbreak/internal/domain/recommend"
	"github.com/okian/outbreak/internal/domain/risk"
	"github.com/okian/outbreak/internal/domain/trend"
)

// Assessment is the full result of one risk evaluation.
type Assessment struct {
	ID             string                   `json:"id"`
	CreatedAt      time.Time                `json:"created_at"`
	Input          risk.Input               `json:"input"`
	Label          risk.Label               `json:"label"`
	BaseLabel      risk.Label               `json:"base_label"`
	Probability    risk.Probability         `json:"probability"`
	Confidence     float64                  `json:"confidence"`
	Flipped        bool                     `json:"flipped"`
	KeyFactors     []risk.Factor            `json:"key_factors"`
	Gauge          risk.Gauge               `json:"gauge"`
	Recommendation recommend.Recommendation `json:"recommendation"`
	Trend          trend.Series             `json:"trend"`
}

// Tally counts assessments by outcome. It is not safe for concurrent use.
type Tally struct {
	Total   int            `json:"total"`
	Flipped int            `json:"flipped"`
	Labels  map[string]int `json:"labels"`
	Tiers   map[string]int `json:"tiers"`
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{Labels: map[string]int{}, Tiers: map[string]int{}}
}

// Add counts a.
func (t *Tally) Add(a Assessment) {
	t.Total++
	if a.Flipped {
		t.Flipped++
	}
	t.Labels[a.Label.String()]++
	t.Tiers[a.Recommendation.Tier.String()]++
}

// Snapshot returns a deep copy.
func (t *Tally) Snapshot() Tally {
	out := Tally{Total: t.Total, Flipped: t.Flipped, Labels: make(map[string]int, len(t.Labels)), Tiers: make(map[string]int, len(t.Tiers))}
	for k, v := range t.Labels {
		out.Labels[k] = v
	}
	for k, v := range t.Tiers {
		out.Tiers[k] = v
	}
	return out
}

// FlipRate is the share of assessments whose label was adjusted.
func (t *Tally) FlipRate() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Flipped) / float64(t.Total)
}
