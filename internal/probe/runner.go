// Package probe drives a running dashboard with random assessments and
// checks every reply against the classification rules.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/outbreak/internal/domain/model"
	"github.com/okian/outbreak/internal/domain/recommend"
	"github.com/okian/outbreak/internal/domain/risk"
	"github.com/okian/outbreak/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
	percent             = 100
)

// Report is the result of a run.
type Report struct {
	Stats    Stats
	Tally    model.Tally
	Outcomes []Outcome
}

// Run executes a full probe: readiness, login, concurrent submission,
// verification and an optional dump of every outcome.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (Report, error) {
	stats := Stats{StartTime: time.Now()}

	log.Info(ctx, "starting outbreak probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Ready(ctx); err != nil {
		return Report{}, fmt.Errorf("readiness check failed: %w", err)
	}
	if err := client.Login(ctx, cfg.Email); err != nil {
		return Report{}, err
	}

	samples := Generate(cfg.Requests, cfg.Seed)
	outcomes := make([]Outcome, len(samples))
	tally := model.NewTally()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Workers))
	for i, s := range samples {
		g.Go(func() error {
			o, err := client.Assess(gctx, s)
			if err != nil && o.Err == "" {
				o.Err = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			stats.Submitted++
			outcomes[i] = o
			if err != nil {
				stats.Failed++
				log.Warn(gctx, "assessment failed", logger.String("request_id", s.RequestID), logger.Error(err))
				return nil
			}
			stats.Succeeded++
			if verr := Verify(o); verr != nil {
				stats.Violations++
				log.Error(gctx, "inconsistent assessment", logger.String("id", o.ID), logger.Error(verr))
			}
			tally.Add(toAssessment(o))
			if cfg.Verbose {
				log.Info(gctx, "assessment",
					logger.String("id", o.ID),
					logger.String("label", o.Label),
					logger.Float64("probability", o.Probability),
					logger.String("tier", o.Tier),
					logger.Bool("flipped", o.Flipped))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	report := Report{Stats: stats, Tally: tally.Snapshot(), Outcomes: outcomes}

	if cfg.OutputFile != "" {
		if err := saveOutcomes(cfg.OutputFile, outcomes); err != nil {
			log.Warn(ctx, "failed to save outcomes", logger.Error(err))
		}
	}
	displayFinalStats(ctx, log, report)

	if stats.Violations > 0 {
		return report, fmt.Errorf("%d inconsistent assessments", stats.Violations)
	}
	return report, nil
}

// toAssessment keeps the fields a tally counts.
func toAssessment(o Outcome) model.Assessment {
	var a model.Assessment
	_ = a.Label.UnmarshalText([]byte(o.Label))
	a.Flipped = o.Flipped
	a.Probability = risk.Probability(o.Probability)
	if tier, err := recommend.ParseTier(o.Tier); err == nil {
		a.Recommendation.Tier = tier
	}
	return a
}

func saveOutcomes(filename string, outcomes []Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	b, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	return os.WriteFile(filename, b, filePermission)
}

func displayFinalStats(ctx context.Context, log logger.Logger, r Report) {
	var successRate, perSecond float64
	if r.Stats.Submitted > 0 {
		successRate = float64(r.Stats.Succeeded) / float64(r.Stats.Submitted) * percent
	}
	if r.Stats.Duration > 0 {
		perSecond = float64(r.Stats.Submitted) / r.Stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("submitted", r.Stats.Submitted),
		logger.Int("succeeded", r.Stats.Succeeded),
		logger.Int("failed", r.Stats.Failed),
		logger.Int("violations", r.Stats.Violations),
		logger.Any("labels", r.Tally.Labels),
		logger.Any("tiers", r.Tally.Tiers),
		logger.Float64("flipRate", r.Tally.FlipRate()),
		logger.Duration("duration", r.Stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", perSecond))
}
