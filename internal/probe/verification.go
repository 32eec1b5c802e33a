package probe

import (
	"fmt"
	"math"

	"github.com/okian/outbreak/internal/domain/recommend"
	"github.com/okian/outbreak/internal/domain/risk"
)

const probabilityTolerance = 1e-9

// Verify checks that an outcome is consistent with the probability and
// recommendation rules: the probability follows from the final label and
// the vaccination rate, the tier follows from both, and a flip is only
// reported when the coverage allows one.
func Verify(o Outcome) error {
	var label, base risk.Label
	if err := label.UnmarshalText([]byte(o.Label)); err != nil {
		return fmt.Errorf("label: %w", err)
	}
	if err := base.UnmarshalText([]byte(o.BaseLabel)); err != nil {
		return fmt.Errorf("base label: %w", err)
	}
	tier, err := recommend.ParseTier(o.Tier)
	if err != nil {
		return err
	}

	want := risk.DeriveProbability(label, o.Sample.VaccinationRate)
	if math.Abs(float64(want)-o.Probability) > probabilityTolerance {
		return fmt.Errorf("probability %v, want %v", o.Probability, float64(want))
	}

	rec, err := recommend.Recommend(label, risk.Probability(o.Probability))
	if err != nil {
		return err
	}
	if rec.Tier != tier {
		return fmt.Errorf("tier %s, want %s", tier, rec.Tier)
	}

	if o.Flipped != (label != base) {
		return fmt.Errorf("flipped=%v but label %s and base label %s", o.Flipped, label, base)
	}
	if o.Flipped {
		v := o.Sample.VaccinationRate
		switch {
		case v == nil:
			return fmt.Errorf("flip without a vaccination rate")
		case base == risk.High && *v <= 70:
			return fmt.Errorf("high label flipped at coverage %.1f", *v)
		case base == risk.Low && *v >= 40:
			return fmt.Errorf("low label flipped at coverage %.1f", *v)
		}
	}
	return nil
}
