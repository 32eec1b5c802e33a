// Package recommend maps a risk label and probability to a response tier
// with its fixed action plan.
package recommend

import (
	"fmt"

	"github.com/okian/outbreak/internal/domain/risk"
)

// Tier is a recommendation level.
type Tier int

const (
	RoutineMonitoring Tier = iota
	Vigilant
	Elevated
	Critical
)

// Decision thresholds on the risk probability.
const (
	criticalAbove = 0.7
	routineBelow  = 0.3
)

var tierNames = map[Tier]string{
	RoutineMonitoring: "routine_monitoring",
	Vigilant:          "vigilant",
	Elevated:          "elevated",
	Critical:          "critical",
}

// String implements fmt.Stringer.
func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// MarshalText renders the tier name.
func (t Tier) MarshalText() ([]byte, error) {
	if _, ok := tierNames[t]; !ok {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTier returns the tier named s.
func ParseTier(s string) (Tier, error) {
	for t, name := range tierNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// Recommendation is the static content of a tier.
type Recommendation struct {
	Tier    Tier     `json:"tier"`
	Icon    string   `json:"icon"`
	Title   string   `json:"title"`
	Actions []string `json:"actions"`
	Trigger string   `json:"trigger"`
}

// plans is read-only after init.
var plans = map[Tier]Recommendation{
	Critical: {
		Tier:  Critical,
		Icon:  "🚨",
		Title: "CRITICAL RISK: IMMEDIATE ACTION REQUIRED",
		Actions: []string{
			"Enforce strict lockdowns in affected areas",
			"Mobilize emergency medical teams",
			"Establish field hospitals",
			"Mandate N95 masks in public",
			"Deploy contact tracing at maximum capacity",
			"Suspend public gatherings >10 people",
		},
		Trigger: "Trigger Condition: Risk >70% with high transmission factors",
	},
	Elevated: {
		Tier:  Elevated,
		Icon:  "⚠️",
		Title: "ELEVATED RISK: PREPARE RESPONSE",
		Actions: []string{
			"Activate outbreak response teams",
			"Stockpile PPE and ventilators",
			"Increase ICU capacity by 50%",
			"Launch public awareness campaigns",
			"Test wastewater for viral load",
			"Prepare quarantine facilities",
		},
		Trigger: "Trigger Condition: Risk >50% with environmental triggers",
	},
	RoutineMonitoring: {
		Tier:  RoutineMonitoring,
		Icon:  "✅",
		Title: "LOW RISK: ROUTINE MONITORING",
		Actions: []string{
			"Maintain standard surveillance",
			"Keep 30-day medical supplies",
			"Conduct monthly drills",
			"Update pandemic playbooks",
			"Monitor zoonotic hotspots",
			"Vaccinate high-risk groups",
		},
		Trigger: "Trigger Condition: Risk <30% with stable indicators",
	},
	Vigilant: {
		Tier:  Vigilant,
		Icon:  "🔍",
		Title: "MODERATE RISK: ENHANCED VIGILANCE",
		Actions: []string{
			"Increase testing by 20%",
			"Audit hospital readiness",
			"Pre-position supplies",
			"Train contact tracers",
			"Accelerate vaccine research",
			"Model outbreak scenarios",
		},
		Trigger: "Trigger Condition: Uncertain risk factors present",
	},
}

// Recommend selects the tier for (label, p). Rules are evaluated in order
// and the first match wins.
func Recommend(label risk.Label, p risk.Probability) (Recommendation, error) {
	if !p.Valid() {
		return Recommendation{}, &risk.InvalidInputError{
			Invalid: []string{"probability"},
			Reason:  fmt.Sprintf("probability %v outside [0, 1]", float64(p)),
		}
	}

	var tier Tier
	switch {
	case label == risk.High && p > criticalAbove:
		tier = Critical
	case label == risk.High:
		tier = Elevated
	case label == risk.Low && p < routineBelow:
		tier = RoutineMonitoring
	case label == risk.Low:
		tier = Vigilant
	default:
		return Recommendation{}, &risk.InvalidInputError{
			Invalid: []string{"label"},
			Reason:  "unknown label " + label.String(),
		}
	}
	return Plan(tier), nil
}

// Plan returns a copy of the static content for tier.
func Plan(tier Tier) Recommendation {
	r := plans[tier]
	r.Actions = append([]string(nil), r.Actions...)
	return r
}

// Tiers lists every tier from least to most severe.
func Tiers() []Tier {
	return []Tier{RoutineMonitoring, Vigilant, Elevated, Critical}
}
