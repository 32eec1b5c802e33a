// Package risk classifies epidemiological inputs into an outbreak risk label
// and derives the heuristic risk probability shown on the dashboard.
package risk

import (
	"fmt"
	"math"
	"strings"
)

// Feature names in the order the classifier artifact expects them.
const (
	FieldNewCases          = "new_cases"
	FieldHumidity          = "humidity"
	FieldPopulationDensity = "population_density"
	FieldTemperature       = "temperature"
	FieldRainfall          = "rainfall"
	FieldVaccinationRate   = "vaccination_rate"

	// FeatureCount is the number of features passed to a Predictor.
	FeatureCount = 5
)

// FeatureNames lists the classifier features in order.
var FeatureNames = [FeatureCount]string{
	FieldNewCases,
	FieldHumidity,
	FieldPopulationDensity,
	FieldTemperature,
	FieldRainfall,
}

// Input holds the parameters of one assessment request.
type Input struct {
	NewCases          float64  `json:"new_cases"`
	Humidity          float64  `json:"humidity"`
	PopulationDensity float64  `json:"population_density"`
	Temperature       float64  `json:"temperature"`
	Rainfall          float64  `json:"rainfall"`
	VaccinationRate   *float64 `json:"vaccination_rate,omitempty"`
}

// Features returns the classifier feature vector.
func (in Input) Features() [FeatureCount]float64 {
	return [FeatureCount]float64{in.NewCases, in.Humidity, in.PopulationDensity, in.Temperature, in.Rainfall}
}

// Validate reports non-numeric and out-of-range values.
func (in Input) Validate() error {
	var invalid, reasons []string
	check := func(name string, v float64, lo, hi float64) {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			invalid = append(invalid, name)
			reasons = append(reasons, name+" is not a number")
		case v < lo || v > hi:
			invalid = append(invalid, name)
			reasons = append(reasons, fmt.Sprintf("%s must be within [%g, %g]", name, lo, hi))
		}
	}

	check(FieldNewCases, in.NewCases, 0, math.MaxFloat64)
	check(FieldHumidity, in.Humidity, 0, 100)
	check(FieldPopulationDensity, in.PopulationDensity, 0, math.MaxFloat64)
	check(FieldTemperature, in.Temperature, -math.MaxFloat64, math.MaxFloat64)
	check(FieldRainfall, in.Rainfall, 0, math.MaxFloat64)
	if in.VaccinationRate != nil {
		check(FieldVaccinationRate, *in.VaccinationRate, 0, 100)
	}

	if len(invalid) == 0 {
		return nil
	}
	return &InvalidInputError{Invalid: invalid, Reason: strings.Join(reasons, "; ")}
}

// Label is the binary classifier outcome.
type Label int

const (
	Low Label = iota
	High
)

// String implements fmt.Stringer.
func (l Label) String() string {
	switch l {
	case Low:
		return "Low"
	case High:
		return "High"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// MarshalText renders the label as "Low" or "High".
func (l Label) MarshalText() ([]byte, error) {
	if l != Low && l != High {
		return nil, fmt.Errorf("invalid label %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText parses "low"/"high" case-insensitively.
func (l *Label) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "low":
		*l = Low
	case "high":
		*l = High
	default:
		return fmt.Errorf("invalid label %q", string(b))
	}
	return nil
}

// Probability is a heuristic severity score in [0,1]. It is not a
// calibrated model probability.
type Probability float64

// Valid reports whether p lies in [0,1].
func (p Probability) Valid() bool {
	return !math.IsNaN(float64(p)) && p >= 0 && p <= 1
}

// Percent returns p scaled to [0,100].
func (p Probability) Percent() float64 {
	return float64(p) * 100
}

// Float64 returns a pointer to v, for optional inputs.
func Float64(v float64) *float64 {
	return &v
}
