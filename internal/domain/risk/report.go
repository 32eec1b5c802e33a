package risk

import "fmt"

// Gauge constants.
const (
	GaugeThreshold = 70.0
	lowBandUpper   = 0.3
	midBandUpper   = 0.7
)

// Factor is one labelled row of the key risk factors table.
type Factor struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// KeyFactors summarises the inputs that drive the assessment.
func KeyFactors(in Input) []Factor {
	spread := "n/a"
	if in.PopulationDensity > 0 {
		spread = fmt.Sprintf("%.2f", in.NewCases/in.PopulationDensity)
	}
	coverage := "not reported"
	if in.VaccinationRate != nil {
		coverage = fmt.Sprintf("%.1f%%", *in.VaccinationRate)
	}
	return []Factor{
		{Name: "Population Density Impact", Value: fmt.Sprintf("%.1f people/km²", in.PopulationDensity)},
		{Name: "Environmental Risk", Value: fmt.Sprintf("%.1f", in.Humidity*in.Temperature/100)},
		{Name: "Current Spread Rate", Value: spread},
		{Name: "Vaccination Coverage", Value: coverage},
	}
}

// Band is a coloured range on the gauge, in percent.
type Band struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Color string  `json:"color"`
}

// Gauge describes the risk gauge visualisation.
type Gauge struct {
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Delta     float64 `json:"delta"`
	Level     string  `json:"level"`
	Color     string  `json:"color"`
	Bands     []Band  `json:"bands"`
}

// NewGauge builds the gauge for p.
func NewGauge(p Probability) Gauge {
	level, color := "CRITICAL", "#EF4444"
	switch {
	case p < lowBandUpper:
		level, color = "LOW", "#10B981"
	case p < midBandUpper:
		level, color = "MODERATE", "#F59E0B"
	}
	return Gauge{
		Value:     p.Percent(),
		Threshold: GaugeThreshold,
		Delta:     p.Percent() - GaugeThreshold,
		Level:     level,
		Color:     color,
		Bands: []Band{
			{From: 0, To: 30, Color: "rgba(16, 185, 129, 0.7)"},
			{From: 30, To: 70, Color: "rgba(249, 115, 22, 0.7)"},
			{From: 70, To: 100, Color: "rgba(239, 68, 68, 0.7)"},
		},
	}
}
