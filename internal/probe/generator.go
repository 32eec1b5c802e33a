package probe

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// Sampling ranges of the generated inputs.
const (
	maxNewCases      = 500.0
	minHumidity      = 20.0
	maxDensity       = 1000.0
	minTemperature   = -5.0
	temperatureRange = 45.0
	maxRainfall      = 300.0
	maxVaccination   = 100.0

	// share of samples sent without a vaccination rate
	omitVaccinationShare = 0.2
)

// Generate returns n random samples. The same seed yields the same inputs;
// request ids are always fresh.
func Generate(n int, seed uint64) []Sample {
	if seed == 0 {
		seed = rand.Uint64()
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	samples := make([]Sample, n)
	for i := range samples {
		s := Sample{
			RequestID:         uuid.NewString(),
			NewCases:          round1(r.Float64() * maxNewCases),
			Humidity:          round1(minHumidity + r.Float64()*(100-minHumidity)),
			PopulationDensity: round1(r.Float64() * maxDensity),
			Temperature:       round1(minTemperature + r.Float64()*temperatureRange),
			Rainfall:          round1(r.Float64() * maxRainfall),
		}
		if r.Float64() >= omitVaccinationShare {
			v := round1(r.Float64() * maxVaccination)
			s.VaccinationRate = &v
		}
		samples[i] = s
	}
	return samples
}

func round1(v float64) float64 {
	return float64(int64(v*10)) / 10
}
