package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the dashboard
	Email      string        // Identity used to open a session
	Requests   int           // Number of assessments to submit
	Workers    int           // Number of concurrent requests
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Seed of the sample generator; 0 picks a random seed
	OutputFile string        // Optional JSON file receiving every outcome
	Verbose    bool          // Log every outcome
}

// Sample is one generated assessment request.
type Sample struct {
	RequestID         string   `json:"request_id"`
	NewCases          float64  `json:"new_cases"`
	Humidity          float64  `json:"humidity"`
	PopulationDensity float64  `json:"population_density"`
	Temperature       float64  `json:"temperature"`
	Rainfall          float64  `json:"rainfall"`
	VaccinationRate   *float64 `json:"vaccination_rate,omitempty"`
}

// Outcome is the server reply to a sample.
type Outcome struct {
	Sample      Sample  `json:"sample"`
	Status      int     `json:"status"`
	ID          string  `json:"id,omitempty"`
	Label       string  `json:"label,omitempty"`
	BaseLabel   string  `json:"base_label,omitempty"`
	Probability float64 `json:"probability"`
	Tier        string  `json:"tier,omitempty"`
	Flipped     bool    `json:"flipped"`
	Err         string  `json:"error,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	Submitted  int
	Succeeded  int
	Failed     int
	Violations int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
