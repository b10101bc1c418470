// README: Search query, candidate and match result types for trip ranking.
package matching

import "openseat/internal/modules/trip"

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	// DefaultLimit is how many ranked trips a search returns.
	DefaultLimit = 20
)

// Query is a rider's search. TimeRange ("HH:MM-HH:MM") takes precedence over PreferredTime.
type Query struct {
	From          string
	To            string
	PreferredTime string
	TimeRange     string
}

// Candidate is a trip plus the driver facts the ranker needs.
type Candidate struct {
	Trip         *trip.Trip
	DriverRating float64
	Verified     bool
}

type Breakdown struct {
	Pickup     float64 `json:"pickup_location"`
	Dropoff    float64 `json:"dropoff_location"`
	Time       float64 `json:"time"`
	Efficiency float64 `json:"efficiency"`
	Bonus      float64 `json:"bonus"`
}

type Match struct {
	Candidate  Candidate
	Score      float64
	Breakdown  Breakdown
	Reasons    []string
	Confidence string
}

// Weights applied to each component of the total score.
const (
	weightPickup     = 0.20
	weightDropoff    = 0.20
	weightTime       = 0.30
	weightEfficiency = 0.20
	weightBonus      = 0.10
)
