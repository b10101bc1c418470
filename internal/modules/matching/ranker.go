// README: Deterministic multi-factor trip scorer (location, time, route efficiency, bonus).
package matching

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"openseat/internal/modules/geo"
	"openseat/internal/modules/trip"
)

// Ranker is stateless apart from its read-only reference data.
type Ranker struct {
	geo   *geo.Reference
	limit int
}

func NewRanker(ref *geo.Reference, limit int) *Ranker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ranker{geo: ref, limit: limit}
}

// Rank scores every candidate and returns the best matches, highest first.
// Ties keep the candidates' input order.
func (r *Ranker) Rank(q Query, candidates []Candidate) []Match {
	out := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, r.Score(q, c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > r.limit {
		out = out[:r.limit]
	}
	return out
}

func (r *Ranker) Score(q Query, c Candidate) Match {
	t := c.Trip
	var reasons []string

	pickup, why := r.locationScore(q.From, t.StartLocation, t.Stops)
	reasons = append(reasons, prefixed("Pickup: ", why)...)

	dropoff, why := r.locationScore(q.To, t.EndLocation, t.Stops)
	reasons = append(reasons, prefixed("Dropoff: ", why)...)

	timing, why := timeScore(q, t.DepartureTime)
	reasons = append(reasons, prefixed("Time: ", why)...)

	efficiency, why := r.efficiencyScore(q, t)
	reasons = append(reasons, prefixed("Route: ", why)...)

	bonus, why := availabilityBonus(t.AvailableSeats, c.DriverRating, c.Verified)
	reasons = append(reasons, prefixed("Bonus: ", why)...)

	total := pickup*weightPickup + dropoff*weightDropoff + timing*weightTime +
		efficiency*weightEfficiency + bonus*weightBonus
	total = math.Min(math.Max(total, 0), 100)

	return Match{
		Candidate: c,
		Score:     round2(total),
		Breakdown: Breakdown{
			Pickup:     round2(pickup),
			Dropoff:    round2(dropoff),
			Time:       round2(timing),
			Efficiency: round2(efficiency),
			Bonus:      round2(bonus),
		},
		Reasons:    reasons,
		Confidence: confidence(total),
	}
}

// locationScore compares a searched location with a trip endpoint and its stops.
// Tiers are checked in order and the first hit wins.
func (r *Ranker) locationScore(search, endpoint string, stops []string) (float64, []string) {
	if search == endpoint {
		return 100, []string{"Exact location match: " + search}
	}
	if contains(stops, search) {
		return 100, []string{"Direct stop at " + search}
	}
	if r.geo.IsNeighbor(search, endpoint) {
		return 60, []string{fmt.Sprintf("Adjacent area: %s is near %s", endpoint, search)}
	}
	if r.geo.IsNeighbor(endpoint, search) {
		return 60, []string{fmt.Sprintf("Adjacent area: %s is near %s", search, endpoint)}
	}
	for _, stop := range stops {
		if r.geo.IsNeighbor(search, stop) {
			return 60, []string{fmt.Sprintf("Route passes near %s via %s", search, stop)}
		}
	}
	if g, ok := r.geo.SharedGroup(search, endpoint); ok {
		return 80, []string{"Same area: Both in " + strings.ReplaceAll(g, "_", " ")}
	}
	if region, ok := r.geo.SharedRegion(search, endpoint); ok {
		return 40, []string{"Same region: Both on " + region}
	}
	if d, ok := r.geo.DistanceKm(search, endpoint); ok {
		switch {
		case d < 5:
			return 40, []string{fmt.Sprintf("Close proximity: %.1fkm away", d)}
		case d < 10:
			return 20, []string{fmt.Sprintf("Nearby location: %.1fkm away", d)}
		}
	}
	return 10, []string{"Same city area"}
}

func timeScore(q Query, departure string) (float64, []string) {
	var preferred string
	switch {
	case strings.Contains(q.TimeRange, "-"):
		preferred = strings.TrimSpace(strings.SplitN(q.TimeRange, "-", 2)[0])
	case q.PreferredTime != "":
		preferred = q.PreferredTime
	default:
		return 50, []string{"Flexible timing"}
	}

	diff := clockMinutes(departure) - clockMinutes(preferred)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 15:
		return 100, []string{"Perfect timing: Within 15 minutes of preferred time"}
	case diff <= 30:
		return 80, []string{fmt.Sprintf("Good timing: Within 30 minutes (%d min difference)", diff)}
	case diff <= 60:
		return 60, []string{fmt.Sprintf("Acceptable timing: Within 1 hour (%d min difference)", diff)}
	case diff <= 120:
		return 40, []string{"Moderate timing: Within 2 hours"}
	default:
		return 20, []string{"Different time slot"}
	}
}

// clockMinutes converts "HH:MM" to minutes since midnight; anything unparseable counts as midnight.
func clockMinutes(v string) int {
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0
	}
	return h*60 + m
}

func (r *Ranker) efficiencyScore(q Query, t *trip.Trip) (float64, []string) {
	pickupOn := q.From == t.StartLocation || contains(t.Stops, q.From)
	dropoffOn := q.To == t.EndLocation || contains(t.Stops, q.To)

	switch {
	case pickupOn && dropoffOn:
		return 100, []string{"Perfect route: Pickup and dropoff on direct path"}
	case pickupOn:
		reasons := []string{"Good route: Pickup on path"}
		if r.geo.IsNeighbor(t.EndLocation, q.To) {
			reasons = append(reasons, "Dropoff close to destination")
		}
		return 80, reasons
	case dropoffOn:
		reasons := []string{"Good route: Dropoff on path"}
		if r.geo.IsNeighbor(t.StartLocation, q.From) {
			reasons = append(reasons, "Pickup close to route start")
		}
		return 80, reasons
	}

	pickupAdj := r.geo.Related(q.From, t.StartLocation)
	dropoffAdj := r.geo.Related(q.To, t.EndLocation)
	switch {
	case pickupAdj && dropoffAdj:
		return 60, []string{"Minor detour required"}
	case pickupAdj || dropoffAdj:
		return 40, []string{"Moderate detour required"}
	}

	pickupKm, okP := r.geo.DistanceKm(q.From, t.StartLocation)
	dropoffKm, okD := r.geo.DistanceKm(q.To, t.EndLocation)
	if !okP || !okD {
		return 30, []string{"Route requires some detour"}
	}
	detour := pickupKm + dropoffKm
	switch {
	case detour < 5:
		return 60, []string{fmt.Sprintf("Small detour: %.1fkm", detour)}
	case detour < 10:
		return 40, []string{fmt.Sprintf("Moderate detour: %.1fkm", detour)}
	default:
		return 20, []string{"Significant detour required"}
	}
}

func availabilityBonus(seats int, rating float64, verified bool) (float64, []string) {
	var bonus float64
	var reasons []string
	switch {
	case seats >= 3:
		bonus += 10
		reasons = append(reasons, fmt.Sprintf("Multiple seats available (%d)", seats))
	case seats >= 2:
		bonus += 5
		reasons = append(reasons, fmt.Sprintf("%d seats available", seats))
	}
	switch {
	case rating >= 4.5:
		bonus += 10
		reasons = append(reasons, fmt.Sprintf("Highly rated driver (%.1f)", rating))
	case rating >= 4.0:
		bonus += 5
		reasons = append(reasons, fmt.Sprintf("Good driver rating (%.1f)", rating))
	}
	if verified {
		bonus += 5
		reasons = append(reasons, "Verified driver")
	}
	return bonus, reasons
}

func confidence(score float64) string {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func prefixed(prefix string, in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = prefix + s
	}
	return out
}
