// README: Immutable location reference: coordinates, adjacency graph, district groups and regions.
package geo

import (
	"math"
	"sort"

	"openseat/internal/types"
)

const earthRadiusKm = 6371.0

// Tables is the raw lookup data a Reference is built from.
type Tables struct {
	Coordinates map[string]types.Point
	Adjacency   map[string][]string
	// Groups are the fine-grained district buckets (e.g. "western_mainland").
	Groups map[string][]string
	// Regions are the broad buckets (e.g. "mainland", "island").
	Regions map[string][]string
}

type namedSet struct {
	name    string
	members map[string]struct{}
}

// Reference answers distance and proximity questions. It is never mutated
// after construction, so one value can be shared across goroutines.
type Reference struct {
	coords    map[string]types.Point
	neighbors map[string][]string
	adjacency map[string]map[string]struct{}
	groups    []namedSet
	regions   []namedSet
}

func NewReference(t Tables) *Reference {
	r := &Reference{
		coords:    make(map[string]types.Point, len(t.Coordinates)),
		neighbors: make(map[string][]string, len(t.Adjacency)),
		adjacency: make(map[string]map[string]struct{}, len(t.Adjacency)),
		groups:    buildSets(t.Groups),
		regions:   buildSets(t.Regions),
	}
	for name, p := range t.Coordinates {
		r.coords[name] = p
	}
	for name, list := range t.Adjacency {
		r.neighbors[name] = append([]string(nil), list...)
		set := make(map[string]struct{}, len(list))
		for _, n := range list {
			set[n] = struct{}{}
		}
		r.adjacency[name] = set
	}
	return r
}

func buildSets(in map[string][]string) []namedSet {
	out := make([]namedSet, 0, len(in))
	for name, members := range in {
		set := make(map[string]struct{}, len(members))
		for _, m := range members {
			set[m] = struct{}{}
		}
		out = append(out, namedSet{name: name, members: set})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (r *Reference) Coordinates(name string) (types.Point, bool) {
	p, ok := r.coords[name]
	return p, ok
}

// DistanceKm returns the great-circle distance between two named locations.
// ok is false when either location has no coordinates.
func (r *Reference) DistanceKm(a, b string) (float64, bool) {
	pa, okA := r.coords[a]
	pb, okB := r.coords[b]
	if !okA || !okB {
		return 0, false
	}
	return HaversineKm(pa, pb), true
}

// IsNeighbor reports whether candidate is listed as adjacent to name.
func (r *Reference) IsNeighbor(name, candidate string) bool {
	_, ok := r.adjacency[name][candidate]
	return ok
}

// Related reports adjacency in either direction.
func (r *Reference) Related(a, b string) bool {
	return r.IsNeighbor(a, b) || r.IsNeighbor(b, a)
}

func (r *Reference) Neighbors(name string) []string {
	return append([]string(nil), r.neighbors[name]...)
}

// SharedGroup returns the first district group (by name) containing both locations.
func (r *Reference) SharedGroup(a, b string) (string, bool) {
	return shared(r.groups, a, b)
}

// SharedRegion returns the broad region containing both locations.
func (r *Reference) SharedRegion(a, b string) (string, bool) {
	return shared(r.regions, a, b)
}

func shared(sets []namedSet, a, b string) (string, bool) {
	for _, s := range sets {
		_, okA := s.members[a]
		_, okB := s.members[b]
		if okA && okB {
			return s.name, true
		}
	}
	return "", false
}

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(p1, p2 types.Point) float64 {
	dLat := degreesToRadians(p2.Lat - p1.Lat)
	dLng := degreesToRadians(p2.Lng - p1.Lng)

	rLat1 := degreesToRadians(p1.Lat)
	rLat2 := degreesToRadians(p2.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
