package geo

import (
	"math"
	"testing"

	"openseat/internal/types"
)

func TestHaversineKnownDistance(t *testing.T) {
	// One degree of latitude on a 6371 km sphere.
	got := HaversineKm(types.Point{Lat: 0, Lng: 0}, types.Point{Lat: 1, Lng: 0})
	want := 2 * math.Pi * earthRadiusKm / 360
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %f, want %f", got, want)
	}
	if HaversineKm(types.Point{Lat: 6.5, Lng: 3.3}, types.Point{Lat: 6.5, Lng: 3.3}) != 0 {
		t.Fatal("distance to self should be zero")
	}
}

func TestDistanceKmLagos(t *testing.T) {
	ref := DefaultLagos()
	d, ok := ref.DistanceKm("Ikeja", "VI")
	if !ok {
		t.Fatal("expected coordinates for Ikeja and VI")
	}
	if d < 19 || d > 23 {
		t.Fatalf("Ikeja-VI distance = %.2f km", d)
	}
	d, _ = ref.DistanceKm("Ikeja", "Ogba")
	if d >= 5 {
		t.Fatalf("Ikeja-Ogba should be under 5 km, got %.2f", d)
	}
	if _, ok := ref.DistanceKm("Ikeja", "Atlantis"); ok {
		t.Fatal("unknown location should have no distance")
	}
}

func TestAdjacencyIsDirectional(t *testing.T) {
	ref := DefaultLagos()
	if !ref.IsNeighbor("Festac", "Oshodi") {
		t.Fatal("Oshodi should be listed for Festac")
	}
	if ref.IsNeighbor("Oshodi", "Festac") {
		t.Fatal("Festac is not listed for Oshodi")
	}
	if !ref.Related("Oshodi", "Festac") {
		t.Fatal("Related should check both directions")
	}
	if len(ref.Neighbors("Ikorodu")) != 0 {
		t.Fatal("Ikorodu has no neighbors")
	}
}

func TestGroupsAndRegions(t *testing.T) {
	ref := DefaultLagos()
	cases := []struct {
		a, b   string
		group  string
		region string
	}{
		{"Ogba", "Agege", "western_mainland", "mainland"},
		{"Festac", "Yaba", "eastern_mainland", "mainland"},
		{"Ikeja", "Yaba", "", "mainland"},
		{"VI", "Marina", "", "island"},
		{"Ikeja", "VI", "", ""},
		{"Ketu", "Ikeja", "", "mainland"},
		{"Ikorodu", "Ikeja", "", ""},
	}
	for _, tc := range cases {
		g, _ := ref.SharedGroup(tc.a, tc.b)
		r, _ := ref.SharedRegion(tc.a, tc.b)
		if g != tc.group || r != tc.region {
			t.Errorf("%s/%s: group=%q region=%q, want %q %q", tc.a, tc.b, g, r, tc.group, tc.region)
		}
	}
}

func TestReferenceIsolatedFromInputTables(t *testing.T) {
	tables := LagosTables()
	ref := NewReference(tables)
	tables.Adjacency["Ikorodu"] = append(tables.Adjacency["Ikorodu"], "Ketu")
	tables.Coordinates["Ikeja"] = types.Point{}
	if ref.IsNeighbor("Ikorodu", "Ketu") {
		t.Fatal("reference should not see later table edits")
	}
	if p, _ := ref.Coordinates("Ikeja"); p.Lat == 0 {
		t.Fatal("coordinates should be copied")
	}

	n := ref.Neighbors("Ikeja")
	n[0] = "Nowhere"
	if ref.Neighbors("Ikeja")[0] == "Nowhere" {
		t.Fatal("Neighbors should return a copy")
	}
}

func TestInjectedTables(t *testing.T) {
	ref := NewReference(Tables{
		Coordinates: map[string]types.Point{"A": {Lat: 0, Lng: 0}, "B": {Lat: 0, Lng: 0.01}},
		Adjacency:   map[string][]string{"A": {"B"}},
	})
	if !ref.IsNeighbor("A", "B") {
		t.Fatal("expected injected adjacency")
	}
	if _, ok := ref.SharedRegion("A", "B"); ok {
		t.Fatal("no regions were configured")
	}
}
