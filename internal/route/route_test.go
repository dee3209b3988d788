package route

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ecopickup/driversync/internal/geo"
	"github.com/ecopickup/driversync/internal/model"
)

var belgrade = model.Coordinates{Lat: 44.80, Lng: 20.46}

func sequenceOrDie(t *testing.T, origin *model.Coordinates, stops []Waypoint) *Plan {
	t.Helper()

	plan, err := Sequence(origin, stops)
	if err != nil {
		t.Fatalf("sequence failed: %v", err)
	}
	return plan
}

func TestSequence_NoValidStops(t *testing.T) {
	_, err := Sequence(&belgrade, nil)
	if !errors.Is(err, ErrNoValidStops) {
		t.Errorf("empty input: err = %v, want ErrNoValidStops", err)
	}

	_, err = Sequence(&belgrade, []Waypoint{
		{ID: "a", Lat: math.NaN(), Lng: 20.46},
		{ID: "b", Lat: 0, Lng: 0},
	})
	if !errors.Is(err, ErrNoValidStops) {
		t.Errorf("all-invalid input: err = %v, want ErrNoValidStops", err)
	}
}

func TestSequence_SingleStop(t *testing.T) {
	stop := Waypoint{ID: "only", Lat: 44.81, Lng: 20.47}

	plan := sequenceOrDie(t, &belgrade, []Waypoint{stop})
	if len(plan.Order) != 1 || plan.Order[0].ID != "only" {
		t.Fatalf("order = %v, want the single stop", plan.Order)
	}
	want := geo.HaversineKm(belgrade.Lat, belgrade.Lng, stop.Lat, stop.Lng)
	if math.Abs(plan.TotalKm-want) > 1e-9 {
		t.Errorf("totalKm = %v, want direct distance %v", plan.TotalKm, want)
	}

	// Without an origin the tour starts at the stop itself.
	plan = sequenceOrDie(t, nil, []Waypoint{stop})
	if plan.TotalKm != 0 {
		t.Errorf("totalKm without origin = %v, want 0", plan.TotalKm)
	}
}

// Greedy nearest-neighbor must take the stop closest to the origin
// first. The result is a fast approximation, not the distance-minimal
// tour: from each position it commits to the locally nearest stop even
// when a different first leg would shorten the total.
func TestSequence_GreedyNearestNeighbor(t *testing.T) {
	stops := []Waypoint{
		{ID: "far", Lat: 44.85, Lng: 20.50},
		{ID: "near", Lat: 44.81, Lng: 20.47},
		{ID: "mid", Lat: 44.79, Lng: 20.44},
	}

	plan := sequenceOrDie(t, &belgrade, stops)

	var gotIDs []string
	for _, w := range plan.Order {
		gotIDs = append(gotIDs, w.ID)
	}
	if want := []string{"near", "mid", "far"}; !reflect.DeepEqual(gotIDs, want) {
		t.Fatalf("order = %v, want %v", gotIDs, want)
	}

	// TotalKm is the sum of consecutive legs from the origin.
	want := geo.HaversineKm(belgrade.Lat, belgrade.Lng, 44.81, 20.47) +
		geo.HaversineKm(44.81, 20.47, 44.79, 20.44) +
		geo.HaversineKm(44.79, 20.44, 44.85, 20.50)
	if math.Abs(plan.TotalKm-want) > 1e-9 {
		t.Errorf("totalKm = %v, want %v", plan.TotalKm, want)
	}
}

func TestSequence_Deterministic(t *testing.T) {
	stops := []Waypoint{
		{ID: "a", Lat: 44.85, Lng: 20.50},
		{ID: "b", Lat: 44.81, Lng: 20.47},
		{ID: "c", Lat: 44.79, Lng: 20.44},
		{ID: "d", Lat: 44.83, Lng: 20.41},
	}

	first := sequenceOrDie(t, &belgrade, stops)
	second := sequenceOrDie(t, &belgrade, stops)
	if !reflect.DeepEqual(first.Order, second.Order) {
		t.Errorf("orders differ: %v vs %v", first.Order, second.Order)
	}
}

func TestSequence_TieBreakKeepsInputOrder(t *testing.T) {
	// Two stops at the identical point: the earlier one in the input
	// must win the scan.
	stops := []Waypoint{
		{ID: "first", Lat: 44.81, Lng: 20.47},
		{ID: "second", Lat: 44.81, Lng: 20.47},
	}

	plan := sequenceOrDie(t, &belgrade, stops)
	if plan.Order[0].ID != "first" || plan.Order[1].ID != "second" {
		t.Errorf("tie-break order = %v, want input order", plan.Order)
	}
}

func TestSequence_SkipsInvalidStops(t *testing.T) {
	stops := []Waypoint{
		{ID: "bad", Lat: math.NaN(), Lng: 20.47},
		{ID: "good", Lat: 44.81, Lng: 20.47},
	}

	plan := sequenceOrDie(t, &belgrade, stops)
	if len(plan.Order) != 1 || plan.Order[0].ID != "good" {
		t.Errorf("order = %v, want only the valid stop", plan.Order)
	}
}

func TestNavigationURL_WithOrigin(t *testing.T) {
	plan := sequenceOrDie(t, &belgrade, []Waypoint{
		{ID: "near", Lat: 44.81, Lng: 20.47},
		{ID: "far", Lat: 44.85, Lng: 20.50},
	})

	u, err := url.Parse(plan.NavigationURL)
	if err != nil {
		t.Fatalf("parsing navigation url: %v", err)
	}
	q := u.Query()

	if got := q.Get("destination"); got != "44.850000,20.500000" {
		t.Errorf("destination = %q, want the last stop", got)
	}
	if got := q.Get("waypoints"); got != "44.810000,20.470000" {
		t.Errorf("waypoints = %q, want the prior stop", got)
	}
	if got := q.Get("origin"); got != "44.800000,20.460000" {
		t.Errorf("origin = %q, want the supplied origin", got)
	}
	if got := q.Get("travelmode"); got != "driving" {
		t.Errorf("travelmode = %q", got)
	}
}

// Without a caller origin the URL must leave the start to the maps
// application even though the algorithm anchored on the first stop.
func TestNavigationURL_NoOrigin(t *testing.T) {
	plan := sequenceOrDie(t, nil, []Waypoint{
		{ID: "a", Lat: 44.81, Lng: 20.47},
		{ID: "b", Lat: 44.85, Lng: 20.50},
	})

	if strings.Contains(plan.NavigationURL, "origin=") {
		t.Errorf("url %q should not carry an origin parameter", plan.NavigationURL)
	}
}

func TestWaypointsFromTasks(t *testing.T) {
	now := time.Now()
	tasks := []model.Task{
		{ID: "geocoded", CreatedAt: now, Coordinates: &model.Coordinates{Lat: 44.81, Lng: 20.47}},
		{ID: "ungeocoded", CreatedAt: now},
		{ID: "zero-point", CreatedAt: now, Coordinates: &model.Coordinates{}},
	}

	stops := WaypointsFromTasks(tasks)
	if len(stops) != 1 || stops[0].ID != "geocoded" {
		t.Errorf("stops = %v, want only the geocoded task", stops)
	}
}
