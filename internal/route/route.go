// Package route sequences a set of pickup stops into a driving order and
// builds a directions URL for an external maps application.
package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ecopickup/driversync/internal/geo"
	"github.com/ecopickup/driversync/internal/model"
)

// ErrNoValidStops is returned when no stop in the input carries usable
// coordinates. Surfaced to the driver as an actionable message.
var ErrNoValidStops = errors.New("no requests with valid coordinates")

// Waypoint is a stop candidate projected from a task at sequencing time.
// It carries no status.
type Waypoint struct {
	ID  string
	Lat float64
	Lng float64
}

// valid reports whether the waypoint has usable coordinates.
func (w Waypoint) valid() bool {
	return model.Coordinates{Lat: w.Lat, Lng: w.Lng}.Valid()
}

// Plan is an ordered visiting sequence over a set of stops.
type Plan struct {
	// Order is the computed visiting order.
	Order []Waypoint

	// TotalKm is the summed great-circle distance from the origin
	// through every stop in Order.
	TotalKm float64

	// NavigationURL is a driving-directions link whose destination is
	// the last stop in Order and whose intermediate stops are all prior
	// stops. It only carries an origin parameter when the caller
	// supplied one; otherwise the maps application resolves the device's
	// current location.
	NavigationURL string
}

// WaypointsFromTasks projects tasks into stop candidates, skipping any
// task without geocoded coordinates.
func WaypointsFromTasks(tasks []model.Task) []Waypoint {
	stops := make([]Waypoint, 0, len(tasks))
	for _, t := range tasks {
		if t.Coordinates == nil || !t.Coordinates.Valid() {
			continue
		}
		stops = append(stops, Waypoint{ID: t.ID, Lat: t.Coordinates.Lat, Lng: t.Coordinates.Lng})
	}
	return stops
}

// Sequence orders stops by greedy nearest-neighbor from origin and
// returns the resulting plan. Stops with missing or NaN coordinates are
// dropped first; ErrNoValidStops is returned when none remain.
//
// When origin is nil the algorithm starts from the first valid stop, so
// distances and order stay well defined, while the navigation URL still
// omits the origin parameter. The two notions of origin are deliberately
// not the same value: route quality depends on the algorithm's starting
// point, turn-by-turn behavior on the URL's.
//
// The tour is a greedy approximation, not an optimal one. Ties between
// equidistant stops resolve to the earliest stop in input order, which
// keeps the output deterministic. O(n²) in the stop count; a single
// driver's active list is tens of stops, so no spatial index is needed.
func Sequence(origin *model.Coordinates, stops []Waypoint) (*Plan, error) {
	remaining := make([]Waypoint, 0, len(stops))
	for _, s := range stops {
		if s.valid() {
			remaining = append(remaining, s)
		}
	}
	if len(remaining) == 0 {
		return nil, ErrNoValidStops
	}

	curLat, curLng := remaining[0].Lat, remaining[0].Lng
	if origin != nil {
		curLat, curLng = origin.Lat, origin.Lng
	}

	order := make([]Waypoint, 0, len(remaining))
	var totalKm float64
	for len(remaining) > 0 {
		best := 0
		bestKm := geo.HaversineKm(curLat, curLng, remaining[0].Lat, remaining[0].Lng)
		for i := 1; i < len(remaining); i++ {
			// Strict < keeps the first minimum found, so equidistant
			// stops resolve in input order.
			if km := geo.HaversineKm(curLat, curLng, remaining[i].Lat, remaining[i].Lng); km < bestKm {
				best, bestKm = i, km
			}
		}

		next := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
		order = append(order, next)
		totalKm += bestKm
		curLat, curLng = next.Lat, next.Lng
	}

	return &Plan{
		Order:         order,
		TotalKm:       totalKm,
		NavigationURL: navigationURL(origin, order),
	}, nil
}

// navigationURL builds a Google Maps driving-directions link over the
// computed order.
func navigationURL(origin *model.Coordinates, order []Waypoint) string {
	last := order[len(order)-1]

	v := url.Values{}
	v.Set("api", "1")
	v.Set("travelmode", "driving")
	v.Set("destination", formatPoint(last.Lat, last.Lng))
	if len(order) > 1 {
		points := make([]string, 0, len(order)-1)
		for _, w := range order[:len(order)-1] {
			points = append(points, formatPoint(w.Lat, w.Lng))
		}
		v.Set("waypoints", strings.Join(points, "|"))
	}
	if origin != nil {
		v.Set("origin", formatPoint(origin.Lat, origin.Lng))
	}

	return "https://www.google.com/maps/dir/?" + v.Encode()
}

func formatPoint(lat, lng float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}
