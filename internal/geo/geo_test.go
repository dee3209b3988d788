package geo

import (
	"math"
	"testing"
)

func TestHaversineKm_ZeroDistance(t *testing.T) {
	if d := HaversineKm(44.8125, 20.4612, 44.8125, 20.4612); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
}

func TestHaversineKm_OneDegreeOfLatitude(t *testing.T) {
	// One degree of latitude along a meridian is R * pi/180.
	want := 6371 * math.Pi / 180
	got := HaversineKm(0, 0, 1, 0)
	if math.Abs(got-want) > 0.01 {
		t.Errorf("one degree latitude = %v km, want %v", got, want)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{44.8125, 20.4612, 45.2671, 19.8335},
		{44.80, 20.46, 44.85, 20.50},
		{-33.8688, 151.2093, 51.5074, -0.1278},
	}
	for _, p := range pairs {
		ab := HaversineKm(p[0], p[1], p[2], p[3])
		ba := HaversineKm(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("asymmetric: d(a,b)=%v d(b,a)=%v for %v", ab, ba, p)
		}
	}
}

func TestHaversineKm_NearbyPointsScale(t *testing.T) {
	// 0.01 degrees of latitude is roughly 1.11 km regardless of longitude.
	got := HaversineKm(44.80, 20.46, 44.81, 20.46)
	if got < 1.0 || got > 1.2 {
		t.Errorf("0.01 degree latitude = %v km, want ~1.11", got)
	}
}
