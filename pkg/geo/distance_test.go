package geo

import (
	"math"
	"testing"
)

func TestDistance_SamePoint(t *testing.T) {
	if d := Distance(38.9, -104.7, 38.9, -104.7); d != 0 {
		t.Errorf("Distance(same point) = %v, want 0", d)
	}
}

func TestDistance_PureLatitudeOffset(t *testing.T) {
	// A pure latitude offset of r radians is exactly R*r kilometers on
	// a sphere, which makes the expected value easy to pin down.
	offsetDeg := (80.0 / 6373.0) * 180 / math.Pi
	d := Distance(0, 0, offsetDeg, 0)
	if math.Abs(d-80.0) > 1e-9 {
		t.Errorf("Distance(80km latitude offset) = %v, want 80", d)
	}
}

func TestDistance_KnownPair(t *testing.T) {
	// Colorado Springs (80922) to Denver (80202), roughly 100-110 km.
	d := Distance(38.9881, -104.7002, 39.7491, -104.9943)
	if d < 80 || d > 120 {
		t.Errorf("Distance(COS->DEN) = %v, want roughly 100km", d)
	}
}

func TestDistance_Symmetry(t *testing.T) {
	a := Distance(40.0, -105.0, 41.5, -103.2)
	b := Distance(41.5, -103.2, 40.0, -105.0)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("Distance not symmetric: %v vs %v", a, b)
	}
}
