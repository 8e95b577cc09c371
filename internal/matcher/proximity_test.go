package matcher

import (
	"math"
	"testing"

	"automated-identity-matching/internal/models"
	"automated-identity-matching/pkg/geo"
)

// stubZipTable is a map-backed geo.ZipTable for tests.
type stubZipTable map[string]geo.Coordinates

func (t stubZipTable) Lookup(zip string) (geo.Coordinates, bool) {
	c, ok := t[zip]
	return c, ok
}

func recordWithPincodes(userID string, pins ...string) models.ReferenceRecord {
	streets := make([]string, len(pins))
	states := make([]string, len(pins))
	return models.ReferenceRecord{UserID: userID, Pincodes: pins, Streets: streets, States: states}
}

func TestApplyProximity_SameZipIsNear(t *testing.T) {
	zips := stubZipTable{"80922": {Lat: 38.9881, Lng: -104.7002}}
	records := []models.ReferenceRecord{recordWithPincodes("u1", "80922")}
	n := ApplyProximity(records, "80922", zips, 80)
	if n != 1 || !records[0].Near {
		t.Errorf("same-zip record should be near, got near=%v count=%d", records[0].Near, n)
	}
}

func TestApplyProximity_RadiusBoundary(t *testing.T) {
	// Place the candidate on a pure latitude offset and derive the exact
	// computed distance, so the boundary comparison is bit-exact.
	origin := geo.Coordinates{Lat: 0, Lng: 0}
	offsetDeg := (80.0 / 6373.0) * 180 / math.Pi
	candidate := geo.Coordinates{Lat: offsetDeg, Lng: 0}
	d := geo.Distance(origin.Lat, origin.Lng, candidate.Lat, candidate.Lng)

	zips := stubZipTable{"00001": origin, "00002": candidate}

	t.Run("distance exactly at radius is near", func(t *testing.T) {
		records := []models.ReferenceRecord{recordWithPincodes("u1", "00002")}
		ApplyProximity(records, "00001", zips, d)
		if !records[0].Near {
			t.Errorf("record at exactly the radius should be near (d=%v)", d)
		}
	})

	t.Run("distance just past radius is not near", func(t *testing.T) {
		records := []models.ReferenceRecord{recordWithPincodes("u1", "00002")}
		ApplyProximity(records, "00001", zips, d-0.001)
		if records[0].Near {
			t.Errorf("record past the radius should not be near (d=%v)", d)
		}
	})
}

func TestApplyProximity_MissingPincodeGeoIsNear(t *testing.T) {
	zips := stubZipTable{"80922": {Lat: 38.9881, Lng: -104.7002}}
	records := []models.ReferenceRecord{recordWithPincodes("u1", "99999")}
	ApplyProximity(records, "80922", zips, 80)
	if !records[0].Near {
		t.Error("pincode with no geo entry must be treated as near")
	}
}

func TestApplyProximity_MissingQueryZipTreatsAllAsNear(t *testing.T) {
	zips := stubZipTable{"10001": {Lat: 40.75, Lng: -73.99}}
	records := []models.ReferenceRecord{
		recordWithPincodes("u1", "10001"),
		recordWithPincodes("u2", "88888"),
	}
	ApplyProximity(records, "00000", zips, 80)
	for i := range records {
		if !records[i].Near {
			t.Errorf("record %s should be near when the query zip has no geo entry", records[i].UserID)
		}
	}
}

func TestApplyProximity_NoPincodesIsNotNear(t *testing.T) {
	zips := stubZipTable{"80922": {Lat: 38.9881, Lng: -104.7002}}
	records := []models.ReferenceRecord{{UserID: "u1"}}
	n := ApplyProximity(records, "80922", zips, 80)
	if n != 0 || records[0].Near {
		t.Error("record with no historical addresses has nothing within radius")
	}
}
