package matcher

import (
	"automated-identity-matching/internal/models"
	"automated-identity-matching/pkg/geo"
)

// ApplyProximity flags each record whose pincode list intersects the set
// of pincodes within radiusKm of the query zip code. Missing geo data
// never excludes: a pincode without coordinates counts as near, and a
// query zip without a geo entry makes every pincode count as near. The
// records slice is mutated in place; the near-record count is returned.
func ApplyProximity(records []models.ReferenceRecord, queryZip string, zips geo.ZipTable, radiusKm float64) int {
	distinct := make(map[string]struct{})
	for i := range records {
		for _, pin := range records[i].Pincodes {
			distinct[pin] = struct{}{}
		}
	}

	origin, originOK := zips.Lookup(queryZip)

	nearZips := make(map[string]struct{}, len(distinct))
	for pin := range distinct {
		if !originOK {
			nearZips[pin] = struct{}{}
			continue
		}
		coords, ok := zips.Lookup(pin)
		if !ok {
			nearZips[pin] = struct{}{}
			continue
		}
		if geo.Distance(origin.Lat, origin.Lng, coords.Lat, coords.Lng) <= radiusKm {
			nearZips[pin] = struct{}{}
		}
	}

	nearCount := 0
	for i := range records {
		records[i].Near = false
		for _, pin := range records[i].Pincodes {
			if _, ok := nearZips[pin]; ok {
				records[i].Near = true
				nearCount++
				break
			}
		}
	}
	return nearCount
}
