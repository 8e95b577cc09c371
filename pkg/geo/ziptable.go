package geo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Coordinates is a lat/lng pair from the static zip table.
type Coordinates struct {
	Lat float64
	Lng float64
}

// ZipTable maps zip codes to coordinates. The table is an external data
// asset and may be incomplete; lookups report presence explicitly so
// callers can apply their own missing-data policy.
type ZipTable interface {
	Lookup(zip string) (Coordinates, bool)
}

// StaticZipTable is an in-memory ZipTable loaded from a CSV asset.
// It is immutable after load and safe for concurrent use.
type StaticZipTable struct {
	coords map[string]Coordinates
}

var _ ZipTable = (*StaticZipTable)(nil)

// LoadZipTable reads a CSV file with header columns ZIP, LAT, LNG
// (extra columns are ignored). Rows with unparsable coordinates are
// kept out of the table, which downstream treats the same as a zip
// with no geo entry.
func LoadZipTable(path string) (*StaticZipTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zip table: %w", err)
	}
	defer f.Close()
	return ReadZipTable(f)
}

// ReadZipTable parses zip table CSV content from r.
func ReadZipTable(r io.Reader) (*StaticZipTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read zip table header: %w", err)
	}
	zipIdx, latIdx, lngIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToUpper(strings.TrimSpace(col)) {
		case "ZIP":
			zipIdx = i
		case "LAT":
			latIdx = i
		case "LNG":
			lngIdx = i
		}
	}
	if zipIdx < 0 || latIdx < 0 || lngIdx < 0 {
		return nil, fmt.Errorf("zip table header missing ZIP/LAT/LNG columns: %v", header)
	}

	coords := make(map[string]Coordinates)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read zip table row: %w", err)
		}
		if len(rec) <= zipIdx || len(rec) <= latIdx || len(rec) <= lngIdx {
			continue
		}
		zip := strings.TrimSpace(rec[zipIdx])
		if zip == "" {
			continue
		}
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(rec[latIdx]), 64)
		lng, lngErr := strconv.ParseFloat(strings.TrimSpace(rec[lngIdx]), 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		coords[zip] = Coordinates{Lat: lat, Lng: lng}
	}

	return &StaticZipTable{coords: coords}, nil
}

// Lookup returns the coordinates for a zip code and whether an entry exists.
func (t *StaticZipTable) Lookup(zip string) (Coordinates, bool) {
	c, ok := t.coords[zip]
	return c, ok
}

// Len reports how many zip codes the table holds.
func (t *StaticZipTable) Len() int { return len(t.coords) }
