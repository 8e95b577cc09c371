package geo

import (
	"strings"
	"testing"
)

func TestReadZipTable(t *testing.T) {
	csv := "ZIP,LAT,LNG\n80922,38.9881,-104.7002\n80202,39.7491,-104.9943\n"
	tbl, err := ReadZipTable(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadZipTable: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tbl.Len())
	}
	c, ok := tbl.Lookup("80922")
	if !ok {
		t.Fatal("expected 80922 to be present")
	}
	if c.Lat != 38.9881 || c.Lng != -104.7002 {
		t.Errorf("unexpected coordinates: %+v", c)
	}
	if _, ok := tbl.Lookup("99999"); ok {
		t.Error("expected 99999 to be absent")
	}
}

func TestReadZipTable_ExtraColumnsAndBadRows(t *testing.T) {
	csv := strings.Join([]string{
		"ZIP,CITY,LAT,LNG,STATE",
		"80922,Colorado Springs,38.9881,-104.7002,CO",
		"00000,Nowhere,not-a-number,0,XX", // unparsable lat, skipped
		",Blank,1,2,YY",                   // blank zip, skipped
	}, "\n")
	tbl, err := ReadZipTable(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadZipTable: %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tbl.Len())
	}
	if _, ok := tbl.Lookup("00000"); ok {
		t.Error("row with unparsable coordinates should be absent")
	}
}

func TestReadZipTable_MissingHeader(t *testing.T) {
	if _, err := ReadZipTable(strings.NewReader("A,B,C\n1,2,3\n")); err == nil {
		t.Error("expected error for missing ZIP/LAT/LNG header")
	}
}
