package matcher

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"automated-identity-matching/internal/models"
	errs "automated-identity-matching/pkg/errors"
)

type stubSource struct {
	rows []models.ReferenceRow
	err  error
}

func (s *stubSource) FetchReferenceRows(ctx context.Context) ([]models.ReferenceRow, error) {
	return s.rows, s.err
}

func TestEngine_Match_EndToEnd(t *testing.T) {
	src := &stubSource{rows: []models.ReferenceRow{
		refRow("u1"),
		func() models.ReferenceRow {
			r := refRow("u2")
			r.FirstName = strp("ALEX")
			r.LastName = strp("STONE")
			r.NameList = strp("ALEX STONE")
			r.DOBList = strp("02-02-1970")
			r.PhoneNum = strp("+12223334444")
			r.PhoneList = strp("+12223334444")
			r.AddressesList = strp("9 FAR AWAY LN,10001,NY")
			return r
		}(),
	}}
	zips := stubZipTable{
		"80922": {Lat: 38.9881, Lng: -104.7002},
		"10001": {Lat: 40.7506, Lng: -73.9971},
	}
	eng := NewEngine(src, zips, DefaultConfig(), nil)

	q := models.NewQueryIdentity("Nicole", "Samuel", "11-10-1985", "+15703698217", "3654 Powell Point", "80922", "")
	result, err := eng.Match(context.Background(), q)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	if !reflect.DeepEqual(result.NameDOB, []string{"u1"}) {
		t.Errorf("NameDOB = %v, want [u1]", result.NameDOB)
	}
	if !reflect.DeepEqual(result.Phone, []string{"u1"}) {
		t.Errorf("Phone = %v, want [u1]", result.Phone)
	}
	if !reflect.DeepEqual(result.Street, []string{"u1"}) {
		t.Errorf("Street = %v, want [u1]", result.Street)
	}
}

func TestEngine_Match_Idempotent(t *testing.T) {
	src := &stubSource{rows: []models.ReferenceRow{refRow("u1")}}
	zips := stubZipTable{"80922": {Lat: 38.9881, Lng: -104.7002}}
	eng := NewEngine(src, zips, DefaultConfig(), nil)

	q := models.NewQueryIdentity("Nicole", "Samuel", "11-10-1985", "+15703698217", "3654 Powell Point", "80922", "")
	first, err := eng.Match(context.Background(), q)
	if err != nil {
		t.Fatalf("first Match: %v", err)
	}
	second, err := eng.Match(context.Background(), q)
	if err != nil {
		t.Fatalf("second Match: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ across identical invocations:\n%+v\n%+v", first, second)
	}
}

func TestEngine_Match_InvalidQuery(t *testing.T) {
	eng := NewEngine(&stubSource{}, stubZipTable{}, DefaultConfig(), nil)
	q := models.NewQueryIdentity("", "", "", "", "", "80922", "")
	_, err := eng.Match(context.Background(), q)
	if err == nil {
		t.Fatal("expected validation error for query with no matchable fields")
	}
	if !errs.Is(err, errs.ErrValidation) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestEngine_Match_SourceFailureIsFatal(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	eng := NewEngine(src, stubZipTable{}, DefaultConfig(), nil)
	q := models.NewQueryIdentity("Nicole", "Samuel", "11-10-1985", "", "", "", "")
	result, err := eng.Match(context.Background(), q)
	if err == nil {
		t.Fatal("expected error when the reference source fails")
	}
	if !errs.Is(err, errs.ErrDB) {
		t.Errorf("expected DBError, got %v", err)
	}
	if result != nil {
		t.Errorf("no partial result expected, got %+v", result)
	}
}

func TestEngine_Match_MalformedRowsAbsorbed(t *testing.T) {
	bad := refRow("broken")
	bad.BirthYear = strp("not-a-year")
	src := &stubSource{rows: []models.ReferenceRow{bad, refRow("u1")}}
	zips := stubZipTable{"80922": {Lat: 38.9881, Lng: -104.7002}}
	eng := NewEngine(src, zips, DefaultConfig(), nil)

	q := models.NewQueryIdentity("Nicole", "Samuel", "11-10-1985", "", "", "80922", "")
	result, err := eng.Match(context.Background(), q)
	if err != nil {
		t.Fatalf("row-scoped failures must not fail the invocation: %v", err)
	}
	if !reflect.DeepEqual(result.NameDOB, []string{"u1"}) {
		t.Errorf("NameDOB = %v, want [u1]", result.NameDOB)
	}
}
