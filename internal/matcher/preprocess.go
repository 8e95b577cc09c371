// Package matcher implements the identity matching engine: preprocessing
// of the multivalued reference extract, geo proximity pre-filtering, and
// the per-category matchers (name+dob, street, phone).
package matcher

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"automated-identity-matching/internal/models"
	errs "automated-identity-matching/pkg/errors"
)

// Preprocess turns raw reference rows into normalized ReferenceRecords.
// Malformed rows are excluded and reported as RowErrors; the rest of the
// batch proceeds. Rows missing a first or last name are silently dropped
// (they cannot participate in any category).
func Preprocess(rows []models.ReferenceRow) ([]models.ReferenceRecord, []error) {
	records := make([]models.ReferenceRecord, 0, len(rows))
	var rowErrs []error
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if row.FirstName == nil || row.LastName == nil {
			continue
		}

		birthDate, err := composeBirthDate(strval(row.BirthYear), strval(row.BirthMonth), strval(row.BirthDay))
		if err != nil {
			rowErrs = append(rowErrs, errs.NewRow("matcher.Preprocess", row.UserID, "unparsable birth date", err))
			continue
		}

		firstName := *row.FirstName
		lastName := *row.LastName
		phone := strval(row.PhoneNum)

		// Coarse dedup on the raw identity tuple; first occurrence wins.
		// The slot is claimed only once the row fully parses, so an
		// excluded row never shadows a later well-formed duplicate.
		key := firstName + "\x00" + lastName + "\x00" + phone + "\x00" + birthDate.Format("2006-01-02")
		if _, dup := seen[key]; dup {
			continue
		}

		streets, pincodes, states, err := parseAddressTriplets(strval(row.AddressesList))
		if err != nil {
			rowErrs = append(rowErrs, errs.NewRow("matcher.Preprocess", row.UserID, "inconsistent address list", err))
			continue
		}

		firstNames, lastNames := parseNamePairs(strval(row.NameList))
		seen[key] = struct{}{}

		records = append(records, models.ReferenceRecord{
			UserID:     row.UserID,
			BirthDate:  birthDate,
			FirstNames: firstNames,
			LastNames:  lastNames,
			DOBs:       splitList(strval(row.DOBList)),
			Phones:     splitList(strval(row.PhoneList)),
			Streets:    streets,
			Pincodes:   pincodes,
			States:     states,
		})
	}

	return records, rowErrs
}

// composeBirthDate builds a date from separate year/month/day strings.
func composeBirthDate(year, month, day string) (time.Time, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return time.Time{}, fmt.Errorf("year %q: %w", year, err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q: %w", month, err)
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return time.Time{}, fmt.Errorf("day %q: %w", day, err)
	}
	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes impossible dates (Feb 31 -> Mar 3); a
	// changed component means the source date never existed.
	if date.Year() != y || date.Month() != time.Month(m) || date.Day() != d {
		return time.Time{}, fmt.Errorf("impossible date %d-%d-%d", y, m, d)
	}
	return date, nil
}

// parseAddressTriplets splits a semicolon-delimited multi-address string
// into index-aligned street/pincode/state lists. Within each address the
// fields are comma-delimited and extracted positionally: street is the
// first field, pincode the second-to-last, state the last. This position
// convention follows the upstream flat extract; keep it in one place.
// An empty source string yields empty lists.
func parseAddressTriplets(addresses string) (streets, pincodes, states []string, err error) {
	trimmed := strings.Trim(addresses, ";")
	if trimmed == "" {
		return nil, nil, nil, nil
	}
	pieces := strings.Split(trimmed, ";")
	streets = make([]string, 0, len(pieces))
	pincodes = make([]string, 0, len(pieces))
	states = make([]string, 0, len(pieces))
	for _, piece := range pieces {
		parts := strings.Split(piece, ",")
		if len(parts) < 2 {
			return nil, nil, nil, fmt.Errorf("address %q has fewer than 2 fields", piece)
		}
		streets = append(streets, parts[0])
		pincodes = append(pincodes, parts[len(parts)-2])
		states = append(states, parts[len(parts)-1])
	}
	return streets, pincodes, states, nil
}

// parseNamePairs splits a comma-delimited multi-name string into aligned
// first-name and last-name lists: for each name the first whitespace
// token is the first name and the last token the last name. An empty
// source string yields empty lists.
func parseNamePairs(names string) (firstNames, lastNames []string) {
	trimmed := strings.Trim(names, ",")
	if trimmed == "" {
		return nil, nil
	}
	pieces := strings.Split(trimmed, ",")
	firstNames = make([]string, 0, len(pieces))
	lastNames = make([]string, 0, len(pieces))
	for _, piece := range pieces {
		tokens := strings.Fields(piece)
		if len(tokens) == 0 {
			firstNames = append(firstNames, "")
			lastNames = append(lastNames, "")
			continue
		}
		firstNames = append(firstNames, tokens[0])
		lastNames = append(lastNames, tokens[len(tokens)-1])
	}
	return firstNames, lastNames
}

// splitList splits a comma-delimited value list after stripping leading
// and trailing separators. An empty source string yields an empty list.
func splitList(s string) []string {
	trimmed := strings.Trim(s, ",")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ",")
}

func strval(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
