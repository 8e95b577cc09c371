package matcher

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"automated-identity-matching/internal/models"
)

// idSet is a set of reference user ids.
type idSet map[string]struct{}

func (s idSet) add(id string) { s[id] = struct{}{} }

func (s idSet) intersect(other idSet) idSet {
	out := idSet{}
	for id := range s {
		if _, ok := other[id]; ok {
			out.add(id)
		}
	}
	return out
}

// sorted returns the set members as a sorted slice for deterministic output.
func (s idSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

// MatchNameDOB returns the ids whose name variants and dob list all
// contain the query values, as the intersection of three independent
// scans. Any empty query field collapses the whole intersection to
// empty: partial name/dob queries never match under this category.
func MatchNameDOB(records []models.ReferenceRecord, q models.QueryIdentity) idSet {
	firstMatches := idSet{}
	if q.FirstName != "" {
		for i := range records {
			if contains(records[i].FirstNames, q.FirstName) {
				firstMatches.add(records[i].UserID)
			}
		}
	}

	lastMatches := idSet{}
	if q.LastName != "" {
		for i := range records {
			if contains(records[i].LastNames, q.LastName) {
				lastMatches.add(records[i].UserID)
			}
		}
	}

	dobMatches := idSet{}
	if q.DateOfBirth != "" {
		for i := range records {
			if contains(records[i].DOBs, q.DateOfBirth) {
				dobMatches.add(records[i].UserID)
			}
		}
	}

	return firstMatches.intersect(lastMatches).intersect(dobMatches)
}

// MatchStreet fuzzy-matches the query street against the street strings
// of near-flagged records, then collects the ids of every record whose
// street list contains an accepted candidate string verbatim.
//
// Token-sort similarity alone confuses different house numbers on the
// same street, so accepted candidates must also pass a positional
// check: the first token (house number) must equal the query's, or for
// PO box addresses the third token (box number) must.
func MatchStreet(records []models.ReferenceRecord, q models.QueryIdentity, scoreCutoff int) idSet {
	result := idSet{}
	if q.Street == "" {
		return result
	}

	universe := make(map[string]struct{})
	for i := range records {
		if !records[i].Near {
			continue
		}
		for _, street := range records[i].Streets {
			universe[street] = struct{}{}
		}
	}

	queryTokens := strings.Fields(q.Street)
	if len(queryTokens) == 0 {
		// whitespace-only street from a query built outside NewQueryIdentity
		return result
	}
	houseNumber := queryTokens[0]

	for candidate := range universe {
		if fuzzy.TokenSortRatio(q.Street, candidate) < scoreCutoff {
			continue
		}
		if !tieBreak(candidate, queryTokens, houseNumber) {
			continue
		}
		for i := range records {
			if contains(records[i].Streets, candidate) {
				result.add(records[i].UserID)
			}
		}
	}
	return result
}

// tieBreak applies the house-number / PO-box positional check.
func tieBreak(candidate string, queryTokens []string, houseNumber string) bool {
	candTokens := strings.Fields(candidate)
	if houseNumber == "PO" {
		// PO box: the box number is the third token on both sides.
		if len(queryTokens) < 3 || len(candTokens) < 3 {
			return false
		}
		return candTokens[2] == queryTokens[2]
	}
	if len(candTokens) == 0 {
		return false
	}
	return candTokens[0] == houseNumber
}

// MatchPhone returns the ids whose phone list contains the query phone
// verbatim. No normalization across formats: "+15551234567" and
// "15551234567" are different strings.
func MatchPhone(records []models.ReferenceRecord, q models.QueryIdentity) idSet {
	result := idSet{}
	if q.Phone == "" {
		return result
	}
	for i := range records {
		if contains(records[i].Phones, q.Phone) {
			result.add(records[i].UserID)
		}
	}
	return result
}
