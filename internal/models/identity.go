package models

import (
	"strings"
	"time"
)

// IdentityClaim is the incoming message payload: one identity claim to
// be screened against the reference population. Field names follow the
// upstream event schema.
type IdentityClaim struct {
	UserID      string `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Street      string `json:"street"`
	Zipcode     string `json:"zipcode"`
	Phone       string `json:"phone"`
	State       string `json:"state,omitempty"`
}

// QueryIdentity is the normalized form of a claim used by the matching
// engine. Construct it with NewQueryIdentity and treat it as read-only
// afterwards.
type QueryIdentity struct {
	FirstName   string // trimmed, upper-cased
	LastName    string // trimmed, upper-cased
	DateOfBirth string // trimmed; format must match the reference dob strings verbatim
	Phone       string // trimmed; compared verbatim, no digit normalization
	Street      string // trimmed, upper-cased
	Zipcode     string // trimmed, hyphen suffix stripped ("80922-1234" -> "80922")
	State       string // trimmed, upper-cased; unused by the matchers today
}

// NewQueryIdentity normalizes raw claim fields into a QueryIdentity.
func NewQueryIdentity(firstName, lastName, dateOfBirth, phone, street, zipcode, state string) QueryIdentity {
	return QueryIdentity{
		FirstName:   strings.ToUpper(strings.TrimSpace(firstName)),
		LastName:    strings.ToUpper(strings.TrimSpace(lastName)),
		DateOfBirth: strings.TrimSpace(dateOfBirth),
		Phone:       strings.TrimSpace(phone),
		Street:      strings.ToUpper(strings.TrimSpace(street)),
		Zipcode:     strings.SplitN(strings.TrimSpace(zipcode), "-", 2)[0],
		State:       strings.ToUpper(strings.TrimSpace(state)),
	}
}

// QueryFromClaim builds the engine input from an incoming claim.
func QueryFromClaim(c IdentityClaim) QueryIdentity {
	return NewQueryIdentity(c.FirstName, c.LastName, c.DateOfBirth, c.Phone, c.Street, c.Zipcode, c.State)
}

// ReferenceRow is one raw row of the flat reference extract. Nullable
// columns are pointers; preprocessing replaces missing values with
// empty strings except for the name columns, which gate the row.
type ReferenceRow struct {
	UserID        string  `db:"user_id"`
	BirthYear     *string `db:"data_birth_year"`
	BirthMonth    *string `db:"data_birth_month"`
	BirthDay      *string `db:"data_birth_day"`
	FirstName     *string `db:"data_name_first"`
	LastName      *string `db:"data_name_last"`
	PhoneNum      *string `db:"data_phone_num"`
	AddressStreet *string `db:"data_address_street"`
	AddressCity   *string `db:"data_address_city"`
	AddressPostal *string `db:"data_address_postal"`
	AddressSubdiv *string `db:"data_address_subdivision"`
	AddressesList *string `db:"addresses_list"`
	DOBList       *string `db:"dob_list"`
	NameList      *string `db:"name_list"`
	PhoneList     *string `db:"phone_list"`
}

// ReferenceRecord is one normalized reference identity produced by
// preprocessing. Streets, Pincodes and States are index-aligned: the
// i-th entry of each describes one historical address occurrence.
type ReferenceRecord struct {
	UserID     string
	BirthDate  time.Time
	FirstNames []string
	LastNames  []string
	DOBs       []string
	Phones     []string
	Streets    []string
	Pincodes   []string
	States     []string

	// Near is set per query by the proximity filter: true when at least
	// one pincode lies within the proximity radius of the query zip, or
	// when geo data for the pincode is unavailable.
	Near bool
}

// MatchResult holds the per-category sets of matching reference user
// ids. Categories are independent; an id may appear in any subset.
// Slices are sorted for deterministic output.
type MatchResult struct {
	NameDOB []string `json:"name_dob"`
	Street  []string `json:"street"`
	Phone   []string `json:"phone"`
}

// Empty reports whether no category produced a match.
func (r *MatchResult) Empty() bool {
	return len(r.NameDOB) == 0 && len(r.Street) == 0 && len(r.Phone) == 0
}
