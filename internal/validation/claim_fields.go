package validation

import (
	"fmt"
	"regexp"
	"strings"

	"automated-identity-matching/internal/models"
	errs "automated-identity-matching/pkg/errors"
)

var (
	// zipRegex accepts plain and hyphen-suffixed US zip codes.
	zipRegex = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	// phoneRegex allows digits, spaces and common punctuation.
	phoneRegex = regexp.MustCompile(`^[0-9+\-() ]+$`)
)

// ValidateUserID validates the claim's user identifier.
func ValidateUserID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("user_id is required")
	}
	if len(id) > 64 {
		return fmt.Errorf("user_id must be less than 64 characters")
	}
	return nil
}

// ValidateZipcode validates a zip code field.
func ValidateZipcode(zip string) error {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return nil // optional; proximity then runs under the missing-geo rule
	}
	if !zipRegex.MatchString(zip) {
		return fmt.Errorf("zipcode %q is not a valid zip code", zip)
	}
	return nil
}

// ValidatePhone validates a phone field.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil // optional field
	}
	if len(phone) > 50 {
		return fmt.Errorf("phone must be less than 50 characters")
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("phone contains invalid characters")
	}
	return nil
}

// ValidateClaim checks an incoming claim before it reaches the engine.
// Failures surface as ValidationError so the caller can distinguish bad
// input from a clean no-match result.
func ValidateClaim(c models.IdentityClaim) error {
	if err := ValidateUserID(c.UserID); err != nil {
		return errs.NewValidation("validation.ValidateClaim", err.Error(), nil)
	}
	if err := ValidateZipcode(c.Zipcode); err != nil {
		return errs.NewValidation("validation.ValidateClaim", err.Error(), nil)
	}
	if err := ValidatePhone(c.Phone); err != nil {
		return errs.NewValidation("validation.ValidateClaim", err.Error(), nil)
	}
	return ValidateQuery(models.QueryFromClaim(c))
}

// ValidateQuery rejects queries that cannot match under any category:
// every matcher input empty means the result would be vacuously empty,
// and the caller should learn that rather than read it as "no match".
func ValidateQuery(q models.QueryIdentity) error {
	if q.FirstName == "" && q.LastName == "" && q.DateOfBirth == "" &&
		q.Phone == "" && q.Street == "" {
		return errs.NewValidation("validation.ValidateQuery",
			"claim has no matchable fields (name, dob, phone and street all empty)", nil)
	}
	return nil
}
