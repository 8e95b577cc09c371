package repository

import (
	"strings"
	"testing"
)

// The reference table name is misspelled in the production schema.
// Pin it so a well-meaning cleanup cannot point the extract at a
// table that does not exist.
func TestReferenceQueryTargetsProductionTable(t *testing.T) {
	if !strings.Contains(referenceQuery, "FROM cognito_identity_assesment_flat") {
		t.Errorf("reference query does not target cognito_identity_assesment_flat:\n%s", referenceQuery)
	}
	if strings.Contains(referenceQuery, "assessment") {
		t.Errorf("reference query uses the corrected spelling, which is not the deployed table:\n%s", referenceQuery)
	}
}
