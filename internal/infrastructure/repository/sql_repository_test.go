package repository_test

import (
	"context"
	"testing"
	"time"

	"automated-identity-matching/internal/infrastructure/repository"
	testutil "automated-identity-matching/internal/testing"
)

// Runs against a real reference database when DATABASE_URL_TEST (or
// DATABASE_URL) is set; skipped otherwise.
func TestFetchReferenceRows(t *testing.T) {
	dbtest := testutil.NewDBTest(t)
	defer dbtest.Close()

	repo := repository.NewSQLRepository(dbtest.DB, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := repo.FetchReferenceRows(ctx)
	if err != nil {
		t.Fatalf("FetchReferenceRows() error = %v", err)
	}

	seen := make(map[string]bool)
	for _, r := range rows {
		if r.UserID == "" {
			t.Error("row with empty user_id")
		}
		seen[r.UserID] = true
	}
	t.Logf("fetched %d rows, %d distinct users", len(rows), len(seen))
}
