package testutil

import (
	"database/sql"
	"os"
	"testing"

	"automated-identity-matching/pkg/database"
)

// DBTest provides a real DB connection for integration tests.
// It uses DATABASE_URL_TEST if set, otherwise DATABASE_URL. Tests are
// skipped when neither is available.
type DBTest struct {
	T   *testing.T
	DB  *database.DB
	SQL *sql.DB
}

func NewDBTest(t *testing.T) *DBTest {
	t.Helper()
	url := os.Getenv("DATABASE_URL_TEST")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("DATABASE_URL_TEST or DATABASE_URL not set; skipping integration tests")
	}
	db, err := database.New(url)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	return &DBTest{T: t, DB: db, SQL: db.Conn()}
}

func (d *DBTest) Close() {
	_ = d.DB.Close()
}
