// Package testutil holds shared test doubles. Kept dependency-light so
// any package can import it without cycles.
package testutil

import (
	"context"
	"sync"

	"automated-identity-matching/internal/models"
	"automated-identity-matching/pkg/geo"
)

// MockReferenceSource implements matcher.ReferenceSource for tests.
type MockReferenceSource struct {
	Mu   sync.Mutex
	Rows []models.ReferenceRow
	Err  error

	FetchCount int
}

func NewMockReferenceSource(rows ...models.ReferenceRow) *MockReferenceSource {
	return &MockReferenceSource{Rows: rows}
}

func (m *MockReferenceSource) FetchReferenceRows(ctx context.Context) ([]models.ReferenceRow, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.FetchCount++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.ReferenceRow, len(m.Rows))
	copy(out, m.Rows)
	return out, nil
}

// MockReporter implements ingest.Reporter for tests.
type MockReporter struct {
	Mu      sync.Mutex
	Err     error
	Reports []ReportedResult
}

type ReportedResult struct {
	UserID string
	Result *models.MatchResult
}

func (m *MockReporter) Report(ctx context.Context, userID string, result *models.MatchResult) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Reports = append(m.Reports, ReportedResult{UserID: userID, Result: result})
	return nil
}

func (m *MockReporter) Count() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Reports)
}

// StaticZips builds a fixed zip table for proximity tests.
func StaticZips(entries map[string]geo.Coordinates) geo.ZipTable {
	return zipMap(entries)
}

type zipMap map[string]geo.Coordinates

func (z zipMap) Lookup(zip string) (geo.Coordinates, bool) {
	c, ok := z[zip]
	return c, ok
}
