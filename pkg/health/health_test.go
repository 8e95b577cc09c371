package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func staticChecker(name string, status Status) Checker {
	return NewCheckFunc(name, func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Name: name, Status: status, LastChecked: time.Now()}
	})
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"no components", nil, StatusUnknown},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"one unhealthy wins", []Status{StatusHealthy, StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
		{"unknown only", []Status{StatusUnknown}, StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(time.Second, nil)
			for i, s := range tt.statuses {
				m.Register(staticChecker(string(rune('a'+i)), s))
			}
			got := m.CheckAll(context.Background())
			if got.Status != tt.want {
				t.Errorf("overall status = %v, want %v", got.Status, tt.want)
			}
		})
	}
}

func TestConsumerCheckerStaleness(t *testing.T) {
	last := time.Now()
	cc := NewConsumerChecker("ingest", func() time.Time { return last }, time.Minute)

	if got := cc.Check(context.Background()); got.Status != StatusHealthy {
		t.Errorf("fresh poll status = %v, want healthy", got.Status)
	}

	last = time.Now().Add(-5 * time.Minute)
	if got := cc.Check(context.Background()); got.Status != StatusDegraded {
		t.Errorf("stale poll status = %v, want degraded", got.Status)
	}

	cc2 := NewConsumerChecker("ingest", func() time.Time { return time.Time{} }, time.Minute)
	if got := cc2.Check(context.Background()); got.Status != StatusUnknown {
		t.Errorf("never polled status = %v, want unknown", got.Status)
	}
}

func TestHealthEndpoints(t *testing.T) {
	m := NewManager(time.Second, nil)
	m.Register(staticChecker("db", StatusHealthy))

	r := mux.NewRouter()
	m.Routes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d, want 200", resp.StatusCode)
	}

	var body SystemHealth
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode /health body: %v", err)
	}
	if body.Status != StatusHealthy {
		t.Errorf("system status = %v, want healthy", body.Status)
	}
	if _, ok := body.Components["db"]; !ok {
		t.Error("missing db component in /health response")
	}

	resp2, err := http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET /health/ready: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("/health/ready status = %d, want 200", resp2.StatusCode)
	}
}

func TestUnhealthyComponentFailsReadiness(t *testing.T) {
	m := NewManager(time.Second, nil)
	m.Register(staticChecker("db", StatusUnhealthy))

	r := mux.NewRouter()
	m.Routes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET /health/ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/health/ready status = %d, want 503", resp.StatusCode)
	}
}
