// Package health aggregates component health checks and serves them
// over HTTP for liveness/readiness probing.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"automated-identity-matching/pkg/logging"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     time.Duration              `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// Checker defines the interface for health check functions
type Checker interface {
	Check(ctx context.Context) ComponentHealth
	Name() string
}

// CheckFunc adapts a function into a Checker
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) ComponentHealth
}

func (cf CheckFunc) Check(ctx context.Context) ComponentHealth { return cf.fn(ctx) }
func (cf CheckFunc) Name() string                              { return cf.name }

func NewCheckFunc(name string, fn func(ctx context.Context) ComponentHealth) Checker {
	return CheckFunc{name: name, fn: fn}
}

// Manager runs registered checks and aggregates the result.
type Manager struct {
	checkers  map[string]Checker
	startTime time.Time
	timeout   time.Duration
	logger    *logging.ComponentLogger
	mu        sync.RWMutex
}

func NewManager(timeout time.Duration, logger *logging.Logger) *Manager {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	m := &Manager{
		checkers:  make(map[string]Checker),
		startTime: time.Now(),
		timeout:   timeout,
	}
	if logger != nil {
		m.logger = logger.WithComponent("health")
	}
	return m
}

func (m *Manager) Register(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[checker.Name()] = checker
	if m.logger != nil {
		m.logger.Info("registered health checker", logging.String("checker", checker.Name()))
	}
}

// CheckAll runs all checks concurrently and aggregates.
func (m *Manager) CheckAll(ctx context.Context) SystemHealth {
	m.mu.RLock()
	checkers := make([]Checker, 0, len(m.checkers))
	for _, c := range m.checkers {
		checkers = append(checkers, c)
	}
	m.mu.RUnlock()

	results := make(chan ComponentHealth, len(checkers))
	var wg sync.WaitGroup
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()
			results <- c.Check(checkCtx)
		}(c)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	components := make(map[string]ComponentHealth)
	for r := range results {
		components[r.Name] = r
	}

	return SystemHealth{
		Status:     overallStatus(components),
		Timestamp:  time.Now(),
		Uptime:     time.Since(m.startTime),
		Components: components,
	}
}

func overallStatus(components map[string]ComponentHealth) Status {
	if len(components) == 0 {
		return StatusUnknown
	}
	status := StatusHealthy
	for _, c := range components {
		switch c.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		case StatusUnknown:
			if status == StatusHealthy {
				status = StatusUnknown
			}
		}
	}
	return status
}

// DatabaseChecker pings the reference database.
type DatabaseChecker struct {
	db   *sql.DB
	name string
}

func NewDatabaseChecker(db *sql.DB, name string) *DatabaseChecker {
	return &DatabaseChecker{db: db, name: name}
}

func (dc *DatabaseChecker) Name() string { return dc.name }

func (dc *DatabaseChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()
	result := ComponentHealth{
		Name:        dc.name,
		LastChecked: time.Now(),
		Metadata:    make(map[string]any),
	}

	if err := dc.db.PingContext(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "database connection failed"
		result.Duration = time.Since(start)
		return result
	}

	result.Status = StatusHealthy
	result.Message = "database reachable"

	stats := dc.db.Stats()
	result.Metadata["open_connections"] = stats.OpenConnections
	result.Metadata["in_use"] = stats.InUse
	result.Metadata["idle"] = stats.Idle

	result.Duration = time.Since(start)
	return result
}

// ConsumerChecker reports ingest liveness based on when the broker
// consumer last completed a poll.
type ConsumerChecker struct {
	name     string
	lastPoll func() time.Time
	maxAge   time.Duration
}

func NewConsumerChecker(name string, lastPoll func() time.Time, maxAge time.Duration) *ConsumerChecker {
	if maxAge <= 0 {
		maxAge = 2 * time.Minute
	}
	return &ConsumerChecker{name: name, lastPoll: lastPoll, maxAge: maxAge}
}

func (cc *ConsumerChecker) Name() string { return cc.name }

func (cc *ConsumerChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()
	result := ComponentHealth{
		Name:        cc.name,
		LastChecked: time.Now(),
		Metadata:    make(map[string]any),
	}

	last := cc.lastPoll()
	if last.IsZero() {
		result.Status = StatusUnknown
		result.Message = "consumer has not polled yet"
		result.Duration = time.Since(start)
		return result
	}

	age := time.Since(last)
	result.Metadata["last_poll"] = last
	result.Metadata["age"] = age.String()
	if age > cc.maxAge {
		result.Status = StatusDegraded
		result.Message = "consumer poll is stale"
	} else {
		result.Status = StatusHealthy
		result.Message = "consumer polling"
	}
	result.Duration = time.Since(start)
	return result
}

// PoolChecker reports claim pool activity.
type PoolChecker struct {
	name     string
	getStats func() map[string]any
}

func NewPoolChecker(name string, getStats func() map[string]any) *PoolChecker {
	return &PoolChecker{name: name, getStats: getStats}
}

func (pc *PoolChecker) Name() string { return pc.name }

func (pc *PoolChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()
	result := ComponentHealth{
		Name:        pc.name,
		LastChecked: time.Now(),
	}
	if pc.getStats == nil {
		result.Status = StatusUnknown
		result.Message = "no pool statistics available"
	} else {
		result.Status = StatusHealthy
		result.Message = "pool running"
		result.Metadata = pc.getStats()
	}
	result.Duration = time.Since(start)
	return result
}

// Routes registers health endpoints on the given router.
func (m *Manager) Routes(r *mux.Router) {
	r.HandleFunc("/health", m.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/live", m.handleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", m.handleReadiness).Methods(http.MethodGet)
}

func (m *Manager) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := m.CheckAll(r.Context())

	w.Header().Set("Content-Type", "application/json")
	switch health.Status {
	case StatusHealthy, StatusDegraded:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

func (m *Manager) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "alive",
		"uptime": time.Since(m.startTime).String(),
	})
}

func (m *Manager) handleReadiness(w http.ResponseWriter, r *http.Request) {
	health := m.CheckAll(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if health.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status": health.Status,
		"ready":  health.Status != StatusUnhealthy,
	})
}
