// Package health reports liveness and readiness of the notes service.
//
//	probes := health.NewManager("1.0.0", health.WithTimeout(3*time.Second))
//	probes.Register("database", repo.Ping, health.Critical)
//	probes.Register("redis", pingRedis, health.Optional)
//	probes.Mount(e)
//
// A failing critical dependency makes the service unhealthy and not ready.
// A failing optional one only degrades it.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Severity says what a failure of a dependency means for the service.
type Severity int

const (
	Critical Severity = iota
	Optional
)

// CheckFunc returns nil when the dependency is usable.
type CheckFunc func(ctx context.Context) error

// Check is the outcome of one dependency check.
type Check struct {
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// Report is the body of the full health endpoint. Checks are keyed by
// dependency name.
type Report struct {
	Status    Status           `json:"status"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
}

type dependency struct {
	name     string
	fn       CheckFunc
	severity Severity
}

type Manager struct {
	mu      sync.RWMutex
	deps    []dependency
	version string
	timeout time.Duration
	started time.Time
	now     func() time.Time
}

type ManagerOption func(*Manager)

func NewManager(version string, opts ...ManagerOption) *Manager {
	m := &Manager{version: version, timeout: 5 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.started = m.now()
	return m
}

// WithTimeout bounds a whole round of checks.
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.timeout = d }
}

// Register adds a dependency. Registering a name twice replaces the check.
func (m *Manager) Register(name string, fn CheckFunc, severity Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.deps {
		if m.deps[i].name == name {
			m.deps[i] = dependency{name, fn, severity}
			return
		}
	}
	m.deps = append(m.deps, dependency{name, fn, severity})
}

// Check runs every dependency check concurrently.
func (m *Manager) Check(ctx context.Context) *Report {
	m.mu.RLock()
	deps := append([]dependency(nil), m.deps...)
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	checks := make([]Check, len(deps))
	var wg sync.WaitGroup
	for i, d := range deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = run(ctx, d)
		}()
	}
	wg.Wait()

	now := m.now()
	report := &Report{
		Status:    StatusHealthy,
		Version:   m.version,
		Uptime:    now.Sub(m.started).Truncate(time.Second).String(),
		Timestamp: now.UTC(),
		Checks:    make(map[string]Check, len(deps)),
	}
	for i, d := range deps {
		report.Checks[d.name] = checks[i]
		report.Status = worst(report.Status, checks[i].Status)
	}
	return report
}

func run(ctx context.Context, d dependency) Check {
	start := time.Now()
	err := d.fn(ctx)
	c := Check{Status: StatusHealthy, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		c.Message = err.Error()
		c.Status = StatusUnhealthy
		if d.severity == Optional {
			c.Status = StatusDegraded
		}
	}
	return c
}

func worst(a, b Status) Status {
	rank := map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// Mount registers /healthz, /ready and /health on e.
func (m *Manager) Mount(e *echo.Echo) {
	e.GET("/healthz", m.Live)
	e.GET("/ready", m.Ready)
	e.GET("/health", m.Full)
}

// Live answers 200 while the process serves requests, whatever the state of
// its dependencies.
func (m *Manager) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (m *Manager) Ready(c echo.Context) error {
	if m.Check(c.Request().Context()).Status == StatusUnhealthy {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (m *Manager) Full(c echo.Context) error {
	report := m.Check(c.Request().Context())
	code := http.StatusOK
	if report.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, report)
}
