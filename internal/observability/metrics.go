package observability

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Run states reported by /health.
const (
	StateStarting  = "starting"
	StateLoggingIn = "logging_in"
	StateScraping  = "scraping"
	StateSaving    = "saving"
	StateFinished  = "finished"
	StateFailed    = "failed"
)

// Metrics counts scraper progress on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	loginAttempts   *prometheus.CounterVec
	productsTotal   *prometheus.CounterVec
	categoriesTotal *prometheus.CounterVec

	visited atomic.Int64
	kept    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64

	mu         sync.RWMutex
	state      string
	categories int
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bestsellers_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		productsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bestsellers_products_total",
			Help: "Product pages by outcome",
		}, []string{"outcome"}),
		categoriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bestsellers_categories_total",
			Help: "Category listings by result",
		}, []string{"category", "result"}),
		state: StateStarting,
	}

	m.registry.MustRegister(
		m.loginAttempts,
		m.productsTotal,
		m.categoriesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) LoginAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
		m.SetState(StateScraping)
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) ProductVisited() {
	m.visited.Add(1)
	m.productsTotal.WithLabelValues("visited").Inc()
}

func (m *Metrics) ProductKept() {
	m.kept.Add(1)
	m.productsTotal.WithLabelValues("kept").Inc()
}

func (m *Metrics) ProductDropped() {
	m.dropped.Add(1)
	m.productsTotal.WithLabelValues("dropped").Inc()
}

func (m *Metrics) ProductFailed() {
	m.failed.Add(1)
	m.productsTotal.WithLabelValues("failed").Inc()
}

func (m *Metrics) CategoryDone(name string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.categoriesTotal.WithLabelValues(name, result).Inc()

	m.mu.Lock()
	m.categories++
	m.mu.Unlock()
}

func (m *Metrics) SetState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// Snapshot is the progress summary served by /health.
type Snapshot struct {
	State      string `json:"state"`
	Categories int    `json:"categories"`
	Visited    int64  `json:"visited"`
	Kept       int64  `json:"kept"`
	Dropped    int64  `json:"dropped"`
	Failed     int64  `json:"failed"`
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		State:      m.state,
		Categories: m.categories,
		Visited:    m.visited.Load(),
		Kept:       m.kept.Load(),
		Dropped:    m.dropped.Load(),
		Failed:     m.failed.Load(),
	}
}
