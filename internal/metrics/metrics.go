// Package metrics keeps run counters exposed by the monitoring endpoints.
// A Metrics value is created once in main and passed to whoever records.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesConsulted   int64
	SourcesFailed      int64
	NewsFetched        int64
	DuplicatesFiltered int64
	ReportsGenerated   int64
	EmailsSent         int64
	AnalysesSucceeded  int64
	AnalysesFailed     int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) add(counter *int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter += int64(n)
}

func (m *Metrics) IncrementSourcesConsulted() { m.add(&m.SourcesConsulted, 1) }
func (m *Metrics) IncrementSourcesFailed() { m.add(&m.SourcesFailed, 1) }
func (m *Metrics) AddNewsFetched(n int) { m.add(&m.NewsFetched, n) }
func (m *Metrics) AddDuplicatesFiltered(n int) { m.add(&m.DuplicatesFiltered, n) }
func (m *Metrics) IncrementReportsGenerated() { m.add(&m.ReportsGenerated, 1) }
func (m *Metrics) IncrementEmailsSent() { m.add(&m.EmailsSent, 1) }
func (m *Metrics) IncrementAnalysesSucceeded() { m.add(&m.AnalysesSucceeded, 1) }
func (m *Metrics) IncrementAnalysesFailed() { m.add(&m.AnalysesFailed, 1) }

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++
	m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_consulted":          m.SourcesConsulted,
		"sources_failed":             m.SourcesFailed,
		"news_fetched":               m.NewsFetched,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"reports_generated":          m.ReportsGenerated,
		"emails_sent":                m.EmailsSent,
		"analyses_succeeded":         m.AnalysesSucceeded,
		"analyses_failed":            m.AnalysesFailed,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              formatTime(m.LastRunTime),
		"last_error_time":            formatTime(m.LastErrorTime),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
