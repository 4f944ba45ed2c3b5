package logging

import (
	"sync"
	"time"
)

// Metrics tracks upstream API calls and high-level operations for one run
type Metrics struct {
	StartTime     time.Time                   `json:"start_time"`
	EndTime       time.Time                   `json:"end_time"`
	Duration      string                      `json:"duration"`
	APICalls      map[string]APICallMetrics   `json:"api_calls"`
	Operations    map[string]OperationMetrics `json:"operations"`
	TotalAPICalls int                         `json:"total_api_calls"`
	TotalSuccess  int                         `json:"total_success"`
	TotalFailures int                         `json:"total_failures"`
	mu            sync.RWMutex
}

// APICallMetrics tracks metrics for a specific upstream URL
type APICallMetrics struct {
	Count       int      `json:"count"`
	Success     int      `json:"success"`
	Failures    int      `json:"failures"`
	SuccessRate float64  `json:"success_rate"`
	Errors      []string `json:"errors,omitempty"`
}

// OperationMetrics tracks metrics for high-level operations
type OperationMetrics struct {
	Duration       time.Duration `json:"duration"`
	Success        bool          `json:"success"`
	Error          string        `json:"error,omitempty"`
	ItemsProcessed int           `json:"items_processed"`
	ItemsFound     int           `json:"items_found"`
}

var globalMetrics *Metrics
var metricsOnce sync.Once

// GetMetrics returns the global metrics instance (singleton)
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = NewMetrics()
	})
	return globalMetrics
}

// NewMetrics returns an empty metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:  time.Now(),
		APICalls:   make(map[string]APICallMetrics),
		Operations: make(map[string]OperationMetrics),
	}
}

// RecordAPICall records an API call with success/failure
func (m *Metrics) RecordAPICall(apiName string, success bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalAPICalls++
	if success {
		m.TotalSuccess++
	} else {
		m.TotalFailures++
	}

	metrics := m.APICalls[apiName]
	metrics.Count++
	if success {
		metrics.Success++
	} else {
		metrics.Failures++
		if err != nil && len(metrics.Errors) < 10 {
			metrics.Errors = append(metrics.Errors, err.Error())
		}
	}
	metrics.SuccessRate = float64(metrics.Success) / float64(metrics.Count) * 100
	m.APICalls[apiName] = metrics
}

// RecordOperation records a high-level operation
func (m *Metrics) RecordOperation(operationName string, duration time.Duration, success bool, itemsProcessed, itemsFound int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	opMetrics := OperationMetrics{
		Duration:       duration,
		Success:        success,
		ItemsProcessed: itemsProcessed,
		ItemsFound:     itemsFound,
	}
	if err != nil {
		opMetrics.Error = err.Error()
	}
	m.Operations[operationName] = opMetrics
}

// Finish stamps the end time and duration
func (m *Metrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime).Round(time.Millisecond).String()
}

// Snapshot returns a copy of the counters safe to read without the lock
func (m *Metrics) Snapshot() (total, success, failures int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TotalAPICalls, m.TotalSuccess, m.TotalFailures
}

// Breakdown returns copies of the per-URL and per-operation metrics
func (m *Metrics) Breakdown() (map[string]APICallMetrics, map[string]OperationMetrics) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make(map[string]APICallMetrics, len(m.APICalls))
	for name, c := range m.APICalls {
		c.Errors = append([]string(nil), c.Errors...)
		calls[name] = c
	}
	ops := make(map[string]OperationMetrics, len(m.Operations))
	for name, op := range m.Operations {
		ops[name] = op
	}
	return calls, ops
}

// LogSummary logs the run totals and the per-URL and per-operation breakdown at debug level
func (m *Metrics) LogSummary() {
	total, success, failures := m.Snapshot()
	calls, ops := m.Breakdown()
	if total == 0 && len(ops) == 0 {
		return
	}
	m.mu.RLock()
	duration := m.Duration
	m.mu.RUnlock()

	LogDebug("Run complete", map[string]interface{}{
		"metrics": map[string]interface{}{
			"api_calls": total,
			"success":   success,
			"failures":  failures,
			"duration":  duration,
		},
	})
	for url, c := range calls {
		LogDebug("API call summary", map[string]interface{}{
			"url":          url,
			"count":        c.Count,
			"success_rate": c.SuccessRate,
			"errors":       c.Errors,
		})
	}
	for name, op := range ops {
		fields := map[string]interface{}{
			"operation":       name,
			"duration_ms":     op.Duration.Milliseconds(),
			"success":         op.Success,
			"items_processed": op.ItemsProcessed,
			"items_found":     op.ItemsFound,
		}
		if op.Error != "" {
			fields["error"] = op.Error
		}
		LogDebug("Operation summary", fields)
	}
}
