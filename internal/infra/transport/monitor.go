package transport

import (
	"net/http"
	"sync"
	"time"
)

// Status summarises recent transport behaviour.
type Status int

const (
	StatusHealthy     Status = iota // Backend answering normally
	StatusDegraded                  // Slow responses or recent 5xx
	StatusThrottled                 // Recently rate limited
	StatusUnreachable               // Recent connectivity failures without a response since
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusUnreachable:
		return "unreachable"
	}
	return "unknown"
}

// MonitorStats holds monitoring statistics.
type MonitorStats struct {
	Status            string        `json:"status"`
	AverageLatency    time.Duration `json:"average_latency"`
	Responses         int           `json:"responses"`
	RateLimited       int           `json:"rate_limited"`
	ServerErrors      int           `json:"server_errors"`
	NetworkFailures   int           `json:"network_failures"`
	LastResponseAt    time.Time     `json:"last_response_at"`
	LastNetworkFailAt time.Time     `json:"last_network_failure_at"`
}

// Monitor tracks attempt outcomes.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	responses       int
	status429Count  int
	status5xxCount  int
	networkFailures int
	lastResponse    time.Time
	lastThrottle    time.Time
	lastServerError time.Time
	lastNetworkFail time.Time

	slowResponseThreshold time.Duration
	recentWindow          time.Duration
}

// NewMonitor creates a monitor with default thresholds.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:       make([]time.Duration, 0, 100),
		maxLatencyWindow:      100,
		slowResponseThreshold: 3 * time.Second,
		recentWindow:          time.Minute,
	}
}

// RecordResponse records any received response.
func (m *Monitor) RecordResponse(statusCode int, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.responses++
	m.lastResponse = now

	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		m.status429Count++
		m.lastThrottle = now
	case statusCode >= 500:
		m.status5xxCount++
		m.lastServerError = now
	}
}

// RecordNetworkFailure records an attempt that got no response.
func (m *Monitor) RecordNetworkFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.networkFailures++
	m.lastNetworkFail = time.Now()
}

// CheckStatus derives the current status from recent events.
func (m *Monitor) CheckStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status(time.Now())
}

func (m *Monitor) status(now time.Time) Status {
	if !m.lastNetworkFail.IsZero() && m.lastNetworkFail.After(m.lastResponse) &&
		now.Sub(m.lastNetworkFail) < m.recentWindow {
		return StatusUnreachable
	}
	if !m.lastThrottle.IsZero() && now.Sub(m.lastThrottle) < m.recentWindow {
		return StatusThrottled
	}
	if !m.lastServerError.IsZero() && now.Sub(m.lastServerError) < m.recentWindow {
		return StatusDegraded
	}
	if len(m.recentLatencies) > 10 && m.averageLatency() > m.slowResponseThreshold {
		return StatusDegraded
	}
	return StatusHealthy
}

func (m *Monitor) averageLatency() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// GetStats returns current monitoring statistics.
func (m *Monitor) GetStats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MonitorStats{
		Status:            m.status(time.Now()).String(),
		AverageLatency:    m.averageLatency(),
		Responses:         m.responses,
		RateLimited:       m.status429Count,
		ServerErrors:      m.status5xxCount,
		NetworkFailures:   m.networkFailures,
		LastResponseAt:    m.lastResponse,
		LastNetworkFailAt: m.lastNetworkFail,
	}
}
