// Package health reports the state of the API client and serves it over
// HTTP next to the Prometheus metrics.
package health

import (
	"time"

	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/infra/transport"
)

// SystemStatus represents the overall health state.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ProbeResult is the outcome of the latest backend probe.
type ProbeResult struct {
	OK        bool      `json:"ok"`
	CheckedAt time.Time `json:"checked_at"`
	Latency   string    `json:"latency,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Report contains the full health report.
type Report struct {
	Status        SystemStatus               `json:"status"`
	Busy          bool                       `json:"busy"`
	InFlight      int                        `json:"in_flight"`
	Authenticated bool                       `json:"authenticated"`
	Transport     transport.MonitorStats     `json:"transport"`
	Probe         *ProbeResult               `json:"probe,omitempty"`
	Failures      map[domain.StatusClass]int `json:"failures"`
}
