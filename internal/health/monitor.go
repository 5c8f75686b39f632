package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/paydash/internal/core/activity"
	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/infra/session"
	"github.com/vietddude/paydash/internal/infra/storage"
	"github.com/vietddude/paydash/internal/infra/transport"
)

// Monitor aggregates health status from the client's components. Any of
// them may be nil.
type Monitor struct {
	activity  *activity.Counter
	tokens    session.Store
	transport *transport.Monitor
	failures  storage.FailureRepository
	prober    *Prober

	cacheFor     time.Duration
	lastCheck    time.Time
	lastFailures map[domain.StatusClass]int
	mu           sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(
	counter *activity.Counter,
	tokens session.Store,
	tm *transport.Monitor,
	failures storage.FailureRepository,
	prober *Prober,
) *Monitor {
	return &Monitor{
		activity:  counter,
		tokens:    tokens,
		transport: tm,
		failures:  failures,
		prober:    prober,
		cacheFor:  10 * time.Second,
	}
}

// CheckHealth builds a report. Journal counts are cached for a few seconds
// so frequent polling does not hit the database.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	report := Report{Status: StatusHealthy}

	if m.activity != nil {
		report.InFlight = m.activity.Count()
		report.Busy = report.InFlight > 0
	}
	if m.tokens != nil {
		report.Authenticated = m.tokens.AccessToken() != ""
	}
	if m.transport != nil {
		report.Transport = m.transport.GetStats()
	}
	if m.prober != nil {
		if last, ok := m.prober.Last(); ok {
			report.Probe = &last
		}
	}
	report.Failures = m.failureCounts(ctx)

	report.Status = evaluate(report)
	return report
}

func evaluate(r Report) SystemStatus {
	if r.Probe != nil && !r.Probe.OK {
		return StatusCritical
	}
	switch r.Transport.Status {
	case transport.StatusUnreachable.String():
		return StatusCritical
	case transport.StatusThrottled.String(), transport.StatusDegraded.String():
		return StatusDegraded
	}
	return StatusHealthy
}

func (m *Monitor) failureCounts(ctx context.Context) map[domain.StatusClass]int {
	out := make(map[domain.StatusClass]int)
	if m.failures == nil {
		return out
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastFailures == nil || time.Since(m.lastCheck) >= m.cacheFor {
		counts, err := m.failures.CountByClass(ctx)
		if err != nil {
			slog.Warn("Failed to count request failures", "error", err)
			return out
		}
		m.lastFailures = counts
		m.lastCheck = time.Now()
	}

	for k, v := range m.lastFailures {
		out[k] = v
	}
	return out
}
