package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vietddude/paydash/internal/api"
	"github.com/vietddude/paydash/internal/metrics"
)

// Prober polls a backend path through the API client so health reflects
// whether the backend answers.
type Prober struct {
	fetcher  *api.Fetcher
	interval time.Duration

	mu      sync.RWMutex
	last    ProbeResult
	checked bool
	started time.Time
	runCtx  context.Context
}

// NewProber creates a prober for path.
func NewProber(client api.Requester, path string, interval time.Duration) *Prober {
	p := &Prober{interval: interval}
	p.fetcher = api.NewFetcher(client, http.MethodGet, path, api.FetchOptions{
		OnSuccess: func(*api.Response) { p.record(nil) },
		OnError:   p.record,
	})
	return p
}

// Run probes immediately and then on every tick until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	defer p.fetcher.Unmount()

	p.mu.Lock()
	p.runCtx = ctx
	p.mu.Unlock()

	p.begin()
	_, _ = p.fetcher.Mount(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.begin()
			_, _ = p.fetcher.Refetch(ctx)
		}
	}
}

// Last returns the latest result. ok is false until the first probe ends.
func (p *Prober) Last() (ProbeResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.checked
}

func (p *Prober) begin() {
	p.mu.Lock()
	p.started = time.Now()
	p.mu.Unlock()
}

func (p *Prober) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A probe cut short by shutdown says nothing about the backend.
	if err != nil && p.runCtx != nil && p.runCtx.Err() != nil {
		return
	}

	now := time.Now()
	p.last = ProbeResult{
		OK:        err == nil,
		CheckedAt: now,
		Latency:   now.Sub(p.started).String(),
	}
	p.checked = true

	if err != nil {
		p.last.Error = api.UserMessage(err)
		metrics.BackendUp.Set(0)
		slog.Warn("Backend probe failed", "error", err)
		return
	}
	metrics.BackendUp.Set(1)
}
