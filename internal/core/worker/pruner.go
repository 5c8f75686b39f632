package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/paydash/internal/infra/storage"
)

// Pruner keeps the failure journal at a bounded size.
type Pruner struct {
	repo     storage.FailureRepository
	retain   int
	interval time.Duration
}

// NewPruner creates a pruner keeping the newest retain entries. A
// non-positive retain disables pruning.
func NewPruner(repo storage.FailureRepository, retain int, interval time.Duration) *Pruner {
	interval = max(interval, time.Minute)
	return &Pruner{
		repo:     repo,
		retain:   retain,
		interval: interval,
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retain <= 0 {
		return // Retention disabled
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	n, err := p.repo.Prune(ctx, p.retain)
	if err != nil {
		slog.Error("Failed to prune failure journal", "error", err)
		return
	}
	if n > 0 {
		slog.Debug("Pruned failure journal", "removed", n, "retain", p.retain)
	}
}
