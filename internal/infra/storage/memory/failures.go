package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/infra/storage"
)

// FailureRepo keeps the journal in process memory.
type FailureRepo struct {
	mu      sync.RWMutex
	entries []*domain.FailedRequest
	byID    map[string]*domain.FailedRequest
}

func NewFailureRepo() *FailureRepo {
	return &FailureRepo{byID: make(map[string]*domain.FailedRequest)}
}

var _ storage.FailureRepository = (*FailureRepo)(nil)

func (r *FailureRepo) Add(ctx context.Context, fr *domain.FailedRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := clone(fr)
	r.entries = append(r.entries, cp)
	r.byID[cp.ID] = cp
	return nil
}

func (r *FailureRepo) Get(ctx context.Context, id string) (*domain.FailedRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fr, ok := r.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(fr), nil
}

func (r *FailureRepo) Recent(ctx context.Context, limit int) ([]*domain.FailedRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := make([]*domain.FailedRequest, len(r.entries))
	copy(sorted, r.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.After(sorted[j].OccurredAt)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]*domain.FailedRequest, 0, len(sorted))
	for _, fr := range sorted {
		out = append(out, clone(fr))
	}
	return out, nil
}

func (r *FailureRepo) CountByClass(ctx context.Context) (map[domain.StatusClass]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.StatusClass]int)
	for _, fr := range r.entries {
		counts[fr.Class]++
	}
	return counts, nil
}

func (r *FailureRepo) Prune(ctx context.Context, keep int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if keep < 0 || len(r.entries) <= keep {
		return 0, nil
	}

	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].OccurredAt.After(r.entries[j].OccurredAt)
	})
	removed := r.entries[keep:]
	for _, fr := range removed {
		delete(r.byID, fr.ID)
	}
	r.entries = r.entries[:keep:keep]
	return len(removed), nil
}

func clone(fr *domain.FailedRequest) *domain.FailedRequest {
	cp := *fr
	cp.ValidationFields = append([]string(nil), fr.ValidationFields...)
	return &cp
}
