package worker

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/infra/storage/memory"
)

func TestPruner_KeepsNewest(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewFailureRepo()
	base := time.Now()
	for i := 0; i < 5; i++ {
		_ = repo.Add(ctx, &domain.FailedRequest{
			ID:         string(rune('a' + i)),
			Class:      domain.ClassServerError,
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	NewPruner(repo, 3, time.Minute).prune(ctx)

	left, _ := repo.Recent(ctx, 0)
	if len(left) != 3 || left[0].ID != "e" {
		t.Errorf("unexpected journal after prune: %d entries", len(left))
	}
}

func TestPruner_DisabledReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewPruner(memory.NewFailureRepo(), 0, time.Minute).Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled pruner should return")
	}
}
