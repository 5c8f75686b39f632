package storage

import (
	"context"
	"errors"

	"github.com/vietddude/paydash/internal/core/domain"
)

var (
	// ErrNotFound is returned when a journal entry doesn't exist
	ErrNotFound = errors.New("failed request not found")
)

// FailureRepository is the journal of logical requests that ended in a
// classified failure.
type FailureRepository interface {
	// Add records a failure
	Add(ctx context.Context, fr *domain.FailedRequest) error

	// Get retrieves an entry by ID
	Get(ctx context.Context, id string) (*domain.FailedRequest, error)

	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]*domain.FailedRequest, error)

	// CountByClass returns the number of entries per status class
	CountByClass(ctx context.Context) (map[domain.StatusClass]int, error)

	// Prune deletes entries beyond the newest keep
	Prune(ctx context.Context, keep int) (int, error)
}
