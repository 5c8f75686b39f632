package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/infra/storage"
)

// FailureRepo implements storage.FailureRepository using PostgreSQL.
type FailureRepo struct {
	db *DB
}

// NewFailureRepo creates a new PostgreSQL failure journal.
func NewFailureRepo(db *DB) *FailureRepo {
	return &FailureRepo{db: db}
}

var _ storage.FailureRepository = (*FailureRepo)(nil)

type failureRow struct {
	ID               string         `db:"id"`
	RequestID        string         `db:"request_id"`
	Method           string         `db:"method"`
	URL              string         `db:"url"`
	Class            string         `db:"class"`
	StatusCode       int            `db:"status_code"`
	Message          string         `db:"message"`
	ValidationFields pq.StringArray `db:"validation_fields"`
	Attempts         int            `db:"attempts"`
	OccurredAt       time.Time      `db:"occurred_at"`
}

func (r failureRow) toDomain() *domain.FailedRequest {
	return &domain.FailedRequest{
		ID:               r.ID,
		RequestID:        r.RequestID,
		Method:           r.Method,
		URL:              r.URL,
		Class:            domain.StatusClass(r.Class),
		StatusCode:       r.StatusCode,
		Message:          r.Message,
		ValidationFields: []string(r.ValidationFields),
		Attempts:         r.Attempts,
		OccurredAt:       r.OccurredAt,
	}
}

const failureColumns = `id, request_id, method, url, class, status_code, message, validation_fields, attempts, occurred_at`

// Add records a failure.
func (r *FailureRepo) Add(ctx context.Context, fr *domain.FailedRequest) error {
	query := `
		INSERT INTO request_failures (` + failureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	fields := fr.ValidationFields
	if fields == nil {
		fields = []string{}
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		fr.ID,
		fr.RequestID,
		fr.Method,
		fr.URL,
		string(fr.Class),
		fr.StatusCode,
		fr.Message,
		pq.Array(fields),
		fr.Attempts,
		fr.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add request failure: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID.
func (r *FailureRepo) Get(ctx context.Context, id string) (*domain.FailedRequest, error) {
	query := `SELECT ` + failureColumns + ` FROM request_failures WHERE id = $1`

	var row failureRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request failure: %w", err)
	}
	return row.toDomain(), nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (r *FailureRepo) Recent(ctx context.Context, limit int) ([]*domain.FailedRequest, error) {
	query := `SELECT ` + failureColumns + ` FROM request_failures ORDER BY occurred_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []failureRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list request failures: %w", err)
	}

	out := make([]*domain.FailedRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// CountByClass returns the number of entries per class.
func (r *FailureRepo) CountByClass(ctx context.Context) (map[domain.StatusClass]int, error) {
	query := `
		SELECT class, COUNT(*) AS total
		FROM request_failures
		GROUP BY class
	`
	var rows []struct {
		Class string `db:"class"`
		Total int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count request failures: %w", err)
	}

	counts := make(map[domain.StatusClass]int, len(rows))
	for _, row := range rows {
		counts[domain.StatusClass(row.Class)] = row.Total
	}
	return counts, nil
}

// Prune deletes everything but the newest keep entries.
func (r *FailureRepo) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, nil
	}
	query := `
		DELETE FROM request_failures
		WHERE id NOT IN (
			SELECT id FROM request_failures ORDER BY occurred_at DESC LIMIT $1
		)
	`
	res, err := r.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune request failures: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
