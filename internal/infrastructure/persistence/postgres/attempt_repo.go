package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	apperrors "github.com/wavecard/guard/pkg/errors"
)

// AttemptRepo implements repository.RateLimitAttemptRepository on pgx. The
// attempt log sees one write per evaluated request, so it bypasses GORM.
type AttemptRepo struct {
	pool *pgxpool.Pool
}

// NewAttemptRepo creates the attempt log repository.
func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

// Record appends one attempt record.
func (r *AttemptRepo) Record(ctx context.Context, attempt *models.RateLimitAttempt) error {
	const query = `
		INSERT INTO rate_limit_attempts (key, ip_address, user_id, endpoint, method, blocked, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)`

	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, query,
		attempt.Key,
		attempt.IPAddress,
		attempt.UserID,
		attempt.Endpoint,
		attempt.Method,
		attempt.Blocked,
		createdAt,
	)
	if err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

// CountInWindow counts attempts for a key newer than the given time.
func (r *AttemptRepo) CountInWindow(ctx context.Context, key string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM rate_limit_attempts WHERE key = $1 AND created_at > $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, key, since).Scan(&count); err != nil {
		return 0, apperrors.ErrDatabaseOperation(err)
	}
	return count, nil
}

// DeleteOlderThan garbage-collects attempts past the retention period.
func (r *AttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM rate_limit_attempts WHERE created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.ErrDatabaseOperation(err)
	}
	return tag.RowsAffected(), nil
}

var _ repository.RateLimitAttemptRepository = (*AttemptRepo)(nil)
