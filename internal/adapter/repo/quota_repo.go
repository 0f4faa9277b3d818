package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"server/internal/domain"
)

const (
	txMaxAttempts = 3
	txBackoffBase = 50 * time.Millisecond
)

// QuotaRepositoryPG implements domain.QuotaStore backed by PostgreSQL.
//
// WithTx locks the user row with SELECT ... FOR UPDATE so check/increment
// calls for the same user are linearized across service instances, and
// retries with backoff on serialization failures and deadlocks before
// surfacing the error to the gate.
type QuotaRepositoryPG struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewQuotaRepository creates a new QuotaRepositoryPG.
func NewQuotaRepository(pool *pgxpool.Pool, logger zerolog.Logger) *QuotaRepositoryPG {
	return &QuotaRepositoryPG{pool: pool, logger: logger}
}

func (r *QuotaRepositoryPG) WithTx(ctx context.Context, fn func(ctx context.Context, tx domain.QuotaTxn) error) error {
	var lastErr error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		lastErr = r.runOnce(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if !retryableTxError(lastErr) || ctx.Err() != nil {
			return lastErr
		}
		r.logger.Warn().Err(lastErr).Int("attempt", attempt).Msg("quota tx contention, retrying")
		select {
		case <-time.After(txBackoffBase * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (r *QuotaRepositoryPG) runOnce(ctx context.Context, fn func(ctx context.Context, tx domain.QuotaTxn) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(ctx, &quotaTxn{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Snapshot reads the record without a transaction or any window logic.
func (r *QuotaRepositoryPG) Snapshot(ctx context.Context, userID string) (*domain.UserQuota, error) {
	row := r.pool.QueryRow(ctx, `
SELECT user_id, email, plan, max_daily_generations, daily_generations,
       COALESCE(first_generation_date, ''), COALESCE(last_generation_date, ''), COALESCE(plan_expiry, '')
FROM users
WHERE user_id = $1
`, userID)
	return scanQuota(row)
}

// BackfillWindowAnchor fills first_generation_date from last_generation_date
// (or the fallback timestamp) for records missing it. Idempotent: migrated
// records no longer match the predicate.
func (r *QuotaRepositoryPG) BackfillWindowAnchor(ctx context.Context, fallback string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET first_generation_date = COALESCE(NULLIF(last_generation_date, ''), $1)
WHERE first_generation_date IS NULL OR first_generation_date = ''
`, fallback)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type quotaTxn struct {
	tx pgx.Tx
}

func (q *quotaTxn) Get(ctx context.Context, userID string) (*domain.UserQuota, error) {
	row := q.tx.QueryRow(ctx, `
SELECT user_id, email, plan, max_daily_generations, daily_generations,
       COALESCE(first_generation_date, ''), COALESCE(last_generation_date, ''), COALESCE(plan_expiry, '')
FROM users
WHERE user_id = $1
FOR UPDATE
`, userID)
	return scanQuota(row)
}

func (q *quotaTxn) Insert(ctx context.Context, rec *domain.UserQuota) error {
	_, err := q.tx.Exec(ctx, `
INSERT INTO users (user_id, email, plan, max_daily_generations, daily_generations,
                   first_generation_date, last_generation_date, plan_expiry)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
`,
		rec.UserID, rec.Email, rec.Plan, rec.MaxDailyGenerations, rec.DailyGenerations,
		rec.FirstGenerationDate, rec.LastGenerationDate, rec.PlanExpiry)
	return err
}

func (q *quotaTxn) Update(ctx context.Context, rec *domain.UserQuota) error {
	_, err := q.tx.Exec(ctx, `
UPDATE users
SET email = $2,
    plan = $3,
    max_daily_generations = $4,
    daily_generations = $5,
    first_generation_date = $6,
    last_generation_date = $7,
    plan_expiry = NULLIF($8, '')
WHERE user_id = $1
`,
		rec.UserID, rec.Email, rec.Plan, rec.MaxDailyGenerations, rec.DailyGenerations,
		rec.FirstGenerationDate, rec.LastGenerationDate, rec.PlanExpiry)
	return err
}

func scanQuota(row pgx.Row) (*domain.UserQuota, error) {
	var u domain.UserQuota
	if err := row.Scan(&u.UserID, &u.Email, &u.Plan, &u.MaxDailyGenerations, &u.DailyGenerations,
		&u.FirstGenerationDate, &u.LastGenerationDate, &u.PlanExpiry); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

var _ domain.QuotaStore = (*QuotaRepositoryPG)(nil)
