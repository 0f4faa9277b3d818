package domain

import "context"

// QuotaTxn exposes the per-user quota record inside one store transaction.
// Get returns ErrNotFound when the user has no record yet.
type QuotaTxn interface {
	Get(ctx context.Context, userID string) (*UserQuota, error)
	Insert(ctx context.Context, rec *UserQuota) error
	Update(ctx context.Context, rec *UserQuota) error
}

// QuotaStore persists per-user quota records.
//
// WithTx runs fn within a transaction that linearizes concurrent
// check/increment calls for the same user across service instances; the
// implementation retries a bounded number of times on contention before
// surfacing the failure. Snapshot is a plain read with no transactional or
// window recomputation, used for the degraded check path and read-only
// endpoints. BackfillWindowAnchor is the one-shot migration that fills a
// missing first_generation_date from last_generation_date (or the given
// fallback) and reports how many records changed; a second run is a no-op.
type QuotaStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx QuotaTxn) error) error
	Snapshot(ctx context.Context, userID string) (*UserQuota, error)
	BackfillWindowAnchor(ctx context.Context, fallback string) (int64, error)
}
