package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// Compile-time check: Locker implements domain.Locker.
var _ domain.Locker = (*Locker)(nil)

// Locker is a lease-based advisory lock stored in the advisory_locks table.
// Every process sharing the database file sees the same leases.
type Locker struct {
	db  *sql.DB
	now func() time.Time
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithLockClock overrides the clock used to stamp and expire leases.
func WithLockClock(now func() time.Time) LockerOption {
	return func(l *Locker) { l.now = now }
}

// NewLocker creates a locker over db.
func NewLocker(db *sql.DB, opts ...LockerOption) *Locker {
	l := &Locker{db: db, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire takes the lease if the key is free or its lease has expired.
// The upsert only overwrites an expired row, so one statement decides the winner.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (domain.Lease, error) {
	now := l.now()
	lease := domain.Lease{Key: key, Token: uuid.NewString(), ExpiresAt: now.Add(ttl)}

	result, err := l.db.ExecContext(ctx,
		`INSERT INTO advisory_locks (key, token, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at
		 WHERE advisory_locks.expires_at <= ?`,
		key, lease.Token, lease.ExpiresAt.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return domain.Lease{}, fmt.Errorf("acquiring lock %s: %w", key, err)
	}

	n, err := checkAffected(result)
	if err != nil {
		return domain.Lease{}, err
	}
	if n == 0 {
		return domain.Lease{}, &domain.LockHeldError{Key: key}
	}
	return lease, nil
}

// Release deletes the lease only while it still carries the caller's token.
func (l *Locker) Release(ctx context.Context, lease domain.Lease) error {
	if lease.Token == "" {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM advisory_locks WHERE key = ? AND token = ?`, lease.Key, lease.Token,
	)
	if err != nil {
		return fmt.Errorf("releasing lock %s: %w", lease.Key, err)
	}
	return nil
}
