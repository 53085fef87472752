package leaselock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/opencog/question2atomese/pkg/logger"
)

var (
	ErrBusy = errors.New("lease held by another owner")
	ErrLost = errors.New("lease expired before release")
)

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Locker hands out expiring leases stored in the translation_locks table.
// A lease is renewed in the background until it is released; when renewal
// fails the lease context is cancelled with ErrLost.
type Locker struct {
	db dbConn
}

type Options struct {
	TTL          time.Duration
	RenewEvery   time.Duration
	Wait         bool
	PollInterval time.Duration
}

func (o *Options) normalize() {
	if o.TTL <= 0 {
		o.TTL = 5 * time.Minute
	}
	if o.RenewEvery <= 0 || o.RenewEvery >= o.TTL {
		o.RenewEvery = max(o.TTL/2, time.Second)
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
}

type Lease struct {
	Key     string
	Owner   string
	Context context.Context

	locker  *Locker
	cancel  context.CancelCauseFunc
	release sync.Once
	done    chan struct{}
}

func New(db dbConn) *Locker {
	return &Locker{db: db}
}

// Do runs fn while holding the lease for key.
func (l *Locker) Do(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := l.Acquire(ctx, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := lease.Release(context.Background()); err != nil {
			logger.Warn("[Lease] Failed to release lease", "key", key, "err", err)
		}
	}()
	if err := fn(lease.Context); err != nil {
		return err
	}
	if cause := context.Cause(lease.Context); errors.Is(cause, ErrLost) {
		return ErrLost
	}
	return nil
}

func (l *Locker) Acquire(ctx context.Context, key string, opts Options) (*Lease, error) {
	if key == "" {
		return nil, errors.New("lease key is empty")
	}
	opts.normalize()

	owner, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lease owner: %w", err)
	}

	for {
		ok, err := l.try(ctx, key, owner, opts.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lease %s: %w", key, err)
		}
		if ok {
			break
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		logger.Debug("[Lease] Waiting for lease", "key", key)
		if err := sleep(ctx, opts.PollInterval); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	lease := &Lease{
		Key:     key,
		Owner:   owner,
		Context: leaseCtx,
		locker:  l,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go lease.keepAlive(opts)
	return lease, nil
}

func (l *Locker) try(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	var got string
	err := l.db.QueryRow(ctx, acquireSQL, key, owner, ttl.Milliseconds()).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return got == key, nil
}

// Release stops renewal and deletes the lease row. It is safe to call more
// than once.
func (l *Lease) Release(ctx context.Context) error {
	l.release.Do(func() {
		close(l.done)
		l.cancel(context.Canceled)
	})
	_, err := l.locker.db.Exec(ctx, releaseSQL, l.Key, l.Owner)
	return err
}

func (l *Lease) keepAlive(opts Options) {
	ticker := time.NewTicker(opts.RenewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-l.Context.Done():
			return
		case <-ticker.C:
			if err := l.renew(opts.TTL); err != nil {
				logger.Error("[Lease] Lost lease", "key", l.Key, "err", err)
				l.cancel(ErrLost)
				return
			}
		}
	}
}

func (l *Lease) renew(ttl time.Duration) error {
	var lastErr error
	for range 3 {
		ctx, cancel := context.WithTimeout(l.Context, 10*time.Second)
		var got string
		err := l.locker.db.QueryRow(ctx, renewSQL, l.Key, l.Owner, ttl.Milliseconds()).Scan(&got)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLost
		}
		lastErr = err
		if err := sleep(l.Context, 200*time.Millisecond); err != nil {
			return err
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const acquireSQL = `
INSERT INTO translation_locks (lock_key, owner, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET owner      = EXCLUDED.owner,
    expires_at = EXCLUDED.expires_at
WHERE translation_locks.expires_at < now()
   OR translation_locks.owner = EXCLUDED.owner
RETURNING lock_key;
`

const renewSQL = `
UPDATE translation_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND owner = $2
RETURNING lock_key;
`

const releaseSQL = `
DELETE FROM translation_locks
WHERE lock_key = $1 AND owner = $2;
`
