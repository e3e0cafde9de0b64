// Package redis provides a Redis-backed lease locker for deployments where
// several front-desk processes do not share one SQLite file.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

var _ domain.Locker = (*Locker)(nil)

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = goredis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Locker implements domain.Locker with SET NX PX leases.
type Locker struct {
	client *goredis.Client
	prefix string
}

// NewLocker creates a locker; every key is stored under prefix.
func NewLocker(client *goredis.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (domain.Lease, error) {
	lease := domain.Lease{Key: key, Token: uuid.NewString(), ExpiresAt: time.Now().Add(ttl)}

	ok, err := l.client.SetNX(ctx, l.prefix+key, lease.Token, ttl).Result()
	if err != nil {
		return domain.Lease{}, fmt.Errorf("acquiring lock %s: %w", key, err)
	}
	if !ok {
		return domain.Lease{}, &domain.LockHeldError{Key: key}
	}
	return lease, nil
}

func (l *Locker) Release(ctx context.Context, lease domain.Lease) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.prefix + lease.Key}, lease.Token).Err(); err != nil {
		return fmt.Errorf("releasing lock %s: %w", lease.Key, err)
	}
	return nil
}

// NewClient connects to addr and pings it.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}
